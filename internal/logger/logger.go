// Package logger builds the logrus loggers used across the program and a
// tracer that reports simulation section timings through them.
package logger

import (
	"io"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// New creates a logger. Unknown levels fall back to info; format "json"
// selects the JSON formatter, anything else the text formatter.
func New(level, format string, out io.Writer) *logrus.Logger {
	log := logrus.New()

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	log.SetLevel(lvl)

	if strings.ToLower(format) == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	log.SetOutput(out)
	return log
}

// Discard returns a logger that drops everything.
func Discard() *logrus.Logger {
	return New("panic", "text", io.Discard)
}

type section struct {
	total time.Duration
	count int
	max   time.Duration
}

// SectionTracer accumulates how long named sections of the simulation take
// and logs the averages at debug level every Window measurements of the
// sim.update section.
type SectionTracer struct {
	Window int

	log      logrus.FieldLogger
	now      func() time.Time
	mu       sync.Mutex
	sections map[string]*section
	frames   int
}

// NewSectionTracer creates a tracer reporting every window frames.
func NewSectionTracer(log logrus.FieldLogger, window int) *SectionTracer {
	if window <= 0 {
		window = 100
	}
	return &SectionTracer{
		Window:   window,
		log:      log.WithField("component", "trace"),
		now:      time.Now,
		sections: make(map[string]*section),
	}
}

// Measure starts timing a section and returns the function that stops it.
func (t *SectionTracer) Measure(name string) func() {
	start := t.now()
	return func() {
		t.record(name, t.now().Sub(start))
	}
}

func (t *SectionTracer) record(name string, d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.sections[name]
	if !ok {
		s = &section{}
		t.sections[name] = s
	}
	s.total += d
	s.count++
	if d > s.max {
		s.max = d
	}

	if name != "sim.update" {
		return
	}
	t.frames++
	if t.frames < t.Window {
		return
	}
	t.flushLocked()
}

func (t *SectionTracer) flushLocked() {
	fields := logrus.Fields{"frames": t.frames}
	for name, s := range t.sections {
		fields[name+".avg"] = (s.total / time.Duration(s.count)).String()
		fields[name+".max"] = s.max.String()
	}
	t.log.WithFields(fields).Debug("section timings")
	t.sections = make(map[string]*section)
	t.frames = 0
}

// Averages returns the current average duration per section.
func (t *SectionTracer) Averages() map[string]time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[string]time.Duration, len(t.sections))
	for name, s := range t.sections {
		out[name] = s.total / time.Duration(s.count)
	}
	return out
}
