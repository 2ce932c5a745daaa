package ui

import (
	"fmt"

	"github.com/amalg/go-bombman/internal/game"
)

// EventLog keeps the last few notable things that happened in a round.
type EventLog struct {
	size  int
	lines []string
}

// NewEventLog creates a log holding up to size lines.
func NewEventLog(size int) *EventLog {
	return &EventLog{size: size}
}

// Add appends a line, dropping the oldest when full.
func (l *EventLog) Add(line string) {
	l.lines = append(l.lines, line)
	if len(l.lines) > l.size {
		l.lines = l.lines[len(l.lines)-l.size:]
	}
}

// Lines returns the lines oldest first.
func (l *EventLog) Lines() []string {
	return l.lines
}

// Observe records what changed between two snapshots: deaths, diseases and
// the round announcements carried by sound events.
func (l *EventLog) Observe(prev, next *game.Snapshot) {
	if next == nil {
		return
	}
	if prev != nil && prev.GameNumber == next.GameNumber {
		for _, p := range next.Players {
			old := prev.Player(p.Number)
			if old == nil {
				continue
			}
			if old.State != game.StateDead && p.State == game.StateDead {
				l.Add(fmt.Sprintf("%s died", p.Name))
			}
			if old.Disease == game.DiseaseNone && p.Disease != game.DiseaseNone {
				l.Add(fmt.Sprintf("%s caught %s", p.Name, p.Disease))
			}
			if p.Kills > old.Kills {
				l.Add(fmt.Sprintf("%s scored a kill", p.Name))
			}
		}
	}

	for _, s := range next.Sounds {
		switch s.Kind {
		case game.SoundGo:
			l.Add(fmt.Sprintf("Game %d: GO!", next.GameNumber))
		case game.SoundWin:
			l.Add(fmt.Sprintf("%s won the round", teamName(next, s.Team)))
		case game.SoundGoAway:
			l.Add("Time is up, draw")
		case game.SoundEarthquake:
			l.Add("Earthquake!")
		}
	}
}
