package game

// Tracer measures how long named simulation sections take. Measure starts a
// measurement and returns the function that stops it.
type Tracer interface {
	Measure(section string) func()
}

// NopTracer discards all measurements.
type NopTracer struct{}

func (NopTracer) Measure(string) func() { return func() {} }
