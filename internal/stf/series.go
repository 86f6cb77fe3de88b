package stf

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrInvalidShape is returned when the time step or a shape parameter is out
// of its valid range.
var ErrInvalidShape = errors.New("stf: invalid shape parameters")

// TailFactor is the number of half durations sampled before the origin.
const TailFactor = 1.5

// Param is a named shape parameter reported in summaries.
type Param struct {
	Name  string
	Value float64
}

// Sample is one point of an excitation series.
type Sample struct {
	Time      float64
	Amplitude float64
}

// Series is a uniformly sampled excitation time series.
type Series struct {
	// DeltaT is the sampling interval.
	DeltaT float64
	// Shift is the time between the first sample and the origin.
	Shift float64
	// Duration is the total time spanned, DeltaT times the sample count.
	Duration float64
	// Shape names the family, e.g. "Gaussian".
	Shape string
	// Params are the shape parameters in presentation order.
	Params []Param

	values []float64
	before int
}

// sampled builds a series using the shared sizing policy, evaluating shape
// at every sample time.
func sampled(dt, duration, hdur float64, shape string, params []Param, fn func(t float64) float64) *Series {
	before := int(math.Ceil(TailFactor * hdur / dt))
	after := int(math.Ceil(duration / dt))
	shift := float64(before) * dt

	values := make([]float64, before+after+1)
	for i := range values {
		t := -shift + float64(i)*dt
		values[i] = fn(t)
	}
	return &Series{
		DeltaT:   dt,
		Shift:    shift,
		Duration: dt * float64(len(values)),
		Shape:    shape,
		Params:   params,
		values:   values,
		before:   before,
	}
}

func validate(dt, duration, hdur, decay float64) error {
	switch {
	case !(dt > 0):
		return fmt.Errorf("%w: time step %g must be positive", ErrInvalidShape, dt)
	case !(hdur > 0):
		return fmt.Errorf("%w: half duration %g must be positive", ErrInvalidShape, hdur)
	case !(decay > 0):
		return fmt.Errorf("%w: decay factor %g must be positive", ErrInvalidShape, decay)
	case !(duration >= 0):
		return fmt.Errorf("%w: duration %g must not be negative", ErrInvalidShape, duration)
	}
	return nil
}

// Len returns the number of samples.
func (s *Series) Len() int {
	return len(s.values)
}

// Origin returns the index of the sample at t = 0.
func (s *Series) Origin() int {
	return s.before
}

// Time returns the time of sample i.
func (s *Series) Time(i int) float64 {
	return -s.Shift + float64(i)*s.DeltaT
}

// Value returns the amplitude of sample i.
func (s *Series) Value(i int) float64 {
	return s.values[i]
}

// Values returns the amplitudes. The slice must not be modified.
func (s *Series) Values() []float64 {
	return s.values
}

// Samples returns the series as (time, amplitude) pairs.
func (s *Series) Samples() []Sample {
	out := make([]Sample, len(s.values))
	for i, v := range s.values {
		out[i] = Sample{Time: s.Time(i), Amplitude: v}
	}
	return out
}

// DurationAfterOrigin returns the time covered after t = 0.
func (s *Series) DurationAfterOrigin() float64 {
	return s.Duration - s.Shift
}

// Verbose returns a human-readable summary of the series.
func (s *Series) Verbose() string {
	var sb strings.Builder
	line := func(name string, value any) {
		fmt.Fprintf(&sb, "  %-24s=   %v\n", name, value)
	}
	sb.WriteString("\n=================== Source Time Function ===================\n")
	line("Time Step", s.DeltaT)
	line("Number of Steps", s.Len())
	line("Total Duration", s.Duration)
	line("Duration after Origin", s.DurationAfterOrigin())
	line("Shift before Origin", s.Shift)
	line("Time Series Type", s.Shape)
	for _, p := range s.Params {
		line(p.Name, p.Value)
	}
	sb.WriteString("=================== Source Time Function ===================\n\n")
	return sb.String()
}
