package subsystems

import (
	"fmt"
	"math"
)

// AttBuilder holds the per-step relaxation factors of the standard linear
// solids used for attenuation.
type AttBuilder struct {
	DeltaT  float64
	Freqs   []float64
	Factors []float64
}

// BuildAttenuation derives the relaxation factors for time step dt. With
// nil parameters attenuation is off and the builder is empty.
func BuildAttenuation(att *AttParams, dt float64) (*AttBuilder, error) {
	if !(dt > 0) {
		return nil, fmt.Errorf("attenuation: time step %g must be positive", dt)
	}
	b := &AttBuilder{DeltaT: dt}
	if att == nil {
		return b, nil
	}
	n := att.SLSNumber
	b.Freqs = make([]float64, n)
	b.Factors = make([]float64, n)
	lmin, lmax := math.Log(att.FreqMin), math.Log(att.FreqMax)
	for i := range n {
		f := att.FreqMin
		if n > 1 {
			f = math.Exp(lmin + (lmax-lmin)*float64(i)/float64(n-1))
		}
		tau := 1 / (2 * math.Pi * f)
		b.Freqs[i] = f
		b.Factors[i] = math.Exp(-dt / tau)
	}
	return b, nil
}

// Enabled reports whether any solid is configured.
func (b *AttBuilder) Enabled() bool {
	return len(b.Factors) > 0
}

// Decay returns the amplitude loss per step applied by the ring kernel.
func (b *AttBuilder) Decay() float64 {
	if !b.Enabled() {
		return 0
	}
	var sum float64
	for _, f := range b.Factors {
		sum += 1 - f
	}
	return sum / float64(len(b.Factors)) * 1e-2
}

// Verbose returns a summary.
func (b *AttBuilder) Verbose() string {
	if !b.Enabled() {
		return "Attenuation: off\n"
	}
	return fmt.Sprintf("Attenuation: %d SLS between %g and %g Hz\n", len(b.Freqs), b.Freqs[0], b.Freqs[len(b.Freqs)-1])
}
