package subsystems

import (
	"fmt"

	"github.com/vk/axisem/internal/config"
)

// EarthRadius is the default outer radius in metres.
const EarthRadius = 6371e3

// Exodus is the 1-D background model.
type Exodus struct {
	RadiusOuter float64
	Attenuation bool
}

// AttParams are the attenuation settings carried by the background model.
type AttParams struct {
	SLSNumber int
	FreqMin   float64
	FreqMax   float64
}

// BuildExodus reads the background model. The attenuation parameters are
// nil when attenuation is off.
func BuildExodus(params *config.Parameters) (*Exodus, *AttParams, error) {
	radius, err := params.FloatOr("MODEL_RADIUS_OUTER", EarthRadius)
	if err != nil {
		return nil, nil, err
	}
	if radius <= 0 {
		return nil, nil, &config.KeyError{Key: "MODEL_RADIUS_OUTER", Err: fmt.Errorf("%w: radius %g must be positive", config.ErrInvalidValue, radius)}
	}
	att, err := params.BoolOr("MODEL_ATTENUATION", false)
	if err != nil {
		return nil, nil, err
	}
	ex := &Exodus{RadiusOuter: radius, Attenuation: att}
	if !att {
		return ex, nil, nil
	}

	var ap AttParams
	if ap.SLSNumber, err = params.IntOr("ATTENUATION_SLS_NUMBER", 5); err != nil {
		return nil, nil, err
	}
	if ap.FreqMin, err = params.FloatOr("ATTENUATION_FREQ_MIN", 0.001); err != nil {
		return nil, nil, err
	}
	if ap.FreqMax, err = params.FloatOr("ATTENUATION_FREQ_MAX", 1.0); err != nil {
		return nil, nil, err
	}
	if ap.SLSNumber < 1 || ap.FreqMin <= 0 || ap.FreqMax < ap.FreqMin {
		return nil, nil, fmt.Errorf("%w: attenuation needs at least one SLS and 0 < freq min <= freq max", config.ErrInvalidValue)
	}
	return ex, &ap, nil
}

// Verbose returns a summary.
func (e *Exodus) Verbose() string {
	return fmt.Sprintf("Exodus model: outer radius %.1f km, attenuation %t\n", e.RadiusOuter/1e3, e.Attenuation)
}
