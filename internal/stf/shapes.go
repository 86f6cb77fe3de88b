package stf

import "math"

// DefaultDecay is the decay factor used when none is configured.
const DefaultDecay = 1.628

// Gaussian samples a unit-area bell curve centred at the origin:
//
//	f(t) = exp(-(decay/hdur · t)²) · decay / (hdur · √π)
func Gaussian(dt, duration, hdur, decay float64) (*Series, error) {
	if err := validate(dt, duration, hdur, decay); err != nil {
		return nil, err
	}
	k := decay / hdur
	norm := decay / (hdur * math.Sqrt(math.Pi))
	params := []Param{{"Half Duration", hdur}, {"Decay Factor", decay}}
	return sampled(dt, duration, hdur, "Gaussian", params, func(t float64) float64 {
		return math.Exp(-(k*t)*(k*t)) * norm
	}), nil
}

// Erf samples the running integral of Gaussian, a smooth unit step:
//
//	f(t) = ½·erf(decay/hdur · t) + ½
func Erf(dt, duration, hdur, decay float64) (*Series, error) {
	if err := validate(dt, duration, hdur, decay); err != nil {
		return nil, err
	}
	k := decay / hdur
	params := []Param{{"Half Duration", hdur}, {"Decay Factor", decay}}
	return sampled(dt, duration, hdur, "Error Function", params, func(t float64) float64 {
		return 0.5*math.Erf(k*t) + 0.5
	}), nil
}
