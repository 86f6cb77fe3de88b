package stf

import (
	"fmt"
	"strings"

	"github.com/vk/axisem/internal/config"
	"github.com/vk/axisem/internal/domain"
)

// Parameter keys read by Build.
const (
	KeyType         = "SOURCE_STF_TYPE"
	KeyHalfDuration = "SOURCE_STF_HALF_DURATION"
	KeyDecay        = "SOURCE_STF_DECAY"
	KeyRecordLength = "TIME_RECORD_LENGTH"
)

// Function is a built source time function waiting to be released into a
// domain.
type Function struct {
	series *Series
}

// Build samples the configured source time function at dt.
func Build(params *config.Parameters, dt float64) (*Function, error) {
	kind, err := params.TextOr(KeyType, "gauss")
	if err != nil {
		return nil, err
	}
	hdur, err := params.Float(KeyHalfDuration)
	if err != nil {
		return nil, err
	}
	decay, err := params.FloatOr(KeyDecay, DefaultDecay)
	if err != nil {
		return nil, err
	}
	duration, err := params.Float(KeyRecordLength)
	if err != nil {
		return nil, err
	}

	var s *Series
	switch strings.ToLower(kind) {
	case "gauss", "gaussian":
		s, err = Gaussian(dt, duration, hdur, decay)
	case "erf":
		s, err = Erf(dt, duration, hdur, decay)
	default:
		return nil, &config.KeyError{Key: KeyType, Err: fmt.Errorf("%w: unknown type %q", config.ErrInvalidValue, kind)}
	}
	if err != nil {
		return nil, err
	}
	return &Function{series: s}, nil
}

// Series returns the sampled series.
func (f *Function) Series() *Series {
	return f.series
}

// Verbose returns the series summary.
func (f *Function) Verbose() string {
	return f.series.Verbose()
}

// Release hands the series to d.
func (f *Function) Release(d *domain.Domain) error {
	return d.ReleaseSTF(f.series)
}
