package subsystems

import (
	"fmt"
	"math"

	"github.com/vk/axisem/internal/config"
	"github.com/vk/axisem/internal/domain"
)

// Source is a point source.
type Source struct {
	Latitude  float64
	Longitude float64
	Depth     float64
}

// BuildSource reads the source location.
func BuildSource(params *config.Parameters) (*Source, error) {
	var (
		s   Source
		err error
	)
	if s.Latitude, err = params.FloatOr("SOURCE_LATITUDE", 0); err != nil {
		return nil, err
	}
	if s.Longitude, err = params.FloatOr("SOURCE_LONGITUDE", 0); err != nil {
		return nil, err
	}
	if s.Depth, err = params.FloatOr("SOURCE_DEPTH", 0); err != nil {
		return nil, err
	}
	if s.Latitude < -90 || s.Latitude > 90 {
		return nil, &config.KeyError{Key: "SOURCE_LATITUDE", Err: fmt.Errorf("%w: %g outside [-90, 90]", config.ErrInvalidValue, s.Latitude)}
	}
	if s.Depth < 0 {
		return nil, &config.KeyError{Key: "SOURCE_DEPTH", Err: fmt.Errorf("%w: depth %g is negative", config.ErrInvalidValue, s.Depth)}
	}
	return &s, nil
}

// Phi returns the source azimuth in radians.
func (s *Source) Phi() float64 {
	return azimuth(s.Longitude)
}

// Release places the source into d if it lies on this rank.
func (s *Source) Release(d *domain.Domain, mesh *WeightedMesh) error {
	elem, local, err := mesh.Locate(s.Depth)
	if err != nil {
		return fmt.Errorf("locate source: %w", err)
	}
	var sources []domain.PointSource
	if local {
		sources = append(sources, domain.PointSource{Element: elem, Phi: s.Phi(), Scale: 1})
	}
	return d.ReleaseSource(sources)
}

// Verbose returns a summary.
func (s *Source) Verbose() string {
	return fmt.Sprintf("Source: lat %.4f, lon %.4f, depth %.1f km\n", s.Latitude, s.Longitude, s.Depth/1e3)
}

func azimuth(lon float64) float64 {
	phi := math.Mod(lon*math.Pi/180, 2*math.Pi)
	if phi < 0 {
		phi += 2 * math.Pi
	}
	return phi
}
