package subsystems

import (
	"fmt"
	"strings"

	"github.com/vk/axisem/internal/config"
)

// Models3D lists the 3-D models applied on top of the background model.
// Models are carried by name only.
type Models3D struct {
	Volumetric []string
	Geometric  []string
	OceanLoad  string
}

// BuildModels3D reads the model lists.
func BuildModels3D(params *config.Parameters, ex *Exodus, src *Source) (*Models3D, error) {
	vol, err := params.Strings("MODEL_3D_VOLUMETRIC_LIST")
	if err != nil {
		return nil, err
	}
	geo, err := params.Strings("MODEL_3D_GEOMETRIC_LIST")
	if err != nil {
		return nil, err
	}
	ocean, err := params.TextOr("MODEL_3D_OCEAN_LOAD", "none")
	if err != nil {
		return nil, err
	}
	m := &Models3D{Volumetric: dropNone(vol), Geometric: dropNone(geo)}
	if !strings.EqualFold(ocean, "none") {
		m.OceanLoad = ocean
	}
	return m, nil
}

func dropNone(names []string) []string {
	var out []string
	for _, n := range names {
		if !strings.EqualFold(n, "none") {
			out = append(out, n)
		}
	}
	return out
}

// Verbose returns a summary.
func (m *Models3D) Verbose() string {
	ocean := m.OceanLoad
	if ocean == "" {
		ocean = "none"
	}
	return fmt.Sprintf("3D models: volumetric %v, geometric %v, ocean load %s\n", m.Volumetric, m.Geometric, ocean)
}
