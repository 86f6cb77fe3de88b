package subsystems

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/vk/axisem/internal/config"
	"github.com/vk/axisem/internal/domain"
	"github.com/zclconf/go-cty/cty"
)

// KeyStations lists the stations, one "NAME LAT LON DEPTH" entry each.
// A single string may separate entries with ';' or newlines.
const KeyStations = "OUT_STATIONS"

// Station is a receiver location.
type Station struct {
	Name      string
	Latitude  float64
	Longitude float64
	Depth     float64
	// Distance is the epicentral distance from the source in degrees.
	Distance float64
}

// Receivers is the station set.
type Receivers struct {
	Stations []Station
}

// BuildReceivers parses the station list and computes distances to src.
func BuildReceivers(params *config.Parameters, src *Source) (*Receivers, error) {
	entries, err := stationEntries(params)
	if err != nil {
		return nil, err
	}
	r := &Receivers{}
	seen := make(map[string]bool, len(entries))
	for _, entry := range entries {
		st, err := parseStation(entry)
		if err != nil {
			return nil, &config.KeyError{Key: KeyStations, Err: fmt.Errorf("%w: %v", config.ErrInvalidValue, err)}
		}
		if seen[st.Name] {
			return nil, &config.KeyError{Key: KeyStations, Err: fmt.Errorf("%w: duplicate station %q", config.ErrInvalidValue, st.Name)}
		}
		seen[st.Name] = true
		st.Distance = distance(src.Latitude, src.Longitude, st.Latitude, st.Longitude)
		r.Stations = append(r.Stations, st)
	}
	return r, nil
}

func stationEntries(params *config.Parameters) ([]string, error) {
	v, ok := params.Value(KeyStations)
	if !ok {
		return nil, nil
	}
	var raw []string
	if v.Type().Equals(cty.String) {
		raw = strings.FieldsFunc(v.AsString(), func(r rune) bool { return r == ';' || r == '\n' })
	} else {
		list, err := params.Strings(KeyStations)
		if err != nil {
			return nil, err
		}
		raw = list
	}
	entries := raw[:0]
	for _, e := range raw {
		if e = strings.TrimSpace(e); e != "" {
			entries = append(entries, e)
		}
	}
	return entries, nil
}

func parseStation(entry string) (Station, error) {
	fields := strings.Fields(entry)
	if len(fields) != 4 {
		return Station{}, fmt.Errorf("station %q: want NAME LAT LON DEPTH", entry)
	}
	st := Station{Name: fields[0]}
	for i, dst := range []*float64{&st.Latitude, &st.Longitude, &st.Depth} {
		f, err := strconv.ParseFloat(fields[i+1], 64)
		if err != nil {
			return Station{}, fmt.Errorf("station %s: %w", st.Name, err)
		}
		*dst = f
	}
	if st.Latitude < -90 || st.Latitude > 90 {
		return Station{}, fmt.Errorf("station %s: latitude %g outside [-90, 90]", st.Name, st.Latitude)
	}
	if st.Depth < 0 {
		return Station{}, fmt.Errorf("station %s: negative depth", st.Name)
	}
	return st, nil
}

// distance returns the great-circle distance in degrees.
func distance(lat1, lon1, lat2, lon2 float64) float64 {
	rad := math.Pi / 180
	p1, p2 := lat1*rad, lat2*rad
	dl := (lon2 - lon1) * rad
	c := math.Sin(p1)*math.Sin(p2) + math.Cos(p1)*math.Cos(p2)*math.Cos(dl)
	return math.Acos(math.Max(-1, math.Min(1, c))) / rad
}

// Release places the stations that lie on this rank into d.
func (r *Receivers) Release(d *domain.Domain, mesh *WeightedMesh) error {
	var local []*domain.Receiver
	for _, st := range r.Stations {
		elem, ok, err := mesh.Locate(st.Depth)
		if err != nil {
			return fmt.Errorf("locate station %s: %w", st.Name, err)
		}
		if ok {
			local = append(local, &domain.Receiver{Name: st.Name, Element: elem, Phi: azimuth(st.Longitude)})
		}
	}
	return d.ReleaseReceivers(local)
}

// Verbose returns a summary.
func (r *Receivers) Verbose() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Receivers: %d stations\n", len(r.Stations))
	for _, st := range r.Stations {
		fmt.Fprintf(&sb, "  %-8s %8.3f deg\n", st.Name, st.Distance)
	}
	return sb.String()
}
