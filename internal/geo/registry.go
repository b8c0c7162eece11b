package geo

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/OCAP2/extractor/pkg/core"
	geom "github.com/peterstace/simplefeatures/geom"
	"gopkg.in/yaml.v3"
)

//go:embed theaters.yaml
var builtinTheaters []byte

// ErrUnknownTheater is returned for a theater name that is not registered.
var ErrUnknownTheater = fmt.Errorf("%w: unknown theater", core.ErrData)

// Bounds is a planar area in simulation metres. X grows north, Z grows east.
type Bounds struct {
	MinX float64 `yaml:"minX" json:"minX"`
	MaxX float64 `yaml:"maxX" json:"maxX"`
	MinZ float64 `yaml:"minZ" json:"minZ"`
	MaxZ float64 `yaml:"maxZ" json:"maxZ"`
}

// Envelope returns the bounds with Z on the horizontal axis and X on the
// vertical one, matching how a map shows them.
func (b Bounds) Envelope() (geom.Envelope, error) {
	return geom.NewEnvelope([]geom.XY{
		{X: b.MinZ, Y: b.MinX},
		{X: b.MaxZ, Y: b.MaxX},
	})
}

// Contains reports whether the planar point lies inside the bounds. Bounds
// holding NaN or infinite values contain nothing.
func (b Bounds) Contains(x, z float64) bool {
	env, err := b.Envelope()
	if err != nil {
		return false
	}
	return env.Contains(geom.XY{X: z, Y: x})
}

// Theater is the UTM placement of one terrain.
type Theater struct {
	Name           string  `yaml:"name" json:"name"`
	NorthingOffset float64 `yaml:"northingOffset" json:"northingOffset"`
	EastingOffset  float64 `yaml:"eastingOffset" json:"eastingOffset"`
	Zone           int     `yaml:"utmZone" json:"utmZone"`
	Southern       bool    `yaml:"southern" json:"southern"`
	Bounds         Bounds  `yaml:"bounds" json:"bounds"`
}

// EPSG returns the WGS 84 / UTM code for the theater's zone.
func (t Theater) EPSG() int {
	if t.Southern {
		return 32700 + t.Zone
	}
	return 32600 + t.Zone
}

func (t Theater) validate() error {
	if t.Name == "" {
		return errors.New("theater without a name")
	}
	if t.Zone < 1 || t.Zone > 60 {
		return fmt.Errorf("theater %s: utm zone %d out of range", t.Name, t.Zone)
	}
	if !finite(t.NorthingOffset) || !finite(t.EastingOffset) {
		return fmt.Errorf("theater %s: offsets must be finite", t.Name)
	}
	if _, err := t.Bounds.Envelope(); err != nil {
		return fmt.Errorf("theater %s: bounds: %v", t.Name, err)
	}
	return nil
}

type theaterFile struct {
	Theaters []Theater `yaml:"theaters"`
}

// Registry maps theater names to their projection parameters. It is built
// once and only read afterwards, so one instance can be shared by any
// number of goroutines.
type Registry struct {
	byKey map[string]Theater
}

// NewRegistry returns a registry holding the built-in theaters.
func NewRegistry() (*Registry, error) {
	r := &Registry{byKey: make(map[string]Theater)}
	if err := r.merge(builtinTheaters); err != nil {
		return nil, fmt.Errorf("built-in theaters: %w", err)
	}
	return r, nil
}

// NewRegistryWithFile returns the built-in theaters with the entries of a
// YAML file layered on top. Entries with a known name replace the built-in.
func NewRegistryWithFile(path string) (*Registry, error) {
	r, err := NewRegistry()
	if err != nil {
		return nil, err
	}
	if path == "" {
		return r, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading theater file: %v", core.ErrConfig, err)
	}
	if err := r.merge(data); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", core.ErrConfig, path, err)
	}
	return r, nil
}

func (r *Registry) merge(data []byte) error {
	var f theaterFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return err
	}
	for _, t := range f.Theaters {
		if err := t.validate(); err != nil {
			return err
		}
		r.byKey[strings.ToLower(t.Name)] = t
	}
	return nil
}

// Lookup finds a theater by name, ignoring case.
func (r *Registry) Lookup(name string) (Theater, error) {
	t, ok := r.byKey[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Theater{}, fmt.Errorf("%w %q", ErrUnknownTheater, name)
	}
	return t, nil
}

// Theaters returns every registered theater sorted by name.
func (r *Registry) Theaters() []Theater {
	out := make([]Theater, 0, len(r.byKey))
	for _, t := range r.byKey {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
