// Package miz extracts unit groups from mission archives. A mission archive
// is a zip holding a "theatre" entry with the terrain name and a "mission"
// entry with the literal-table mission document.
package miz

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/OCAP2/extractor/internal/archive"
	"github.com/OCAP2/extractor/internal/filter"
	"github.com/OCAP2/extractor/internal/geo"
	"github.com/OCAP2/extractor/internal/luatable"
	"github.com/OCAP2/extractor/pkg/core"
	"github.com/rs/zerolog"
)

const (
	entryMission = "mission"
	entryTheatre = "theatre"

	secondsPerDay = 24 * 60 * 60
)

// categoryKeys lists the per-country group collections in the order they
// are walked.
var categoryKeys = []struct {
	key      string
	category core.Category
}{
	{"vehicle", core.CategoryGround},
	{"plane", core.CategoryAircraft},
	{"helicopter", core.CategoryHelicopter},
	{"ship", core.CategoryShip},
}

// Result is one extracted mission.
type Result struct {
	Theater   string
	StartTime int
	Groups    []core.UnitGroupItem
}

type Extractor struct {
	registry *geo.Registry
	logger   zerolog.Logger
}

func New(registry *geo.Registry, logger zerolog.Logger) *Extractor {
	return &Extractor{registry: registry, logger: logger}
}

// Extract returns the filtered groups of the mission at criteria.Path.
func (e *Extractor) Extract(criteria core.ExtractCriteria) ([]core.UnitGroupItem, error) {
	res, err := e.ExtractMission(criteria)
	if err != nil {
		return nil, err
	}
	return res.Groups, nil
}

// ExtractMission is Extract plus the resolved theater and start time.
func (e *Extractor) ExtractMission(criteria core.ExtractCriteria) (*Result, error) {
	if err := criteria.Validate(); err != nil {
		return nil, err
	}

	a, err := archive.Open(criteria.Path)
	if err != nil {
		return nil, err
	}
	defer a.Close()

	body, err := readRequired(a, entryMission)
	if err != nil {
		return nil, err
	}
	theatreEntry, err := readRequired(a, entryTheatre)
	if err != nil {
		return nil, err
	}
	doc, err := luatable.Parse(string(body))
	if err != nil {
		return nil, fmt.Errorf("parsing mission: %w", err)
	}
	missionVal, ok := doc["mission"]
	if !ok {
		return nil, fmt.Errorf("%w: mission document has no mission table", core.ErrData)
	}
	mission, err := missionVal.Table()
	if err != nil {
		return nil, fmt.Errorf("mission: %w", err)
	}

	theater, err := resolveTheater(criteria.Theater, theatreEntry)
	if err != nil {
		return nil, err
	}
	// an unknown theater fails the whole mission, not just the first group
	if _, err := e.registry.Lookup(theater); err != nil {
		return nil, err
	}

	w := &walker{
		registry:  e.registry,
		theater:   theater,
		startTime: int(mission.NumberOr("start_time", 0)),
	}
	groups, err := w.walk(mission)
	if err != nil {
		return nil, err
	}

	e.logger.Debug().
		Str("path", criteria.Path).
		Str("theater", theater).
		Int("groups", len(groups)).
		Msg("Parsed mission")

	return &Result{
		Theater:   theater,
		StartTime: w.startTime,
		Groups:    filter.Groups(groups, criteria),
	}, nil
}

// readRequired reads an entry every mission archive must carry. A missing
// entry makes the archive incomplete data rather than a broken zip.
func readRequired(a *archive.Archive, name string) ([]byte, error) {
	data, err := a.Read(name)
	if errors.Is(err, archive.ErrMissingEntry) {
		return nil, fmt.Errorf("%w: mission archive has no %s entry", core.ErrData, name)
	}
	return data, err
}

// resolveTheater prefers the caller's override over the theatre entry.
func resolveTheater(override string, entry []byte) (string, error) {
	if t := strings.TrimSpace(override); t != "" {
		return t, nil
	}
	if t := strings.TrimSpace(string(entry)); t != "" {
		return t, nil
	}
	return "", fmt.Errorf("%w: theatre entry is empty", core.ErrData)
}

type walker struct {
	registry  *geo.Registry
	theater   string
	startTime int
}

func (w *walker) walk(mission *luatable.Table) ([]core.UnitGroupItem, error) {
	coalitions, err := mission.TableField("coalition")
	if err != nil {
		return nil, err
	}

	var groups []core.UnitGroupItem
	for _, side := range coalitions.Names() {
		sideTbl, err := coalitions.TableField(side)
		if err != nil {
			return nil, err
		}
		countries, ok := optionalTable(sideTbl, "country")
		if !ok {
			continue
		}
		coalition := parseCoalitionKey(side)

		for _, ci := range countries.Indices() {
			country, err := indexTable(countries, ci)
			if err != nil {
				return nil, fmt.Errorf("coalition %s country %d: %w", side, ci, err)
			}
			for _, ck := range categoryKeys {
				collection, ok := optionalTable(country, ck.key)
				if !ok {
					continue
				}
				list, ok := optionalTable(collection, "group")
				if !ok {
					continue
				}
				for _, gi := range list.Indices() {
					gt, err := indexTable(list, gi)
					if err != nil {
						return nil, fmt.Errorf("coalition %s %s group %d: %w", side, ck.key, gi, err)
					}
					g, err := w.group(gt, coalition, ck.category)
					if err != nil {
						return nil, fmt.Errorf("coalition %s %s group %d: %w", side, ck.key, gi, err)
					}
					groups = append(groups, g)
				}
			}
		}
	}
	return groups, nil
}

func (w *walker) group(t *luatable.Table, coalition core.Coalition, category core.Category) (core.UnitGroupItem, error) {
	id, err := t.NumberField("groupId")
	if err != nil {
		return core.UnitGroupItem{}, err
	}
	g := core.UnitGroupItem{
		UniqueID:  strconv.FormatInt(int64(id), 10),
		Coalition: coalition,
		Category:  category,
		Name:      t.StringField("name"),
	}

	if route, ok := optionalTable(t, "route"); ok {
		points, err := route.TableField("points")
		if err != nil {
			return core.UnitGroupItem{}, fmt.Errorf("route: %w", err)
		}
		for _, pi := range points.Indices() {
			pt, err := indexTable(points, pi)
			if err != nil {
				return core.UnitGroupItem{}, fmt.Errorf("route point %d: %w", pi, err)
			}
			p, err := w.routePoint(pt)
			if err != nil {
				return core.UnitGroupItem{}, fmt.Errorf("route point %d: %w", pi, err)
			}
			g.Route = append(g.Route, p)
		}
	}

	units, err := t.TableField("units")
	if err != nil {
		return core.UnitGroupItem{}, err
	}
	for n, ui := range units.Indices() {
		ut, err := indexTable(units, ui)
		if err != nil {
			return core.UnitGroupItem{}, fmt.Errorf("unit %d: %w", ui, err)
		}
		u, err := w.unit(ut, g, n+1)
		if err != nil {
			return core.UnitGroupItem{}, fmt.Errorf("unit %d: %w", ui, err)
		}
		g.Units = append(g.Units, u)
	}
	return g, nil
}

func (w *walker) unit(t *luatable.Table, g core.UnitGroupItem, seq int) (core.UnitItem, error) {
	pos, err := w.position(t)
	if err != nil {
		return core.UnitItem{}, err
	}

	id := g.UniqueID + "-" + strconv.Itoa(seq)
	if uid, ok := t.Field("unitId"); ok {
		if n, err := uid.Int(); err == nil {
			id = strconv.FormatInt(n, 10)
		}
	}

	return core.UnitItem{
		UniqueID:  id,
		Type:      t.StringField("type"),
		Name:      t.StringField("name"),
		Group:     g.Name,
		Coalition: g.Coalition,
		Category:  g.Category,
		Kind:      core.KindUnit,
		Position:  pos,
		IsAlive:   true,
	}, nil
}

func (w *walker) routePoint(t *luatable.Table) (core.UnitPositionItem, error) {
	p, err := w.position(t)
	if err != nil {
		return p, err
	}
	p.Name = t.StringField("name")
	if t.BoolOr("ETA_locked", false) {
		eta := int(t.NumberOr("ETA", 0))
		p.TimeOn = (w.startTime + eta) % secondsPerDay
	}
	return p, nil
}

// position converts the planar x/y of a unit or waypoint. The document's y
// axis is the terrain's z.
func (w *walker) position(t *luatable.Table) (core.UnitPositionItem, error) {
	x, err := t.NumberField("x")
	if err != nil {
		return core.UnitPositionItem{}, err
	}
	z, err := t.NumberField("y")
	if err != nil {
		return core.UnitPositionItem{}, err
	}
	lat, lon, err := w.registry.XZToLatLon(w.theater, x, z)
	if err != nil {
		return core.UnitPositionItem{}, err
	}
	return core.UnitPositionItem{
		Latitude:  lat,
		Longitude: lon,
		Altitude:  t.NumberOr("alt", 0) * core.MetersToFeet,
		TimeOn:    core.UnsetTime,
	}, nil
}

func parseCoalitionKey(key string) core.Coalition {
	switch strings.ToLower(key) {
	case "blue":
		return core.CoalitionBlue
	case "red":
		return core.CoalitionRed
	}
	return core.CoalitionNeutral
}

func optionalTable(t *luatable.Table, name string) (*luatable.Table, bool) {
	v, ok := t.Field(name)
	if !ok {
		return nil, false
	}
	sub, err := v.Table()
	if err != nil {
		return nil, false
	}
	return sub, true
}

func indexTable(t *luatable.Table, i int) (*luatable.Table, error) {
	v, _ := t.Index(i)
	return v.Table()
}
