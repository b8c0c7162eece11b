package acmi

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/OCAP2/extractor/pkg/core"
)

const secondsPerDay = 24 * 60 * 60

// reservedFamilies are object classes that never reach the result.
var reservedFamilies = map[string]struct{}{
	"weapon":     {},
	"projectile": {},
	"misc":       {},
	"shrapnel":   {},
}

// Header holds the global properties of a recording.
type Header struct {
	ReferenceTime      time.Time
	ReferenceLongitude float64
	ReferenceLatitude  float64
	Title              string
}

func (h Header) secondsOfDay() int {
	if h.ReferenceTime.IsZero() {
		return 0
	}
	t := h.ReferenceTime
	return t.Hour()*3600 + t.Minute()*60 + t.Second()
}

// readHeader collects global properties. Later assignments win.
func readHeader(records []record) (Header, error) {
	var h Header
	for _, r := range records {
		if r.kind != recordGlobal {
			continue
		}
		for _, p := range r.props {
			switch p.key {
			case "ReferenceTime":
				t, err := time.Parse(time.RFC3339, strings.TrimSpace(p.value))
				if err != nil {
					return h, fmt.Errorf("%w: line %d: bad ReferenceTime %q", core.ErrData, r.line, p.value)
				}
				h.ReferenceTime = t
			case "ReferenceLongitude":
				f, err := strconv.ParseFloat(strings.TrimSpace(p.value), 64)
				if err != nil {
					return h, fmt.Errorf("%w: line %d: bad ReferenceLongitude %q", core.ErrData, r.line, p.value)
				}
				h.ReferenceLongitude = f
			case "ReferenceLatitude":
				f, err := strconv.ParseFloat(strings.TrimSpace(p.value), 64)
				if err != nil {
					return h, fmt.Errorf("%w: line %d: bad ReferenceLatitude %q", core.ErrData, r.line, p.value)
				}
				h.ReferenceLatitude = f
			case "Title":
				h.Title = p.value
			}
		}
	}
	return h, nil
}

// transform is the raw position of an object: offsets from the reference
// point and altitude in metres.
type transform struct {
	lon, lat, alt float64
}

type entry struct {
	seq  int
	unit core.UnitItem
	pos  transform
}

type replayer struct {
	header  Header
	objects map[string]*entry
	seq     int
	marker  float64
}

// replay applies records in order up to the target frame and returns the
// surviving objects in first-seen order.
func replay(header Header, records []record, target Target) []core.UnitItem {
	r := &replayer{
		header:  header,
		objects: make(map[string]*entry),
	}
	for _, rec := range records {
		if rec.kind == recordMarker {
			if !target.Includes(rec.marker) {
				break
			}
			r.marker = rec.marker
			continue
		}
		r.apply(rec)
	}
	return r.result()
}

func (r *replayer) apply(rec record) {
	switch rec.kind {
	case recordRemove:
		if e, ok := r.objects[rec.id]; ok {
			e.unit.IsAlive = false
		}
	case recordObject:
		if rec.isDefinition() {
			r.define(rec)
			return
		}
		e, ok := r.objects[rec.id]
		if !ok || !e.unit.IsAlive {
			return
		}
		if t, ok := rec.get("T"); ok {
			e.pos = parseTransform(t, e.pos)
			e.unit.Position = r.position(e.pos)
		}
	}
}

// define replaces whatever was known about the object.
func (r *replayer) define(rec record) {
	typ, _ := rec.get("Type")
	tags := splitTags(typ)
	for _, tag := range tags {
		if _, reserved := reservedFamilies[strings.ToLower(tag)]; reserved {
			delete(r.objects, rec.id)
			return
		}
	}

	u := core.UnitItem{
		UniqueID:  rec.id,
		Category:  categoryOf(tags),
		Coalition: coalitionOf(rec),
		Kind:      core.KindUnit,
		IsAlive:   true,
	}

	if isBullseye(tags) {
		u.Kind = core.KindBullseye
		u.Category = core.CategoryNavaid
		u.Type = "Bullseye"
		u.Name = "Bullseye_" + string(u.Coalition)
		u.Group = u.Name
	} else {
		name, _ := rec.get("Name")
		u.Type = strings.TrimSpace(name)
		if u.Type == "" {
			u.Type = strings.Join(tags, "+")
		}
		if u.Type == "" {
			u.Type = string(u.Category)
		}
		resolved := strings.ReplaceAll(u.Type, " ", "_")
		if pilot, _ := rec.get("Pilot"); strings.TrimSpace(pilot) != "" {
			u.Name = strings.TrimSpace(pilot)
		} else {
			u.Name = resolved + "_" + rec.id
		}
		if group, _ := rec.get("Group"); strings.TrimSpace(group) != "" {
			u.Group = strings.TrimSpace(group)
		} else {
			u.Group = resolved + "_group_" + rec.id
		}
	}

	e := &entry{unit: u}
	if prev, ok := r.objects[rec.id]; ok {
		e.seq = prev.seq
	} else {
		r.seq++
		e.seq = r.seq
	}
	if t, ok := rec.get("T"); ok {
		e.pos = parseTransform(t, transform{})
	}
	e.unit.Position = r.position(e.pos)
	r.objects[rec.id] = e
}

func (r *replayer) position(t transform) core.UnitPositionItem {
	timeOn := (r.header.secondsOfDay() + int(r.marker)) % secondsPerDay
	if timeOn < 0 {
		timeOn += secondsPerDay
	}
	return core.UnitPositionItem{
		Latitude:  r.header.ReferenceLatitude + t.lat,
		Longitude: r.header.ReferenceLongitude + t.lon,
		Altitude:  t.alt * core.MetersToFeet,
		TimeOn:    timeOn,
	}
}

func (r *replayer) result() []core.UnitItem {
	entries := make([]*entry, 0, len(r.objects))
	for _, e := range r.objects {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].seq < entries[j].seq })

	units := make([]core.UnitItem, len(entries))
	for i, e := range entries {
		units[i] = e.unit
	}
	return units
}

// parseTransform reads "lon|lat|alt|..." onto prev. Empty or unparseable
// terms keep the previous component; terms past altitude are ignored.
func parseTransform(s string, prev transform) transform {
	out := prev
	terms := strings.Split(s, "|")
	dst := []*float64{&out.lon, &out.lat, &out.alt}
	for i := 0; i < len(terms) && i < len(dst); i++ {
		term := strings.TrimSpace(terms[i])
		if term == "" {
			continue
		}
		if f, err := strconv.ParseFloat(term, 64); err == nil {
			*dst[i] = f
		}
	}
	return out
}

func splitTags(typ string) []string {
	var tags []string
	for _, t := range strings.Split(typ, "+") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

func hasTag(tags []string, tag string) bool {
	for _, t := range tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

func categoryOf(tags []string) core.Category {
	switch {
	case hasTag(tags, "Air") && hasTag(tags, "Rotorcraft"):
		return core.CategoryHelicopter
	case hasTag(tags, "Air"):
		return core.CategoryAircraft
	case hasTag(tags, "Ground"):
		return core.CategoryGround
	case hasTag(tags, "Sea"):
		return core.CategoryShip
	case hasTag(tags, "Navaid"):
		return core.CategoryNavaid
	}
	return core.CategoryOther
}

func isBullseye(tags []string) bool {
	return hasTag(tags, "Navaid") && hasTag(tags, "Static") && hasTag(tags, "Bullseye")
}

// coalitionOf prefers the object colour; the coalition label is only used
// when no colour is given.
func coalitionOf(rec record) core.Coalition {
	if color, ok := rec.get("Color"); ok {
		switch strings.ToLower(strings.TrimSpace(color)) {
		case "blue":
			return core.CoalitionBlue
		case "red":
			return core.CoalitionRed
		}
		return core.CoalitionNeutral
	}
	c, _ := rec.get("Coalition")
	return core.ParseCoalition(c)
}
