// Package filter narrows extraction results down to what a request asked
// for. Every function returns a new slice and leaves its input untouched;
// an empty allow-list matches everything.
package filter

import (
	"strings"

	"github.com/OCAP2/extractor/pkg/core"
)

func keep[T any](in []T, pred func(T) bool) []T {
	out := make([]T, 0, len(in))
	for _, v := range in {
		if pred(v) {
			out = append(out, v)
		}
	}
	return out
}

func clone[T any](in []T) []T {
	return append(make([]T, 0, len(in)), in...)
}

func coalitionSet(allowed []core.Coalition) map[core.Coalition]struct{} {
	set := make(map[core.Coalition]struct{}, len(allowed))
	for _, c := range allowed {
		set[c] = struct{}{}
	}
	return set
}

func categorySet(allowed []core.Category) map[core.Category]struct{} {
	set := make(map[core.Category]struct{}, len(allowed))
	for _, c := range allowed {
		set[c] = struct{}{}
	}
	return set
}

func typeSet(types []string) map[string]struct{} {
	set := make(map[string]struct{}, len(types))
	for _, t := range types {
		set[strings.ToLower(strings.TrimSpace(t))] = struct{}{}
	}
	return set
}

// LimitCoalitions keeps groups whose coalition is allowed.
func LimitCoalitions(groups []core.UnitGroupItem, allowed []core.Coalition) []core.UnitGroupItem {
	if len(allowed) == 0 {
		return clone(groups)
	}
	set := coalitionSet(allowed)
	return keep(groups, func(g core.UnitGroupItem) bool {
		_, ok := set[g.Coalition]
		return ok
	})
}

// LimitCategories keeps groups whose category is allowed.
func LimitCategories(groups []core.UnitGroupItem, allowed []core.Category) []core.UnitGroupItem {
	if len(allowed) == 0 {
		return clone(groups)
	}
	set := categorySet(allowed)
	return keep(groups, func(g core.UnitGroupItem) bool {
		_, ok := set[g.Category]
		return ok
	})
}

// LimitUnitTypes drops member units of other types. Groups are kept even
// when they end up empty, and routes are shared with the input.
func LimitUnitTypes(groups []core.UnitGroupItem, types []string) []core.UnitGroupItem {
	if len(types) == 0 {
		return clone(groups)
	}
	set := typeSet(types)
	return mapUnits(groups, func(u core.UnitItem) bool {
		_, ok := set[strings.ToLower(u.Type)]
		return ok
	})
}

// LimitAlive keeps member units whose liveness matches. nil keeps all.
func LimitAlive(groups []core.UnitGroupItem, alive *bool) []core.UnitGroupItem {
	if alive == nil {
		return clone(groups)
	}
	want := *alive
	return mapUnits(groups, func(u core.UnitItem) bool { return u.IsAlive == want })
}

// LimitGroupsWithUnits drops groups without any units.
func LimitGroupsWithUnits(groups []core.UnitGroupItem) []core.UnitGroupItem {
	return keep(groups, func(g core.UnitGroupItem) bool { return len(g.Units) > 0 })
}

func mapUnits(groups []core.UnitGroupItem, pred func(core.UnitItem) bool) []core.UnitGroupItem {
	out := make([]core.UnitGroupItem, len(groups))
	for i, g := range groups {
		g.Units = keep(g.Units, pred)
		out[i] = g
	}
	return out
}

// Flat unit lists, as produced from telemetry.

func LimitUnitCoalitions(units []core.UnitItem, allowed []core.Coalition) []core.UnitItem {
	if len(allowed) == 0 {
		return clone(units)
	}
	set := coalitionSet(allowed)
	return keep(units, func(u core.UnitItem) bool {
		_, ok := set[u.Coalition]
		return ok
	})
}

func LimitUnitCategories(units []core.UnitItem, allowed []core.Category) []core.UnitItem {
	if len(allowed) == 0 {
		return clone(units)
	}
	set := categorySet(allowed)
	return keep(units, func(u core.UnitItem) bool {
		_, ok := set[u.Category]
		return ok
	})
}

func LimitUnitsByType(units []core.UnitItem, types []string) []core.UnitItem {
	if len(types) == 0 {
		return clone(units)
	}
	set := typeSet(types)
	return keep(units, func(u core.UnitItem) bool {
		_, ok := set[strings.ToLower(u.Type)]
		return ok
	})
}

func LimitUnitsAlive(units []core.UnitItem, alive *bool) []core.UnitItem {
	if alive == nil {
		return clone(units)
	}
	want := *alive
	return keep(units, func(u core.UnitItem) bool { return u.IsAlive == want })
}
