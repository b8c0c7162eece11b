package filter

import "github.com/OCAP2/extractor/pkg/core"

// Groups applies every filter named by the criteria to a group list. Unit
// filters run first; a group they empty is dropped afterwards.
func Groups(groups []core.UnitGroupItem, c core.ExtractCriteria) []core.UnitGroupItem {
	out := LimitUnitTypes(groups, c.UnitTypes)
	out = LimitAlive(out, c.Alive)
	if c.HasUnitFilter() {
		out = LimitGroupsWithUnits(out)
	}
	out = LimitCoalitions(out, c.Coalitions)
	return LimitCategories(out, c.Categories)
}

// Units applies every filter named by the criteria to a flat unit list.
func Units(units []core.UnitItem, c core.ExtractCriteria) []core.UnitItem {
	out := LimitUnitsByType(units, c.UnitTypes)
	out = LimitUnitsAlive(out, c.Alive)
	out = LimitUnitCoalitions(out, c.Coalitions)
	return LimitUnitCategories(out, c.Categories)
}
