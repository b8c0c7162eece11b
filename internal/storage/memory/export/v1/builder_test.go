package v1

import (
	"testing"
	"time"

	"github.com/OCAP2/extractor/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleExtraction() *core.Extraction {
	return &core.Extraction{
		Source:      "missions/op.miz",
		Format:      core.FormatMission,
		Theater:     "Caucasus",
		ExtractedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.FixedZone("CET", 3600)),
		Groups: []core.UnitGroupItem{
			{
				UniqueID: "1", Name: "Enfield 1", Coalition: core.CoalitionBlue, Category: core.CategoryAircraft,
				Units: []core.UnitItem{
					{UniqueID: "2", Name: "Enfield 1-1", Type: "F-16C_50", Coalition: core.CoalitionBlue, Category: core.CategoryAircraft, Kind: core.KindUnit, IsAlive: true,
						Position: core.UnitPositionItem{Latitude: 41.6, Longitude: 41.6, Altitude: 33.333, TimeOn: 28800}},
				},
				Route: []core.UnitPositionItem{
					{Name: "Push", Latitude: 41.9, Longitude: 42.1, Altitude: 20000, TimeOn: 29730},
					{Latitude: 42.2, Longitude: 43.0, Altitude: 15000, TimeOn: core.UnsetTime},
				},
			},
			{
				UniqueID: "3", Name: "Armor", Coalition: core.CoalitionRed, Category: core.CategoryGround,
				Units: []core.UnitItem{
					{UniqueID: "4", Type: "T-72B", Coalition: core.CoalitionRed, Category: core.CategoryGround, Kind: core.KindUnit, IsAlive: false},
					{UniqueID: "5", Type: "T-72B", Coalition: core.CoalitionRed, Category: core.CategoryGround, Kind: core.KindUnit, IsAlive: true},
				},
			},
		},
	}
}

func TestBuild(t *testing.T) {
	export := Build(sampleExtraction())

	assert.Equal(t, Version, export.ExportVersion)
	assert.Equal(t, "miz", export.Format)
	assert.Equal(t, "2026-03-01T11:00:00Z", export.ExtractedAt)
	assert.Nil(t, export.Filters)
	assert.Empty(t, export.Units)

	require.Len(t, export.Groups, 2)
	g := export.Groups[0]
	assert.Equal(t, "BLUE", g.Side)
	require.Len(t, g.Route, 2)
	assert.Equal(t, "08:15:30", g.Route[0].TimeOn)
	assert.Equal(t, "", g.Route[1].TimeOn)
	assert.Equal(t, core.UnsetTime, g.Route[1].Seconds)
	require.Len(t, g.Units, 1)
	assert.Equal(t, 33.3, g.Units[0].Position.AltFt)
	assert.Equal(t, "08:00:00", g.Units[0].Position.TimeOn)
}

func TestBuild_Summary(t *testing.T) {
	s := Build(sampleExtraction()).Summary

	assert.Equal(t, 2, s.Groups)
	assert.Equal(t, 3, s.Units)
	assert.Equal(t, 2, s.Alive)
	assert.Equal(t, map[string]int{"BLUE": 1, "RED": 2}, s.ByCoalition)
	assert.Equal(t, map[string]int{"AIRCRAFT": 1, "GROUND": 2}, s.ByCategory)
}

func TestBuild_FlatUnitsAndFilters(t *testing.T) {
	alive := true
	toi := time.Date(2026, 3, 1, 14, 5, 0, 0, time.UTC)
	e := &core.Extraction{
		Source: "track.acmi",
		Format: core.FormatTelemetry,
		Units: []core.UnitItem{
			{UniqueID: "a1", Name: "Bullseye_BLUE", Kind: core.KindBullseye, Category: core.CategoryNavaid, Coalition: core.CoalitionBlue, IsAlive: true},
		},
		Criteria: core.ExtractCriteria{
			Path:           "track.acmi",
			Coalitions:     []core.Coalition{core.CoalitionBlue},
			Alive:          &alive,
			TimeOfInterest: &toi,
		},
	}
	export := Build(e)

	assert.Empty(t, export.Groups)
	require.Len(t, export.Units, 1)
	assert.Equal(t, "bullseye", export.Units[0].Kind)

	require.NotNil(t, export.Filters)
	assert.Equal(t, []string{"BLUE"}, export.Filters.Coalitions)
	assert.Equal(t, "14:05:00", export.Filters.TimeOfInterest)
	assert.True(t, *export.Filters.Alive)
}
