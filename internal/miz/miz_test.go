package miz

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/OCAP2/extractor/internal/archive/archivetest"
	"github.com/OCAP2/extractor/internal/geo"
	"github.com/OCAP2/extractor/pkg/core"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const planeGroup = `
						[1] = {
							["groupId"] = 7,
							["name"] = "Enfield",
							["route"] = {
								["points"] = {
									[1] = { ["x"] = -100000, ["y"] = 50000, ["alt"] = 100, ["ETA"] = 0, ["ETA_locked"] = true, ["name"] = "SPAWN" },
									[2] = { ["x"] = -80000, ["y"] = 70000, ["alt"] = 6000, ["ETA"] = 600, ["ETA_locked"] = false },
									[3] = { ["x"] = -60000, ["y"] = 90000, ["alt"] = 6000, ["ETA"] = 1200, ["ETA_locked"] = true, ["name"] = "TGT" },
								},
							},
							["units"] = {
								[1] = { ["unitId"] = 11, ["type"] = "F-16C_50", ["name"] = "Enfield-1-1", ["x"] = -100000, ["y"] = 50000, ["alt"] = 100 },
								[2] = { ["unitId"] = 12, ["type"] = "F-16C_50", ["name"] = "Enfield-1-2", ["x"] = -100040, ["y"] = 50040 },
							},
						},`

func missionDoc(blueCountries string, extra string) string {
	return `mission = {
	["start_time"] = 28800,
	["coalition"] = {
		["blue"] = {
			["name"] = "blue",
			["country"] = {` + blueCountries + `
			},
		},
		["red"] = {
			["name"] = "red",
			["country"] = {
				[1] = {
					["name"] = "Russia",
					["vehicle"] = {
						["group"] = {
							[1] = {
								["groupId"] = 20,
								["name"] = "Armor",
								["units"] = {
									[1] = { ["type"] = "T-72B", ["name"] = "Armor-1", ["x"] = -150000, ["y"] = 100000 },
									[2] = { ["type"] = "BMP-2", ["name"] = "Armor-2", ["x"] = -150050, ["y"] = 100050 },
								},
							},
						},
					},
				},
			},
		},
	},` + extra + `
}`
}

func scenarioA() string {
	return missionDoc(`
				[1] = {
					["name"] = "USA",
					["plane"] = {
						["group"] = {`+planeGroup+`
						},
					},
				},`, "")
}

func newTestExtractor(t *testing.T) *Extractor {
	t.Helper()
	r, err := geo.NewRegistry()
	require.NoError(t, err)
	return New(r, zerolog.Nop())
}

func writeZipEntries(t *testing.T, entries map[string]string) string {
	t.Helper()
	return archivetest.WriteZip(t, "test.miz", entries)
}

func writeMission(t *testing.T, theatre, mission string) string {
	t.Helper()
	entries := map[string]string{"mission": mission}
	if theatre != "" {
		entries["theatre"] = theatre
	}
	return archivetest.WriteZip(t, "test.miz", entries)
}

func TestExtract_ScenarioA(t *testing.T) {
	e := newTestExtractor(t)
	path := writeMission(t, "Caucasus", missionDoc(`
				[1] = {
					["name"] = "USA",
					["plane"] = {
						["group"] = {`+planeGroup+`
						},
					},
				},`, ""))

	groups, err := e.Extract(core.ExtractCriteria{Path: path, Coalitions: []core.Coalition{core.CoalitionBlue}})
	require.NoError(t, err)
	require.Len(t, groups, 1)

	g := groups[0]
	assert.Equal(t, "7", g.UniqueID)
	assert.Equal(t, "Enfield", g.Name)
	assert.Equal(t, core.CategoryAircraft, g.Category)
	assert.Equal(t, core.CoalitionBlue, g.Coalition)
	require.Len(t, g.Units, 2)
	require.Len(t, g.Route, 3)

	r, err := geo.NewRegistry()
	require.NoError(t, err)
	cauc, err := r.Lookup("Caucasus")
	require.NoError(t, err)
	for _, p := range g.Route {
		x, z, err := cauc.LatLonToXZ(p.Latitude, p.Longitude)
		require.NoError(t, err)
		assert.True(t, cauc.Bounds.Contains(x, z))
	}
}

func TestExtract_GroupDetails(t *testing.T) {
	e := newTestExtractor(t)
	path := writeMission(t, "Caucasus\n", scenarioA())

	res, err := e.ExtractMission(core.ExtractCriteria{Path: path})
	require.NoError(t, err)
	assert.Equal(t, "Caucasus", res.Theater)
	assert.Equal(t, 28800, res.StartTime)

	// blue sorts before red
	require.Len(t, res.Groups, 2)
	plane, armor := res.Groups[0], res.Groups[1]

	assert.Equal(t, "SPAWN", plane.Route[0].Name)
	assert.Equal(t, 28800, plane.Route[0].TimeOn)
	assert.Equal(t, core.UnsetTime, plane.Route[1].TimeOn)
	assert.Equal(t, 30000, plane.Route[2].TimeOn)
	assert.Equal(t, "TGT", plane.Route[2].Name)
	assert.InDelta(t, 6000*core.MetersToFeet, plane.Route[1].Altitude, 1e-6)

	u1, u2 := plane.Units[0], plane.Units[1]
	assert.Equal(t, "11", u1.UniqueID)
	assert.Equal(t, "12", u2.UniqueID)
	assert.Equal(t, "F-16C_50", u1.Type)
	assert.Equal(t, "Enfield-1-1", u1.Name)
	assert.Equal(t, "Enfield", u1.Group)
	assert.Equal(t, core.KindUnit, u1.Kind)
	assert.True(t, u1.IsAlive)
	assert.True(t, u2.IsAlive)
	assert.InDelta(t, 100*core.MetersToFeet, u1.Position.Altitude, 1e-6)
	assert.Equal(t, 0.0, u2.Position.Altitude)
	assert.Equal(t, core.UnsetTime, u1.Position.TimeOn)
	assert.Equal(t, plane.Route[0].Latitude, u1.Position.Latitude)

	assert.Equal(t, core.CategoryGround, armor.Category)
	assert.Equal(t, core.CoalitionRed, armor.Coalition)
	assert.Equal(t, "20-1", armor.Units[0].UniqueID)
	assert.Equal(t, "20-2", armor.Units[1].UniqueID)
	assert.Empty(t, armor.Route)
}

func TestExtract_Filters(t *testing.T) {
	e := newTestExtractor(t)
	path := writeMission(t, "Caucasus", scenarioA())
	dead := false

	tests := []struct {
		name     string
		criteria core.ExtractCriteria
		groups   []string
		units    int
	}{
		{"none", core.ExtractCriteria{}, []string{"Enfield", "Armor"}, 4},
		{"red", core.ExtractCriteria{Coalitions: []core.Coalition{core.CoalitionRed}}, []string{"Armor"}, 2},
		{"aircraft", core.ExtractCriteria{Categories: []core.Category{core.CategoryAircraft}}, []string{"Enfield"}, 2},
		{"type", core.ExtractCriteria{UnitTypes: []string{"bmp-2"}}, []string{"Armor"}, 1},
		{"dead", core.ExtractCriteria{Alive: &dead}, []string{}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.criteria.Path = path
			groups, err := e.Extract(tt.criteria)
			require.NoError(t, err)

			names := []string{}
			units := 0
			for _, g := range groups {
				names = append(names, g.Name)
				units += len(g.Units)
			}
			assert.Equal(t, tt.groups, names)
			assert.Equal(t, tt.units, units)
		})
	}
}

func TestExtract_TheaterResolution(t *testing.T) {
	e := newTestExtractor(t)

	// override wins over the entry
	path := writeMission(t, "Nevada", scenarioA())
	res, err := e.ExtractMission(core.ExtractCriteria{Path: path, Theater: "Caucasus"})
	require.NoError(t, err)
	assert.Equal(t, "Caucasus", res.Theater)

	// surrounding whitespace in the entry is ignored
	path = writeMission(t, " Syria\n", scenarioA())
	res, err = e.ExtractMission(core.ExtractCriteria{Path: path})
	require.NoError(t, err)
	assert.Equal(t, "Syria", res.Theater)
}

func TestExtract_TheatreEntryRequired(t *testing.T) {
	e := newTestExtractor(t)

	// a theatre field inside the mission table does not replace the entry
	path := writeMission(t, "", missionDoc("", `
	["theatre"] = "Syria",`))
	_, err := e.ExtractMission(core.ExtractCriteria{Path: path})
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrData)
	assert.NotErrorIs(t, err, core.ErrArchive)
	assert.Contains(t, err.Error(), "theatre")

	// nor does an override
	_, err = e.ExtractMission(core.ExtractCriteria{Path: path, Theater: "Caucasus"})
	assert.ErrorIs(t, err, core.ErrData)

	// a blank entry with an override is fine
	path = writeZipEntries(t, map[string]string{"mission": scenarioA(), "theatre": " "})
	res, err := e.ExtractMission(core.ExtractCriteria{Path: path, Theater: "Caucasus"})
	require.NoError(t, err)
	assert.Equal(t, "Caucasus", res.Theater)
}

func TestExtract_Errors(t *testing.T) {
	e := newTestExtractor(t)

	tests := []struct {
		name    string
		path    func(t *testing.T) string
		theater string
		want    error
	}{
		{
			name: "empty path",
			path: func(t *testing.T) string { return "" },
			want: core.ErrConfig,
		},
		{
			name: "missing file",
			path: func(t *testing.T) string { return filepath.Join(t.TempDir(), "nope.miz") },
			want: core.ErrFileNotFound,
		},
		{
			name: "not a zip",
			path: func(t *testing.T) string { return archivetest.WriteFile(t, "x.miz", "mission = {}") },
			want: core.ErrArchive,
		},
		{
			name: "missing mission entry",
			path: func(t *testing.T) string {
				return archivetest.WriteZip(t, "x.miz", map[string]string{"theatre": "Caucasus"})
			},
			want: core.ErrData,
		},
		{
			name: "missing theatre entry",
			path: func(t *testing.T) string { return writeMission(t, "", scenarioA()) },
			want: core.ErrData,
		},
		{
			name: "blank theatre entry",
			path: func(t *testing.T) string {
				return writeZipEntries(t, map[string]string{"mission": scenarioA(), "theatre": "\n"})
			},
			want: core.ErrData,
		},
		{
			name: "unknown theater",
			path: func(t *testing.T) string { return writeMission(t, "Atlantis", scenarioA()) },
			want: geo.ErrUnknownTheater,
		},
		{
			name:    "unknown theater override",
			path:    func(t *testing.T) string { return writeMission(t, "Caucasus", scenarioA()) },
			theater: "Marianas",
			want:    core.ErrData,
		},
		{
			name: "syntax error",
			path: func(t *testing.T) string { return writeMission(t, "Caucasus", "mission = { [1] = ") },
			want: core.ErrSyntax,
		},
		{
			name: "no mission table",
			path: func(t *testing.T) string { return writeMission(t, "Caucasus", "other = {}") },
			want: core.ErrData,
		},
		{
			name: "no coalition table",
			path: func(t *testing.T) string { return writeMission(t, "Caucasus", "mission = { start_time = 0 }") },
			want: core.ErrData,
		},
		{
			name: "route without points",
			path: func(t *testing.T) string {
				doc := strings.Replace(scenarioA(), `["points"] = {`, `["spans"] = {`, 1)
				return writeMission(t, "Caucasus", doc)
			},
			want: core.ErrData,
		},
		{
			name: "unit without position",
			path: func(t *testing.T) string {
				doc := strings.Replace(scenarioA(), `["x"] = -150000, `, "", 1)
				return writeMission(t, "Caucasus", doc)
			},
			want: core.ErrData,
		},
		{
			name: "group without id",
			path: func(t *testing.T) string {
				doc := strings.Replace(scenarioA(), `["groupId"] = 20,`, "", 1)
				return writeMission(t, "Caucasus", doc)
			},
			want: core.ErrData,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			groups, err := e.Extract(core.ExtractCriteria{Path: tt.path(t), Theater: tt.theater})
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.Nil(t, groups)
		})
	}
}

func TestExtract_NeutralAndUnknownCoalitions(t *testing.T) {
	e := newTestExtractor(t)
	doc := `mission = {
	["coalition"] = {
		["neutrals"] = {
			["country"] = {
				[1] = {
					["ship"] = { ["group"] = { [1] = { ["groupId"] = 1, ["name"] = "Tanker", ["units"] = { [1] = { ["type"] = "Dry-cargo ship-1", ["x"] = 0, ["y"] = 0 } } } } },
					["helicopter"] = { ["group"] = { [1] = { ["groupId"] = 2, ["name"] = "Medevac", ["units"] = { [1] = { ["type"] = "UH-1H", ["x"] = 0, ["y"] = 0 } } } } },
					["static"] = { ["group"] = { [1] = { ["groupId"] = 3 } } },
				},
			},
		},
		["Purple"] = { ["country"] = {} },
		["empty"] = {},
	},
}`
	path := writeMission(t, "Syria", doc)

	groups, err := e.Extract(core.ExtractCriteria{Path: path})
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, "Medevac", groups[0].Name)
	assert.Equal(t, core.CategoryHelicopter, groups[0].Category)
	assert.Equal(t, "Tanker", groups[1].Name)
	assert.Equal(t, core.CategoryShip, groups[1].Category)
	for _, g := range groups {
		assert.Equal(t, core.CoalitionNeutral, g.Coalition)
	}
}

func TestParseCoalitionKey(t *testing.T) {
	assert.Equal(t, core.CoalitionBlue, parseCoalitionKey("BLUE"))
	assert.Equal(t, core.CoalitionRed, parseCoalitionKey("Red"))
	assert.Equal(t, core.CoalitionNeutral, parseCoalitionKey("neutrals"))
	assert.Equal(t, core.CoalitionNeutral, parseCoalitionKey("whatever"))
}
