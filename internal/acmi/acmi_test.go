package acmi

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/OCAP2/extractor/internal/archive/archivetest"
	"github.com/OCAP2/extractor/pkg/core"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleRecording = `FileType=text/acmi/tacview
FileVersion=2.2
0,ReferenceTime=2023-05-01T08:00:00Z
0,ReferenceLongitude=41
0,ReferenceLatitude=42
0,Title=Training
// objects
#0
101,T=0.5|0.25|1000,Type=Air+FixedWing,Name=F-16C_50,Pilot=Enfield11,Group=Enfield,Color=Blue,Coalition=Enemies
102,T=0.1|0.1|0,Type=Ground+Heavy+Armor+Vehicle+Tank,Name=T-72B,Color=Red
103,T=0|0|0,Type=Navaid+Static+Bullseye,Color=Blue
#5
101,T=0.6||1200
201,T=0.6|0.3|1000,Type=Weapon+Missile,Name=AIM-120C,Color=Blue
#10
-102
101,T=|0.35|
#15
101,T=0.7|0.4|1500
`

func newTestExtractor() *Extractor {
	return New(zerolog.Nop())
}

func clock(h, m, s int) *time.Time {
	t := time.Date(2000, 1, 1, h, m, s, 0, time.UTC)
	return &t
}

func unitsByID(units []core.UnitItem) map[string]core.UnitItem {
	out := make(map[string]core.UnitItem, len(units))
	for _, u := range units {
		out[u.UniqueID] = u
	}
	return out
}

func TestExtract_FinalState(t *testing.T) {
	path := archivetest.WriteFile(t, "track.txt.acmi", sampleRecording)

	res, err := newTestExtractor().ExtractRecording(core.ExtractCriteria{Path: path})
	require.NoError(t, err)
	assert.False(t, res.Target.Bounded)
	assert.Equal(t, "Training", res.Header.Title)

	require.Len(t, res.Units, 3)
	assert.Equal(t, "101", res.Units[0].UniqueID)
	assert.Equal(t, "102", res.Units[1].UniqueID)
	assert.Equal(t, "103", res.Units[2].UniqueID)

	f16 := res.Units[0]
	assert.Equal(t, "F-16C_50", f16.Type)
	assert.Equal(t, "Enfield11", f16.Name)
	assert.Equal(t, "Enfield", f16.Group)
	assert.Equal(t, core.CoalitionBlue, f16.Coalition)
	assert.Equal(t, core.CategoryAircraft, f16.Category)
	assert.Equal(t, core.KindUnit, f16.Kind)
	assert.True(t, f16.IsAlive)
	assert.InDelta(t, 41.7, f16.Position.Longitude, 1e-9)
	assert.InDelta(t, 42.4, f16.Position.Latitude, 1e-9)
	assert.InDelta(t, 1500*core.MetersToFeet, f16.Position.Altitude, 1e-6)
	assert.Equal(t, 8*3600+15, f16.Position.TimeOn)

	tank := res.Units[1]
	assert.Equal(t, "T-72B", tank.Type)
	assert.Equal(t, "T-72B_102", tank.Name)
	assert.Equal(t, "T-72B_group_102", tank.Group)
	assert.Equal(t, core.CoalitionRed, tank.Coalition)
	assert.Equal(t, core.CategoryGround, tank.Category)
	assert.False(t, tank.IsAlive)
	assert.InDelta(t, 41.1, tank.Position.Longitude, 1e-9)
	assert.InDelta(t, 42.1, tank.Position.Latitude, 1e-9)
	assert.Equal(t, 8*3600, tank.Position.TimeOn)

	bull := res.Units[2]
	assert.Equal(t, "Bullseye_BLUE", bull.Name)
	assert.Equal(t, core.KindBullseye, bull.Kind)
	assert.Equal(t, core.CategoryNavaid, bull.Category)
	assert.InDelta(t, 41.0, bull.Position.Longitude, 1e-9)
}

func TestExtract_TimeOfInterest(t *testing.T) {
	path := archivetest.WriteFile(t, "track.txt.acmi", sampleRecording)
	e := newTestExtractor()

	tests := []struct {
		name      string
		at        *time.Time
		marker    float64
		lat       float64
		lon       float64
		alt       float64
		tankAlive bool
	}{
		{"before start picks first frame", clock(7, 0, 0), 0, 42.25, 41.5, 1000, true},
		{"nearest is 5", clock(8, 0, 6), 5, 42.25, 41.6, 1200, true},
		{"exactly 10", clock(8, 0, 10), 10, 42.35, 41.6, 1200, false},
		{"between frames", clock(8, 0, 12), 10, 42.35, 41.6, 1200, false},
		{"after end", clock(23, 0, 0), 15, 42.4, 41.7, 1500, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := e.ExtractRecording(core.ExtractCriteria{Path: path, TimeOfInterest: tt.at})
			require.NoError(t, err)
			assert.True(t, res.Target.Bounded)
			assert.Equal(t, tt.marker, res.Target.Marker)

			units := unitsByID(res.Units)
			f16 := units["101"]
			assert.InDelta(t, tt.lat, f16.Position.Latitude, 1e-9)
			assert.InDelta(t, tt.lon, f16.Position.Longitude, 1e-9)
			assert.InDelta(t, tt.alt*core.MetersToFeet, f16.Position.Altitude, 1e-6)
			assert.Equal(t, tt.tankAlive, units["102"].IsAlive)
			_, weapon := units["201"]
			assert.False(t, weapon)
		})
	}
}

func TestExtract_LastWriteWins(t *testing.T) {
	path := archivetest.WriteFile(t, "lww.acmi", `FileType=text/acmi/tacview
1,T=1|1|1,Type=Air+FixedWing,Name=A,Pilot=First,Color=Blue
1,Type=Air+Rotorcraft,Name=B,Color=Red
`)
	units, err := newTestExtractor().Extract(core.ExtractCriteria{Path: path})
	require.NoError(t, err)
	require.Len(t, units, 1)

	u := units[0]
	assert.Equal(t, "B", u.Type)
	assert.Equal(t, core.CategoryHelicopter, u.Category)
	assert.Equal(t, core.CoalitionRed, u.Coalition)
	// a redefinition does not keep the old pilot
	assert.Equal(t, "B_1", u.Name)
}

func TestExtract_DeletionKeepsLastPosition(t *testing.T) {
	path := archivetest.WriteFile(t, "del.acmi", `FileType=text/acmi/tacview
0,ReferenceLongitude=10
0,ReferenceLatitude=20
1,T=1|2|100,Type=Ground+Vehicle,Name=Truck,Color=Red
#10
1,T=1.5|2.5|100
-1
1,T=3|3|3
`)
	units, err := newTestExtractor().Extract(core.ExtractCriteria{Path: path})
	require.NoError(t, err)
	require.Len(t, units, 1)
	assert.False(t, units[0].IsAlive)
	assert.InDelta(t, 11.5, units[0].Position.Longitude, 1e-9)
	assert.InDelta(t, 22.5, units[0].Position.Latitude, 1e-9)
	assert.Equal(t, 10, units[0].Position.TimeOn)
}

func TestExtract_Truncation(t *testing.T) {
	path := archivetest.WriteFile(t, "trunc.acmi", `FileType=text/acmi/tacview
0,ReferenceTime=2023-05-01T00:00:00Z
#1
1,T=1|1|1,Type=Air+FixedWing,Name=A,Color=Blue
#5
1,T=2|2|2
#9
1,Type=Sea+Watercraft,Name=B,Color=Red
-1
2,T=0|0|0,Type=Air+FixedWing,Name=Late,Color=Blue
`)
	units, err := newTestExtractor().Extract(core.ExtractCriteria{Path: path, TimeOfInterest: clock(0, 0, 5)})
	require.NoError(t, err)
	require.Len(t, units, 1)
	assert.Equal(t, "A", units[0].Type)
	assert.True(t, units[0].IsAlive)
	assert.InDelta(t, 2.0, units[0].Position.Longitude, 1e-9)
}

func TestExtract_NoMarkers(t *testing.T) {
	path := archivetest.WriteFile(t, "nomarkers.acmi", `FileType=text/acmi/tacview
0,ReferenceTime=2023-05-01T12:00:00Z
1,T=1|1|1,Type=Air+FixedWing,Name=A,Color=Blue
2,T=2|2|2,Type=Sea+Watercraft,Name=CVN_74,Color=Blue
`)
	e := newTestExtractor()

	units, err := e.Extract(core.ExtractCriteria{Path: path})
	require.NoError(t, err)
	assert.Len(t, units, 2)

	res, err := e.ExtractRecording(core.ExtractCriteria{Path: path, TimeOfInterest: clock(13, 0, 0)})
	require.NoError(t, err)
	assert.False(t, res.Target.Bounded)
	assert.Len(t, res.Units, 2)
	assert.Equal(t, 12*3600, res.Units[0].Position.TimeOn)
}

func TestExtract_ReservedFamilySupersedes(t *testing.T) {
	path := archivetest.WriteFile(t, "reserved.acmi", `FileType=text/acmi/tacview
5,T=1|1|1,Type=Air+FixedWing,Name=A,Color=Blue
5,T=1|1|1,Type=Misc+Shrapnel,Color=Blue
5,T=2|2|2
6,T=1|1|1,Type=Projectile+Shell,Color=Red
7,T=1|1|1,Type=Shrapnel,Color=Red
8,T=1|1|1,Type=Air+Rotorcraft,Name=Mi-8MT,Color=Red
`)
	units, err := newTestExtractor().Extract(core.ExtractCriteria{Path: path})
	require.NoError(t, err)
	require.Len(t, units, 1)
	assert.Equal(t, "8", units[0].UniqueID)
	assert.Equal(t, "Mi-8MT", units[0].Type)
}

func TestExtract_EscapesAndContinuation(t *testing.T) {
	path := archivetest.WriteFile(t, "esc.acmi", "FileType=text/acmi/tacview\r\n"+
		"A1,T=1|1|1,Type=Air+FixedWing,Name=F-14B,Pilot=Smith\\, John,Group=Long\\\r\n"+
		"Name,Color=Blue\r\n")
	units, err := newTestExtractor().Extract(core.ExtractCriteria{Path: path})
	require.NoError(t, err)
	require.Len(t, units, 1)
	assert.Equal(t, "a1", units[0].UniqueID)
	assert.Equal(t, "Smith, John", units[0].Name)
	assert.Equal(t, "Long\nName", units[0].Group)
}

func TestExtract_Categories(t *testing.T) {
	path := archivetest.WriteFile(t, "cat.acmi", `FileType=text/acmi/tacview
1,Type=Air+FixedWing,Color=Blue
2,Type=Air+Rotorcraft,Color=Blue
3,Type=Ground+AntiAircraft,Color=Red
4,Type=Sea+Watercraft+Warship,Color=Red
5,Type=Navaid+Static+Waypoint,Color=Blue
6,Type=Ground+Static+Building,Color=Grey
7,Type=Human+Parachutist,Color=Red
8,Coalition=Allies,Name=Something
`)
	units, err := newTestExtractor().Extract(core.ExtractCriteria{Path: path})
	require.NoError(t, err)
	require.Len(t, units, 8)

	want := []core.Category{
		core.CategoryAircraft, core.CategoryHelicopter, core.CategoryGround, core.CategoryShip,
		core.CategoryNavaid, core.CategoryGround, core.CategoryOther, core.CategoryOther,
	}
	for i, u := range units {
		assert.Equal(t, want[i], u.Category, u.UniqueID)
	}
	assert.Equal(t, core.CoalitionNeutral, units[5].Coalition)
	assert.Equal(t, core.CoalitionNeutral, units[7].Coalition)
	assert.Equal(t, "Air+FixedWing", units[0].Type)
	assert.Equal(t, "Air+FixedWing_1", units[0].Name)
}

func TestExtract_Filters(t *testing.T) {
	path := archivetest.WriteFile(t, "track.txt.acmi", sampleRecording)
	e := newTestExtractor()
	alive := true

	units, err := e.Extract(core.ExtractCriteria{Path: path, Alive: &alive})
	require.NoError(t, err)
	assert.Len(t, units, 2)

	units, err = e.Extract(core.ExtractCriteria{Path: path, Coalitions: []core.Coalition{core.CoalitionRed}})
	require.NoError(t, err)
	require.Len(t, units, 1)
	assert.Equal(t, "102", units[0].UniqueID)

	units, err = e.Extract(core.ExtractCriteria{Path: path, Categories: []core.Category{core.CategoryNavaid}})
	require.NoError(t, err)
	require.Len(t, units, 1)
	assert.Equal(t, core.KindBullseye, units[0].Kind)
}

func TestExtract_ZippedRecording(t *testing.T) {
	path := archivetest.WriteZip(t, "track.zip.acmi", map[string]string{"track.txt.acmi": sampleRecording})
	units, err := newTestExtractor().Extract(core.ExtractCriteria{Path: path})
	require.NoError(t, err)
	assert.Len(t, units, 3)

	// a lone entry is used whatever it is called
	path = archivetest.WriteZip(t, "other.zip.acmi", map[string]string{"recording": sampleRecording})
	units, err = newTestExtractor().Extract(core.ExtractCriteria{Path: path})
	require.NoError(t, err)
	assert.Len(t, units, 3)
}

func TestExtract_Errors(t *testing.T) {
	tests := []struct {
		name     string
		path     func(t *testing.T) string
		criteria core.ExtractCriteria
		want     error
	}{
		{
			name: "empty path",
			path: func(t *testing.T) string { return "" },
			want: core.ErrConfig,
		},
		{
			name: "missing file",
			path: func(t *testing.T) string { return filepath.Join(t.TempDir(), "none.acmi") },
			want: core.ErrFileNotFound,
		},
		{
			name: "zip with two recordings",
			path: func(t *testing.T) string {
				return archivetest.WriteZip(t, "two.zip.acmi", map[string]string{"a.txt.acmi": "", "b.txt.acmi": ""})
			},
			want: core.ErrArchive,
		},
		{
			name: "bad marker",
			path: func(t *testing.T) string { return archivetest.WriteFile(t, "m.acmi", "#abc\n") },
			want: core.ErrData,
		},
		{
			name: "bad object id",
			path: func(t *testing.T) string { return archivetest.WriteFile(t, "id.acmi", "zz,T=1|1|1\n") },
			want: core.ErrData,
		},
		{
			name: "bad reference time",
			path: func(t *testing.T) string { return archivetest.WriteFile(t, "rt.acmi", "0,ReferenceTime=yesterday\n") },
			want: core.ErrData,
		},
		{
			name:     "time of interest without reference",
			path:     func(t *testing.T) string { return archivetest.WriteFile(t, "noref.acmi", "#1\n") },
			criteria: core.ExtractCriteria{TimeOfInterest: clock(1, 0, 0)},
			want:     core.ErrData,
		},
		{
			name: "not utf8",
			path: func(t *testing.T) string { return archivetest.WriteFile(t, "bin.acmi", "\xff\xfe\x00") },
			want: core.ErrData,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := tt.criteria
			c.Path = tt.path(t)
			units, err := newTestExtractor().Extract(c)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.Nil(t, units)
		})
	}
}
