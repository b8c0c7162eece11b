package memory

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/OCAP2/extractor/internal/config"
	"github.com/OCAP2/extractor/internal/storage"
	v1 "github.com/OCAP2/extractor/internal/storage/memory/export/v1"
	"github.com/OCAP2/extractor/pkg/core"
	"github.com/klauspost/compress/gzip"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Compile-time interface checks
var (
	_ storage.Backend  = (*Backend)(nil)
	_ storage.Exporter = (*Backend)(nil)
)

func extraction(source string) *core.Extraction {
	return &core.Extraction{
		Source:      source,
		Format:      core.FormatMission,
		Theater:     "Caucasus",
		ExtractedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Groups: []core.UnitGroupItem{{
			UniqueID: "1", Name: "Armor", Coalition: core.CoalitionRed, Category: core.CategoryGround,
			Units: []core.UnitItem{{UniqueID: "2", Type: "T-72B", Coalition: core.CoalitionRed, Category: core.CategoryGround, Kind: core.KindUnit, IsAlive: true}},
		}},
	}
}

func TestStore_KeepsOrder(t *testing.T) {
	b := New(config.OutputConfig{}, zerolog.Nop())
	require.NoError(t, b.Init())

	require.NoError(t, b.Store(extraction("a.miz")))
	require.NoError(t, b.Store(extraction("b.miz")))

	got := b.Extractions()
	require.Len(t, got, 2)
	assert.Equal(t, "a.miz", got[0].Source)
	assert.Equal(t, "b.miz", got[1].Source)

	require.NoError(t, b.Close())
	assert.Empty(t, b.ExportedFiles(), "no output dir means no files")
}

func TestStore_Concurrent(t *testing.T) {
	b := New(config.OutputConfig{}, zerolog.Nop())

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = b.Store(extraction("x.miz"))
		}()
	}
	wg.Wait()
	assert.Len(t, b.Extractions(), 50)
}

func TestClose_ExportsJSON(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	b := New(config.OutputConfig{Dir: dir, Format: "json"}, zerolog.Nop())
	require.NoError(t, b.Store(extraction("missions/op.miz")))
	require.NoError(t, b.Close())
	require.NoError(t, b.Close())

	files := b.ExportedFiles()
	require.Len(t, files, 1)
	assert.Equal(t, filepath.Join(dir, "op_miz_20260301_120000.json"), files[0])

	data, err := os.ReadFile(files[0])
	require.NoError(t, err)
	var doc v1.Export
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "Caucasus", doc.Theater)
	require.Len(t, doc.Groups, 1)
	assert.Equal(t, "Armor", doc.Groups[0].Name)
	assert.Equal(t, 1, doc.Summary.Units)
}

func TestClose_ExportsGzipJSON(t *testing.T) {
	dir := t.TempDir()
	b := New(config.OutputConfig{Dir: dir, Format: "json.gz"}, zerolog.Nop())
	require.NoError(t, b.Store(extraction("op.miz")))
	require.NoError(t, b.Close())

	files := b.ExportedFiles()
	require.Len(t, files, 1)
	assert.Equal(t, ".gz", filepath.Ext(files[0]))

	f, err := os.Open(files[0])
	require.NoError(t, err)
	defer f.Close()
	gz, err := gzip.NewReader(f)
	require.NoError(t, err)

	var doc v1.Export
	require.NoError(t, json.NewDecoder(gz).Decode(&doc))
	assert.Equal(t, v1.Version, doc.ExportVersion)
	assert.Equal(t, "op.miz", doc.Source)
}
