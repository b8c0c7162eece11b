package sqlitestorage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/OCAP2/extractor/internal/database"
	"github.com/OCAP2/extractor/internal/model"
	"github.com/OCAP2/extractor/internal/storage"
	"github.com/OCAP2/extractor/pkg/core"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ storage.Backend  = (*Backend)(nil)
	_ storage.Exporter = (*Backend)(nil)
)

func extraction() *core.Extraction {
	return &core.Extraction{
		Source:      "track.acmi",
		Format:      core.FormatTelemetry,
		ExtractedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Units: []core.UnitItem{
			{UniqueID: "101", Type: "F-16C_50", Name: "Viper", Coalition: core.CoalitionBlue, Category: core.CategoryAircraft, Kind: core.KindUnit, IsAlive: true},
		},
	}
}

func TestStore_DumpOnClose(t *testing.T) {
	dump := filepath.Join(t.TempDir(), "nested", "extractions.db")

	b, err := New(Config{DumpPath: dump}, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, b.Init())
	require.NoError(t, b.Store(extraction()))
	assert.Empty(t, b.ExportedFiles())
	require.NoError(t, b.Close())
	require.NoError(t, b.Close())

	assert.Equal(t, []string{dump}, b.ExportedFiles())

	db, err := database.GetSqliteDBStandalone(dump)
	require.NoError(t, err)
	var count int64
	require.NoError(t, db.Model(&model.Unit{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
}

func TestStore_MemoryOnly(t *testing.T) {
	b, err := New(Config{}, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, b.Init())
	require.NoError(t, b.Store(extraction()))

	list, err := b.List()
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 1, list[0].UnitCount)

	require.NoError(t, b.Close())
	assert.Nil(t, b.ExportedFiles())
}
