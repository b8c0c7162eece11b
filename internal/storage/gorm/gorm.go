// Package gormstorage implements the storage.Backend interface on any GORM
// database. Each extraction is written in one transaction.
package gormstorage

import (
	"errors"
	"fmt"

	"github.com/OCAP2/extractor/internal/database"
	"github.com/OCAP2/extractor/internal/model"
	"github.com/OCAP2/extractor/internal/model/convert"
	"github.com/OCAP2/extractor/pkg/core"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrNotFound is returned by Load for an unknown extraction ID.
var ErrNotFound = errors.New("extraction not found")

// Backend implements storage.Backend on a GORM connection it does not own.
type Backend struct {
	db     *gorm.DB
	logger zerolog.Logger
}

// New creates a new GORM storage backend.
func New(db *gorm.DB, logger zerolog.Logger) *Backend {
	return &Backend{db: db, logger: logger}
}

// DB exposes the connection for wrappers.
func (b *Backend) DB() *gorm.DB {
	return b.db
}

// Init runs schema migration.
func (b *Backend) Init() error {
	if b.db == nil {
		return fmt.Errorf("gorm backend has no database")
	}
	m := database.NewManager(b.logger)
	m.DB = b.db
	return m.Setup()
}

// Close is a no-op; whoever opened the connection closes it.
func (b *Backend) Close() error {
	return nil
}

// Store writes the extraction with its groups, units and route points.
func (b *Backend) Store(e *core.Extraction) error {
	_, err := b.StoreID(e)
	return err
}

// StoreID is Store returning the new extraction ID.
func (b *Backend) StoreID(e *core.Extraction) (uint, error) {
	row, err := convert.CoreToExtraction(e)
	if err != nil {
		return 0, fmt.Errorf("failed to convert extraction of %s: %w", e.Source, err)
	}
	err = b.db.Transaction(func(tx *gorm.DB) error {
		return writeExtraction(tx, &row)
	})
	if err != nil {
		return 0, fmt.Errorf("failed to store extraction of %s: %w", e.Source, err)
	}

	b.logger.Debug().
		Uint("id", row.ID).
		Str("source", e.Source).
		Int("groups", row.GroupCount).
		Int("units", row.UnitCount).
		Msg("Stored extraction")
	return row.ID, nil
}

// writeExtraction inserts rows top-down, stamping each level's foreign
// keys from the IDs of the level above.
func writeExtraction(tx *gorm.DB, row *model.Extraction) error {
	groups, flat := row.Groups, row.Units
	if err := tx.Omit(clause.Associations).Create(row).Error; err != nil {
		return fmt.Errorf("creating extraction: %w", err)
	}

	if len(groups) > 0 {
		for i := range groups {
			groups[i].ExtractionID = row.ID
		}
		if err := tx.Omit(clause.Associations).Create(&groups).Error; err != nil {
			return fmt.Errorf("creating groups: %w", err)
		}
	}

	var units []model.Unit
	var points []model.RoutePoint
	for i := range groups {
		gid := groups[i].ID
		for _, u := range groups[i].Units {
			u.ExtractionID = row.ID
			u.GroupID = &gid
			units = append(units, u)
		}
		for _, p := range groups[i].RoutePoints {
			p.GroupID = gid
			points = append(points, p)
		}
	}
	for _, u := range flat {
		u.ExtractionID = row.ID
		u.GroupID = nil
		units = append(units, u)
	}

	if len(units) > 0 {
		if err := tx.Create(&units).Error; err != nil {
			return fmt.Errorf("creating units: %w", err)
		}
	}
	if len(points) > 0 {
		if err := tx.Create(&points).Error; err != nil {
			return fmt.Errorf("creating route points: %w", err)
		}
	}
	return nil
}

// Load reads a stored extraction back.
func (b *Backend) Load(id uint) (*core.Extraction, error) {
	var row model.Extraction
	err := b.db.
		Preload("Groups").
		Preload("Groups.Units").
		Preload("Groups.RoutePoints").
		Preload("Units", "group_id IS NULL").
		First(&row, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	e := convert.ExtractionToCore(row)
	return &e, nil
}

// Summary is one row of List.
type Summary struct {
	ID         uint
	Source     string
	Format     string
	Theater    string
	GroupCount int
	UnitCount  int
}

// List returns stored extractions, newest first.
func (b *Backend) List() ([]Summary, error) {
	var rows []model.Extraction
	if err := b.db.Order("id desc").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]Summary, len(rows))
	for i, r := range rows {
		out[i] = Summary{
			ID:         r.ID,
			Source:     r.Source,
			Format:     r.Format,
			Theater:    r.Theater,
			GroupCount: r.GroupCount,
			UnitCount:  r.UnitCount,
		}
	}
	return out, nil
}
