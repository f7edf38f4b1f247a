// Package store keeps exported markers and legacy cross-check reports in a
// SQLite database so runs can be compared and queried.
package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/SupraGamesCommunity/maps/markers"
)

const batchSize = 500

// MarkerRow is one exported marker of a game.
type MarkerRow struct {
	ID        uint   `gorm:"primarykey"`
	Game      string `gorm:"size:16;index:idx_marker_game_key"`
	MarkerKey string `gorm:"size:255;index:idx_marker_game_key"`
	Name      string `gorm:"size:255"`
	Type      string `gorm:"size:255;index"`
	Area      string `gorm:"size:64"`
	Lat       float64
	Lng       float64
	Alt       float64
	Data      datatypes.JSON
}

// CrossCheckEntry is one legacy record matched to a marker.
type CrossCheckEntry struct {
	ID         uint   `gorm:"primarykey"`
	Game       string `gorm:"size:16;index"`
	GroupName  string `gorm:"size:64"`
	MarkerKey  string `gorm:"size:255"`
	Distance   float64
	Suspicious bool
	URL        string
	LegacyX    float64
	LegacyY    float64
	Legacy     datatypes.JSON
}

// Models lists the tables of the schema.
var Models = []any{
	&MarkerRow{},
	&CrossCheckEntry{},
}

// Store wraps the database connection.
type Store struct {
	db  *gorm.DB
	log *zap.Logger
}

// Open opens (or creates) the database at path and migrates the schema.
// An empty path opens an in-memory database.
func Open(path string, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}
	dsn := path
	if dsn == "" {
		dsn = "file::memory:"
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
		CreateBatchSize:        batchSize,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access sql interface: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = MEMORY;",
		"PRAGMA synchronous = OFF;",
	} {
		if err := db.Exec(pragma).Error; err != nil {
			return nil, fmt.Errorf("error setting PRAGMA: %w", err)
		}
	}

	if err := db.AutoMigrate(Models...); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}
	if path != "" {
		log.Info("opened marker database", zap.String("path", path))
	}
	return &Store{db: db, log: log}, nil
}

// Close closes the underlying connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// SaveMarkers replaces the stored markers of game.
func (s *Store) SaveMarkers(ctx context.Context, game string, ms []*markers.Marker) error {
	rows := make([]MarkerRow, 0, len(ms))
	for _, m := range ms {
		data, err := json.Marshal(m)
		if err != nil {
			return fmt.Errorf("encoding marker %s: %w", m.Key(), err)
		}
		rows = append(rows, MarkerRow{
			Game:      game,
			MarkerKey: m.Key(),
			Name:      m.Name,
			Type:      m.Type,
			Area:      m.Area,
			Lat:       m.Lat,
			Lng:       m.Lng,
			Alt:       m.Alt,
			Data:      datatypes.JSON(data),
		})
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("game = ?", game).Delete(&MarkerRow{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.CreateInBatches(rows, batchSize).Error
	})
	if err != nil {
		return fmt.Errorf("saving markers: %w", err)
	}
	s.log.Info("stored markers", zap.String("game", game), zap.Int("markers", len(rows)))
	return nil
}

// SaveCrossCheck replaces the stored cross-check report of game.
func (s *Store) SaveCrossCheck(ctx context.Context, game string, rows []markers.CrossCheckRow, suspicious float64) error {
	entries := make([]CrossCheckEntry, 0, len(rows))
	for _, r := range rows {
		legacy, err := json.Marshal(r.Legacy.Fields)
		if err != nil {
			return fmt.Errorf("encoding legacy record: %w", err)
		}
		entries = append(entries, CrossCheckEntry{
			Game:       game,
			GroupName:  r.Group,
			MarkerKey:  r.Marker.Key(),
			Distance:   r.Distance,
			Suspicious: r.Suspicious(suspicious),
			URL:        r.URL,
			LegacyX:    r.Legacy.X,
			LegacyY:    r.Legacy.Y,
			Legacy:     datatypes.JSON(legacy),
		})
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("game = ?", game).Delete(&CrossCheckEntry{}).Error; err != nil {
			return err
		}
		if len(entries) == 0 {
			return nil
		}
		return tx.CreateInBatches(entries, batchSize).Error
	})
	if err != nil {
		return fmt.Errorf("saving cross-check: %w", err)
	}
	s.log.Info("stored cross-check", zap.String("game", game), zap.Int("rows", len(entries)))
	return nil
}

// Markers returns the stored markers of game, by key.
func (s *Store) Markers(ctx context.Context, game string) ([]MarkerRow, error) {
	var rows []MarkerRow
	err := s.db.WithContext(ctx).Where("game = ?", game).Order("marker_key").Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("querying markers: %w", err)
	}
	return rows, nil
}

// Suspicious returns the suspicious cross-check entries of game, farthest
// first.
func (s *Store) Suspicious(ctx context.Context, game string) ([]CrossCheckEntry, error) {
	var entries []CrossCheckEntry
	err := s.db.WithContext(ctx).
		Where("game = ? AND suspicious = ?", game, true).
		Order("distance DESC").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("querying cross-check: %w", err)
	}
	return entries, nil
}
