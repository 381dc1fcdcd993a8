// Package datastore persists finalized noise events and ambient segments.
package datastore

import (
	"log"
	"os"
	"time"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/DrewThomasson/sound-monitor/internal/conf"
	"github.com/DrewThomasson/sound-monitor/internal/errors"
)

// Interface is the storage API used by the realtime monitor.
type Interface interface {
	Open() error
	Close() error
	SaveNoiseEvent(event *NoiseEvent) error
	SaveAmbientSegment(segment *AmbientSegment) error
	GetNoiseEvent(id string) (NoiseEvent, error)
	GetRecentNoiseEvents(limit int) ([]NoiseEvent, error)
	GetRecentAmbientSegments(limit int) ([]AmbientSegment, error)
}

// DataStore implements the storage operations shared by all database
// backends.
type DataStore struct {
	DB *gorm.DB
}

// New creates the configured datastore, or nil when storage is disabled.
func New(settings *conf.Settings) Interface {
	if !settings.Output.SQLite.Enabled {
		return nil
	}
	return &SQLiteStore{Settings: settings}
}

// SaveNoiseEvent inserts a finalized noise event row.
func (ds *DataStore) SaveNoiseEvent(event *NoiseEvent) error {
	if ds.DB == nil {
		return errNotOpen()
	}
	if err := ds.DB.Create(event).Error; err != nil {
		return errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatastore).
			Context("event_id", event.ID).
			Build()
	}
	return nil
}

// SaveAmbientSegment inserts a finalized ambient segment row.
func (ds *DataStore) SaveAmbientSegment(segment *AmbientSegment) error {
	if ds.DB == nil {
		return errNotOpen()
	}
	if err := ds.DB.Create(segment).Error; err != nil {
		return errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatastore).
			Context("segment_id", segment.ID).
			Build()
	}
	return nil
}

// GetNoiseEvent retrieves a single noise event by its ID.
func (ds *DataStore) GetNoiseEvent(id string) (NoiseEvent, error) {
	if ds.DB == nil {
		return NoiseEvent{}, errNotOpen()
	}
	var event NoiseEvent
	if err := ds.DB.First(&event, "id = ?", id).Error; err != nil {
		return NoiseEvent{}, errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatastore).
			Context("event_id", id).
			Build()
	}
	return event, nil
}

// GetRecentNoiseEvents retrieves the most recent noise events, newest first.
func (ds *DataStore) GetRecentNoiseEvents(limit int) ([]NoiseEvent, error) {
	if ds.DB == nil {
		return nil, errNotOpen()
	}
	var events []NoiseEvent
	if err := ds.DB.Order("start DESC").Limit(limit).Find(&events).Error; err != nil {
		return nil, errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatastore).
			Build()
	}
	return events, nil
}

// GetRecentAmbientSegments retrieves the most recent ambient segments,
// newest first.
func (ds *DataStore) GetRecentAmbientSegments(limit int) ([]AmbientSegment, error) {
	if ds.DB == nil {
		return nil, errNotOpen()
	}
	var segments []AmbientSegment
	if err := ds.DB.Order("start DESC").Limit(limit).Find(&segments).Error; err != nil {
		return nil, errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatastore).
			Build()
	}
	return segments, nil
}

func errNotOpen() error {
	return errors.Newf("database connection is not initialized").
		Component("datastore").
		Category(errors.CategoryDatastore).
		Build()
}

// createGormLogger configures and returns a new GORM logger instance.
func createGormLogger() gormlogger.Interface {
	return gormlogger.New(
		log.New(os.Stderr, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		},
	)
}

// performAutoMigration runs schema migration for all model types.
func performAutoMigration(db *gorm.DB, debug bool, dbType, connectionInfo string) error {
	if err := db.AutoMigrate(&NoiseEvent{}, &AmbientSegment{}); err != nil {
		return errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatastore).
			Context("db_type", dbType).
			Build()
	}
	if debug {
		log.Printf("%s database connection initialized: %s", dbType, connectionInfo)
	}
	return nil
}
