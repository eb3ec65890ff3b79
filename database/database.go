package database

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"sync"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

type Database struct {
	Lock   sync.Mutex
	Cli    *gorm.DB
	Logger zerolog.Logger
	DryRun bool
}

// GetSource returns the catalog entry for a source directory, creating it
// if it does not exist yet.
func (d *Database) GetSource(ctx context.Context, path string) (*BackupSource, error) {
	d.Lock.Lock()
	defer d.Lock.Unlock()

	d.Logger.Debug().Str("path", path).Msg("get source")

	source := &Source{}
	err := d.Cli.WithContext(ctx).Where(Source{Path: path}).FirstOrCreate(source).Error
	if err != nil {
		return nil, err
	}

	return &BackupSource{db: d, record: source, logger: d.Logger.With().Str("source", path).Logger()}, nil
}

// LookupSource returns the catalog entry for a source directory without
// creating one. Used by read-only commands.
func (d *Database) LookupSource(ctx context.Context, path string) (*BackupSource, error) {
	d.Lock.Lock()
	defer d.Lock.Unlock()

	source := &Source{}
	err := d.Cli.WithContext(ctx).Where(Source{Path: path}).First(source).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("unknown source %q", path)
	}
	if err != nil {
		return nil, err
	}

	return &BackupSource{db: d, record: source, logger: d.Logger.With().Str("source", path).Logger()}, nil
}

// IterSources yields every source directory known to the catalog.
func (d *Database) IterSources(ctx context.Context) (iter.Seq[*BackupSource], error) {
	d.Lock.Lock()
	sources := []Source{}
	err := d.Cli.WithContext(ctx).Find(&sources).Error
	d.Lock.Unlock()
	if err != nil {
		return nil, err
	}

	return func(yield func(*BackupSource) bool) {
		for i := range sources {
			record := sources[i]
			bs := &BackupSource{
				db:     d,
				record: &record,
				logger: d.Logger.With().Str("source", record.Path).Logger(),
			}
			if !yield(bs) {
				return
			}
		}
	}, nil
}
