package database

import (
	"context"
	"fmt"
	"iter"

	"github.com/my-player/modelbak/asset"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

const iterateBatchSize = 50

type BackupSource struct {
	db     *Database
	record *Source
	logger zerolog.Logger
}

func (bs *BackupSource) Path() string {
	return bs.record.Path
}

// Register records the assets stored in an archive. The archive row is
// created on first use; assets are inserted in batched transactions.
func (bs *BackupSource) Register(ctx context.Context, from iter.Seq[asset.ArchivedAsset]) error {
	bs.logger.Info().Msg("register backup assets")

	var count int
	defer func() {
		if ctx.Err() != nil {
			bs.logger.Info().Msg("cancelled recording backup assets")
		} else if count == 0 {
			bs.logger.Info().Msg("no backup assets recorded")
		} else {
			bs.logger.Info().Int("recorded", count).Msg("done recording backup assets")
		}
	}()

	var err error
	count, err = bs.recordAssetsInBatches(ctx, from, bs.logger)
	if err != nil {
		return err
	}
	return nil
}

// FindArchives yields the archives of this source, newest first, with
// their total uncompressed size and file count.
func (bs *BackupSource) FindArchives(ctx context.Context, opts ...FindArchivesOptions) (iter.Seq[BackupArchive], error) {
	o := findArchivesOptions{}
	for _, opt := range opts {
		opt(&o)
	}

	return func(yield func(BackupArchive) bool) {
		offset := o.skipNewest
		remaining := o.limit
		for {
			var thisBatchSize int
			if remaining > 0 {
				thisBatchSize = min(remaining, iterateBatchSize)
			} else {
				thisBatchSize = iterateBatchSize
			}

			archives := []BackupArchive{}

			bs.db.Lock.Lock()
			err := bs.db.Cli.WithContext(ctx).Table("archive").
				Select("archive.path, archive.created_at, "+
					"COALESCE(SUM(archive_asset.size), 0) AS size, "+
					"COUNT(archive_asset.path) AS asset_count").
				Joins("LEFT JOIN archive_asset ON archive.path = archive_asset.archive_path").
				Where("archive.source_path = ?", bs.record.Path).
				Group("archive.path, archive.created_at").
				Order("archive.created_at DESC").
				Limit(thisBatchSize).
				Offset(offset).
				Find(&archives).Error
			bs.db.Lock.Unlock()
			if err != nil {
				bs.db.Logger.Error().Err(err).Msg("error fetching archives from database")
				return
			}
			if len(archives) == 0 {
				return
			}
			for i := range archives {
				if ctx.Err() != nil {
					return
				}
				if !yield(archives[i]) {
					return
				}
			}
			offset += len(archives)
			if remaining > 0 {
				remaining -= len(archives)
				if remaining <= 0 {
					return
				}
			}
		}
	}, nil
}

// DeleteArchives removes the given archives and their assets from the
// catalog. The archive files themselves are not touched.
func (bs *BackupSource) DeleteArchives(ctx context.Context, archivePaths []string) error {
	if len(archivePaths) == 0 {
		return nil
	}

	if bs.db.DryRun {
		bs.logger.Info().Int("count", len(archivePaths)).Msg("would delete archives")
		return nil
	}

	bs.db.Lock.Lock()
	defer bs.db.Lock.Unlock()

	return bs.db.Cli.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// First delete all assets belonging to these archives
		if err := tx.Where("archive_path IN ?", archivePaths).Delete(&ArchiveAsset{}).Error; err != nil {
			return fmt.Errorf("failed to delete archive assets: %w", err)
		}

		// Then delete the archives themselves
		if err := tx.Where("path IN ? AND source_path = ?", archivePaths, bs.record.Path).Delete(&Archive{}).Error; err != nil {
			return fmt.Errorf("failed to delete archives: %w", err)
		}

		bs.logger.Info().Int("count", len(archivePaths)).Msg("archives deleted")
		return nil
	})
}

func (bs *BackupSource) recordAssetsInBatches(
	ctx context.Context,
	from iter.Seq[asset.ArchivedAsset],
	logger zerolog.Logger,
) (int, error) {
	var countRecorded int

	nextAsset, stop := iter.Pull(from)
	defer stop()
	hasNext := true
	for hasNext {
		if ctx.Err() != nil {
			break
		}

		archiveAssets := make([]asset.ArchivedAsset, 0, iterateBatchSize)

		for range iterateBatchSize {
			var a asset.ArchivedAsset
			a, hasNext = nextAsset()
			if !hasNext {
				break
			}
			if a.SourcePath() != bs.record.Path {
				logger.Warn().Object("asset", a).Msg("skipping asset from different source")
				continue
			}

			archiveAssets = append(archiveAssets, a)
		}

		if len(archiveAssets) == 0 {
			break
		}

		logger.Debug().Int("size", len(archiveAssets)).Msg("record archive assets batch")

		bs.db.Lock.Lock()
		err := bs.db.Cli.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			for _, a := range archiveAssets {
				if bs.db.DryRun {
					countRecorded++
					continue
				}

				archive := &Archive{}
				if err := tx.Where(Archive{
					Path:       a.ArchivePath(),
					SourcePath: a.SourcePath(),
				}).FirstOrCreate(archive).Error; err != nil {
					return err
				}

				if err := tx.Create(&ArchiveAsset{
					ArchivePath: a.ArchivePath(),
					Path:        a.Path(),
					Size:        a.Size(),
					Hash:        int64(a.StoredHash()),
					ModTime:     a.ModTime(),
					Name:        a.Name(),
				}).Error; err != nil {
					return err
				}
				countRecorded++
			}
			return nil
		})
		bs.db.Lock.Unlock()
		if err != nil {
			return 0, err
		}
	}

	return countRecorded, nil
}
