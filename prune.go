package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/my-player/modelbak/database"
	"github.com/rs/zerolog"
)

func pruneCommand(ctx context.Context, args Command, logger zerolog.Logger) error {
	if args.Prune.DryRun {
		logger = logger.With().Bool("dryrun", true).Logger()
	}

	if args.Prune.KeepLast < 1 {
		return fmt.Errorf("keep-last must be at least 1")
	}

	startTime := time.Now()
	logger.Info().Msg("starting pruning old backup files")
	defer func() {
		tookSeconds := time.Since(startTime).Seconds()
		if ctx.Err() != nil {
			logger.Info().Float64("seconds", tookSeconds).Msg("pruning cancelled")
		} else {
			logger.Info().Float64("seconds", tookSeconds).Msg("pruning done")
		}
	}()

	dbCli, err := newSQLite(args.Prune.Database, logger)
	if err != nil {
		return err
	}

	db := &database.Database{
		Cli:    dbCli,
		Logger: logger,
		DryRun: args.Prune.DryRun,
	}

	return pruneOldArchives(ctx, pruneParams{
		sourcePath: args.Prune.Source,
		keepLast:   args.Prune.KeepLast,
		dryRun:     args.Prune.DryRun,
		db:         db,
		logger:     logger,
	})
}

type pruneParams struct {
	sourcePath string
	keepLast   int
	dryRun     bool
	db         *database.Database
	logger     zerolog.Logger
}

// pruneOldArchives deletes all but the newest keepLast archives of each
// source, both from disk and from the catalog.
func pruneOldArchives(ctx context.Context, p pruneParams) error {
	sources, err := sourcesToProcess(ctx, p.db, p.sourcePath)
	if err != nil {
		return err
	}

	totalSizeFreed := int64(0)
	filesDeleted := 0
	for src := range sources {
		logger := p.logger.With().Str("source", src.Path()).Logger()
		if ctx.Err() != nil {
			break
		}

		archivePaths := []string{}
		{
			seq, err := src.FindArchives(ctx, database.WithFindArchivesSkipNewest(p.keepLast))
			if err != nil {
				logger.Error().Err(err).Msg("failed to find archives")
				continue
			}
			for archive := range seq {
				if ctx.Err() != nil {
					break
				}
				logger.Info().
					Str("path", archive.Path).
					Int64("files_size", archive.Size).
					Int("files_count", archive.AssetCount).
					Msg("found old archive")
				archivePaths = append(archivePaths, archive.Path)
			}
		}
		if len(archivePaths) == 0 {
			logger.Info().Msg("no old archives found")
			continue
		}

		err := src.DeleteArchives(ctx, archivePaths)
		if err != nil {
			return fmt.Errorf("error deleting old backup data from catalog: %w", err)
		}

		logger.Info().Interface("files", archivePaths).Msg("deleting old backup files")

		for _, path := range archivePaths {
			stat, err := os.Stat(path)
			if err != nil {
				logger.Error().Err(err).Str("path", path).Msg("failed to stat old backup file")
				continue
			}

			if p.dryRun {
				logger.Info().Str("path", path).Int64("size", stat.Size()).Msg("would delete old backup file")
				continue
			}

			if err := os.Remove(path); err != nil {
				logger.Error().Err(err).Str("path", path).
					Int64("size", stat.Size()).
					Msg("failed to delete old backup file")
			} else {
				logger.Info().Str("path", path).Int64("size", stat.Size()).Msg("deleted old backup file")
				totalSizeFreed += stat.Size()
				filesDeleted++
			}
		}
	}

	if totalSizeFreed > 0 {
		p.logger.Info().
			Int("files_deleted", filesDeleted).
			Int64("total_freed", totalSizeFreed).
			Msg("deleted old backup files")
	}

	return nil
}
