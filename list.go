package main

import (
	"context"
	"iter"

	"github.com/docker/go-units"
	"github.com/my-player/modelbak/database"
	"github.com/rs/zerolog"
)

func listCommand(ctx context.Context, args Command, logger zerolog.Logger) error {
	dbCli, err := newSQLite(args.List.Database, logger)
	if err != nil {
		return err
	}

	db := &database.Database{
		Cli:    dbCli,
		Logger: logger,
	}

	sources, err := sourcesToProcess(ctx, db, args.List.Source)
	if err != nil {
		return err
	}

	var count int
	for src := range sources {
		if ctx.Err() != nil {
			break
		}

		seq, err := src.FindArchives(ctx)
		if err != nil {
			logger.Error().Err(err).Str("source", src.Path()).Msg("failed to find archives")
			continue
		}
		for archive := range seq {
			logger.Info().
				Str("source", src.Path()).
				Str("path", archive.Path).
				Str("files_size", units.HumanSize(float64(archive.Size))).
				Int("files_count", archive.AssetCount).
				Time("created_at", archive.CreatedAt).
				Msg("archive")
			count++
		}
	}

	if count == 0 {
		logger.Info().Msg("no archives found")
	}
	return nil
}

// sourcesToProcess yields every source in the catalog, or just the given
// one when sourcePath is set. Unknown sources are an error, never a new
// catalog row.
func sourcesToProcess(ctx context.Context, db *database.Database, sourcePath string) (iter.Seq[*database.BackupSource], error) {
	if sourcePath == "" {
		return db.IterSources(ctx)
	}

	src, err := db.LookupSource(ctx, sourcePath)
	if err != nil {
		return nil, err
	}
	return func(yield func(*database.BackupSource) bool) {
		yield(src)
	}, nil
}
