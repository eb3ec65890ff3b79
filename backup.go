package main

import (
	"context"

	"github.com/my-player/modelbak/backup"
	"github.com/my-player/modelbak/database"
	"github.com/rs/zerolog"
)

func backupCommand(ctx context.Context, args Command, logger zerolog.Logger) error {
	if args.Backup.DryRun {
		logger = logger.With().Bool("dryrun", true).Logger()
	}

	dbCli, err := newSQLite(args.Backup.Database, logger)
	if err != nil {
		return err
	}

	_, err = backup.Run(
		ctx,
		backup.Params{
			SourcePath:    args.Backup.Source,
			DestPath:      args.Backup.Dest,
			ArchivePrefix: args.Backup.ArchivePrefix,
			DB:            &database.Database{Cli: dbCli, Logger: logger, DryRun: args.Backup.DryRun},
			Logger:        logger,
		},
		backup.WithDryRun(args.Backup.DryRun),
		backup.WithMaxFileBytes(args.Backup.MaxFileSize.Size),
		backup.WithIncludeLargeFiles(args.Backup.IncludeLargeFiles),
	)
	return err
}
