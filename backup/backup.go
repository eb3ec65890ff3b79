package backup

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/my-player/modelbak/asset"
	"github.com/my-player/modelbak/database"
	"github.com/my-player/modelbak/fileutils"
	"github.com/my-player/modelbak/targzarchiver"
	"github.com/rs/zerolog"
)

var (
	// ErrSourceNotFound means the source path does not exist or is not a
	// directory. No archive is written in that case.
	ErrSourceNotFound = errors.New("source directory not found")

	// ErrDestinationUnwritable means the destination directory could not
	// be created or is not writable.
	ErrDestinationUnwritable = errors.New("destination directory not writable")
)

type Params struct {
	SourcePath    string
	DestPath      string
	ArchivePrefix string
	DB            *database.Database // optional archive catalog
	Logger        zerolog.Logger
}

// Run snapshots the source directory into a single timestamped tar.gz
// archive under the destination directory and returns the archive path.
// The destination directory is created if absent; the source directory
// must exist. Any failure aborts the whole run and leaves no partial
// archive under the final name.
func Run(ctx context.Context, params Params, opts ...Option) (string, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	logger := params.Logger
	startTime := time.Now()
	logger.Info().Str("source", params.SourcePath).Str("dest", params.DestPath).Msg("starting backup")
	defer func() {
		tookSeconds := time.Since(startTime).Seconds()
		if ctx.Err() != nil {
			logger.Info().Str("source", params.SourcePath).Str("dest", params.DestPath).Float64("seconds", tookSeconds).Msg("backup cancelled")
		} else {
			logger.Info().Str("source", params.SourcePath).Str("dest", params.DestPath).Float64("seconds", tookSeconds).Msg("backup done")
		}
	}()

	info, err := os.Stat(params.SourcePath)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrSourceNotFound, params.SourcePath)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%w: %s is not a directory", ErrSourceNotFound, params.SourcePath)
	}

	if err := os.MkdirAll(params.DestPath, 0o755); err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrDestinationUnwritable, params.DestPath, err)
	}
	if err := fileutils.VerifyWritable(params.DestPath); err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrDestinationUnwritable, params.DestPath, err)
	}

	scanned, err := asset.ScanDirectory(ctx, params.SourcePath, logger)
	if err != nil {
		return "", err
	}

	if ctx.Err() != nil {
		return "", ctx.Err()
	}

	storeOpts := []targzarchiver.StoreOption{
		targzarchiver.WithDryRun(o.dryRun),
		targzarchiver.WithMaxFileBytes(o.maxFileBytes),
		targzarchiver.WithIncludeLargeFiles(o.includeLargeFiles),
	}
	if o.now != nil {
		storeOpts = append(storeOpts, targzarchiver.WithNowFunc(o.now))
	}
	if params.DB != nil {
		src, err := params.DB.GetSource(ctx, params.SourcePath)
		if err != nil {
			return "", err
		}
		storeOpts = append(storeOpts, targzarchiver.WithRegisterArchivedAssets(src))
	}

	archivePath, err := targzarchiver.StoreAssets(
		ctx,
		params.SourcePath,
		targzarchiver.ArchiveDescriptor{
			Dir:    params.DestPath,
			Prefix: params.ArchivePrefix,
		},
		scanned,
		logger,
		storeOpts...,
	)
	if err != nil {
		return "", err
	}

	logger.Info().Str("archive", archivePath).Msg("created backup archive")
	return archivePath, nil
}
