package targzarchiver

import (
	"archive/tar"
	"context"
	"fmt"
	"io"
	"iter"
	"path/filepath"
	"sync"
	"time"

	"github.com/my-player/modelbak/asset"
	"github.com/my-player/modelbak/fileutils"
	"github.com/my-player/modelbak/targzarchiver/tarwriter"
	"github.com/rs/zerolog"
)

// DefaultPrefix is used when an archive descriptor has no prefix.
const DefaultPrefix = "models"

// Archive names carry a local timestamp with second resolution. Two runs
// within the same second produce the same name and the later run replaces
// the earlier archive.
const nameTimeLayout = "20060102_150405"

type ArchiveDescriptor struct {
	Dir    string // Directory path.
	Prefix string // Defaults to DefaultPrefix when empty.
}

// ArchiveName returns the file name of an archive produced at ts.
func ArchiveName(prefix string, ts time.Time) string {
	return fmt.Sprintf("%s_backup_%s.tar.gz", prefix, ts.Format(nameTimeLayout))
}

// StoreAssets writes the assets into a single timestamped tar.gz archive
// under dest.Dir and returns the archive path. Entry names are relative to
// sourcePath, so extraction recreates the source directory contents
// directly in the extraction target. An empty asset sequence still
// produces a valid empty archive.
func StoreAssets(
	ctx context.Context,
	sourcePath string,
	dest ArchiveDescriptor,
	assets iter.Seq[asset.Asset],
	logger zerolog.Logger,
	opts ...StoreOption,
) (string, error) {
	o := storeOptions{now: time.Now}
	for _, applyOpts := range opts {
		applyOpts(&o)
	}

	prefix := dest.Prefix
	if prefix == "" {
		prefix = DefaultPrefix
	}
	archivePath := filepath.Join(dest.Dir, ArchiveName(prefix, o.now()))

	logger = logger.With().Str("source", sourcePath).Str("dest", dest.Dir).Logger()
	logger.Info().Msg("backing up assets")

	var wg sync.WaitGroup
	var storedAssets int
	defer func() {
		wg.Wait()
		if ctx.Err() != nil {
			logger.Info().Int("stored", storedAssets).Msg("cancelled backup")
		} else if storedAssets == 0 {
			logger.Info().Msg("no assets backed up")
		} else {
			logger.Info().Int("stored", storedAssets).Msg("done backing up assets")
		}
	}()

	var onArchived func(a asset.ArchivedAsset)
	if o.registerAssets != nil {
		storedCh := make(chan asset.ArchivedAsset)
		defer close(storedCh)
		onArchived = func(a asset.ArchivedAsset) {
			storedCh <- a
			storedAssets++
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			err := o.registerAssets.Register(ctx, iterChannel(ctx, storedCh))
			if err != nil {
				logger.Error().Err(err).Msg("could not register backup assets")
			}
			// Drain so the producer never blocks if registration stopped early.
			for range storedCh {
			}
		}()
	} else {
		onArchived = func(asset.ArchivedAsset) {
			storedAssets++
		}
	}

	err := writeAssetsToTar(ctx, sourcePath, archivePath, seqToReadableFileAssets(assets), onArchived, logger, writeOptions{
		dryRun:            o.dryRun,
		maxFileBytes:      o.maxFileBytes,
		includeLargeFiles: o.includeLargeFiles,
	})
	if err != nil {
		return "", err
	}

	return archivePath, nil
}

type writeOptions struct {
	dryRun            bool
	maxFileBytes      int64
	includeLargeFiles bool
}

func writeAssetsToTar(
	ctx context.Context,
	sourcePath string,
	archivePath string,
	assets iter.Seq[readableAsset],
	onArchived func(asset.ArchivedAsset),
	logger zerolog.Logger,
	o writeOptions,
) (err error) {
	tarFile := newTarFile(archivePath, o.dryRun)
	logger.Info().Str("path", tarFile.Path()).Msg("open archive")

	var written int64
	var storedAssets int
	defer func() {
		if err != nil {
			if abortErr := tarFile.Abort(); abortErr != nil {
				logger.Warn().Err(abortErr).Msg("could not discard partial backup file")
			}
			return
		}
		if closeErr := tarFile.Close(); closeErr != nil {
			err = fmt.Errorf("could not finalize backup file: %w", closeErr)
		} else {
			logger.Info().
				Int64("files_size", written).
				Int("files_count", storedAssets).
				Msg("successfully written backup file")
		}
	}()

	// Open upfront so that an empty source still yields a valid archive.
	if err = tarFile.Create(); err != nil {
		return fmt.Errorf("could not create backup file: %w", err)
	}

	for a := range assets {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if o.maxFileBytes > 0 && a.Size() > o.maxFileBytes && !o.includeLargeFiles {
			logger.Warn().
				Object("asset", a).
				Int64("max_size", o.maxFileBytes).
				Msg("asset larger than max file size. Will be skipped")
			continue
		}

		relPath, relErr := filepath.Rel(sourcePath, a.Path())
		if relErr != nil {
			logger.Warn().Err(relErr).Object("asset", a).Msg("asset outside source directory. Will be skipped")
			continue
		}

		logger.Debug().Str("relative_path", relPath).Msg("asset to archive")

		entry, hdrErr := tarFile.WriteHeader(&tar.Header{
			Typeflag: tar.TypeReg,
			Name:     filepath.ToSlash(relPath),
			Size:     a.Size(),
			Mode:     int64(a.Mode().Perm()),
			ModTime:  a.ModTime(),
			Format:   tar.FormatPAX,
		})
		if hdrErr != nil {
			err = fmt.Errorf("could not write archive entry %q: %w", relPath, hdrErr)
			return err
		}

		archivedAsset, writeErr := writeAsset(sourcePath, tarFile.Path(), a, entry, logger)
		if writeErr != nil {
			err = fmt.Errorf("could not backup asset %q: %w", a.Path(), writeErr)
			return err
		}
		logger.Debug().Object("asset", a).Msg("backed up asset")

		written += a.Size()
		storedAssets++
		onArchived(archivedAsset)
	}

	return nil
}

func writeAsset(sourcePath string, archivePath string, a readableAsset, w io.Writer, logger zerolog.Logger) (asset.ArchivedAsset, error) {
	reader, err := a.Open()
	if err != nil {
		return nil, err
	}
	startTime := time.Now()
	defer func() {
		if err := reader.Close(); err != nil {
			logger.Warn().Err(err).Msg("failed to close asset file")
		}
		tookSeconds := time.Since(startTime).Seconds()
		logger.Debug().Object("asset", a).Float64("seconds", tookSeconds).Msg("archived asset")
	}()

	// Write to the archive as well as compute the content hash.
	tee := io.TeeReader(reader, w)
	h, err := fileutils.ComputeHash(tee)
	if err != nil {
		return nil, err
	}

	return &tarAsset{
		sourcePath:  sourcePath,
		archivePath: archivePath,
		name:        a.Name(),
		path:        a.Path(),
		hash:        h,
		mode:        a.Mode(),
		modTime:     a.ModTime(),
		size:        a.Size(),
	}, nil
}

func newTarFile(archivePath string, dryRun bool) *tarwriter.TarFile {
	if dryRun {
		return tarwriter.NewNullTarFile(archivePath)
	}
	return tarwriter.NewLazyTarFile(archivePath)
}

func iterChannel[T any](ctx context.Context, ch <-chan T) iter.Seq[T] {
	return func(yield func(T) bool) {
		for {
			select {
			case <-ctx.Done():
				return
			case item, ok := <-ch:
				if !ok {
					return
				}
				if !yield(item) {
					return
				}
			}
		}
	}
}
