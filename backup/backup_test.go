package backup_test

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/my-player/modelbak/backup"
	"github.com/my-player/modelbak/database"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

func fixedClock(ts time.Time) func() time.Time {
	return func() time.Time { return ts }
}

func TestRun_SourceNotFound(t *testing.T) {
	destDir := filepath.Join(t.TempDir(), "out")

	_, err := backup.Run(context.Background(), backup.Params{
		SourcePath: filepath.Join(t.TempDir(), "does-not-exist"),
		DestPath:   destDir,
		Logger:     zerolog.New(io.Discard),
	})

	require.ErrorIs(t, err, backup.ErrSourceNotFound)

	// No archive may be left behind.
	if files, readErr := os.ReadDir(destDir); readErr == nil {
		assert.Empty(t, files)
	}
}

func TestRun_SourceNotADirectory(t *testing.T) {
	sourceFile := filepath.Join(t.TempDir(), "file.bin")
	require.NoError(t, os.WriteFile(sourceFile, []byte("data"), 0644))

	_, err := backup.Run(context.Background(), backup.Params{
		SourcePath: sourceFile,
		DestPath:   t.TempDir(),
		Logger:     zerolog.New(io.Discard),
	})

	require.ErrorIs(t, err, backup.ErrSourceNotFound)
}

func TestRun_DestinationUnwritable(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("running as root, directory permissions are not enforced")
	}

	sourceDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(sourceDir, "a.bin"), []byte("data"), 0644))

	t.Run("cannot create destination", func(t *testing.T) {
		parent := t.TempDir()
		require.NoError(t, os.Chmod(parent, 0555))
		t.Cleanup(func() { _ = os.Chmod(parent, 0755) })

		destDir := filepath.Join(parent, "out")
		_, err := backup.Run(context.Background(), backup.Params{
			SourcePath: sourceDir,
			DestPath:   destDir,
			Logger:     zerolog.New(io.Discard),
		})
		require.ErrorIs(t, err, backup.ErrDestinationUnwritable)
		assert.NoDirExists(t, destDir)
	})

	t.Run("destination not writable", func(t *testing.T) {
		destDir := t.TempDir()
		require.NoError(t, os.Chmod(destDir, 0555))
		t.Cleanup(func() { _ = os.Chmod(destDir, 0755) })

		_, err := backup.Run(context.Background(), backup.Params{
			SourcePath: sourceDir,
			DestPath:   destDir,
			Logger:     zerolog.New(io.Discard),
		})
		require.ErrorIs(t, err, backup.ErrDestinationUnwritable)

		files, readErr := os.ReadDir(destDir)
		require.NoError(t, readErr)
		assert.Empty(t, files)
	})
}

func TestRun_CreatesDestination(t *testing.T) {
	sourceDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(sourceDir, "a.bin"), []byte("data"), 0644))

	// Destination with missing parents.
	destDir := filepath.Join(t.TempDir(), "nested", "deeper", "out")

	archivePath, err := backup.Run(context.Background(), backup.Params{
		SourcePath: sourceDir,
		DestPath:   destDir,
		Logger:     zerolog.New(io.Discard),
	})
	require.NoError(t, err)
	require.DirExists(t, destDir)
	assert.FileExists(t, archivePath)

	// Re-running is idempotent with respect to directory creation.
	_, err = backup.Run(context.Background(), backup.Params{
		SourcePath: sourceDir,
		DestPath:   destDir,
		Logger:     zerolog.New(io.Discard),
	})
	require.NoError(t, err)
}

func TestRun_RoundTrip(t *testing.T) {
	sourceDir := t.TempDir()
	destDir := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(sourceDir, "a.bin"), []byte("0123456789"), 0644))
	require.NoError(t, os.MkdirAll(filepath.Join(sourceDir, "sub"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(sourceDir, "sub", "b.bin"), []byte("01234567890123456789"), 0644))

	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.Local)
	archivePath, err := backup.Run(
		context.Background(),
		backup.Params{
			SourcePath: sourceDir,
			DestPath:   destDir,
			Logger:     zerolog.New(io.Discard),
		},
		backup.WithNowFunc(fixedClock(ts)),
	)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(destDir, "models_backup_20240102_030405.tar.gz"), archivePath)

	entries := extractArchive(t, archivePath)
	require.Len(t, entries, 2)
	assert.Equal(t, []byte("0123456789"), entries["a.bin"])
	assert.Equal(t, []byte("01234567890123456789"), entries["sub/b.bin"])

	// The archive root is the source contents, not the source dir name.
	assert.NotContains(t, entries, filepath.Base(sourceDir)+"/a.bin")
}

func TestRun_EmptySource(t *testing.T) {
	archivePath, err := backup.Run(context.Background(), backup.Params{
		SourcePath: t.TempDir(),
		DestPath:   t.TempDir(),
		Logger:     zerolog.New(io.Discard),
	})
	require.NoError(t, err)
	require.FileExists(t, archivePath)

	entries := extractArchive(t, archivePath)
	assert.Empty(t, entries)
}

func TestRun_DistinctTimestamps(t *testing.T) {
	sourceDir := t.TempDir()
	destDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(sourceDir, "a.bin"), []byte("data"), 0644))

	params := backup.Params{
		SourcePath: sourceDir,
		DestPath:   destDir,
		Logger:     zerolog.New(io.Discard),
	}

	first, err := backup.Run(context.Background(), params,
		backup.WithNowFunc(fixedClock(time.Date(2024, 1, 2, 3, 4, 5, 0, time.Local))))
	require.NoError(t, err)

	second, err := backup.Run(context.Background(), params,
		backup.WithNowFunc(fixedClock(time.Date(2024, 1, 2, 3, 4, 6, 0, time.Local))))
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.FileExists(t, first)
	assert.FileExists(t, second)
}

func TestRun_DryRun(t *testing.T) {
	sourceDir := t.TempDir()
	destDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(sourceDir, "a.bin"), []byte("data"), 0644))

	_, err := backup.Run(
		context.Background(),
		backup.Params{
			SourcePath: sourceDir,
			DestPath:   destDir,
			Logger:     zerolog.New(io.Discard),
		},
		backup.WithDryRun(true),
	)
	require.NoError(t, err)

	files, err := os.ReadDir(destDir)
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestRun_RecordsCatalog(t *testing.T) {
	sourceDir := t.TempDir()
	destDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(sourceDir, "a.bin"), []byte("0123456789"), 0644))
	require.NoError(t, os.MkdirAll(filepath.Join(sourceDir, "sub"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(sourceDir, "sub", "b.bin"), []byte("data"), 0644))

	db := setupTestDB(t)
	archivePath, err := backup.Run(context.Background(), backup.Params{
		SourcePath: sourceDir,
		DestPath:   destDir,
		DB:         db,
		Logger:     zerolog.New(io.Discard),
	})
	require.NoError(t, err)

	src, err := db.GetSource(context.Background(), sourceDir)
	require.NoError(t, err)

	seq, err := src.FindArchives(context.Background())
	require.NoError(t, err)

	archives := []database.BackupArchive{}
	for a := range seq {
		archives = append(archives, a)
	}
	require.Len(t, archives, 1)
	assert.Equal(t, archivePath, archives[0].Path)
	assert.Equal(t, 2, archives[0].AssetCount)
	assert.Equal(t, int64(14), archives[0].Size)
}

func setupTestDB(t *testing.T) *database.Database {
	t.Helper()

	gormDB, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		NamingStrategy: schema.NamingStrategy{
			SingularTable: true,
		},
	})
	require.NoError(t, err)

	err = gormDB.AutoMigrate(&database.Source{}, &database.Archive{}, &database.ArchiveAsset{})
	require.NoError(t, err)

	return &database.Database{
		Lock:   sync.Mutex{},
		Cli:    gormDB,
		Logger: zerolog.Nop(),
	}
}

func extractArchive(t *testing.T, path string) map[string][]byte {
	t.Helper()

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	gzReader, err := gzip.NewReader(file)
	require.NoError(t, err)
	defer gzReader.Close()

	entries := map[string][]byte{}
	tarReader := tar.NewReader(gzReader)
	for {
		hdr, err := tarReader.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)

		content, err := io.ReadAll(tarReader)
		require.NoError(t, err)
		entries[hdr.Name] = content
	}
	return entries
}
