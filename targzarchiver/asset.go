package targzarchiver

import (
	"io/fs"
	"time"

	"github.com/rs/zerolog"
)

type tarAsset struct {
	sourcePath  string
	archivePath string
	name        string
	path        string
	hash        uint64
	size        int64
	mode        fs.FileMode
	modTime     time.Time
}

// SourcePath implements asset.ArchivedAsset.
func (t *tarAsset) SourcePath() string {
	return t.sourcePath
}

// ArchivePath implements asset.ArchivedAsset.
func (t *tarAsset) ArchivePath() string {
	return t.archivePath
}

// StoredHash implements asset.ArchivedAsset.
func (t *tarAsset) StoredHash() uint64 {
	return t.hash
}

// MarshalZerologObject implements asset.Asset.
func (t *tarAsset) MarshalZerologObject(e *zerolog.Event) {
	e.Str("path", t.path)
	e.Str("name", t.name)
	e.Uint64("hash", t.hash)
	e.Int64("size", t.size)
	e.Str("archive", t.archivePath)
	e.Str("source", t.sourcePath)
}

// ModTime implements asset.Asset.
func (t *tarAsset) ModTime() time.Time {
	return t.modTime
}

// Mode implements asset.Asset.
func (t *tarAsset) Mode() fs.FileMode {
	return t.mode
}

// Name implements asset.Asset.
func (t *tarAsset) Name() string {
	return t.name
}

// Path implements asset.Asset.
func (t *tarAsset) Path() string {
	return t.path
}

// Size implements asset.Asset.
func (t *tarAsset) Size() int64 {
	return t.size
}
