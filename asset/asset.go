package asset

import (
	"io/fs"
	"time"

	"github.com/rs/zerolog"
)

type Asset interface {
	zerolog.LogObjectMarshaler
	Path() string
	Name() string // base name of the file
	Size() int64  // length in bytes for regular files
	Mode() fs.FileMode
	ModTime() time.Time
}

type ArchivedAsset interface {
	Asset
	SourcePath() string  // path of the source where the asset was found
	ArchivePath() string // path of the archive containing the file
	StoredHash() uint64  // content hash computed while the asset was written
}
