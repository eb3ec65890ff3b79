package database

import (
	"time"
)

// Source is a catalog row for a directory that has been backed up.
type Source struct {
	Path      string `gorm:"primaryKey"`
	CreatedAt time.Time
}

// Archive is a catalog row for one produced backup file.
type Archive struct {
	Path       string `gorm:"primaryKey"`
	SourcePath string
	Source     Source `gorm:"foreignKey:SourcePath"`
	CreatedAt  time.Time
}

// ArchiveAsset records a single file stored inside an archive.
type ArchiveAsset struct {
	ArchivePath string  `gorm:"primaryKey"`
	Path        string  `gorm:"primaryKey"`
	Archive     Archive `gorm:"foreignKey:ArchivePath"`
	Name        string
	Hash        int64
	ModTime     time.Time
	CreatedAt   time.Time
	Size        int64
}
