package targzarchiver

import (
	"context"
	"iter"
	"time"

	"github.com/my-player/modelbak/asset"
)

type StoreOption func(o *storeOptions)

type storeOptions struct {
	dryRun            bool
	registerAssets    RegisterArchivedAssets
	maxFileBytes      int64
	includeLargeFiles bool
	now               func() time.Time
}

func WithDryRun(dryRun bool) StoreOption {
	return func(o *storeOptions) {
		o.dryRun = dryRun
	}
}

// Files larger than maxFileBytes will be skipped.
func WithMaxFileBytes(maxFileBytes int64) StoreOption {
	return func(o *storeOptions) {
		o.maxFileBytes = maxFileBytes
	}
}

// If true, files larger than maxFileBytes will be stored anyway.
func WithIncludeLargeFiles(includeLargeFiles bool) StoreOption {
	return func(o *storeOptions) {
		o.includeLargeFiles = includeLargeFiles
	}
}

type RegisterArchivedAssets interface {
	Register(ctx context.Context, assets iter.Seq[asset.ArchivedAsset]) error
}

// Register the assets stored in the archive.
func WithRegisterArchivedAssets(register RegisterArchivedAssets) StoreOption {
	return func(o *storeOptions) {
		o.registerAssets = register
	}
}

// WithNowFunc overrides the clock used for archive naming.
func WithNowFunc(now func() time.Time) StoreOption {
	return func(o *storeOptions) {
		o.now = now
	}
}
