package backup

import "time"

type Option func(o *options)

type options struct {
	dryRun            bool
	maxFileBytes      int64
	includeLargeFiles bool
	now               func() time.Time
}

func WithDryRun(dryRun bool) Option {
	return func(o *options) {
		o.dryRun = dryRun
	}
}

// Files larger than maxFileBytes will be skipped.
func WithMaxFileBytes(maxFileBytes int64) Option {
	return func(o *options) {
		o.maxFileBytes = maxFileBytes
	}
}

// If true, files larger than maxFileBytes will be stored anyway.
func WithIncludeLargeFiles(includeLargeFiles bool) Option {
	return func(o *options) {
		o.includeLargeFiles = includeLargeFiles
	}
}

// WithNowFunc overrides the clock used for archive naming.
func WithNowFunc(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}
