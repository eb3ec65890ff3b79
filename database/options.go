package database

type findArchivesOptions struct {
	limit      int
	skipNewest int
}

type FindArchivesOptions func(*findArchivesOptions)

// Limit the number of archives returned.
func WithFindArchivesLimit(limit int) FindArchivesOptions {
	return func(o *findArchivesOptions) {
		o.limit = limit
	}
}

// Skip the given number of newest archives. Used by retention to keep
// the most recent snapshots.
func WithFindArchivesSkipNewest(skip int) FindArchivesOptions {
	return func(o *findArchivesOptions) {
		o.skipNewest = skip
	}
}
