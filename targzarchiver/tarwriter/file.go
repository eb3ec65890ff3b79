package tarwriter

import (
	"archive/tar"
	"compress/gzip"
	"errors"
	"io"
	"os"
)

// TarFile writes a gzip-compressed tar stream. Output is staged in a
// temporary file next to the final path and renamed into place by Close,
// so a failed or interrupted run never leaves a truncated archive under
// the final name.
type TarFile struct {
	init      bool
	finalPath string
	file      *os.File
	gzWriter  *gzip.Writer
	tarWriter *tar.Writer

	openFunc   func() (*os.File, error)
	renameFunc func() error
	removeFunc func() error
}

// NewLazyTarFile returns a tar.gz writer helper that opens its temporary
// file on Create or upon the first written header.
func NewLazyTarFile(path string) *TarFile {
	tmpPath := path + ".tmp"
	return &TarFile{
		finalPath: path,
		openFunc: func() (*os.File, error) {
			return os.OpenFile(tmpPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		},
		renameFunc: func() error {
			return os.Rename(tmpPath, path)
		},
		removeFunc: func() error {
			return os.Remove(tmpPath)
		},
	}
}

// NewNullTarFile returns a tar.gz writer helper that discards all writes.
// Used for dry runs.
func NewNullTarFile(path string) *TarFile {
	return &TarFile{
		finalPath: path,
		openFunc: func() (*os.File, error) {
			return os.OpenFile(os.DevNull, os.O_WRONLY, 0600)
		},
		renameFunc: func() error { return nil },
		removeFunc: func() error { return nil },
	}
}

// Path returns the final archive path.
func (t *TarFile) Path() string {
	return t.finalPath
}

// Create opens the underlying file and writers if they are not open yet.
// Calling Create before writing any header guarantees that even an
// archive with zero entries is produced.
func (t *TarFile) Create() error {
	if t.init {
		return nil
	}

	file, err := t.openFunc()
	if err != nil {
		return err
	}

	t.file = file
	t.gzWriter = gzip.NewWriter(file)
	t.tarWriter = tar.NewWriter(t.gzWriter)
	t.init = true
	return nil
}

// WriteHeader writes a new entry header and returns the writer for the
// entry contents.
func (t *TarFile) WriteHeader(hdr *tar.Header) (io.Writer, error) {
	if err := t.Create(); err != nil {
		return nil, err
	}

	if err := t.tarWriter.WriteHeader(hdr); err != nil {
		return nil, err
	}
	return t.tarWriter, nil
}

// Close finalizes the archive and renames it to the final path. If
// finalizing fails the temporary file is removed instead.
func (t *TarFile) Close() error {
	if !t.init {
		return nil
	}
	defer func() {
		t.init = false
	}()

	err := t.tarWriter.Close()
	err = errors.Join(err, t.gzWriter.Close())
	err = errors.Join(err, t.file.Close())
	if err != nil {
		return errors.Join(err, t.removeFunc())
	}

	return t.renameFunc()
}

// Abort discards the archive, removing the temporary file if it was
// opened. Safe to call after a successful Close.
func (t *TarFile) Abort() error {
	if !t.init {
		return nil
	}
	t.init = false

	_ = t.tarWriter.Close()
	_ = t.gzWriter.Close()
	_ = t.file.Close()

	return t.removeFunc()
}
