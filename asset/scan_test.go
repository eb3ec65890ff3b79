package asset_test

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/my-player/modelbak/asset"
	"github.com/rs/zerolog"
)

func TestScanDirectory(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.bin"), data, 0600); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(dir, "sub"), 0700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "sub", "b.bin"), data, 0600); err != nil {
		t.Fatal(err)
	}
	// Empty subdirectory: produces no asset.
	if err := os.MkdirAll(filepath.Join(dir, "empty"), 0700); err != nil {
		t.Fatal(err)
	}

	seq, err := asset.ScanDirectory(context.Background(), dir, zerolog.New(io.Discard))
	if err != nil {
		t.Fatal(err)
	}

	paths := []string{}
	for a := range seq {
		paths = append(paths, a.Path())
	}
	slices.Sort(paths)

	expected := []string{
		filepath.Join(dir, "a.bin"),
		filepath.Join(dir, "sub", "b.bin"),
	}
	if !slices.Equal(paths, expected) {
		t.Errorf("expected %v, got %v", expected, paths)
	}
}

func TestScanDirectory_StopEarly(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.bin", "b.bin", "c.bin"} {
		if err := os.WriteFile(filepath.Join(dir, name), data, 0600); err != nil {
			t.Fatal(err)
		}
	}

	seq, err := asset.ScanDirectory(context.Background(), dir, zerolog.New(io.Discard))
	if err != nil {
		t.Fatal(err)
	}

	var count int
	for range seq {
		count++
		break
	}
	if count != 1 {
		t.Errorf("expected 1, got %d", count)
	}
}

func TestScanDirectory_Cancelled(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.bin"), data, 0600); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	seq, err := asset.ScanDirectory(ctx, dir, zerolog.New(io.Discard))
	if err != nil {
		t.Fatal(err)
	}

	var count int
	for range seq {
		count++
	}
	if count != 0 {
		t.Errorf("expected no assets, got %d", count)
	}
}
