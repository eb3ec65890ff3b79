package fileutils_test

import (
	"os"
	"testing"

	"github.com/my-player/modelbak/fileutils"
)

func TestVerifyWritable(t *testing.T) {
	dir := t.TempDir()

	if err := fileutils.VerifyWritable(dir); err != nil {
		t.Errorf("expected writable, got %v", err)
	}

	// The probe file must not be left behind.
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("expected empty directory, got %d entries", len(entries))
	}
}

func TestVerifyWritable_ReadOnly(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("running as root, directory permissions are not enforced")
	}

	dir := t.TempDir()
	if err := os.Chmod(dir, 0555); err != nil {
		t.Fatal(err)
	}
	defer os.Chmod(dir, 0755)

	if err := fileutils.VerifyWritable(dir); err == nil {
		t.Error("expected error")
	}
}

func TestVerifyWritable_NoDir(t *testing.T) {
	if err := fileutils.VerifyWritable("unexisting"); err == nil {
		t.Error("expected error")
	}
}
