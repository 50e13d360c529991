package device

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ChristopherJMiller/nutune/internal/shared"
)

func TestOpenVolume(t *testing.T) {
	t.Run("locks and reports capacity", func(t *testing.T) {
		root := t.TempDir()

		v, err := OpenVolume(root)
		if err != nil {
			t.Fatalf("open failed: %v", err)
		}
		defer v.Close()

		if v.Root != root {
			t.Errorf("root = %q", v.Root)
		}
		if v.TotalBytes == 0 {
			t.Error("total bytes not read")
		}
		if _, err := os.Stat(filepath.Join(root, LockName)); err != nil {
			t.Errorf("lock file missing: %v", err)
		}
	})

	t.Run("second open fails while locked", func(t *testing.T) {
		root := t.TempDir()

		first, err := OpenVolume(root)
		if err != nil {
			t.Fatalf("open failed: %v", err)
		}
		defer first.Close()

		if _, err := OpenVolume(root); !errors.Is(err, shared.ErrVolumeLocked) {
			t.Errorf("expected ErrVolumeLocked, got %v", err)
		}
	})

	t.Run("reopen after close", func(t *testing.T) {
		root := t.TempDir()

		first, err := OpenVolume(root)
		if err != nil {
			t.Fatalf("open failed: %v", err)
		}
		if err := first.Close(); err != nil {
			t.Fatalf("close failed: %v", err)
		}

		second, err := OpenVolume(root)
		if err != nil {
			t.Fatalf("reopen failed: %v", err)
		}
		second.Close()
	})

	t.Run("missing root", func(t *testing.T) {
		if _, err := OpenVolume(filepath.Join(t.TempDir(), "gone")); !errors.Is(err, shared.ErrVolumeUnavailable) {
			t.Errorf("expected ErrVolumeUnavailable, got %v", err)
		}
	})

	t.Run("root is a file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "file")
		if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := OpenVolume(path); !errors.Is(err, shared.ErrVolumeUnavailable) {
			t.Errorf("expected ErrVolumeUnavailable, got %v", err)
		}
	})
}
