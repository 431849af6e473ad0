// Where: internal/infra/fileops/file_ops.go
// What: Filesystem helpers for build outputs and packaged artifacts.
// Why: Artifacts must be fully written and closed before the deploy step reads them.
package fileops

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// zipModTime is fixed so repeated packaging produces identical archives.
var zipModTime = time.Date(1980, time.January, 1, 0, 0, 0, 0, time.UTC)

// ZipEntry is one file stored in an archive.
type ZipEntry struct {
	Name string
	Data []byte
	Mode os.FileMode
}

func EnsureDir(path string) error {
	return os.MkdirAll(path, 0o755)
}

// WriteFile writes content atomically through a temp file in the target directory.
func WriteFile(path string, content []byte) error {
	return writeAtomic(path, func(w io.Writer) error {
		_, err := w.Write(content)
		return err
	})
}

// WriteZip writes entries into a zip archive at path.
// The call returns only after the archive is synced, closed, and moved into place.
func WriteZip(path string, entries []ZipEntry) error {
	return writeAtomic(path, func(w io.Writer) error {
		archive := zip.NewWriter(w)
		for _, entry := range entries {
			header := &zip.FileHeader{
				Name:     entry.Name,
				Method:   zip.Deflate,
				Modified: zipModTime,
			}
			mode := entry.Mode
			if mode == 0 {
				mode = 0o644
			}
			header.SetMode(mode)
			out, err := archive.CreateHeader(header)
			if err != nil {
				return fmt.Errorf("zip entry %s: %w", entry.Name, err)
			}
			if _, err := out.Write(entry.Data); err != nil {
				return fmt.Errorf("zip entry %s: %w", entry.Name, err)
			}
		}
		return archive.Close()
	})
}

func writeAtomic(path string, fill func(io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := EnsureDir(dir); err != nil {
		return err
	}
	if DirExists(path) {
		return fmt.Errorf("%s is a directory", path)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if err := fill(tmp); err != nil {
		tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		cleanup()
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return err
	}
	return nil
}

func FileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

func DirExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}
