// Package fileutil holds small file helpers shared by the archive and
// dataset packages.
package fileutil

import (
	"io"
	"os"
	"path/filepath"

	"github.com/exodash/exodash/internal/errors"
)

// DefaultFilePerm is used for snapshot and export files.
const DefaultFilePerm os.FileMode = 0o644

// WriteAtomic writes a file through a temporary file in the target directory
// and renames it into place. Readers see either the old or the new file.
func WriteAtomic(targetPath string, perm os.FileMode, write func(io.Writer) error) error {
	dir := filepath.Dir(targetPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fileError(err, "create_directory", dir)
	}

	tempFile, err := os.CreateTemp(dir, "."+filepath.Base(targetPath)+".*.tmp")
	if err != nil {
		return fileError(err, "create_temp", targetPath)
	}
	tempPath := tempFile.Name()

	success := false
	closed := false
	defer func() {
		if !success {
			if !closed {
				_ = tempFile.Close()
			}
			_ = os.Remove(tempPath)
		}
	}()

	if err := tempFile.Chmod(perm); err != nil {
		return fileError(err, "chmod_temp", tempPath)
	}

	if err := write(tempFile); err != nil {
		return err
	}

	if err := tempFile.Sync(); err != nil {
		return fileError(err, "sync_temp", tempPath)
	}

	closed = true
	if err := tempFile.Close(); err != nil {
		return fileError(err, "close_temp", tempPath)
	}

	if err := os.Rename(tempPath, targetPath); err != nil {
		return fileError(err, "rename", targetPath)
	}

	success = true
	return nil
}

// Exists reports whether path exists and is a regular file.
func Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

func fileError(err error, op, path string) error {
	return errors.New(err).
		Category(errors.CategoryFileIO).
		Context("operation", op).
		FileContext(path, 0).
		Build()
}
