package builder

import (
	"bytes"
	"crypto"
	"crypto/sha512"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	goupdate "github.com/doitdistributed/go-update"
)

const (
	// InitFilename is the package initializer gopy generates.
	InitFilename = "__init__.py"

	// initFileMode is the permission of the rewritten initializer.
	initFileMode os.FileMode = 0o644
)

// InitFileContents re-exports the generated module from the package root,
// so callers import from <package> instead of <package>.<package>.
func InitFileContents(packageName string) []byte {
	return []byte("from ." + packageName + " import *")
}

// writeInitFile atomically replaces path with the re-export initializer.
func writeInitFile(path, packageName string) error {
	contents := InitFileContents(packageName)
	checksum := sha512.Sum512(contents)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	// go-update swaps files, so the target has to exist.
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		file, err := os.Create(filepath.Clean(path))
		if err != nil {
			return err
		}

		if err = file.Close(); err != nil {
			return err
		}
	}

	err := goupdate.Apply(bytes.NewReader(contents), goupdate.Options{
		TargetPath: path,
		TargetMode: initFileMode,
		Checksum:   checksum[:],
		Hash:       crypto.SHA512,
	})
	if err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}

	if _, err = os.Stat(path + ".old"); err == nil {
		_ = os.Remove(path + ".old")
	}

	return nil
}
