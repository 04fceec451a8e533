package builder

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/mitchellh/go-ps"

	"github.com/oshokin/excel-form-extractor/internal/logger"
)

const (
	// MarkerFilename marks that a build is running in the work dir right now.
	MarkerFilename = ".form-extractor-build.marker"

	// packagerExecutable is the binary name other builds run under.
	packagerExecutable = "form-extractor-packager"

	// markerLifetime is the period after which a build marker is considered stale.
	markerLifetime = 30 * time.Minute
)

// ErrBuildInProgress is returned when another build holds the marker.
var ErrBuildInProgress = errors.New("another build is running in this directory")

// marker is a held build marker.
type marker struct {
	path string
}

// acquireMarker creates the build marker in dir. A marker older than markerLifetime
// is treated as abandoned: other packager processes are terminated and the marker is replaced.
func acquireMarker(ctx context.Context, dir string) (*marker, error) {
	path := filepath.Join(dir, MarkerFilename)

	logger.Debug(ctx, "Checking for the presence of a build marker")

	fileInfo, err := os.Stat(path)

	switch {
	case err == nil:
		if time.Since(fileInfo.ModTime()) <= markerLifetime {
			return nil, ErrBuildInProgress
		}

		logger.WarnKV(ctx, "The build marker is too old, attempting cleanup", "path", path)

		if err = terminateProcessByName(executableName(packagerExecutable)); err != nil {
			return nil, err
		}

		if err = os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	case !errors.Is(err, os.ErrNotExist):
		return nil, err
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if errors.Is(err, os.ErrExist) {
		return nil, ErrBuildInProgress
	}

	if err != nil {
		return nil, err
	}

	if err = file.Close(); err != nil {
		return nil, err
	}

	return &marker{path: path}, nil
}

// release removes the marker.
func (m *marker) release(ctx context.Context) {
	if err := os.Remove(m.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.WarnKV(ctx, "Unable to remove build marker", "path", m.path, "error", err)
	}
}

// terminateProcessByName kills processes with the provided executable name, except this one.
func terminateProcessByName(processName string) error {
	processList, err := ps.Processes()
	if err != nil {
		return err
	}

	thisProcessID := os.Getpid()

	for _, process := range processList {
		if process.Pid() == thisProcessID || process.Executable() != processName {
			continue
		}

		runningProcess, err := os.FindProcess(process.Pid())
		if err != nil {
			return err
		}

		if err = runningProcess.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
			return err
		}
	}

	return nil
}

func executableName(base string) string {
	if runtime.GOOS == "windows" {
		return base + ".exe"
	}

	return base
}
