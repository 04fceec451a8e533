package toolchain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// errEmptyGOPATH is returned when `go env GOPATH` prints nothing.
var errEmptyGOPATH = errors.New("go env GOPATH is empty")

// GoToolchain queries the Go toolchain.
type GoToolchain struct {
	// runner executes the go binary.
	runner Runner
	// binary is the go executable name or path.
	binary string
	// env is the environment the go binary runs with; nil inherits.
	env []string
}

// NewGoToolchain creates a GoToolchain for the given go binary.
func NewGoToolchain(runner Runner, binary string, env []string) *GoToolchain {
	if binary == "" {
		binary = "go"
	}

	return &GoToolchain{
		runner: runner,
		binary: binary,
		env:    env,
	}
}

// GOPATH returns the value of `go env GOPATH`.
func (g *GoToolchain) GOPATH(ctx context.Context) (string, error) {
	out, err := g.runner.Output(ctx, Command{Name: g.binary, Args: []string{"env", "GOPATH"}, Env: g.env})
	if err != nil {
		return "", err
	}

	gopath := strings.TrimSpace(string(out))
	if gopath == "" {
		return "", errEmptyGOPATH
	}

	return gopath, nil
}

// Env returns the toolchain environment reported by `go env -json`.
func (g *GoToolchain) Env(ctx context.Context) (map[string]string, error) {
	out, err := g.runner.Output(ctx, Command{Name: g.binary, Args: []string{"env", "-json"}, Env: g.env})
	if err != nil {
		return nil, err
	}

	var env map[string]string
	if err = json.Unmarshal(out, &env); err != nil {
		return nil, fmt.Errorf("decode go env: %w", err)
	}

	return env, nil
}

// PathWithGoBin appends the bin directory of every GOPATH entry to path.
func PathWithGoBin(path, gopath string) string {
	entries := make([]string, 0, 4)
	if path != "" {
		entries = append(entries, path)
	}

	for _, root := range filepath.SplitList(gopath) {
		if root != "" {
			entries = append(entries, filepath.Join(root, "bin"))
		}
	}

	return strings.Join(entries, string(os.PathListSeparator))
}

// ComposeEnv flattens layered variables into a sorted KEY=VALUE list.
// Later layers override earlier ones.
func ComposeEnv(layers ...map[string]string) []string {
	merged := make(map[string]string)
	for _, layer := range layers {
		maps.Copy(merged, layer)
	}

	keys := slices.Sorted(maps.Keys(merged))

	env := make([]string, 0, len(keys))
	for _, key := range keys {
		env = append(env, key+"="+merged[key])
	}

	return env
}
