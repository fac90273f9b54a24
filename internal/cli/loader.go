package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"cuelang.org/go/cue/token"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"

	"github.com/nlupugla/saveload/internal/compiler"
)

// LoadError represents an error that occurred while loading CLI inputs.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// ConfigResult holds a loaded configuration directory.
type ConfigResult struct {
	Document  *compiler.Document
	Errors    []compiler.ValidationError
	FileCount int // Number of CUE files found
}

// hostFS is the filesystem snapshot files are read from.
var hostFS billy.Filesystem = osfs.New("/")

// readSnapshot reads a snapshot file. Relative paths are resolved against
// the working directory.
func readSnapshot(path string) ([]byte, *LoadError) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeRead, Message: fmt.Sprintf("invalid path %s: %v", path, err)}
	}
	info, err := hostFS.Stat(abs)
	if errors.Is(err, os.ErrNotExist) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("snapshot file not found: %s", path)}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeRead, Message: fmt.Sprintf("error accessing %s: %v", path, err)}
	}
	if info.IsDir() {
		return nil, &LoadError{Code: ErrCodeRead, Message: fmt.Sprintf("is a directory: %s", path)}
	}
	f, err := hostFS.Open(abs)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeRead, Message: fmt.Sprintf("opening %s: %v", path, err)}
	}
	defer f.Close()
	blob, err := io.ReadAll(f)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeRead, Message: fmt.Sprintf("reading %s: %v", path, err)}
	}
	return blob, nil
}

// writeSnapshot writes blob to path, creating parent directories.
func writeSnapshot(path string, blob []byte) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := hostFS.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return err
	}
	return util.WriteFile(hostFS, abs, blob, 0o644)
}

// LoadConfigDir loads and validates the CUE configuration in dir.
// A LoadError means the directory could not be compiled at all; validation
// problems are returned in ConfigResult.Errors.
func LoadConfigDir(dir string) (*ConfigResult, *LoadError) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("config directory not found: %s", dir)}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeRead, Message: fmt.Sprintf("error accessing config directory: %v", err)}
	}
	if !info.IsDir() {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}
	}

	files, err := filepath.Glob(filepath.Join(dir, "*.cue"))
	if err != nil {
		return nil, &LoadError{Code: ErrCodeRead, Message: fmt.Sprintf("error scanning directory: %v", err)}
	}
	if len(files) == 0 {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("no CUE files found in %s", dir)}
	}

	doc, verrs, err := compiler.CheckDir(dir)
	if err != nil {
		var cErr *compiler.CompileError
		if errors.As(err, &cErr) {
			return nil, &LoadError{Code: ErrCodeConfig, Message: fmt.Sprintf("%s: %s", cErr.Field, cErr.Message), Pos: cErr.Pos}
		}
		return nil, &LoadError{Code: ErrCodeConfig, Message: err.Error()}
	}
	return &ConfigResult{Document: doc, Errors: verrs, FileCount: len(files)}, nil
}

// findScenarioFiles expands files and directories into the YAML scenario
// files they name, sorted. Directories are walked recursively. filter is a
// glob matched against file names without extension.
func findScenarioFiles(paths []string, filter string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	add := func(path string) error {
		ext := filepath.Ext(path)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}
		if filter != "" {
			name := strings.TrimSuffix(filepath.Base(path), ext)
			matched, err := filepath.Match(filter, name)
			if err != nil {
				return fmt.Errorf("invalid filter pattern: %w", err)
			}
			if !matched {
				return nil
			}
		}
		if !seen[path] {
			seen[path] = true
			files = append(files, path)
		}
		return nil
	}

	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("scenario path not found: %s", p)
		}
		if !info.IsDir() {
			if err := add(p); err != nil {
				return nil, err
			}
			continue
		}
		err = filepath.Walk(p, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if info.IsDir() {
				return nil
			}
			return add(path)
		})
		if err != nil {
			return nil, err
		}
	}
	sort.Strings(files)
	return files, nil
}
