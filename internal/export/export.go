// Package export writes intents to JSONL files.
package export

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/hpungsan/intentdesk/internal/errors"
	"github.com/hpungsan/intentdesk/internal/intent"
)

// SchemaVersion is written in the header line of every export file.
const SchemaVersion = "1.0"

// Lister is the part of the backend an export needs.
type Lister interface {
	List(ctx context.Context) ([]intent.Intent, error)
}

// Header is the first line of an export file.
type Header struct {
	IntentExport  bool   `json:"_intent_export"`
	SchemaVersion string `json:"schema_version"`
	ExportedAt    int64  `json:"exported_at"`
	Source        string `json:"source,omitempty"`
}

// Input contains parameters for Export.
type Input struct {
	Path   string // optional, default: <Dir>/intents-<timestamp>.jsonl
	Dir    string // default directory when Path is empty
	Source string // backend URL recorded in the header
}

// Output is the result of Export.
type Output struct {
	Path       string `json:"path"`
	Count      int    `json:"count"`
	ExportedAt int64  `json:"exported_at"`
}

// Export fetches every intent and writes them, one per line after a
// header, to a JSONL file. An existing file is replaced only once the new
// one is complete.
func Export(ctx context.Context, src Lister, input Input) (*Output, error) {
	now := time.Now()

	path := input.Path
	if path == "" {
		if input.Dir == "" {
			return nil, errors.NewInvalidRequest("path is required")
		}
		path = filepath.Join(input.Dir, "intents-"+now.Format("2006-01-02T150405")+".jsonl")
	}
	if err := ValidatePath(path); err != nil {
		return nil, err
	}

	intents, err := src.List(ctx)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to create export directory: %w", err))
	}

	randBytes := make([]byte, 8)
	if _, err := rand.Read(randBytes); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to generate temp file name: %w", err))
	}
	tempPath := path + "." + hex.EncodeToString(randBytes) + ".tmp"
	file, err := openFileNoFollow(tempPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to create export file: %w", err))
	}

	success := false
	defer func() {
		if file != nil {
			file.Close()
		}
		if !success {
			os.Remove(tempPath)
		}
	}()

	enc := json.NewEncoder(file)
	header := Header{
		IntentExport:  true,
		SchemaVersion: SchemaVersion,
		ExportedAt:    now.Unix(),
		Source:        input.Source,
	}
	if err := enc.Encode(header); err != nil {
		return nil, errors.NewInternal(err)
	}
	for _, in := range intents {
		if err := ctx.Err(); err != nil {
			return nil, errors.NewInternal(err)
		}
		if err := enc.Encode(in); err != nil {
			return nil, errors.NewInternal(err)
		}
	}

	if err := file.Sync(); err != nil {
		return nil, errors.NewInternal(err)
	}
	if err := file.Close(); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to close export file: %w", err))
	}
	file = nil

	// os.Rename would follow a symlinked destination.
	if info, err := os.Lstat(path); err == nil && info.Mode()&os.ModeSymlink != 0 {
		return nil, errors.NewInvalidRequest("export path must not be a symlink")
	}
	if err := os.Rename(tempPath, path); err != nil {
		if runtime.GOOS == "windows" {
			if _, statErr := os.Stat(path); statErr == nil {
				return nil, errors.NewInvalidRequest("export destination already exists; choose a new path")
			}
		}
		return nil, errors.NewInternal(fmt.Errorf("failed to finalize export: %w", err))
	}

	success = true
	return &Output{Path: path, Count: len(intents), ExportedAt: now.Unix()}, nil
}

// ValidatePath rejects traversal, non-.jsonl names and symlinked targets.
func ValidatePath(path string) error {
	if strings.TrimSpace(path) == "" {
		return errors.NewInvalidRequest("path is required")
	}
	if containsTraversal(path) {
		return errors.NewInvalidRequest("path must not contain directory traversal (..)")
	}
	cleaned := filepath.Clean(path)
	if filepath.Ext(cleaned) != ".jsonl" {
		return errors.NewInvalidRequest("path must have .jsonl extension")
	}
	if info, err := os.Lstat(cleaned); err == nil && info.Mode()&os.ModeSymlink != 0 {
		return errors.NewInvalidRequest("path must not be a symlink")
	}
	return nil
}

func containsTraversal(path string) bool {
	for _, part := range strings.FieldsFunc(path, func(r rune) bool {
		return r == '/' || r == filepath.Separator
	}) {
		if part == ".." {
			return true
		}
	}
	return false
}
