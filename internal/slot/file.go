package slot

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"civicfeedback/internal/config"
	"civicfeedback/internal/observability"
	contextutils "civicfeedback/internal/utils"
)

// FileSlot stores each key as <dir>/<key>.json
type FileSlot struct {
	dir string
}

// NewFileSlot creates dir if needed and returns a slot rooted there
func NewFileSlot(dir string) (*FileSlot, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, contextutils.WrapErrorf(err, "failed to create store directory %s", dir)
	}
	return &FileSlot{dir: dir}, nil
}

func (s *FileSlot) path(key string) (string, error) {
	if key == "" || strings.ContainsAny(key, `/\`) || strings.Contains(key, "..") {
		return "", contextutils.WithDetails(contextutils.ErrInvalidInput, "invalid slot key %q", key)
	}
	return filepath.Join(s.dir, key+".json"), nil
}

// Get reads the file for key
func (s *FileSlot) Get(ctx context.Context, key string) (result0 []byte, result1 bool, err error) {
	_, span := observability.TraceSlotFunction(ctx, "Get",
		observability.AttributeSlotKey(key),
		observability.AttributeBackend(config.StoreBackendFile),
	)
	defer observability.FinishSpan(span, &err)

	p, err := s.path(key)
	if err != nil {
		return nil, false, err
	}

	data, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, contextutils.WrapErrorf(err, "failed to read slot %s", key)
	}
	return data, true, nil
}

// Set writes value to a temp file in the same directory and renames it over the target
func (s *FileSlot) Set(ctx context.Context, key string, value []byte) (err error) {
	_, span := observability.TraceSlotFunction(ctx, "Set",
		observability.AttributeSlotKey(key),
		observability.AttributeBackend(config.StoreBackendFile),
	)
	defer observability.FinishSpan(span, &err)

	p, err := s.path(key)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dir, key+".*.tmp")
	if err != nil {
		return contextutils.WrapErrorf(err, "failed to create temp file for slot %s", key)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(value); err != nil {
		_ = tmp.Close()
		return contextutils.WrapErrorf(err, "failed to write slot %s", key)
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return contextutils.WrapErrorf(err, "failed to sync slot %s", key)
	}
	if err = tmp.Close(); err != nil {
		return contextutils.WrapErrorf(err, "failed to close slot %s", key)
	}
	if err = os.Rename(tmpName, p); err != nil {
		return contextutils.WrapErrorf(err, "failed to replace slot %s", key)
	}
	return nil
}

// Backend returns the backend name
func (s *FileSlot) Backend() string { return config.StoreBackendFile }

// Close is a no-op
func (s *FileSlot) Close() error { return nil }
