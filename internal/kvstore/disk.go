package kvstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/2beens/blogbox/internal/telemetry/tracing"
	"github.com/2beens/blogbox/pkg"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

var _ Store = (*DiskStore)(nil)

// DiskStore keeps every key in its own file under rootPath.
type DiskStore struct {
	rootPath string
	mutex    sync.RWMutex
}

func NewDiskStore(rootPath string) (*DiskStore, error) {
	if rootPath == "" {
		return nil, errors.New("root path cannot be empty")
	}
	if err := pkg.EnsureDir(rootPath); err != nil {
		return nil, fmt.Errorf("ensure root dir: %w", err)
	}

	log.Debugf("disk store root: %s", rootPath)

	return &DiskStore{
		rootPath: rootPath,
	}, nil
}

func (s *DiskStore) keyPath(key string) (string, error) {
	if key == "" || strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return "", fmt.Errorf("%w: [%s]", ErrInvalidKey, key)
	}
	return filepath.Join(s.rootPath, key+".json"), nil
}

func (s *DiskStore) Get(ctx context.Context, key string) (string, error) {
	_, span := tracing.GlobalTracer.Start(ctx, "diskStore.get")
	span.SetAttributes(attribute.String("key", key))
	defer span.End()

	path, err := s.keyPath(key)
	if err != nil {
		return "", err
	}

	s.mutex.RLock()
	defer s.mutex.RUnlock()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrKeyNotFound
		}
		return "", fmt.Errorf("read [%s]: %w", path, err)
	}

	return string(data), nil
}

// Set writes the value to a temp file first, then renames it over the
// previous one, so readers never see a half written value.
func (s *DiskStore) Set(ctx context.Context, key, value string) error {
	_, span := tracing.GlobalTracer.Start(ctx, "diskStore.set")
	span.SetAttributes(attribute.String("key", key))
	defer span.End()

	path, err := s.keyPath(key)
	if err != nil {
		return err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	tmpFile, err := os.CreateTemp(s.rootPath, key+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		// no-op once renamed
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmpFile.WriteString(value); err != nil {
		_ = tmpFile.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		_ = tmpFile.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename [%s] -> [%s]: %w", tmpPath, path, err)
	}

	return nil
}
