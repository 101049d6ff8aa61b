package blog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/2beens/blogbox/internal/kvstore"
	"github.com/2beens/blogbox/internal/telemetry/metrics"

	log "github.com/sirupsen/logrus"
)

// Storage persists the whole blog collection as one JSON array under a
// single key. Unreadable or missing data is treated as an empty collection.
type Storage struct {
	store   kvstore.Store
	key     string
	metrics *metrics.Manager
}

func NewStorage(store kvstore.Store, key string, metricsManager *metrics.Manager) *Storage {
	return &Storage{
		store:   store,
		key:     key,
		metrics: metricsManager,
	}
}

func (s *Storage) Load(ctx context.Context) []*Blog {
	raw, err := s.store.Get(ctx, s.key)
	if err != nil {
		if !errors.Is(err, kvstore.ErrKeyNotFound) {
			log.Warnf("load blogs [%s]: %s", s.key, err)
			s.storageError()
		}
		return []*Blog{}
	}

	var blogs []*Blog
	if err := json.Unmarshal([]byte(raw), &blogs); err != nil {
		log.Warnf("load blogs [%s], unmarshal stored value: %s", s.key, err)
		s.storageError()
		return []*Blog{}
	}

	// a JSON null, or null entries, are no data either
	loaded := make([]*Blog, 0, len(blogs))
	for _, b := range blogs {
		if b != nil {
			loaded = append(loaded, b)
		}
	}

	return loaded
}

func (s *Storage) Save(ctx context.Context, blogs []*Blog) error {
	if blogs == nil {
		blogs = []*Blog{}
	}

	blogsJson, err := json.Marshal(blogs)
	if err != nil {
		return fmt.Errorf("marshal blogs: %w", err)
	}

	if err := s.store.Set(ctx, s.key, string(blogsJson)); err != nil {
		return fmt.Errorf("save blogs [%s]: %w", s.key, err)
	}

	return nil
}

func (s *Storage) storageError() {
	if s.metrics != nil {
		s.metrics.CounterStorageErrors.Inc()
	}
}
