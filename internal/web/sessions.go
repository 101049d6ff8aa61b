package web

import (
	"context"
	"fmt"
	"time"

	"github.com/2beens/blogbox/internal/modal"
	"github.com/2beens/blogbox/internal/notify"
	"github.com/2beens/blogbox/internal/telemetry/metrics"
	"github.com/2beens/blogbox/internal/view"
	"github.com/2beens/blogbox/pkg"

	"github.com/patrickmn/go-cache"
	log "github.com/sirupsen/logrus"
)

const sessionIDLength = 32

// Session is everything one browser needs: its own controller and page.
type Session struct {
	ID         string
	Controller *view.Controller
	Document   *Document
	Modal      *modal.Modal
}

type Sessions struct {
	cache       *cache.Cache
	repo        view.Repository
	bannerDelay time.Duration
	metrics     *metrics.Manager
}

func NewSessions(
	repo view.Repository,
	ttl time.Duration,
	bannerDelay time.Duration,
	metricsManager *metrics.Manager,
) *Sessions {
	sessionsCache := cache.New(ttl, ttl/2)
	if metricsManager != nil {
		sessionsCache.OnEvicted(func(id string, _ interface{}) {
			log.Tracef("session %s evicted", id)
			metricsManager.GaugeSessions.Dec()
		})
	}

	return &Sessions{
		cache:       sessionsCache,
		repo:        repo,
		bannerDelay: bannerDelay,
		metrics:     metricsManager,
	}
}

// Get returns a live session and extends its lifetime.
func (s *Sessions) Get(id string) (*Session, bool) {
	if id == "" {
		return nil, false
	}

	cached, found := s.cache.Get(id)
	if !found {
		return nil, false
	}

	session, ok := cached.(*Session)
	if !ok {
		return nil, false
	}
	s.cache.SetDefault(id, session)

	return session, true
}

// New creates a session and shows its initial list view.
func (s *Sessions) New(ctx context.Context) (*Session, error) {
	id, err := pkg.GenerateRandomString(sessionIDLength)
	if err != nil {
		return nil, fmt.Errorf("generate session id: %w", err)
	}

	doc := NewDocument()
	confirmModal := modal.NewModal(doc)
	banner := notify.NewBanner(doc, s.bannerDelay, s.metrics)
	session := &Session{
		ID:         id,
		Controller: view.NewController(s.repo, doc, banner, confirmModal, s.metrics),
		Document:   doc,
		Modal:      confirmModal,
	}
	session.Controller.Start(ctx)

	s.cache.SetDefault(id, session)
	if s.metrics != nil {
		s.metrics.GaugeSessions.Inc()
	}
	log.Debugf("new session %s", id)

	return session, nil
}

func (s *Sessions) Count() int {
	return s.cache.ItemCount()
}

// Flush drops every session. Entries are deleted one by one so the eviction
// callback keeps the sessions gauge in sync.
func (s *Sessions) Flush() {
	for id := range s.cache.Items() {
		s.cache.Delete(id)
	}
}
