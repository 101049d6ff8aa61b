package blog

import (
	"context"
	"sync"
	"time"

	"github.com/2beens/blogbox/internal/telemetry/metrics"
	"github.com/2beens/blogbox/internal/telemetry/tracing"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

// Repo works on the full collection: every operation loads it, changes it in
// memory and (for mutations) saves it back. The mutex keeps concurrent
// sessions from interleaving their load-mutate-save cycles.
type Repo struct {
	storage    *Storage
	dateLayout string
	metrics    *metrics.Manager

	now   func() time.Time
	newID func() string

	mutex sync.Mutex
}

func NewRepo(storage *Storage, dateLayout string, metricsManager *metrics.Manager) *Repo {
	return &Repo{
		storage:    storage,
		dateLayout: dateLayout,
		metrics:    metricsManager,
		now:        time.Now,
		newID:      uuid.NewString,
	}
}

func (r *Repo) List(ctx context.Context) []*Blog {
	ctx, span := tracing.GlobalTracer.Start(ctx, "blogRepo.list")
	defer span.End()

	r.mutex.Lock()
	defer r.mutex.Unlock()

	blogs := r.storage.Load(ctx)
	span.SetAttributes(attribute.Int("count", len(blogs)))
	return blogs
}

func (r *Repo) FindByID(ctx context.Context, id string) (*Blog, bool) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "blogRepo.findById")
	span.SetAttributes(attribute.String("id", id))
	defer span.End()

	r.mutex.Lock()
	defer r.mutex.Unlock()

	for _, b := range r.storage.Load(ctx) {
		if b.ID == id {
			return b, true
		}
	}

	return nil, false
}

func (r *Repo) Create(ctx context.Context, title, content string) *Blog {
	ctx, span := tracing.GlobalTracer.Start(ctx, "blogRepo.create")
	defer span.End()

	r.mutex.Lock()
	defer r.mutex.Unlock()

	newBlog := &Blog{
		ID:      r.newID(),
		Title:   title,
		Content: content,
		Date:    r.now().Format(r.dateLayout),
	}
	span.SetAttributes(attribute.String("id", newBlog.ID))

	blogs := r.storage.Load(ctx)
	blogs = append(blogs, newBlog)
	r.save(ctx, blogs)

	if r.metrics != nil {
		r.metrics.CounterBlogsCreated.Inc()
	}

	log.Tracef("new blog %s: [%s] added", newBlog.ID, newBlog.Title)
	return newBlog
}

// Update will update the title and content of the blog, id and date stay
// untouched. ErrBlogNotFound is returned (and nothing saved) if id is unknown.
func (r *Repo) Update(ctx context.Context, id, title, content string) error {
	ctx, span := tracing.GlobalTracer.Start(ctx, "blogRepo.update")
	span.SetAttributes(attribute.String("id", id))
	defer span.End()

	r.mutex.Lock()
	defer r.mutex.Unlock()

	blogs := r.storage.Load(ctx)
	for _, b := range blogs {
		if b.ID != id {
			continue
		}

		b.Title = title
		b.Content = content
		r.save(ctx, blogs)

		if r.metrics != nil {
			r.metrics.CounterBlogsUpdated.Inc()
		}
		log.Tracef("blog %s updated", id)
		return nil
	}

	log.Tracef("blog %s not updated, not found", id)
	return ErrBlogNotFound
}

// Delete removes every blog with the given id, unknown id is a no-op.
func (r *Repo) Delete(ctx context.Context, id string) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "blogRepo.delete")
	span.SetAttributes(attribute.String("id", id))
	defer span.End()

	r.mutex.Lock()
	defer r.mutex.Unlock()

	blogs := r.storage.Load(ctx)
	kept := make([]*Blog, 0, len(blogs))
	for _, b := range blogs {
		if b.ID != id {
			kept = append(kept, b)
		}
	}
	r.save(ctx, kept)

	if r.metrics != nil {
		r.metrics.CounterBlogsDeleted.Inc()
	}
	log.Tracef("blog %s deleted, removed: %d", id, len(blogs)-len(kept))
}

func (r *Repo) save(ctx context.Context, blogs []*Blog) {
	if err := r.storage.Save(ctx, blogs); err != nil {
		log.Errorf("save blogs: %s", err)
		if r.metrics != nil {
			r.metrics.CounterStorageErrors.Inc()
		}
	}
}
