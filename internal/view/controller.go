package view

import (
	"context"
	"sync"

	"github.com/2beens/blogbox/internal/blog"
	"github.com/2beens/blogbox/internal/mood"
	"github.com/2beens/blogbox/internal/notify"
	"github.com/2beens/blogbox/internal/telemetry/metrics"
	"github.com/2beens/blogbox/internal/telemetry/tracing"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

type View string

const (
	ListView   View = "list"
	EditorView View = "editor"
	DetailView View = "detail"
)

const (
	HeadingCreate = "Create New Blog"
	HeadingEdit   = "Edit Blog"

	MsgCreated       = "Blog created successfully!"
	MsgUpdated       = "Blog updated successfully!"
	MsgDeleted       = "Blog deleted successfully!"
	MsgNotFound      = "Blog not found!"
	MsgConfirmDelete = "Are you sure you want to delete this blog?"
	MsgNoBlogs       = "No blogs found. Create one to get started!"

	publishedPrefix = "Published on "
)

// Summary is one entry of the blog list.
type Summary struct {
	ID      string
	Title   string
	Snippet string
}

type EditorForm struct {
	Heading string
	// ID is empty when creating a new blog.
	ID      string
	Title   string
	Content string
}

type Detail struct {
	Title     string
	Published string
	Content   string
}

// State is the whole controller state. Selected is the blog shown in the
// detail view (or being edited), it is cleared whenever the list is shown.
type State struct {
	View     View
	Selected string
	Editing  string
}

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=view_test

type Renderer interface {
	ShowView(v View)
	RenderList(summaries []Summary)
	RenderEditor(form EditorForm)
	RenderDetail(detail Detail)
	RenderMood(text string)
}

type Notifier interface {
	Notify(message string, kind notify.Kind)
}

type Confirmer interface {
	Confirm(message string, onConfirm func())
}

type Repository interface {
	List(ctx context.Context) []*blog.Blog
	FindByID(ctx context.Context, id string) (*blog.Blog, bool)
	Create(ctx context.Context, title, content string) *blog.Blog
	Update(ctx context.Context, id, title, content string) error
	Delete(ctx context.Context, id string)
}

// Controller drives one user session: it reacts to user actions, talks to
// the repository and tells the renderer what to draw.
type Controller struct {
	repo      Repository
	renderer  Renderer
	notifier  Notifier
	confirmer Confirmer
	metrics   *metrics.Manager

	state State
	mutex sync.Mutex
}

func NewController(
	repo Repository,
	renderer Renderer,
	notifier Notifier,
	confirmer Confirmer,
	metricsManager *metrics.Manager,
) *Controller {
	return &Controller{
		repo:      repo,
		renderer:  renderer,
		notifier:  notifier,
		confirmer: confirmer,
		metrics:   metricsManager,
		state:     State{View: ListView},
	}
}

func (c *Controller) State() State {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.state
}

func (c *Controller) Start(ctx context.Context) {
	c.Home(ctx)
}

func (c *Controller) Home(ctx context.Context) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "view.home")
	defer span.End()

	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.showList(ctx)
}

// Add opens an empty editor for a new blog.
func (c *Controller) Add() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.state = State{View: EditorView}
	c.renderer.RenderEditor(EditorForm{Heading: HeadingCreate})
	c.renderer.ShowView(EditorView)
}

// Edit opens the editor prefilled with the blog shown in the detail view.
func (c *Controller) Edit(ctx context.Context) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "view.edit")
	defer span.End()

	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.state.View != DetailView {
		log.Debugf("edit ignored in view [%s]", c.state.View)
		return
	}

	id := c.state.Selected
	span.SetAttributes(attribute.String("id", id))

	b, found := c.repo.FindByID(ctx, id)
	if !found {
		log.Debugf("edit: selected blog %s is gone", id)
		c.notifier.Notify(MsgNotFound, notify.KindError)
		c.showList(ctx)
		return
	}

	c.state = State{View: EditorView, Selected: id, Editing: id}
	c.renderer.RenderEditor(EditorForm{
		Heading: HeadingEdit,
		ID:      b.ID,
		Title:   b.Title,
		Content: b.Content,
	})
	c.renderer.ShowView(EditorView)
}

// Cancel leaves the editor without saving anything.
func (c *Controller) Cancel(ctx context.Context) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.state.View != EditorView {
		log.Debugf("cancel ignored in view [%s]", c.state.View)
		return
	}

	c.showList(ctx)
}

// Submit creates a new blog when form.ID is empty, otherwise updates the
// blog with that id. The list is shown afterwards in both cases.
func (c *Controller) Submit(ctx context.Context, form EditorForm) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "view.submit")
	defer span.End()

	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.state.View != EditorView {
		log.Debugf("submit ignored in view [%s]", c.state.View)
		return
	}

	if form.ID == "" {
		newBlog := c.repo.Create(ctx, form.Title, form.Content)
		span.SetAttributes(attribute.String("id", newBlog.ID))
		c.notifier.Notify(MsgCreated, notify.KindSuccess)
	} else {
		span.SetAttributes(attribute.String("id", form.ID))
		if err := c.repo.Update(ctx, form.ID, form.Title, form.Content); err != nil {
			log.Debugf("submit, update blog %s: %s", form.ID, err)
			c.notifier.Notify(MsgNotFound, notify.KindError)
		} else {
			c.notifier.Notify(MsgUpdated, notify.KindSuccess)
		}
	}

	c.showList(ctx)
}

// Select shows the detail view of a blog, it works from any view.
func (c *Controller) Select(ctx context.Context, id string) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "view.select")
	span.SetAttributes(attribute.String("id", id))
	defer span.End()

	c.mutex.Lock()
	defer c.mutex.Unlock()

	b, found := c.repo.FindByID(ctx, id)
	if !found {
		c.notifier.Notify(MsgNotFound, notify.KindError)
		c.showList(ctx)
		return
	}

	c.state = State{View: DetailView, Selected: id}
	c.renderer.RenderDetail(Detail{
		Title:     b.Title,
		Published: publishedPrefix + b.Date,
		Content:   b.Content,
	})
	c.renderer.ShowView(DetailView)
}

func (c *Controller) Back(ctx context.Context) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.state.View != DetailView {
		log.Debugf("back ignored in view [%s]", c.state.View)
		return
	}

	c.showList(ctx)
}

// Delete asks for confirmation before removing the selected blog.
func (c *Controller) Delete(ctx context.Context) {
	c.mutex.Lock()
	if c.state.View != DetailView {
		log.Debugf("delete ignored in view [%s]", c.state.View)
		c.mutex.Unlock()
		return
	}
	id := c.state.Selected
	c.mutex.Unlock()

	// confirmation can come with a later request, after ctx is done
	confirmCtx := context.WithoutCancel(ctx)
	c.confirmer.Confirm(MsgConfirmDelete, func() {
		c.deleteConfirmed(confirmCtx, id)
	})
}

func (c *Controller) deleteConfirmed(ctx context.Context, id string) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "view.delete")
	span.SetAttributes(attribute.String("id", id))
	defer span.End()

	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.repo.Delete(ctx, id)
	c.notifier.Notify(MsgDeleted, notify.KindSuccess)
	c.showList(ctx)
}

// Mood renders the response for a mood key; unknown keys change nothing.
func (c *Controller) Mood(key string) {
	resp, ok := mood.Response(key)
	if !ok {
		log.Debugf("unknown mood: %s", key)
		return
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.renderer.RenderMood(resp)
	if c.metrics != nil {
		c.metrics.CounterMoodSelections.WithLabelValues(key).Inc()
	}
}

// showList must be called with the mutex held.
func (c *Controller) showList(ctx context.Context) {
	blogs := c.repo.List(ctx)
	summaries := make([]Summary, 0, len(blogs))
	for _, b := range blogs {
		summaries = append(summaries, Summary{
			ID:      b.ID,
			Title:   b.Title,
			Snippet: blog.Snippet(b.Content),
		})
	}

	c.state = State{View: ListView}
	c.renderer.RenderList(summaries)
	c.renderer.ShowView(ListView)
}
