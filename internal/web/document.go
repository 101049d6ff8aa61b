package web

import (
	"strings"
	"sync"

	"github.com/2beens/blogbox/internal/modal"
	"github.com/2beens/blogbox/internal/mood"
	"github.com/2beens/blogbox/internal/notify"
	"github.com/2beens/blogbox/internal/view"
)

var (
	_ view.Renderer  = (*Document)(nil)
	_ notify.Surface = (*Document)(nil)
	_ modal.Overlay  = (*Document)(nil)
)

type Banner struct {
	Text    string
	Kind    notify.Kind
	Visible bool
}

type MoodButton struct {
	Key   string
	Label string
}

// PageData is a snapshot of a Document, ready for the page template.
type PageData struct {
	View          view.View
	List          []view.Summary
	EmptyMessage  string
	Editor        view.EditorForm
	Detail        view.Detail
	Banner        Banner
	Overlay       string
	OverlayActive bool
	Mood          string
	Moods         []MoodButton
}

// Document keeps the rendered regions of one session page. Banner timers
// update it from their own goroutines, so all access goes through the mutex.
type Document struct {
	view          view.View
	list          []view.Summary
	editor        view.EditorForm
	detail        view.Detail
	banner        Banner
	overlay       string
	overlayActive bool
	mood          string

	mutex sync.RWMutex
}

func NewDocument() *Document {
	return &Document{
		view: view.ListView,
		list: []view.Summary{},
	}
}

func (d *Document) ShowView(v view.View) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.view = v
}

func (d *Document) RenderList(summaries []view.Summary) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.list = append([]view.Summary{}, summaries...)
}

func (d *Document) RenderEditor(form view.EditorForm) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.editor = form
}

func (d *Document) RenderDetail(detail view.Detail) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.detail = detail
}

func (d *Document) RenderMood(text string) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.mood = text
}

func (d *Document) ShowBanner(text string, kind notify.Kind) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.banner = Banner{Text: text, Kind: kind, Visible: true}
}

// HideBanner hides the banner but keeps its last text, like a css class toggle.
func (d *Document) HideBanner() {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.banner.Visible = false
}

func (d *Document) ShowOverlay(message string) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.overlay = message
	d.overlayActive = true
}

func (d *Document) RemoveOverlay() {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.overlay = ""
	d.overlayActive = false
}

func (d *Document) Page() PageData {
	d.mutex.RLock()
	defer d.mutex.RUnlock()

	var emptyMessage string
	if len(d.list) == 0 {
		emptyMessage = view.MsgNoBlogs
	}

	return PageData{
		View:          d.view,
		List:          append([]view.Summary{}, d.list...),
		EmptyMessage:  emptyMessage,
		Editor:        d.editor,
		Detail:        d.detail,
		Banner:        d.banner,
		Overlay:       d.overlay,
		OverlayActive: d.overlayActive,
		Mood:          d.mood,
		Moods:         moodButtons(),
	}
}

func moodButtons() []MoodButton {
	keys := mood.Keys()
	buttons := make([]MoodButton, 0, len(keys))
	for _, k := range keys {
		buttons = append(buttons, MoodButton{
			Key:   k,
			Label: strings.ToUpper(k[:1]) + k[1:],
		})
	}
	return buttons
}
