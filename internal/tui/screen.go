package tui

import (
	"sync"

	"github.com/2beens/blogbox/internal/modal"
	"github.com/2beens/blogbox/internal/notify"
	"github.com/2beens/blogbox/internal/view"
)

var (
	_ view.Renderer  = (*Screen)(nil)
	_ notify.Surface = (*Screen)(nil)
	_ modal.Overlay  = (*Screen)(nil)
)

// Screen holds what the controller rendered for the terminal. The banner is
// hidden from a timer goroutine, onHide lets the program redraw then.
type Screen struct {
	view      view.View
	list      []view.Summary
	editor    view.EditorForm
	editorRev int
	detail    view.Detail
	mood      string

	bannerText    string
	bannerKind    notify.Kind
	bannerVisible bool

	overlay       string
	overlayActive bool

	onHide func()
	mutex  sync.Mutex
}

func NewScreen() *Screen {
	return &Screen{
		view: view.ListView,
		list: []view.Summary{},
	}
}

// OnBannerHide registers f to be called after the banner timer hid the banner.
func (s *Screen) OnBannerHide(f func()) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.onHide = f
}

func (s *Screen) ShowView(v view.View) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.view = v
}

func (s *Screen) RenderList(summaries []view.Summary) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.list = append([]view.Summary{}, summaries...)
}

func (s *Screen) RenderEditor(form view.EditorForm) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.editor = form
	s.editorRev++
}

func (s *Screen) RenderDetail(detail view.Detail) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.detail = detail
}

func (s *Screen) RenderMood(text string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.mood = text
}

func (s *Screen) ShowBanner(text string, kind notify.Kind) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.bannerText = text
	s.bannerKind = kind
	s.bannerVisible = true
}

func (s *Screen) HideBanner() {
	s.mutex.Lock()
	s.bannerVisible = false
	onHide := s.onHide
	s.mutex.Unlock()

	if onHide != nil {
		onHide()
	}
}

func (s *Screen) ShowOverlay(message string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.overlay = message
	s.overlayActive = true
}

func (s *Screen) RemoveOverlay() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.overlay = ""
	s.overlayActive = false
}

type snapshot struct {
	view          view.View
	list          []view.Summary
	editor        view.EditorForm
	editorRev     int
	detail        view.Detail
	mood          string
	bannerText    string
	bannerKind    notify.Kind
	bannerVisible bool
	overlay       string
	overlayActive bool
}

func (s *Screen) snapshot() snapshot {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return snapshot{
		view:          s.view,
		list:          append([]view.Summary{}, s.list...),
		editor:        s.editor,
		editorRev:     s.editorRev,
		detail:        s.detail,
		mood:          s.mood,
		bannerText:    s.bannerText,
		bannerKind:    s.bannerKind,
		bannerVisible: s.bannerVisible,
		overlay:       s.overlay,
		overlayActive: s.overlayActive,
	}
}
