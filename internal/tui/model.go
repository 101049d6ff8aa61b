package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/2beens/blogbox/internal/modal"
	"github.com/2beens/blogbox/internal/mood"
	"github.com/2beens/blogbox/internal/notify"
	"github.com/2beens/blogbox/internal/telemetry/metrics"
	"github.com/2beens/blogbox/internal/view"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	log "github.com/sirupsen/logrus"
)

const maxEditorWidth = 80

// refreshMsg asks for a redraw after the screen changed outside of Update.
type refreshMsg struct{}

// Model is the bubbletea model of the terminal front end. All state lives in
// the controller and the screen, the model only maps keys to actions and
// draws the screen.
type Model struct {
	ctx        context.Context
	screen     *Screen
	controller *view.Controller
	modal      *modal.Modal

	title     textinput.Model
	content   textarea.Model
	editorRev int
	cursor    int
}

func NewModel(ctx context.Context, repo view.Repository, bannerDelay time.Duration, metricsManager *metrics.Manager) Model {
	screen := NewScreen()
	confirmModal := modal.NewModal(screen)
	banner := notify.NewBanner(screen, bannerDelay, metricsManager)
	controller := view.NewController(repo, screen, banner, confirmModal, metricsManager)

	title := textinput.New()
	title.Placeholder = "Title"
	title.CharLimit = 0

	content := textarea.New()
	content.Placeholder = "Write your blog ..."
	content.CharLimit = 0
	content.ShowLineNumbers = false

	m := Model{
		ctx:        ctx,
		screen:     screen,
		controller: controller,
		modal:      confirmModal,
		title:      title,
		content:    content,
	}

	controller.Start(ctx)
	return m.sync()
}

// Run starts the program and blocks until the user quits or ctx is done.
func Run(ctx context.Context, m Model, opts ...tea.ProgramOption) error {
	opts = append(opts, tea.WithContext(ctx))
	program := tea.NewProgram(m, opts...)
	m.screen.OnBannerHide(func() {
		program.Send(refreshMsg{})
	})

	if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("run tui program: %w", err)
	}
	return nil
}

func (m Model) Controller() *view.Controller {
	return m.controller
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		width := min(msg.Width-4, maxEditorWidth)
		if width > 0 {
			m.title.Width = width
			m.content.SetWidth(width)
		}
		return m, nil
	case refreshMsg:
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	if m.screen.snapshot().view == view.EditorView {
		return m.updateInputs(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key == "ctrl+c" {
		return m, tea.Quit
	}

	if _, active := m.modal.Active(); active {
		switch key {
		case "y", "enter":
			m.modal.Affirm()
		case "n", "esc":
			m.modal.Dismiss()
		}
		return m.sync(), nil
	}

	snap := m.screen.snapshot()
	if snap.view == view.EditorView {
		return m.handleEditorKey(msg, snap)
	}

	if key == "q" {
		return m, tea.Quit
	}
	if moodKey, ok := moodForKey(key); ok {
		m.controller.Mood(moodKey)
		return m, nil
	}

	switch snap.view {
	case view.ListView:
		switch key {
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(snap.list)-1 {
				m.cursor++
			}
		case "enter":
			if len(snap.list) > 0 {
				m.controller.Select(m.ctx, snap.list[m.cursor].ID)
			}
		case "a":
			m.controller.Add()
		}
	case view.DetailView:
		switch key {
		case "e":
			m.controller.Edit(m.ctx)
		case "d":
			m.controller.Delete(m.ctx)
		case "b", "esc":
			m.controller.Back(m.ctx)
		case "a":
			m.controller.Add()
		}
	}

	return m.sync(), nil
}

func (m Model) handleEditorKey(msg tea.KeyMsg, snap snapshot) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.controller.Cancel(m.ctx)
		return m.sync(), nil
	case "ctrl+s":
		m.controller.Submit(m.ctx, view.EditorForm{
			ID:      snap.editor.ID,
			Title:   m.title.Value(),
			Content: m.content.Value(),
		})
		return m.sync(), nil
	case "tab", "shift+tab":
		if m.title.Focused() {
			m.title.Blur()
			return m, m.content.Focus()
		}
		m.content.Blur()
		return m, m.title.Focus()
	}

	return m.updateInputs(msg)
}

func (m Model) updateInputs(msg tea.Msg) (tea.Model, tea.Cmd) {
	var titleCmd, contentCmd tea.Cmd
	m.title, titleCmd = m.title.Update(msg)
	m.content, contentCmd = m.content.Update(msg)
	return m, tea.Batch(titleCmd, contentCmd)
}

// sync pulls what the controller rendered into the input widgets and keeps
// the list cursor in range.
func (m Model) sync() Model {
	snap := m.screen.snapshot()
	if snap.editorRev != m.editorRev {
		m.editorRev = snap.editorRev
		m.title.SetValue(snap.editor.Title)
		m.title.CursorEnd()
		m.content.SetValue(snap.editor.Content)
		m.content.Blur()
		m.title.Focus()
		log.Tracef("editor synced, rev %d", m.editorRev)
	}

	if m.cursor >= len(snap.list) {
		m.cursor = max(len(snap.list)-1, 0)
	}
	return m
}

func moodForKey(key string) (string, bool) {
	keys := mood.Keys()
	for i, k := range keys {
		if key == fmt.Sprint(i+1) {
			return k, true
		}
	}
	return "", false
}

func (m Model) View() string {
	snap := m.screen.snapshot()

	var b strings.Builder
	b.WriteString(titleStyle.Render("My Blog"))
	b.WriteString("\n")

	if snap.bannerVisible {
		style := successBannerStyle
		if snap.bannerKind == notify.KindError {
			style = errorBannerStyle
		}
		b.WriteString(style.Render(snap.bannerText))
		b.WriteString("\n\n")
	}

	switch snap.view {
	case view.ListView:
		b.WriteString(m.listView(snap))
	case view.DetailView:
		b.WriteString(headingStyle.Render(snap.detail.Title))
		b.WriteString("\n")
		b.WriteString(dimStyle.Render(snap.detail.Published))
		b.WriteString("\n\n")
		b.WriteString(snap.detail.Content)
		b.WriteString("\n")
	case view.EditorView:
		b.WriteString(headingStyle.Render(snap.editor.Heading))
		b.WriteString("\n\n")
		b.WriteString(m.title.View())
		b.WriteString("\n\n")
		b.WriteString(m.content.View())
		b.WriteString("\n")
	}

	if snap.overlayActive {
		b.WriteString("\n")
		b.WriteString(overlayStyle.Render(snap.overlay + "\n\n[y] Yes, Delete   [n] Cancel"))
		b.WriteString("\n")
	}

	if snap.view != view.EditorView {
		b.WriteString(moodStyle.Render(moodBlock(snap.mood)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(dimStyle.Render(helpLine(snap)))
	return b.String()
}

func (m Model) listView(snap snapshot) string {
	if len(snap.list) == 0 {
		return dimStyle.Render(view.MsgNoBlogs) + "\n"
	}

	var b strings.Builder
	for i, s := range snap.list {
		marker := "  "
		title := headingStyle.Render(s.Title)
		if i == m.cursor {
			marker = "> "
			title = selectedStyle.Render(s.Title)
		}
		b.WriteString(marker + title + "\n")
		b.WriteString("  " + dimStyle.Render(s.Snippet) + "\n\n")
	}
	return b.String()
}

func moodBlock(response string) string {
	keys := mood.Keys()
	labels := make([]string, 0, len(keys))
	for i, k := range keys {
		labels = append(labels, fmt.Sprintf("[%d] %s", i+1, k))
	}

	block := lipgloss.JoinVertical(lipgloss.Left,
		"How are you feeling today?",
		strings.Join(labels, "  "),
	)
	if response != "" {
		block = lipgloss.JoinVertical(lipgloss.Left, block, "", response)
	}
	return block
}

func helpLine(snap snapshot) string {
	if snap.overlayActive {
		return "y confirm • n cancel"
	}
	switch snap.view {
	case view.DetailView:
		return "e edit • d delete • b back • a add • q quit"
	case view.EditorView:
		return "tab switch field • ctrl+s save • esc cancel"
	default:
		return "↑/↓ move • enter open • a add • 1-4 mood • q quit"
	}
}
