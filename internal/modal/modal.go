package modal

import (
	"sync"

	log "github.com/sirupsen/logrus"
)

// Overlay draws and removes the confirmation dialog.
type Overlay interface {
	ShowOverlay(message string)
	RemoveOverlay()
}

// Modal holds at most one pending confirmation request.
type Modal struct {
	overlay Overlay

	active    bool
	message   string
	onConfirm func()
	mutex     sync.Mutex
}

// NewModal creates a modal drawing on overlay; overlay can be nil.
func NewModal(overlay Overlay) *Modal {
	return &Modal{
		overlay: overlay,
	}
}

// Confirm asks the user to confirm message. onConfirm runs only if the
// request is affirmed. While a request is pending, new ones are ignored.
func (m *Modal) Confirm(message string, onConfirm func()) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.active {
		log.Debugf("modal already active, ignoring: %s", message)
		return
	}

	m.active = true
	m.message = message
	m.onConfirm = onConfirm
	if m.overlay != nil {
		m.overlay.ShowOverlay(message)
	}
}

// Affirm removes the overlay and runs the pending continuation.
func (m *Modal) Affirm() {
	onConfirm, ok := m.close()
	if ok && onConfirm != nil {
		onConfirm()
	}
}

// Dismiss removes the overlay, the continuation is dropped.
func (m *Modal) Dismiss() {
	m.close()
}

func (m *Modal) Active() (string, bool) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.message, m.active
}

func (m *Modal) close() (func(), bool) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if !m.active {
		return nil, false
	}

	onConfirm := m.onConfirm
	m.active = false
	m.message = ""
	m.onConfirm = nil
	if m.overlay != nil {
		m.overlay.RemoveOverlay()
	}

	return onConfirm, true
}
