package notify

import (
	"time"

	"github.com/2beens/blogbox/internal/telemetry/metrics"

	log "github.com/sirupsen/logrus"
)

type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
)

const DefaultDelay = 3 * time.Second

// Surface is where the banner is drawn.
type Surface interface {
	ShowBanner(text string, kind Kind)
	HideBanner()
}

// Banner shows a transient message and hides it after a fixed delay.
// Hide timers are never cancelled: a timer started by an earlier message
// may hide a newer one before its own delay is over.
type Banner struct {
	surface Surface
	delay   time.Duration
	metrics *metrics.Manager
}

func NewBanner(surface Surface, delay time.Duration, metricsManager *metrics.Manager) *Banner {
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Banner{
		surface: surface,
		delay:   delay,
		metrics: metricsManager,
	}
}

// Notify shows message on the surface; an empty kind is a success.
func (b *Banner) Notify(message string, kind Kind) {
	if kind == "" {
		kind = KindSuccess
	}

	b.surface.ShowBanner(message, kind)
	if b.metrics != nil {
		b.metrics.CounterNotifications.WithLabelValues(string(kind)).Inc()
	}
	log.Debugf("notification [%s]: %s", kind, message)

	time.AfterFunc(b.delay, b.surface.HideBanner)
}

func (b *Banner) Delay() time.Duration {
	return b.delay
}
