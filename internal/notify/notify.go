// Package notify announces newly unlocked achievements to the browser.
package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/playperu/wildkids/internal/achievement"
)

const (
	// DefaultStagger separates consecutive notifications so that the toasts
	// do not overlap on screen.
	DefaultStagger = 800 * time.Millisecond
	// DisplayFor is how long the browser keeps a toast visible.
	DisplayFor = 5 * time.Second
	title      = "🏆 Достижение получено!"
)

// Chime is the C5-E5-G5 arpeggio played with each notification, in Hz.
var Chime = []float64{523.25, 659.25, 783.99}

// Notification is the payload rendered as a toast by the browser.
type Notification struct {
	AchievementID string    `json:"achievementId"`
	Title         string    `json:"title"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	Icon          string    `json:"icon"`
	Tone          []float64 `json:"tone"`
	DisplayMs     int64     `json:"displayMs"`
}

// FromDefinition builds the notification for d.
func FromDefinition(d achievement.Definition) Notification {
	return Notification{
		AchievementID: d.ID,
		Title:         title,
		Name:          d.Name,
		Description:   d.Description,
		Icon:          d.Icon,
		Tone:          Chime,
		DisplayMs:     DisplayFor.Milliseconds(),
	}
}

// Sink delivers a notification to whoever is watching topic.
type Sink interface {
	Deliver(topic string, n Notification) error
}

// Presenter delivers notifications in order, one every stagger, on a
// background goroutine. Delivery failures are cosmetic and only logged.
type Presenter struct {
	sink    Sink
	stagger time.Duration
	logger  *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

func NewPresenter(sink Sink, stagger time.Duration, logger *slog.Logger) *Presenter {
	ctx, cancel := context.WithCancel(context.Background())
	return &Presenter{
		sink:    sink,
		stagger: stagger,
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Announce schedules one notification per definition, in the given order.
// It returns immediately.
func (p *Presenter) Announce(topic string, defs []achievement.Definition) {
	if len(defs) == 0 {
		return
	}
	notes := make([]Notification, len(defs))
	for i, d := range defs {
		notes[i] = FromDefinition(d)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()

		var timer *time.Timer
		for i, n := range notes {
			if i > 0 {
				if timer == nil {
					timer = time.NewTimer(p.stagger)
					defer timer.Stop()
				} else {
					timer.Reset(p.stagger)
				}
				select {
				case <-p.ctx.Done():
					return
				case <-timer.C:
				}
			}
			if err := p.sink.Deliver(topic, n); err != nil {
				p.logger.Debug("achievement notification not delivered",
					"topic", topic, "achievement", n.AchievementID, "error", err)
			}
		}
	}()
}

// Close drops pending notifications and waits for in-flight deliveries.
func (p *Presenter) Close() {
	p.mu.Lock()
	p.closed = true
	p.cancel()
	p.mu.Unlock()
	p.wg.Wait()
}
