// Package notify raises desktop notifications for new questions.
package notify

import (
	"fmt"
	"sync"
	"time"

	"github.com/codefionn/bbqterm/internal/consts"
	"github.com/codefionn/bbqterm/internal/feed"
	"github.com/codefionn/bbqterm/internal/logger"
	"github.com/gen2brain/beeep"
)

// AppName is shown as the notification source.
const AppName = "bbqterm"

// SendFunc delivers one notification.
type SendFunc func(title, message string) error

func desktopSend(title, message string) error {
	return beeep.Notify(title, message, "")
}

// Notifier turns newly appended questions into desktop notifications, at
// most one per interval. Questions carrying a timestamp no newer than the
// newest one already seen, or older than the notifier itself, are not
// announced. Questions without a parseable timestamp are always announced.
type Notifier struct {
	mu       sync.Mutex
	send     SendFunc
	interval time.Duration
	last     time.Time
	lastSeen time.Time
	now      func() time.Time
	wg       sync.WaitGroup
	logger   *logger.Logger
}

// New returns a notifier using the desktop notification service.
func New() *Notifier {
	beeep.AppName = AppName
	return NewWithSender(desktopSend, consts.NotifyMinInterval)
}

// NewWithSender returns a notifier delivering through send.
func NewWithSender(send SendFunc, interval time.Duration) *Notifier {
	return newNotifier(send, interval, time.Now)
}

func newNotifier(send SendFunc, interval time.Duration, now func() time.Time) *Notifier {
	return &Notifier{
		send:     send,
		interval: interval,
		now:      now,
		// The init backlog was asked before we connected.
		lastSeen: now(),
		logger:   logger.Global().WithPrefix("notify"),
	}
}

// NotifyQuestions announces questions. Delivery happens in the background
// so a slow notification daemon never holds up the caller.
func (n *Notifier) NotifyQuestions(questions []feed.Question) {
	n.mu.Lock()
	fresh := n.filterSeen(questions)
	if len(fresh) == 0 {
		n.mu.Unlock()
		return
	}
	now := n.now()
	if !n.last.IsZero() && now.Sub(n.last) < n.interval {
		n.mu.Unlock()
		n.logger.Debug("suppressed notification for %d questions", len(fresh))
		return
	}
	n.last = now
	n.mu.Unlock()

	title, message := summarize(fresh)
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		if err := n.send(title, message); err != nil {
			n.logger.Warn("notification failed: %v", err)
		}
	}()
}

func (n *Notifier) filterSeen(questions []feed.Question) []feed.Question {
	fresh := questions[:0:0]
	for _, q := range questions {
		ts, err := time.Parse(time.RFC3339, q.Timestamp)
		if err != nil {
			fresh = append(fresh, q)
			continue
		}
		if ts.After(n.lastSeen) {
			n.lastSeen = ts
			fresh = append(fresh, q)
		}
	}
	return fresh
}

func summarize(questions []feed.Question) (string, string) {
	if len(questions) == 1 {
		q := questions[0]
		return "New question", fmt.Sprintf("%s: %s", q.Student, q.Question)
	}
	return "New questions", fmt.Sprintf("%d new questions in the queue", len(questions))
}

// Wait blocks until notifications in flight have been delivered.
func (n *Notifier) Wait() {
	n.wg.Wait()
}
