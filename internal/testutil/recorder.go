package testutil

import (
	"context"
	"sync"

	"github.com/fluxwire/fluxwire/internal/notify"
)

// NoticeRecorder is a notify.Notifier that captures every notice for later
// assertions.
type NoticeRecorder struct {
	mu      sync.Mutex
	notices []notify.Notice
}

// NewNoticeRecorder returns an empty recorder.
func NewNoticeRecorder() *NoticeRecorder {
	return &NoticeRecorder{}
}

// Notify implements notify.Notifier.
func (r *NoticeRecorder) Notify(_ context.Context, n notify.Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, n)
}

// Notices returns a snapshot of everything recorded so far.
func (r *NoticeRecorder) Notices() []notify.Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]notify.Notice(nil), r.notices...)
}

// Messages returns just the recorded message strings, in order.
func (r *NoticeRecorder) Messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	msgs := make([]string, len(r.notices))
	for i, n := range r.notices {
		msgs[i] = n.Message
	}
	return msgs
}
