// Package revalidate signals that rendered views for a set of logical paths
// are stale. Signals are fire and forget: implementations log their own
// failures and never fail the mutation that triggered them.
package revalidate

import (
	"context"
	"slices"
	"sync"
)

type Revalidator interface {
	Revalidate(ctx context.Context, paths ...string)
}

const (
	EventList   = "/events"
	MyEvents    = "/my-events"
	AdminEvents = "/admin/events"
)

func EventDetail(eventID string) string {
	return "/events/" + eventID
}

func AdminRegistrations(eventID string) string {
	return "/admin/events/" + eventID + "/registrations"
}

func AdminCheckIn(eventID string) string {
	return "/admin/events/" + eventID + "/checkin"
}

// Nop drops every signal.
type Nop struct{}

func (Nop) Revalidate(context.Context, ...string) {}

// Recorder keeps every signalled path in memory.
type Recorder struct {
	mu    sync.Mutex
	paths []string
}

func (r *Recorder) Revalidate(_ context.Context, paths ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths = append(r.paths, paths...)
}

// Paths returns a copy of the recorded paths in signal order.
func (r *Recorder) Paths() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.paths)
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths = nil
}

// Multi forwards each signal to every wrapped revalidator in order.
type Multi []Revalidator

func (m Multi) Revalidate(ctx context.Context, paths ...string) {
	if len(paths) == 0 {
		return
	}
	for _, r := range m {
		if r != nil {
			r.Revalidate(ctx, paths...)
		}
	}
}
