package harvest

import (
	"sync"

	"github.com/vsix-harvester/vsix-harvester/internal/platform"
)

// Status is the outcome of one task.
type Status string

const (
	StatusDownloaded Status = "downloaded"
	StatusCached     Status = "cached"
	StatusFailed     Status = "failed"
)

// Item records what happened to one identifier for one platform category.
type Item struct {
	Extension string
	Target    platform.Target
	Version   string
	Path      string
	Fallback  bool
	Bytes     int64
	Status    Status
	Err       error
}

// Report collects task outcomes. It is safe for concurrent use.
type Report struct {
	RunID string

	mu    sync.Mutex
	items []Item
}

func newReport(runID string) *Report {
	return &Report{RunID: runID}
}

func (r *Report) add(item Item) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, item)
}

// Items returns a copy of the recorded outcomes in completion order.
func (r *Report) Items() []Item {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Item, len(r.items))
	copy(out, r.items)
	return out
}

// Count returns how many items ended with status s.
func (r *Report) Count(s Status) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, item := range r.items {
		if item.Status == s {
			n++
		}
	}
	return n
}

// Failed returns the items that failed.
func (r *Report) Failed() []Item {
	var out []Item
	for _, item := range r.Items() {
		if item.Status == StatusFailed {
			out = append(out, item)
		}
	}
	return out
}

// Bytes returns the total number of bytes downloaded.
func (r *Report) Bytes() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, item := range r.items {
		n += item.Bytes
	}
	return n
}
