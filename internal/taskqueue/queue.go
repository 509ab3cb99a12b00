package taskqueue

import (
	"errors"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// DefaultCeiling is the number of fetches a Queue keeps in flight when
// constructed with a non-positive ceiling.
const DefaultCeiling = 6

// ErrNoURL is returned by Submit for a task without a URL. Such a task is
// never admitted and its OnComplete is never called.
var ErrNoURL = errors.New("task has no URL")

// Handle identifies one in-flight network operation. Only the Fetcher that
// issued it knows what it is.
type Handle interface{}

// Fetcher issues network requests on behalf of a Queue.
//
// Issue must not block on the network. It reports the result exactly once
// through settle, with status 200 meaning success; transport failures use
// status 0. After Cancel(handle) the fetcher should not call settle, but
// the Queue ignores late settlements anyway.
type Fetcher interface {
	Issue(url string, settle func(status int, payload []byte)) Handle
	Cancel(h Handle)
}

// Outcome is the result delivered to Task.OnComplete.
type Outcome struct {
	OK         bool
	Payload    []byte
	StatusCode int
}

// Task is a single fetch request.
type Task struct {
	// TargetID names the subject of the fetch (a plugin id, for instance)
	// so the callback can look it up again once the payload arrives.
	TargetID string

	// URL is the absolute fetch URL. See ResolveURL.
	URL string

	// OnComplete receives the outcome. It is not called for tasks removed
	// by Clear.
	OnComplete func(Outcome)
}

type entry struct {
	id     string
	task   Task
	handle Handle

	// cleared is set by Clear for entries that were in flight.
	cleared bool
}

// Queue keeps at most ceiling tasks in flight and starts pending tasks in
// submission order as slots free up.
type Queue struct {
	fetcher Fetcher
	ceiling int

	mu       sync.Mutex
	pending  []*entry
	inFlight map[*entry]struct{}
}

// New creates a Queue that issues requests through fetcher.
func New(fetcher Fetcher, ceiling int) *Queue {
	if ceiling < 1 {
		ceiling = DefaultCeiling
	}
	return &Queue{
		fetcher:  fetcher,
		ceiling:  ceiling,
		inFlight: make(map[*entry]struct{}),
	}
}

// Ceiling returns the concurrency limit.
func (q *Queue) Ceiling() int {
	return q.ceiling
}

// Submit admits a task. It starts right away when a slot is free and no
// earlier task is waiting; otherwise it is appended to the pending list.
// Submit never blocks on the network. The returned ID tags the task in
// log output.
func (q *Queue) Submit(task Task) (string, error) {
	if task.URL == "" {
		return "", ErrNoURL
	}

	e := &entry{id: uuid.NewString(), task: task}

	q.mu.Lock()
	q.pending = append(q.pending, e)
	started := q.promoteLocked()
	q.mu.Unlock()

	q.issue(started)
	return e.id, nil
}

// Clear cancels every in-flight request and drops all pending tasks.
// None of their callbacks fire.
func (q *Queue) Clear() {
	q.mu.Lock()
	var handles []Handle
	for e := range q.inFlight {
		e.cleared = true
		if e.handle != nil {
			handles = append(handles, e.handle)
		}
	}
	q.inFlight = make(map[*entry]struct{})
	q.pending = nil
	q.mu.Unlock()

	for _, h := range handles {
		q.fetcher.Cancel(h)
	}
}

// Len reports the number of pending and in-flight tasks.
func (q *Queue) Len() (pending, inFlight int) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending), len(q.inFlight)
}

// Pending returns the waiting tasks in the order they will be started.
func (q *Queue) Pending() []Task {
	q.mu.Lock()
	defer q.mu.Unlock()

	tasks := make([]Task, len(q.pending))
	for i, e := range q.pending {
		tasks[i] = e.task
	}
	return tasks
}

// InFlight returns the target IDs of the running tasks, in no particular
// order.
func (q *Queue) InFlight() []string {
	q.mu.Lock()
	defer q.mu.Unlock()

	ids := make([]string, 0, len(q.inFlight))
	for e := range q.inFlight {
		ids = append(ids, e.task.TargetID)
	}
	return ids
}

// promoteLocked moves tasks from the head of pending into the in-flight
// set while there is room. The caller issues the returned entries once the
// lock is released.
func (q *Queue) promoteLocked() []*entry {
	var started []*entry
	for len(q.inFlight) < q.ceiling && len(q.pending) > 0 {
		e := q.pending[0]
		q.pending[0] = nil
		q.pending = q.pending[1:]
		q.inFlight[e] = struct{}{}
		started = append(started, e)
	}
	return started
}

func (q *Queue) issue(started []*entry) {
	for _, e := range started {
		e := e
		h := q.fetcher.Issue(e.task.URL, func(status int, payload []byte) {
			q.settle(e, status, payload)
		})

		q.mu.Lock()
		cleared := e.cleared
		if _, live := q.inFlight[e]; live {
			e.handle = h
		}
		q.mu.Unlock()

		// Cleared while Issue was running. An entry that settled inside
		// Issue is not live either, but its request is already done.
		if cleared && h != nil {
			q.fetcher.Cancel(h)
		}
	}
}

func (q *Queue) settle(e *entry, status int, payload []byte) {
	q.mu.Lock()
	if _, ok := q.inFlight[e]; !ok {
		q.mu.Unlock()
		return
	}
	delete(q.inFlight, e)
	q.mu.Unlock()

	outcome := Outcome{OK: status == http.StatusOK, StatusCode: status}
	if outcome.OK {
		outcome.Payload = payload
	}
	if e.task.OnComplete != nil {
		e.task.OnComplete(outcome)
	}

	q.mu.Lock()
	started := q.promoteLocked()
	q.mu.Unlock()

	q.issue(started)
}

// ResolveURL turns a relative catalog path into an absolute URL by
// prepending prefix. Absolute http(s) URLs and empty strings are returned
// unchanged.
func ResolveURL(prefix, raw string) string {
	if raw == "" {
		return ""
	}
	lower := strings.ToLower(raw)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return raw
	}
	return strings.TrimRight(prefix, "/") + "/" + strings.TrimLeft(raw, "/")
}
