package task

import (
	"bytes"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/prodshot-api/internal/domain"
)

// Store is the in-memory owner of all task records.
//
// Every operation runs inside a single critical section, so readers never
// observe a partially applied update. Records are returned by value; the
// store never hands out pointers to its internal state.
type Store struct {
	mu    sync.RWMutex
	tasks map[uuid.UUID]*Task
	now   func() time.Time
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		tasks: make(map[uuid.UUID]*Task),
		now:   time.Now,
	}
}

// UpdateOption modifies the progress fields applied by UpdateStatus.
type UpdateOption func(*update)

type update struct {
	progress  *int
	processed *int
}

// WithProgress sets the progress percentage. Values lower than the stored
// progress are ignored so that pollers never observe a regression.
func WithProgress(p int) UpdateOption {
	return func(u *update) {
		u.progress = &p
	}
}

// WithProcessedFiles sets the number of files attempted so far. Values lower
// than the stored count are ignored and values above the total are clamped.
func WithProcessedFiles(n int) UpdateOption {
	return func(u *update) {
		u.processed = &n
	}
}

// Create stores a new pending task for files and returns its id.
func (s *Store) Create(mode domain.Mode, files []domain.Image) uuid.UUID {
	captured := make([]domain.Image, len(files))
	copy(captured, files)

	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.New()
	for _, exists := s.tasks[id]; exists; _, exists = s.tasks[id] {
		id = uuid.New()
	}

	s.tasks[id] = &Task{
		ID:         id,
		Status:     TaskStatusPending,
		Mode:       mode,
		Files:      captured,
		TotalFiles: len(captured),
		StartTime:  s.now().UTC(),
	}

	return id
}

// Get returns a snapshot of the task with the given id.
func (s *Store) Get(id uuid.UUID) (Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tasks[id]
	if !ok {
		return Task{}, ErrTaskNotFound
	}

	snap := *t
	snap.Files = slices.Clone(t.Files)
	snap.Result = bytes.Clone(t.Result)
	return snap, nil
}

// UpdateStatus moves the task to status and applies opts in one step.
//
// It reports false without changing anything when the task does not exist,
// is already terminal, or when the transition would move backwards. A task
// can only be marked completed after SetResult; failures go through SetError.
func (s *Store) UpdateStatus(id uuid.UUID, status TaskStatus, opts ...UpdateOption) bool {
	var u update
	for _, opt := range opts {
		opt(&u)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok || t.Status.IsTerminal() {
		return false
	}

	if status.rank() < 0 || status.rank() < t.Status.rank() {
		return false
	}

	switch status {
	case TaskStatusCompleted:
		if t.Result == nil {
			return false
		}
	case TaskStatusFailed:
		return false
	}

	if u.progress != nil {
		p := min(max(*u.progress, 0), 100)
		if p > t.Progress {
			t.Progress = p
		}
	}

	if u.processed != nil {
		n := min(*u.processed, t.TotalFiles)
		if n > t.ProcessedFiles {
			t.ProcessedFiles = n
		}
	}

	t.Status = status
	if status.IsTerminal() {
		s.finish(t)
	}

	return true
}

// SetResult assigns the archive of a task that has not finished yet.
// It does not change the status. The result can be written only once.
func (s *Store) SetResult(id uuid.UUID, archive []byte) bool {
	if archive == nil {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok || t.Status.IsTerminal() || t.Result != nil {
		return false
	}

	t.Result = bytes.Clone(archive)
	return true
}

// SetError marks the task failed with message.
func (s *Store) SetError(id uuid.UUID, message string) bool {
	if message == "" {
		message = "unknown error"
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok || t.Status.IsTerminal() {
		return false
	}

	t.Error = message
	t.Result = nil
	t.Status = TaskStatusFailed
	s.finish(t)
	return true
}

// Delete removes the task. It reports whether a record was removed.
func (s *Store) Delete(id uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[id]; !ok {
		return false
	}
	delete(s.tasks, id)
	return true
}

// Sweep removes every terminal task whose end time is before cutoff and
// returns the number of removed records.
func (s *Store) Sweep(cutoff time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, t := range s.tasks {
		if t.Status.IsTerminal() && t.EndTime.Before(cutoff) {
			delete(s.tasks, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of stored tasks.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tasks)
}

// finish stamps the end time and drops input bytes. Callers hold s.mu.
func (s *Store) finish(t *Task) {
	t.EndTime = s.now().UTC()
	t.Files = nil
}
