// Package session owns the in-memory active workout: the single source of
// truth for its state, the 1-second timer tick, and the completion pipeline.
// Durability is delegated to the store on every mutation; ticks update
// memory only.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/claude/liftlog/internal/models"
	"github.com/claude/liftlog/internal/mutate"
	"github.com/claude/liftlog/internal/store"
	"github.com/claude/liftlog/internal/submit"
)

// ErrNoSession is returned by operations that need an active session.
var ErrNoSession = errors.New("no active workout session")

// LogClient is the slice of the remote API the completion pipeline needs.
type LogClient interface {
	CreateLog(ctx context.Context, payload models.WorkoutLogPayload) (*models.CreatedLog, error)
	CreatePost(ctx context.Context, content, workoutLogID string) error
}

// Manager holds the active workout session for the lifetime of the process.
type Manager struct {
	mu      sync.Mutex
	store   *store.Store
	client  LogClient
	log     *slog.Logger
	current *models.ActiveWorkoutSession
	stop    chan struct{}
	now     func() time.Time
}

// NewManager creates a Manager. client may be nil when no remote backend is
// configured; Complete then archives locally without creating a remote log.
func NewManager(st *store.Store, client LogClient, log *slog.Logger) *Manager {
	return &Manager{
		store:  st,
		client: client,
		log:    log,
		now:    time.Now,
	}
}

// StartOptions seed a new session. Zero values get defaults: empty exercise
// list, index 0, source "custom", timer running.
type StartOptions struct {
	Name       string            `json:"name"`
	Exercises  []models.Exercise `json:"exercises"`
	SourceType models.SourceType `json:"source_type"`
	TemplateID string            `json:"template_id"`
	ProgramID  string            `json:"program_id"`
	WorkoutID  string            `json:"workout_id"`
}

// Start begins a new session, replacing (and archiving as discarded) any
// session already in the slot.
func (m *Manager) Start(opts StartOptions) *models.ActiveWorkoutSession {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current != nil {
		m.store.Archive(m.current, models.ArchivedDiscarded)
	} else if prev := m.store.Get(); prev != nil {
		m.store.Archive(prev, models.ArchivedDiscarded)
	}

	now := m.now()
	source := opts.SourceType
	if source == "" {
		source = models.SourceCustom
	}
	exercises := opts.Exercises
	if exercises == nil {
		exercises = []models.Exercise{}
	}

	m.current = &models.ActiveWorkoutSession{
		ID:                   uuid.NewString(),
		Name:                 opts.Name,
		Exercises:            exercises,
		Started:              true,
		StartTime:            now,
		LastResumeTime:       now,
		TimerActive:          true,
		CurrentExerciseIndex: 0,
		SourceType:           source,
		TemplateID:           opts.TemplateID,
		ProgramID:            opts.ProgramID,
		WorkoutID:            opts.WorkoutID,
	}

	m.store.Save(m.current)
	m.startTickLocked()
	return m.snapshotLocked()
}

// Resume loads a persisted session on process start. Resume always
// re-activates the timer; the persisted record carries no trustworthy
// paused flag across a restart.
func (m *Manager) Resume() *models.ActiveWorkoutSession {
	m.mu.Lock()
	defer m.mu.Unlock()

	session := m.store.Get()
	if session == nil {
		return nil
	}

	session.AccumulatedSeconds = session.Duration
	session.TimerActive = true
	session.LastResumeTime = m.now()
	m.current = session

	m.store.Save(m.current)
	m.startTickLocked()
	m.log.Info("resumed persisted session", "id", session.ID, "name", session.Name)
	return m.snapshotLocked()
}

// Current returns a snapshot of the active session, or nil when idle.
func (m *Manager) Current() *models.ActiveWorkoutSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return nil
	}
	m.current.Duration = m.current.ElapsedSeconds(m.now())
	return m.snapshotLocked()
}

// Active reports whether a session is in progress.
func (m *Manager) Active() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current != nil
}

// History returns the archived session log, newest first.
func (m *Manager) History() []models.HistoryEntry {
	return m.store.History()
}

// Rename sets the session name.
func (m *Manager) Rename(name string) error {
	return m.update(func(s *models.ActiveWorkoutSession) error {
		s.Name = name
		return nil
	})
}

// ReplaceExercises swaps in a full replacement exercise list and re-clamps
// the current index.
func (m *Manager) ReplaceExercises(exercises []models.Exercise) error {
	return m.update(func(s *models.ActiveWorkoutSession) error {
		s.Exercises = exercises
		s.CurrentExerciseIndex = mutate.ClampIndex(s.CurrentExerciseIndex, len(exercises))
		return nil
	})
}

// SetCurrentExercise moves the current-exercise pointer, clamped to range.
func (m *Manager) SetCurrentExercise(index int) error {
	return m.update(func(s *models.ActiveWorkoutSession) error {
		s.CurrentExerciseIndex = mutate.ClampIndex(index, len(s.Exercises))
		return nil
	})
}

// SetRestTimer replaces or clears the nested rest timer.
func (m *Manager) SetRestTimer(rt *models.RestTimer) error {
	return m.update(func(s *models.ActiveWorkoutSession) error {
		s.RestTimer = rt
		return nil
	})
}

// StartRestTimer begins a countdown of the given length.
func (m *Manager) StartRestTimer(seconds int) error {
	return m.update(func(s *models.ActiveWorkoutSession) error {
		s.RestTimer = &models.RestTimer{
			IsActive:         true,
			TotalSeconds:     seconds,
			StartTime:        m.now(),
			RemainingSeconds: seconds,
		}
		return nil
	})
}

// ToggleTimer pauses or resumes the workout timer. Pausing folds the running
// interval into the accumulator; resuming starts a fresh interval, so time
// spent paused is never counted.
func (m *Manager) ToggleTimer() (*models.ActiveWorkoutSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return nil, ErrNoSession
	}

	now := m.now()
	if m.current.TimerActive {
		m.current.AccumulatedSeconds = m.current.ElapsedSeconds(now)
		m.current.TimerActive = false
		m.current.LastResumeTime = time.Time{}
	} else {
		m.current.TimerActive = true
		m.current.LastResumeTime = now
	}
	m.current.Duration = m.current.AccumulatedSeconds

	m.store.Save(m.current)
	return m.snapshotLocked(), nil
}

// AddExercise appends an exercise, or joins it to a waiting superset group
// when a pending link from BeginSuperset is supplied.
func (m *Manager) AddExercise(ex models.Exercise, pending *mutate.PendingLink) error {
	return m.update(func(s *models.ActiveWorkoutSession) error {
		s.Exercises = mutate.AddExercise(s.Exercises, ex, pending)
		return nil
	})
}

// AddSet appends a copy-forward set to the exercise at index.
func (m *Manager) AddSet(index int) error {
	return m.update(func(s *models.ActiveWorkoutSession) error {
		exercises, err := mutate.AddSet(s.Exercises, index)
		if err != nil {
			return err
		}
		s.Exercises = exercises
		return nil
	})
}

// RemoveSet deletes a set, refusing to delete an exercise's only set.
func (m *Manager) RemoveSet(index, setIndex int) error {
	return m.update(func(s *models.ActiveWorkoutSession) error {
		exercises, err := mutate.RemoveSet(s.Exercises, index, setIndex)
		if err != nil {
			return err
		}
		s.Exercises = exercises
		return nil
	})
}

// UpdateSet replaces one set's values.
func (m *Manager) UpdateSet(index, setIndex int, set models.ExerciseSet) error {
	return m.update(func(s *models.ActiveWorkoutSession) error {
		exercises, err := mutate.UpdateSet(s.Exercises, index, setIndex, set)
		if err != nil {
			return err
		}
		s.Exercises = exercises
		return nil
	})
}

// DeleteExercise removes an exercise, demoting a 2-member superset and
// re-clamping the current index.
func (m *Manager) DeleteExercise(index int) error {
	return m.update(func(s *models.ActiveWorkoutSession) error {
		exercises, err := mutate.DeleteExercise(s.Exercises, index)
		if err != nil {
			return err
		}
		s.Exercises = exercises
		s.CurrentExerciseIndex = mutate.ClampIndex(s.CurrentExerciseIndex, len(exercises))
		return nil
	})
}

// ReorderExercises moves an exercise and re-clamps the current index.
func (m *Manager) ReorderExercises(from, to int) error {
	return m.update(func(s *models.ActiveWorkoutSession) error {
		exercises, err := mutate.ReorderExercises(s.Exercises, from, to)
		if err != nil {
			return err
		}
		s.Exercises = exercises
		s.CurrentExerciseIndex = mutate.ClampIndex(s.CurrentExerciseIndex, len(exercises))
		return nil
	})
}

// CreateSuperset pairs two existing exercises.
func (m *Manager) CreateSuperset(first, second, restTime int) error {
	return m.update(func(s *models.ActiveWorkoutSession) error {
		exercises, err := mutate.CreateSuperset(s.Exercises, first, second, restTime)
		if err != nil {
			return err
		}
		s.Exercises = exercises
		return nil
	})
}

// BeginSuperset opens a superset whose partner will be added next, returning
// the pending link the caller must pass to the following AddExercise.
func (m *Manager) BeginSuperset(index, restTime int) (*mutate.PendingLink, error) {
	var link *mutate.PendingLink
	err := m.update(func(s *models.ActiveWorkoutSession) error {
		exercises, pending, err := mutate.BeginSuperset(s.Exercises, index, restTime)
		if err != nil {
			return err
		}
		s.Exercises = exercises
		link = pending
		return nil
	})
	return link, err
}

// CompleteSet marks a set done, advances through superset members with zero
// rest, and starts the appropriate rest timer otherwise.
func (m *Manager) CompleteSet(index, setIndex int) error {
	return m.update(func(s *models.ActiveWorkoutSession) error {
		res, err := mutate.CompleteSet(s.Exercises, index, setIndex)
		if err != nil {
			return err
		}
		s.Exercises = res.Exercises
		s.CurrentExerciseIndex = mutate.ClampIndex(res.NextIndex, len(res.Exercises))
		if res.RestSeconds > 0 {
			s.RestTimer = &models.RestTimer{
				IsActive:         true,
				TotalSeconds:     res.RestSeconds,
				StartTime:        m.now(),
				RemainingSeconds: res.RestSeconds,
			}
		} else {
			s.RestTimer = nil
		}
		return nil
	})
}

// End abandons the session without creating a remote log. The session is
// archived as discarded before the slot is cleared.
func (m *Manager) End() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return ErrNoSession
	}

	m.current.Duration = m.current.ElapsedSeconds(m.now())
	m.store.Archive(m.current, models.ArchivedDiscarded)
	m.resetLocked()
	return nil
}

// CompleteOptions carries the completion form: log details plus the optional
// social share.
type CompleteOptions struct {
	submit.Options
	Share        bool
	ShareContent string
}

// Outcome reports what Complete achieved. ShareErr is non-nil when the log
// was created but the social post failed; the log is the durable artifact
// and the session is cleared regardless.
type Outcome struct {
	Log      *models.CreatedLog
	Shared   bool
	ShareErr error
}

// Complete converts the session into a remote workout log, optionally shares
// it, archives it as completed, and clears the slot. A log-creation failure
// leaves the session untouched so the user may retry.
func (m *Manager) Complete(ctx context.Context, opts CompleteOptions) (*Outcome, error) {
	m.mu.Lock()
	if m.current == nil {
		m.mu.Unlock()
		return nil, ErrNoSession
	}
	m.current.Duration = m.current.ElapsedSeconds(m.now())
	session := m.snapshotLocked()
	m.mu.Unlock()

	outcome := &Outcome{}
	if m.client != nil {
		payload := submit.BuildLogPayload(session, opts.Options)

		created, err := m.client.CreateLog(ctx, payload)
		if err != nil {
			return nil, fmt.Errorf("creating workout log: %w", err)
		}
		outcome.Log = created
		m.log.Info("workout log created", "id", created.ID, "name", session.Name)

		if opts.Share {
			if err := m.client.CreatePost(ctx, opts.ShareContent, created.ID); err != nil {
				m.log.Warn("sharing workout log failed", "error", err)
				outcome.ShareErr = err
			} else {
				outcome.Shared = true
			}
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current != nil && m.current.ID == session.ID {
		m.store.Archive(m.current, models.ArchivedCompleted)
		m.resetLocked()
	}
	return outcome, nil
}

// Close stops the tick loop without touching persisted state.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopTickLocked()
}

// update runs fn against the current session and persists the result. A
// non-nil error from fn aborts with no state mutated.
func (m *Manager) update(fn func(*models.ActiveWorkoutSession) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return ErrNoSession
	}
	if err := fn(m.current); err != nil {
		return err
	}
	m.store.Save(m.current)
	return nil
}

func (m *Manager) resetLocked() {
	m.store.Clear()
	m.current = nil
	m.stopTickLocked()
}

func (m *Manager) startTickLocked() {
	m.stopTickLocked()
	stop := make(chan struct{})
	m.stop = stop

	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				m.tick()
			}
		}
	}()
}

func (m *Manager) stopTickLocked() {
	if m.stop != nil {
		close(m.stop)
		m.stop = nil
	}
}

// tick recomputes the visible duration. Memory only; persisting every second
// would churn the slot for no benefit.
func (m *Manager) tick() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil || !m.current.TimerActive || !m.current.Started {
		return
	}
	m.current.Duration = m.current.ElapsedSeconds(m.now())
}

// snapshotLocked returns a copy safe to hand outside the lock.
func (m *Manager) snapshotLocked() *models.ActiveWorkoutSession {
	s := *m.current
	s.Exercises = make([]models.Exercise, len(m.current.Exercises))
	copy(s.Exercises, m.current.Exercises)
	for i := range s.Exercises {
		sets := make([]models.ExerciseSet, len(s.Exercises[i].Sets))
		copy(sets, s.Exercises[i].Sets)
		s.Exercises[i].Sets = sets
	}
	if m.current.RestTimer != nil {
		rt := *m.current.RestTimer
		s.RestTimer = &rt
	}
	return &s
}
