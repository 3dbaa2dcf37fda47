package mcp

import (
	"context"

	"github.com/claude/liftlog/internal/models"
	"github.com/claude/liftlog/internal/session"
)

// DataSource abstracts the session engine for MCP tools. Both Local (in
// process) and HTTPClient (remote via REST API) satisfy this interface.
type DataSource interface {
	ActiveSession(ctx context.Context) (*models.ActiveWorkoutSession, error)
	History(ctx context.Context) ([]models.HistoryEntry, error)
	StartWorkout(ctx context.Context, opts session.StartOptions) (*models.ActiveWorkoutSession, error)
	AddExercise(ctx context.Context, ex models.Exercise) (*models.ActiveWorkoutSession, error)
	CompleteSet(ctx context.Context, index, setIndex int) (*models.ActiveWorkoutSession, error)
	EndWorkout(ctx context.Context) error
}

// Local serves MCP requests straight from the in-process session manager.
type Local struct {
	manager *session.Manager
}

// Compile-time check: *Local satisfies DataSource.
var _ DataSource = (*Local)(nil)

// NewLocal wraps a session manager as a DataSource.
func NewLocal(manager *session.Manager) *Local {
	return &Local{manager: manager}
}

func (l *Local) ActiveSession(ctx context.Context) (*models.ActiveWorkoutSession, error) {
	return l.manager.Current(), nil
}

func (l *Local) History(ctx context.Context) ([]models.HistoryEntry, error) {
	return l.manager.History(), nil
}

func (l *Local) StartWorkout(ctx context.Context, opts session.StartOptions) (*models.ActiveWorkoutSession, error) {
	return l.manager.Start(opts), nil
}

func (l *Local) AddExercise(ctx context.Context, ex models.Exercise) (*models.ActiveWorkoutSession, error) {
	if err := l.manager.AddExercise(ex, nil); err != nil {
		return nil, err
	}
	return l.manager.Current(), nil
}

func (l *Local) CompleteSet(ctx context.Context, index, setIndex int) (*models.ActiveWorkoutSession, error) {
	if err := l.manager.CompleteSet(index, setIndex); err != nil {
		return nil, err
	}
	return l.manager.Current(), nil
}

func (l *Local) EndWorkout(ctx context.Context) error {
	return l.manager.End()
}
