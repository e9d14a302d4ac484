package repository

import (
	"context"
	"sort"
	"sync"

	json "github.com/goccy/go-json"

	"flowforge/pkg/models"
)

// MemoryStore is an in-process Store implementation. It is the default
// backing store and the one used throughout the test suite. All records are
// deep-copied on the way in and out so callers never share mutable state
// with the store.
type MemoryStore struct {
	mu         sync.RWMutex
	workflows  map[string]*models.Workflow
	executions map[string]*models.Execution
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		workflows:  make(map[string]*models.Workflow),
		executions: make(map[string]*models.Execution),
	}
}

func cloneRecord[T any](v *T) (*T, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	out := new(T)
	if err := json.Unmarshal(raw, out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateWorkflow persists a new workflow definition.
func (s *MemoryStore) CreateWorkflow(_ context.Context, wf *models.Workflow) error {
	cp, err := cloneRecord(wf)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.workflows[cp.ID] = cp
	return nil
}

// GetWorkflow retrieves a workflow by id.
func (s *MemoryStore) GetWorkflow(_ context.Context, id string) (*models.Workflow, error) {
	s.mu.RLock()
	wf, ok := s.workflows[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return cloneRecord(wf)
}

// ListWorkflows returns all stored workflows ordered by creation time.
func (s *MemoryStore) ListWorkflows(_ context.Context) ([]*models.Workflow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Workflow, 0, len(s.workflows))
	for _, wf := range s.workflows {
		cp, err := cloneRecord(wf)
		if err != nil {
			return nil, err
		}
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// UpdateWorkflow replaces an existing workflow definition.
func (s *MemoryStore) UpdateWorkflow(_ context.Context, wf *models.Workflow) error {
	cp, err := cloneRecord(wf)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.workflows[cp.ID]; !ok {
		return ErrNotFound
	}
	s.workflows[cp.ID] = cp
	return nil
}

// DeleteWorkflow removes a workflow and its embedded graph.
func (s *MemoryStore) DeleteWorkflow(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.workflows[id]; !ok {
		return ErrNotFound
	}
	delete(s.workflows, id)
	return nil
}

// CreateExecution persists a new execution record.
func (s *MemoryStore) CreateExecution(_ context.Context, ex *models.Execution) error {
	cp, err := cloneRecord(ex)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.executions[cp.ID] = cp
	return nil
}

// GetExecution retrieves an execution by id.
func (s *MemoryStore) GetExecution(_ context.Context, id string) (*models.Execution, error) {
	s.mu.RLock()
	ex, ok := s.executions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return cloneRecord(ex)
}

// ListExecutions returns the executions recorded for a workflow, most recent
// first.
func (s *MemoryStore) ListExecutions(_ context.Context, workflowID string) ([]*models.Execution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Execution
	for _, ex := range s.executions {
		if ex.WorkflowID != workflowID {
			continue
		}
		cp, err := cloneRecord(ex)
		if err != nil {
			return nil, err
		}
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].StartedAt.After(out[j].StartedAt)
	})
	return out, nil
}

// UpdateExecution replaces an execution record, refusing status changes on
// records that already reached a terminal state.
func (s *MemoryStore) UpdateExecution(_ context.Context, ex *models.Execution) error {
	cp, err := cloneRecord(ex)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.executions[cp.ID]
	if !ok {
		return ErrNotFound
	}
	if current.Finished && current.Status.Terminal() && current.Status != cp.Status {
		return ErrExecutionFinished
	}
	s.executions[cp.ID] = cp
	return nil
}
