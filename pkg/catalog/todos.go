package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pigeonworks-llc/obligation-ledger/pkg/model"
	"github.com/pigeonworks-llc/obligation-ledger/pkg/store"
)

// TodoInput is the input of CreateTodo.
type TodoInput struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Priority    model.Priority `json:"priority"`
	DueDate     string         `json:"due_date"`
	DueTime     string         `json:"due_time"`
	Recurring   bool           `json:"recurring"`
}

// CreateTodo adds an open reminder.
func (s *Service) CreateTodo(ctx context.Context, in TodoInput) (*model.Todo, error) {
	var t *model.Todo
	err := s.store.Update(ctx, func(r store.Repo) error {
		var err error
		t, err = AddTodo(r, in, s.Clock())
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("todo created", "id", t.ID, "title", t.Title)
	return t, nil
}

// AddTodo validates and writes a todo through r.
func AddTodo(r store.Repo, in TodoInput, now time.Time) (*model.Todo, error) {
	t := &model.Todo{
		ID:          uuid.NewString(),
		Title:       model.Sanitize(in.Title),
		Description: model.Sanitize(in.Description),
		Priority:    in.Priority,
		DueDate:     in.DueDate,
		DueTime:     in.DueTime,
		Recurring:   in.Recurring,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if t.Title == "" {
		return nil, model.Invalid("title", "title is required")
	}
	if t.Priority == "" {
		t.Priority = model.PriorityMedium
	}
	switch t.Priority {
	case model.PriorityLow, model.PriorityMedium, model.PriorityHigh:
	default:
		return nil, model.Invalid("priority", fmt.Sprintf("unknown priority %q", t.Priority))
	}
	if t.DueDate != "" && !model.ValidDate(t.DueDate) {
		return nil, model.Invalid("due_date", "due date must be YYYY-MM-DD")
	}
	if err := r.CreateTodo(t); err != nil {
		return nil, err
	}
	return t, nil
}

// ToggleTodo flips the completion flag.
func (s *Service) ToggleTodo(ctx context.Context, id string) (*model.Todo, error) {
	var t *model.Todo
	err := s.store.Update(ctx, func(r store.Repo) error {
		var err error
		if t, err = r.GetTodo(id); err != nil {
			return err
		}
		t.Completed = !t.Completed
		t.UpdatedAt = s.Clock()
		return r.UpdateTodo(t)
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

// DeleteTodo removes a todo.
func (s *Service) DeleteTodo(ctx context.Context, id string) error {
	return s.store.Update(ctx, func(r store.Repo) error {
		if _, err := r.GetTodo(id); err != nil {
			return err
		}
		return r.DeleteTodo(id)
	})
}

// ListTodos returns todos in creation order.
func (s *Service) ListTodos(ctx context.Context) ([]model.Todo, error) {
	var out []model.Todo
	err := s.store.View(ctx, func(r store.Repo) error {
		var err error
		out, err = r.ListTodos()
		return err
	})
	return out, err
}
