// Package catalog holds the classification categories and the reminder list.
// Neither has any effect on balances.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/pigeonworks-llc/obligation-ledger/pkg/model"
	"github.com/pigeonworks-llc/obligation-ledger/pkg/store"
)

const (
	DefaultIcon  = "circle"
	DefaultColor = "#6b7280"
)

// CategoryInput is the input of CreateCategory and the patch of
// UpdateCategory. Empty fields are left untouched on update; a nil
// Subcategories slice keeps the existing list.
type CategoryInput struct {
	Name          string   `json:"name" yaml:"name"`
	Icon          string   `json:"icon" yaml:"icon"`
	Color         string   `json:"color" yaml:"color"`
	Subcategories []string `json:"subcategories" yaml:"subcategories"`
	Version       int64    `json:"version" yaml:"-"`
}

// Service implements the category list and the todo list.
type Service struct {
	store  store.Store
	logger *slog.Logger

	// Clock returns the current time. Tests replace it.
	Clock func() time.Time
}

// New creates a Service.
func New(st store.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: st, logger: logger, Clock: time.Now}
}

// CreateCategory adds a category.
func (s *Service) CreateCategory(ctx context.Context, in CategoryInput) (*model.Category, error) {
	var c *model.Category
	err := s.store.Update(ctx, func(r store.Repo) error {
		var err error
		c, err = createCategory(r, in, s.Clock())
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("category created", "id", c.ID, "name", c.Name)
	return c, nil
}

func createCategory(r store.Repo, in CategoryInput, now time.Time) (*model.Category, error) {
	c := &model.Category{
		ID:            uuid.NewString(),
		Name:          model.Sanitize(in.Name),
		Icon:          in.Icon,
		Color:         in.Color,
		Subcategories: cleanNames(in.Subcategories),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if c.Name == "" {
		return nil, model.Invalid("name", "category name is required")
	}
	if c.Icon == "" {
		c.Icon = DefaultIcon
	}
	if c.Color == "" {
		c.Color = DefaultColor
	}
	if err := r.CreateCategory(c); err != nil {
		return nil, err
	}
	return c, nil
}

// UpdateCategory changes a category's name, icon, color or subcategories.
func (s *Service) UpdateCategory(ctx context.Context, id string, in CategoryInput) (*model.Category, error) {
	var c *model.Category
	err := s.store.Update(ctx, func(r store.Repo) error {
		var err error
		if c, err = r.GetCategory(id); err != nil {
			return err
		}
		if in.Version != 0 && in.Version != c.Version {
			return fmt.Errorf("%w: category %s", model.ErrConflict, id)
		}
		if name := model.Sanitize(in.Name); name != "" {
			c.Name = name
		}
		if in.Icon != "" {
			c.Icon = in.Icon
		}
		if in.Color != "" {
			c.Color = in.Color
		}
		if in.Subcategories != nil {
			c.Subcategories = cleanNames(in.Subcategories)
		}
		c.UpdatedAt = s.Clock()
		return r.UpdateCategory(c)
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// DeleteCategory removes a category. Transactions keep the category name.
func (s *Service) DeleteCategory(ctx context.Context, id string) error {
	return s.store.Update(ctx, func(r store.Repo) error {
		if _, err := r.GetCategory(id); err != nil {
			return err
		}
		return r.DeleteCategory(id)
	})
}

// ListCategories returns categories in creation order.
func (s *Service) ListCategories(ctx context.Context) ([]model.Category, error) {
	var out []model.Category
	err := s.store.View(ctx, func(r store.Repo) error {
		var err error
		out, err = r.ListCategories()
		return err
	})
	return out, err
}

// SeedCategories creates defaults when no category exists yet. It reports
// how many were created.
func (s *Service) SeedCategories(ctx context.Context, defaults []CategoryInput) (int, error) {
	created := 0
	err := s.store.Update(ctx, func(r store.Repo) error {
		existing, err := r.ListCategories()
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			return nil
		}
		now := s.Clock()
		for _, in := range defaults {
			if _, err := createCategory(r, in, now); err != nil {
				return fmt.Errorf("failed to seed category %q: %w", in.Name, err)
			}
			created++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	if created > 0 {
		s.logger.Info("categories seeded", "count", created)
	}
	return created, nil
}

func cleanNames(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if n = model.Sanitize(n); n != "" {
			out = append(out, n)
		}
	}
	return out
}
