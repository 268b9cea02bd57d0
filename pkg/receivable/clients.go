package receivable

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/pigeonworks-llc/obligation-ledger/pkg/model"
	"github.com/pigeonworks-llc/obligation-ledger/pkg/store"
)

// ClientInput is the input of AddClient and the patch of UpdateClient.
type ClientInput struct {
	Name    string `json:"name"`
	TaxID   string `json:"tax_id"`
	Address string `json:"address"`
	Contact string `json:"contact"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Version int64  `json:"version"`
}

// AddClient registers a client.
func (s *Service) AddClient(ctx context.Context, in ClientInput) (*model.Client, error) {
	now := s.Clock()
	c := &model.Client{
		ID:        uuid.NewString(),
		Name:      model.Sanitize(in.Name),
		TaxID:     model.Sanitize(in.TaxID),
		Address:   model.Sanitize(in.Address),
		Contact:   model.Sanitize(in.Contact),
		Phone:     model.Sanitize(in.Phone),
		Email:     model.Sanitize(in.Email),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if c.Name == "" {
		return nil, model.Invalid("name", "client name is required")
	}

	err := s.store.Update(ctx, func(r store.Repo) error {
		return r.CreateClient(c)
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// UpdateClient overwrites the non-empty fields of in onto the client.
func (s *Service) UpdateClient(ctx context.Context, id string, in ClientInput) (*model.Client, error) {
	var c *model.Client
	err := s.store.Update(ctx, func(r store.Repo) error {
		var err error
		if c, err = r.GetClient(id); err != nil {
			return err
		}
		if in.Version != 0 && in.Version != c.Version {
			return fmt.Errorf("%w: client %s", model.ErrConflict, id)
		}
		for _, f := range []struct {
			dst *string
			src string
		}{
			{&c.Name, in.Name},
			{&c.TaxID, in.TaxID},
			{&c.Address, in.Address},
			{&c.Contact, in.Contact},
			{&c.Phone, in.Phone},
			{&c.Email, in.Email},
		} {
			if v := model.Sanitize(f.src); v != "" {
				*f.dst = v
			}
		}
		c.UpdatedAt = s.Clock()
		return r.UpdateClient(c)
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// DeleteClient removes a client. Receivables keep their denormalized copy.
func (s *Service) DeleteClient(ctx context.Context, id string) error {
	return s.store.Update(ctx, func(r store.Repo) error {
		if _, err := r.GetClient(id); err != nil {
			return err
		}
		return r.DeleteClient(id)
	})
}

// ListClients returns clients in creation order.
func (s *Service) ListClients(ctx context.Context) ([]model.Client, error) {
	var clients []model.Client
	err := s.store.View(ctx, func(r store.Repo) error {
		var err error
		clients, err = r.ListClients()
		return err
	})
	return clients, err
}
