package db

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/pigeonworks-llc/obligation-ledger/pkg/model"
)

const clientColumns = `id, name, tax_id, address, contact, phone, email, version, created_at, updated_at`

func scanClient(s scanner) (*model.Client, error) {
	var c model.Client
	if err := s.Scan(&c.ID, &c.Name, &c.TaxID, &c.Address, &c.Contact, &c.Phone, &c.Email,
		&c.Version, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *repo) GetClient(id string) (*model.Client, error) {
	row := r.tx.QueryRow(`SELECT `+clientColumns+` FROM clients WHERE id = ?`, id)
	c, err := scanClient(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.NotFound("client", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get client: %w", err)
	}
	return c, nil
}

func (r *repo) ListClients() ([]model.Client, error) {
	rows, err := r.tx.Query(`SELECT ` + clientColumns + ` FROM clients ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}
	defer rows.Close()

	clients := []model.Client{}
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan client: %w", err)
		}
		clients = append(clients, *c)
	}
	return clients, rows.Err()
}

func (r *repo) CreateClient(c *model.Client) error {
	_, err := r.tx.Exec(`
		INSERT INTO clients (`+clientColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, 1, ?, ?)
	`, c.ID, c.Name, c.TaxID, c.Address, c.Contact, c.Phone, c.Email, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}
	c.Version = 1
	return nil
}

func (r *repo) UpdateClient(c *model.Client) error {
	res, err := r.tx.Exec(`
		UPDATE clients SET
			name = ?, tax_id = ?, address = ?, contact = ?, phone = ?, email = ?,
			updated_at = ?, version = version + 1
		WHERE id = ? AND version = ?
	`, c.Name, c.TaxID, c.Address, c.Contact, c.Phone, c.Email, c.UpdatedAt, c.ID, c.Version)
	if err != nil {
		return fmt.Errorf("failed to update client: %w", err)
	}
	return r.checkUpdated(res, "clients", "client", c.ID, &c.Version)
}

func (r *repo) DeleteClient(id string) error {
	return r.deleteByID("clients", id)
}

const categoryColumns = `id, name, icon, color, subcategories, version, created_at, updated_at`

func scanCategory(s scanner) (*model.Category, error) {
	var c model.Category
	var subcategories string
	if err := s.Scan(&c.ID, &c.Name, &c.Icon, &c.Color, &subcategories,
		&c.Version, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	c.Subcategories = []string{}
	if err := fromJSON(subcategories, &c.Subcategories); err != nil {
		return nil, fmt.Errorf("subcategories of category %s: %w", c.ID, err)
	}
	return &c, nil
}

func (r *repo) GetCategory(id string) (*model.Category, error) {
	row := r.tx.QueryRow(`SELECT `+categoryColumns+` FROM categories WHERE id = ?`, id)
	c, err := scanCategory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.NotFound("category", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	return c, nil
}

func (r *repo) ListCategories() ([]model.Category, error) {
	rows, err := r.tx.Query(`SELECT ` + categoryColumns + ` FROM categories ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	categories := []model.Category{}
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, *c)
	}
	return categories, rows.Err()
}

func (r *repo) CreateCategory(c *model.Category) error {
	subcategories, err := toJSON(nonNilStrings(c.Subcategories))
	if err != nil {
		return err
	}
	_, err = r.tx.Exec(`
		INSERT INTO categories (`+categoryColumns+`)
		VALUES (?, ?, ?, ?, ?, 1, ?, ?)
	`, c.ID, c.Name, c.Icon, c.Color, subcategories, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create category: %w", err)
	}
	c.Version = 1
	return nil
}

func (r *repo) UpdateCategory(c *model.Category) error {
	subcategories, err := toJSON(nonNilStrings(c.Subcategories))
	if err != nil {
		return err
	}
	res, err := r.tx.Exec(`
		UPDATE categories SET
			name = ?, icon = ?, color = ?, subcategories = ?,
			updated_at = ?, version = version + 1
		WHERE id = ? AND version = ?
	`, c.Name, c.Icon, c.Color, subcategories, c.UpdatedAt, c.ID, c.Version)
	if err != nil {
		return fmt.Errorf("failed to update category: %w", err)
	}
	return r.checkUpdated(res, "categories", "category", c.ID, &c.Version)
}

func (r *repo) DeleteCategory(id string) error {
	return r.deleteByID("categories", id)
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

const todoColumns = `id, title, description, priority, due_date, due_time, recurring, completed,
	version, created_at, updated_at`

func scanTodo(s scanner) (*model.Todo, error) {
	var t model.Todo
	var priority string
	if err := s.Scan(&t.ID, &t.Title, &t.Description, &priority, &t.DueDate, &t.DueTime,
		&t.Recurring, &t.Completed, &t.Version, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	t.Priority = model.Priority(priority)
	return &t, nil
}

func (r *repo) GetTodo(id string) (*model.Todo, error) {
	row := r.tx.QueryRow(`SELECT `+todoColumns+` FROM todos WHERE id = ?`, id)
	t, err := scanTodo(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.NotFound("todo", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get todo: %w", err)
	}
	return t, nil
}

func (r *repo) ListTodos() ([]model.Todo, error) {
	rows, err := r.tx.Query(`SELECT ` + todoColumns + ` FROM todos ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("failed to list todos: %w", err)
	}
	defer rows.Close()

	todos := []model.Todo{}
	for rows.Next() {
		t, err := scanTodo(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan todo: %w", err)
		}
		todos = append(todos, *t)
	}
	return todos, rows.Err()
}

func (r *repo) CreateTodo(t *model.Todo) error {
	_, err := r.tx.Exec(`
		INSERT INTO todos (`+todoColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, 1, ?, ?)
	`, t.ID, t.Title, t.Description, string(t.Priority), t.DueDate, t.DueTime, t.Recurring,
		t.Completed, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create todo: %w", err)
	}
	t.Version = 1
	return nil
}

func (r *repo) UpdateTodo(t *model.Todo) error {
	res, err := r.tx.Exec(`
		UPDATE todos SET
			title = ?, description = ?, priority = ?, due_date = ?, due_time = ?,
			recurring = ?, completed = ?, updated_at = ?, version = version + 1
		WHERE id = ? AND version = ?
	`, t.Title, t.Description, string(t.Priority), t.DueDate, t.DueTime, t.Recurring,
		t.Completed, t.UpdatedAt, t.ID, t.Version)
	if err != nil {
		return fmt.Errorf("failed to update todo: %w", err)
	}
	return r.checkUpdated(res, "todos", "todo", t.ID, &t.Version)
}

func (r *repo) DeleteTodo(id string) error {
	return r.deleteByID("todos", id)
}
