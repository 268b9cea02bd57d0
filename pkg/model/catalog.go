package model

import "time"

// Category classifies transactions and payables by name.
type Category struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Icon          string    `json:"icon"`
	Color         string    `json:"color"`
	Subcategories []string  `json:"subcategories"`
	Version       int64     `json:"version"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// EntityID returns the Category id. It implements Versioned.
func (c *Category) EntityID() string { return c.ID }

// VersionRef exposes the version counter so stores can check and bump it.
func (c *Category) VersionRef() *int64 { return &c.Version }

// Priority of a todo.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Todo is a reminder with no financial effect.
type Todo struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Priority    Priority  `json:"priority"`
	DueDate     string    `json:"due_date,omitempty"`
	DueTime     string    `json:"due_time,omitempty"`
	Recurring   bool      `json:"recurring"`
	Completed   bool      `json:"completed"`
	Version     int64     `json:"version"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// EntityID returns the Todo id. It implements Versioned.
func (t *Todo) EntityID() string { return t.ID }

// VersionRef exposes the version counter so stores can check and bump it.
func (t *Todo) VersionRef() *int64 { return &t.Version }

// Client is an invoiced third party.
type Client struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	TaxID     string    `json:"tax_id,omitempty"`
	Address   string    `json:"address,omitempty"`
	Contact   string    `json:"contact,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Email     string    `json:"email,omitempty"`
	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EntityID returns the Client id. It implements Versioned.
func (c *Client) EntityID() string { return c.ID }

// VersionRef exposes the version counter so stores can check and bump it.
func (c *Client) VersionRef() *int64 { return &c.Version }
