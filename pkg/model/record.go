package model

import "time"

// Versioned is implemented by every stored entity. Stores use it to enforce
// the optimistic version check on update.
type Versioned interface {
	EntityID() string
	VersionRef() *int64
}

// CommandRecord is one classified free-text command.
type CommandRecord struct {
	ID        int64     `json:"id"`
	Text      string    `json:"text"`
	Kind      string    `json:"kind"`
	Status    string    `json:"status"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// ExportRecord marks a transaction as written to a Beancount file.
type ExportRecord struct {
	TransactionID string    `json:"transaction_id"`
	File          string    `json:"file"`
	ExportedAt    time.Time `json:"exported_at"`
}

// Stats summarises the command log and export history.
type Stats struct {
	Commands    map[string]int `json:"commands"`
	Exported    int            `json:"exported"`
	LastCommand *time.Time     `json:"last_command,omitempty"`
	LastExport  *time.Time     `json:"last_export,omitempty"`
}
