// Package db provides the SQLite implementation of the ledger store.
package db

// Schema defines the SQL statements to create database tables.
// Amounts are stored as decimal strings; nested lists as JSON text.
const Schema = `
CREATE TABLE IF NOT EXISTS accounts (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    kind TEXT NOT NULL,                -- cash, debit, savings, credit, other
    balance TEXT NOT NULL,
    opening_balance TEXT NOT NULL,
    color TEXT NOT NULL DEFAULT '',
    version INTEGER NOT NULL,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL
);

-- No foreign key on account_id: a transaction may outlive its account.
CREATE TABLE IF NOT EXISTS transactions (
    id TEXT PRIMARY KEY,
    date TIMESTAMP NOT NULL,
    direction TEXT NOT NULL,           -- income or expense
    amount TEXT NOT NULL,
    category TEXT NOT NULL DEFAULT '',
    subcategory TEXT NOT NULL DEFAULT '',
    description TEXT NOT NULL DEFAULT '',
    account_id TEXT NOT NULL,
    evidence TEXT NOT NULL DEFAULT '',
    version INTEGER NOT NULL,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_transactions_account
    ON transactions(account_id);

CREATE INDEX IF NOT EXISTS idx_transactions_date
    ON transactions(date);

CREATE TABLE IF NOT EXISTS payables (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    amount TEXT NOT NULL,
    due_date TEXT NOT NULL,            -- YYYY-MM-DD
    category TEXT NOT NULL DEFAULT '',
    subcategory TEXT NOT NULL DEFAULT '',
    recurring INTEGER NOT NULL DEFAULT 0,
    frequency TEXT NOT NULL DEFAULT 'monthly',
    previous_amount TEXT NOT NULL DEFAULT '0',
    notes TEXT NOT NULL DEFAULT '',
    receipt TEXT NOT NULL DEFAULT '',
    is_paid INTEGER NOT NULL DEFAULT 0,
    paid_amount TEXT NOT NULL DEFAULT '0',
    payments TEXT NOT NULL DEFAULT '[]',
    version INTEGER NOT NULL,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_payables_due
    ON payables(due_date, is_paid);

CREATE TABLE IF NOT EXISTS receivables (
    id TEXT PRIMARY KEY,
    number TEXT NOT NULL,
    client TEXT NOT NULL,              -- JSON client reference
    issued_date TEXT NOT NULL,
    due_date TEXT NOT NULL DEFAULT '',
    items TEXT NOT NULL DEFAULT '[]',
    subtotal TEXT NOT NULL,
    tax TEXT NOT NULL,
    total TEXT NOT NULL,
    status TEXT NOT NULL,              -- pending, paid, overdue
    paid_amount TEXT NOT NULL DEFAULT '0',
    payments TEXT NOT NULL DEFAULT '[]',
    logo TEXT NOT NULL DEFAULT '',
    notes TEXT NOT NULL DEFAULT '',
    version INTEGER NOT NULL,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_receivables_due
    ON receivables(due_date, status);

CREATE TABLE IF NOT EXISTS clients (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    tax_id TEXT NOT NULL DEFAULT '',
    address TEXT NOT NULL DEFAULT '',
    contact TEXT NOT NULL DEFAULT '',
    phone TEXT NOT NULL DEFAULT '',
    email TEXT NOT NULL DEFAULT '',
    version INTEGER NOT NULL,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS categories (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    icon TEXT NOT NULL DEFAULT 'circle',
    color TEXT NOT NULL DEFAULT '#6b7280',
    subcategories TEXT NOT NULL DEFAULT '[]',
    version INTEGER NOT NULL,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS todos (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    priority TEXT NOT NULL DEFAULT 'medium',
    due_date TEXT NOT NULL DEFAULT '',
    due_time TEXT NOT NULL DEFAULT '',
    recurring INTEGER NOT NULL DEFAULT 0,
    completed INTEGER NOT NULL DEFAULT 0,
    version INTEGER NOT NULL,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL
);

-- Command log
-- Every free-text command and how it was classified
CREATE TABLE IF NOT EXISTS command_log (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    text TEXT NOT NULL,
    kind TEXT NOT NULL,                -- reminder, payable, income, expense, unknown
    status TEXT NOT NULL,              -- success, unknown, failed
    message TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_command_log_kind
    ON command_log(kind);

-- Export history
-- Tracks which transactions have been written to Beancount files
CREATE TABLE IF NOT EXISTS export_history (
    transaction_id TEXT PRIMARY KEY,
    beancount_file TEXT NOT NULL,
    exported_at TIMESTAMP NOT NULL
);
`

// InitializeSchema initializes the database schema.
// It creates all tables if they don't exist.
func InitializeSchema(conn *Connection) error {
	if _, err := conn.Exec(Schema); err != nil {
		return err
	}
	return nil
}
