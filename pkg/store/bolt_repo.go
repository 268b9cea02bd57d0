package store

import (
	"encoding/json"
	"fmt"

	"github.com/pigeonworks-llc/obligation-ledger/pkg/model"
	bolt "go.etcd.io/bbolt"
)

// boltRepo implements Repo on top of one bbolt transaction.
type boltRepo struct {
	tx *bolt.Tx
}

func (r *boltRepo) GetAccount(id string) (*model.Account, error) {
	return getRecord[model.Account](r.tx, accountKind, id)
}

func (r *boltRepo) ListAccounts() ([]model.Account, error) {
	return listRecords[model.Account](r.tx, accountKind, nil)
}

func (r *boltRepo) CreateAccount(a *model.Account) error { return createRecord(r.tx, accountKind, a) }
func (r *boltRepo) UpdateAccount(a *model.Account) error { return updateRecord(r.tx, accountKind, a) }
func (r *boltRepo) DeleteAccount(id string) error        { return deleteRecord(r.tx, accountKind, id) }

func (r *boltRepo) GetTransaction(id string) (*model.Transaction, error) {
	return getRecord[model.Transaction](r.tx, transactionKind, id)
}

func (r *boltRepo) ListTransactions(accountID string) ([]model.Transaction, error) {
	var filter func(*model.Transaction) bool
	if accountID != "" {
		filter = func(t *model.Transaction) bool { return t.AccountID == accountID }
	}
	return listRecords(r.tx, transactionKind, filter)
}

func (r *boltRepo) CreateTransaction(t *model.Transaction) error {
	return createRecord(r.tx, transactionKind, t)
}

func (r *boltRepo) UpdateTransaction(t *model.Transaction) error {
	return updateRecord(r.tx, transactionKind, t)
}

func (r *boltRepo) DeleteTransaction(id string) error {
	return deleteRecord(r.tx, transactionKind, id)
}

// DeleteTransactionsByAccount removes every transaction of an account and
// returns how many were removed.
func (r *boltRepo) DeleteTransactionsByAccount(accountID string) (int, error) {
	txns, err := r.ListTransactions(accountID)
	if err != nil {
		return 0, err
	}
	// Collected first: bbolt does not allow deleting while iterating.
	for _, t := range txns {
		if err := r.DeleteTransaction(t.ID); err != nil {
			return 0, err
		}
	}
	return len(txns), nil
}

func (r *boltRepo) GetPayable(id string) (*model.Payable, error) {
	return getRecord[model.Payable](r.tx, payableKind, id)
}

func (r *boltRepo) ListPayables() ([]model.Payable, error) {
	return listRecords[model.Payable](r.tx, payableKind, nil)
}

func (r *boltRepo) CreatePayable(p *model.Payable) error { return createRecord(r.tx, payableKind, p) }
func (r *boltRepo) UpdatePayable(p *model.Payable) error { return updateRecord(r.tx, payableKind, p) }
func (r *boltRepo) DeletePayable(id string) error        { return deleteRecord(r.tx, payableKind, id) }

func (r *boltRepo) GetReceivable(id string) (*model.Receivable, error) {
	return getRecord[model.Receivable](r.tx, receivableKind, id)
}

func (r *boltRepo) ListReceivables() ([]model.Receivable, error) {
	return listRecords[model.Receivable](r.tx, receivableKind, nil)
}

func (r *boltRepo) CreateReceivable(rc *model.Receivable) error {
	return createRecord(r.tx, receivableKind, rc)
}

func (r *boltRepo) UpdateReceivable(rc *model.Receivable) error {
	return updateRecord(r.tx, receivableKind, rc)
}

func (r *boltRepo) DeleteReceivable(id string) error {
	return deleteRecord(r.tx, receivableKind, id)
}

func (r *boltRepo) GetClient(id string) (*model.Client, error) {
	return getRecord[model.Client](r.tx, clientKind, id)
}

func (r *boltRepo) ListClients() ([]model.Client, error) {
	return listRecords[model.Client](r.tx, clientKind, nil)
}

func (r *boltRepo) CreateClient(c *model.Client) error { return createRecord(r.tx, clientKind, c) }
func (r *boltRepo) UpdateClient(c *model.Client) error { return updateRecord(r.tx, clientKind, c) }
func (r *boltRepo) DeleteClient(id string) error       { return deleteRecord(r.tx, clientKind, id) }

func (r *boltRepo) GetCategory(id string) (*model.Category, error) {
	return getRecord[model.Category](r.tx, categoryKind, id)
}

func (r *boltRepo) ListCategories() ([]model.Category, error) {
	return listRecords[model.Category](r.tx, categoryKind, nil)
}

func (r *boltRepo) CreateCategory(c *model.Category) error {
	return createRecord(r.tx, categoryKind, c)
}

func (r *boltRepo) UpdateCategory(c *model.Category) error {
	return updateRecord(r.tx, categoryKind, c)
}

func (r *boltRepo) DeleteCategory(id string) error { return deleteRecord(r.tx, categoryKind, id) }

func (r *boltRepo) GetTodo(id string) (*model.Todo, error) {
	return getRecord[model.Todo](r.tx, todoKind, id)
}

func (r *boltRepo) ListTodos() ([]model.Todo, error) {
	return listRecords[model.Todo](r.tx, todoKind, nil)
}

func (r *boltRepo) CreateTodo(t *model.Todo) error { return createRecord(r.tx, todoKind, t) }
func (r *boltRepo) UpdateTodo(t *model.Todo) error { return updateRecord(r.tx, todoKind, t) }
func (r *boltRepo) DeleteTodo(id string) error     { return deleteRecord(r.tx, todoKind, id) }

// AppendCommand stores a classified command and assigns its sequence id.
func (r *boltRepo) AppendCommand(rec *model.CommandRecord) error {
	b := r.tx.Bucket([]byte(BucketCommands))
	seq, err := b.NextSequence()
	if err != nil {
		return fmt.Errorf("failed to generate command ID: %w", err)
	}
	rec.ID = int64(seq)

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal command: %w", err)
	}
	return b.Put(itob(rec.ID), data)
}

// ExportedIDs returns the ids of every transaction already exported.
func (r *boltRepo) ExportedIDs() (map[string]bool, error) {
	ids := make(map[string]bool)
	err := r.tx.Bucket([]byte(BucketExports)).ForEach(func(k, _ []byte) error {
		ids[string(k)] = true
		return nil
	})
	return ids, err
}

// MarkExported records an export, replacing an earlier record for the same
// transaction.
func (r *boltRepo) MarkExported(rec model.ExportRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal export record: %w", err)
	}
	return r.tx.Bucket([]byte(BucketExports)).Put([]byte(rec.TransactionID), data)
}

// Stats summarises the command log and export history.
func (r *boltRepo) Stats() (*model.Stats, error) {
	stats := &model.Stats{Commands: make(map[string]int)}

	err := r.tx.Bucket([]byte(BucketCommands)).ForEach(func(_, v []byte) error {
		var rec model.CommandRecord
		if err := json.Unmarshal(v, &rec); err != nil {
			return fmt.Errorf("failed to decode command: %w", err)
		}
		stats.Commands[rec.Kind]++
		if stats.LastCommand == nil || rec.CreatedAt.After(*stats.LastCommand) {
			at := rec.CreatedAt
			stats.LastCommand = &at
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = r.tx.Bucket([]byte(BucketExports)).ForEach(func(_, v []byte) error {
		var rec model.ExportRecord
		if err := json.Unmarshal(v, &rec); err != nil {
			return fmt.Errorf("failed to decode export record: %w", err)
		}
		stats.Exported++
		if stats.LastExport == nil || rec.ExportedAt.After(*stats.LastExport) {
			at := rec.ExportedAt
			stats.LastExport = &at
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return stats, nil
}
