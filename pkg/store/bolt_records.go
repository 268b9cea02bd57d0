package store

import (
	"encoding/json"
	"fmt"

	"github.com/pigeonworks-llc/obligation-ledger/pkg/model"
	bolt "go.etcd.io/bbolt"
)

// kind describes where one entity type lives. Records are keyed by a bucket
// sequence so ForEach yields insertion order; the index bucket maps the
// entity id to that key.
type kind struct {
	entity string
	data   []byte
	index  []byte
}

func newKind(entity, bucket string) kind {
	return kind{entity: entity, data: []byte(bucket), index: []byte(bucket + indexSuffix)}
}

var (
	accountKind     = newKind("account", BucketAccounts)
	transactionKind = newKind("transaction", BucketTransactions)
	payableKind     = newKind("payable", BucketPayables)
	receivableKind  = newKind("receivable", BucketReceivables)
	clientKind      = newKind("client", BucketClients)
	categoryKind    = newKind("category", BucketCategories)
	todoKind        = newKind("todo", BucketTodos)

	entityKinds = []kind{accountKind, transactionKind, payableKind, receivableKind, clientKind, categoryKind, todoKind}
)

// lookup returns a copy of the sequence key for id, or nil.
func lookup(tx *bolt.Tx, k kind, id string) []byte {
	key := tx.Bucket(k.index).Get([]byte(id))
	if key == nil {
		return nil
	}
	copied := make([]byte, len(key))
	copy(copied, key)
	return copied
}

func getRecord[T any](tx *bolt.Tx, k kind, id string) (*T, error) {
	key := lookup(tx, k, id)
	if key == nil {
		return nil, model.NotFound(k.entity, id)
	}
	data := tx.Bucket(k.data).Get(key)
	if data == nil {
		return nil, model.NotFound(k.entity, id)
	}

	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("failed to decode %s %s: %w", k.entity, id, err)
	}
	return &v, nil
}

func listRecords[T any](tx *bolt.Tx, k kind, filter func(*T) bool) ([]T, error) {
	results := []T{}
	err := tx.Bucket(k.data).ForEach(func(_, data []byte) error {
		var v T
		if err := json.Unmarshal(data, &v); err != nil {
			return fmt.Errorf("failed to decode %s: %w", k.entity, err)
		}
		if filter == nil || filter(&v) {
			results = append(results, v)
		}
		return nil
	})
	return results, err
}

func createRecord(tx *bolt.Tx, k kind, rec model.Versioned) error {
	id := rec.EntityID()
	if id == "" {
		return fmt.Errorf("failed to create %s: empty id", k.entity)
	}
	if lookup(tx, k, id) != nil {
		return fmt.Errorf("failed to create %s: id %s already exists", k.entity, id)
	}

	data := tx.Bucket(k.data)
	seq, err := data.NextSequence()
	if err != nil {
		return fmt.Errorf("failed to generate key: %w", err)
	}

	*rec.VersionRef() = 1
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", k.entity, err)
	}

	key := itob(int64(seq))
	if err := data.Put(key, payload); err != nil {
		return fmt.Errorf("failed to store %s: %w", k.entity, err)
	}
	return tx.Bucket(k.index).Put([]byte(id), key)
}

func updateRecord(tx *bolt.Tx, k kind, rec model.Versioned) error {
	id := rec.EntityID()
	key := lookup(tx, k, id)
	if key == nil {
		return model.NotFound(k.entity, id)
	}

	data := tx.Bucket(k.data)
	var stored struct {
		Version int64 `json:"version"`
	}
	if err := json.Unmarshal(data.Get(key), &stored); err != nil {
		return fmt.Errorf("failed to decode %s %s: %w", k.entity, id, err)
	}

	version := rec.VersionRef()
	if stored.Version != *version {
		return fmt.Errorf("%w: %s %s is at version %d, got %d", model.ErrConflict, k.entity, id, stored.Version, *version)
	}

	*version++
	payload, err := json.Marshal(rec)
	if err != nil {
		*version--
		return fmt.Errorf("failed to marshal %s: %w", k.entity, err)
	}
	return data.Put(key, payload)
}

func deleteRecord(tx *bolt.Tx, k kind, id string) error {
	key := lookup(tx, k, id)
	if key == nil {
		return nil
	}
	if err := tx.Bucket(k.data).Delete(key); err != nil {
		return fmt.Errorf("failed to delete %s: %w", k.entity, err)
	}
	return tx.Bucket(k.index).Delete([]byte(id))
}
