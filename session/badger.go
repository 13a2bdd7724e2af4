// ABOUTME: BadgerDB-backed session storage
// ABOUTME: Writes and deletes both session keys inside a single transaction
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/dgraph-io/badger/v3"

	"github.com/harperreed/salesdesk/models"
)

type BadgerStorage struct {
	db *badger.DB
}

// DefaultBadgerDir is the badger directory under dataDir.
func DefaultBadgerDir(dataDir string) string {
	return filepath.Join(dataDir, "session.badger")
}

func OpenBadgerStorage(dir string) (*BadgerStorage, error) {
	db, err := badger.Open(badger.DefaultOptions(dir).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("failed to open session store: %w", err)
	}
	return &BadgerStorage{db: db}, nil
}

func (b *BadgerStorage) Load() (string, *models.User, error) {
	var token string
	var userJSON []byte

	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(KeyToken))
		if err != nil {
			return err
		}
		raw, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		token = string(raw)

		item, err = txn.Get([]byte(KeyUser))
		if err != nil {
			return err
		}
		userJSON, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", nil, nil
	}
	if err != nil {
		return "", nil, fmt.Errorf("failed to read session: %w", err)
	}
	return decodePair(token, userJSON)
}

func (b *BadgerStorage) Save(token string, user models.User) error {
	userJSON, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to encode user: %w", err)
	}
	err = b.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(KeyToken), []byte(token)); err != nil {
			return err
		}
		return txn.Set([]byte(KeyUser), userJSON)
	})
	if err != nil {
		return fmt.Errorf("failed to write session: %w", err)
	}
	return nil
}

func (b *BadgerStorage) Clear() error {
	err := b.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete([]byte(KeyToken)); err != nil {
			return err
		}
		return txn.Delete([]byte(KeyUser))
	})
	if err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

func (b *BadgerStorage) Close() error {
	return b.db.Close()
}
