// ABOUTME: Durable storage for the persisted session
// ABOUTME: Holds exactly the auth_token and auth_user keys, written and cleared together
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/harperreed/salesdesk/models"
)

const (
	KeyToken = "auth_token"
	KeyUser  = "auth_user"
)

// Storage persists the session. Load returns an empty token and nil user when
// nothing is stored. Implementations never hold one key without the other.
type Storage interface {
	Load() (token string, user *models.User, err error)
	Save(token string, user models.User) error
	Clear() error
}

// FileStorage keeps both keys in one JSON file so a single rename updates them.
type FileStorage struct {
	path string
}

func NewFileStorage(path string) *FileStorage {
	return &FileStorage{path: path}
}

// DefaultFilePath is the session file under dataDir.
func DefaultFilePath(dataDir string) string {
	return filepath.Join(dataDir, "session.json")
}

func (f *FileStorage) Path() string { return f.path }

func (f *FileStorage) Load() (string, *models.User, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil, nil
		}
		return "", nil, fmt.Errorf("failed to read session file: %w", err)
	}

	var kv map[string]string
	if err := json.Unmarshal(data, &kv); err != nil {
		return "", nil, fmt.Errorf("failed to decode session file: %w", err)
	}
	return decodePair(kv[KeyToken], []byte(kv[KeyUser]))
}

func (f *FileStorage) Save(token string, user models.User) error {
	userJSON, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to encode user: %w", err)
	}
	data, err := json.MarshalIndent(map[string]string{
		KeyToken: token,
		KeyUser:  string(userJSON),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(f.path), 0700); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".session-*")
	if err != nil {
		return fmt.Errorf("failed to create session file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if err := tmp.Chmod(0600); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to set session file permissions: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write session file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("failed to replace session file: %w", err)
	}
	return nil
}

func (f *FileStorage) Clear() error {
	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove session file: %w", err)
	}
	return nil
}

// decodePair returns nothing unless both halves are present.
func decodePair(token string, userJSON []byte) (string, *models.User, error) {
	if token == "" || len(userJSON) == 0 {
		return "", nil, nil
	}
	var user models.User
	if err := json.Unmarshal(userJSON, &user); err != nil {
		return "", nil, fmt.Errorf("failed to decode stored user: %w", err)
	}
	return token, &user, nil
}
