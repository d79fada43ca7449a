// Package store persists string values between independent apiprobe runs.
package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ezoidc/apiprobe/pkg/models"
	"github.com/rs/zerolog/log"
)

// FileStore is a flat key-value mapping kept in a single JSON file.
//
// Every call reads the file again, so values written by a previous process
// are always visible. Save swaps in a fully written temporary file, which
// keeps readers from ever observing a partial document. There is no locking:
// only one process may use a store at a time.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Path() string {
	return s.path
}

// Load returns the value saved under key. A missing, unreadable or corrupt
// file is treated as an empty store.
func (s *FileStore) Load(key string) (string, bool) {
	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		if err := s.write(map[string]string{}); err != nil {
			log.Debug().Err(err).Str("store", s.path).Msg("failed to create empty store")
		}
		return "", false
	}
	value, ok := s.read()[key]
	return value, ok
}

// Save sets key to value, keeping every other key.
func (s *FileStore) Save(key, value string) error {
	values := s.read()
	values[key] = value
	if err := s.write(values); err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}
	log.Debug().Str("store", s.path).Str("key", key).Msg("saved value")
	return nil
}

// All returns a copy of every saved value.
func (s *FileStore) All() map[string]string {
	return s.read()
}

func (s *FileStore) read() map[string]string {
	values := map[string]string{}
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Debug().Err(err).Str("store", s.path).Msg("failed to read store")
		}
		return values
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return values
	}
	if err := json.Unmarshal(data, &values); err != nil {
		log.Debug().Err(err).Str("store", s.path).Msg("ignoring corrupt store")
		return map[string]string{}
	}
	if values == nil {
		values = map[string]string{}
	}
	return values
}

func (s *FileStore) write(values map[string]string) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := models.JSONEncoder(tmp).Encode(values); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}
