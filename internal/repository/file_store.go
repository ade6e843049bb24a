package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// FileStore guarda las claves en un documento JSON, el equivalente local de
// localStorage. Las escrituras reemplazan el archivo completo.
type FileStore struct {
	mu       sync.Mutex
	path     string
	watchers watchers
}

const storageFileName = "storage.json"

// NewFileStore crea el store en dir; sin dir usa el directorio de config del usuario.
func NewFileStore(dir string) (*FileStore, error) {
	if strings.TrimSpace(dir) == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("resolve config dir: %w", err)
		}
		dir = filepath.Join(base, "riskadvisor")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &FileStore{path: filepath.Join(dir, storageFileName)}, nil
}

func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) SetItem(_ context.Context, key string, value any) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return ErrEmptyKey
	}
	encoded, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}

	s.mu.Lock()
	items, err := s.read()
	if err == nil {
		items[key] = encoded
		err = s.write(items)
	}
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.watchers.publish(StorageEvent{Key: key, Value: value})
	return nil
}

func (s *FileStore) GetItem(_ context.Context, key string, out any) (bool, error) {
	s.mu.Lock()
	items, err := s.read()
	s.mu.Unlock()
	if err != nil {
		return false, err
	}
	raw, ok := items[strings.TrimSpace(key)]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func (s *FileStore) RemoveItem(_ context.Context, key string) error {
	key = strings.TrimSpace(key)
	s.mu.Lock()
	items, err := s.read()
	if err == nil {
		delete(items, key)
		err = s.write(items)
	}
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.watchers.publish(StorageEvent{Key: key})
	return nil
}

func (s *FileStore) Clear(_ context.Context) error {
	s.mu.Lock()
	err := s.write(map[string]json.RawMessage{})
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.watchers.publish(StorageEvent{Cleared: true})
	return nil
}

func (s *FileStore) Watch(ctx context.Context) <-chan StorageEvent {
	return s.watchers.subscribe(ctx)
}

func (s *FileStore) read() (map[string]json.RawMessage, error) {
	items := map[string]json.RawMessage{}
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return items, nil
		}
		return nil, fmt.Errorf("read storage: %w", err)
	}
	if len(data) == 0 {
		return items, nil
	}
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("parse storage: %w", err)
	}
	return items, nil
}

func (s *FileStore) write(items map[string]json.RawMessage) error {
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("encode storage: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write storage: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace storage: %w", err)
	}
	return nil
}
