// Package persist stores the ledger collections as a single JSON snapshot
// file. Loading is forgiving: a missing file or a malformed collection
// degrades to empty rather than failing, so a corrupt snapshot never blocks
// startup.
package persist

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"ghazistore/backend/internal/domain"
)

type Collections struct {
	Items      []domain.Item     `json:"items"`
	Sales      []domain.Sale     `json:"sales"`
	Recoveries []domain.Recovery `json:"recoveries"`
	Expenses   []domain.Expense  `json:"expenses"`
}

type FileStore struct {
	mu   sync.Mutex
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load reads the snapshot file. Each collection is decoded independently so
// one malformed collection does not discard the others.
func (f *FileStore) Load() Collections {
	f.mu.Lock()
	defer f.mu.Unlock()

	empty := Collections{
		Items:      []domain.Item{},
		Sales:      []domain.Sale{},
		Recoveries: []domain.Recovery{},
		Expenses:   []domain.Expense{},
	}

	raw, err := os.ReadFile(f.path)
	if err != nil {
		return empty
	}

	var sections map[string]json.RawMessage
	if err := json.Unmarshal(raw, &sections); err != nil {
		return empty
	}

	loaded := empty
	if section, ok := sections["items"]; ok {
		var items []domain.Item
		if json.Unmarshal(section, &items) == nil && items != nil {
			loaded.Items = items
		}
	}
	if section, ok := sections["sales"]; ok {
		var sales []domain.Sale
		if json.Unmarshal(section, &sales) == nil && sales != nil {
			loaded.Sales = sales
		}
	}
	if section, ok := sections["recoveries"]; ok {
		var recoveries []domain.Recovery
		if json.Unmarshal(section, &recoveries) == nil && recoveries != nil {
			loaded.Recoveries = recoveries
		}
	}
	if section, ok := sections["expenses"]; ok {
		var expenses []domain.Expense
		if json.Unmarshal(section, &expenses) == nil && expenses != nil {
			loaded.Expenses = expenses
		}
	}
	return loaded
}

// Save writes the snapshot atomically via a temp file and rename.
func (f *FileStore) Save(c Collections) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	payload, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	dir := filepath.Dir(f.path)
	tmp, err := os.CreateTemp(dir, ".ledger-*.json")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close snapshot: %w", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}
