package client

import (
	"encoding/json"
	"errors"
	"os"
	"sync"
)

// DefaultStoreFile is the receipts file used when none is configured.
const DefaultStoreFile = "identity.json"

// LocalStore keeps the session token and identity receipts in a JSON file.
type LocalStore struct {
	Token    string    `json:"token,omitempty"`
	Receipts []Receipt `json:"receipts"`

	path string
	mu   sync.Mutex
}

// OpenStore loads the store at path. A missing file yields an empty store.
func OpenStore(path string) (*LocalStore, error) {
	ls := &LocalStore{path: path, Receipts: []Receipt{}}
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ls, nil
		}
		return nil, err
	}
	defer f.Close()
	if err := json.NewDecoder(f).Decode(ls); err != nil {
		return nil, err
	}
	return ls, nil
}

// Save writes the store back to its file.
func (ls *LocalStore) Save() error {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	data, err := json.MarshalIndent(ls, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(ls.path, data, 0600)
}

// SetToken replaces the stored session token.
func (ls *LocalStore) SetToken(token string) {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	ls.Token = token
}

// Add records a receipt, replacing an older one with the same request id.
func (ls *LocalStore) Add(r Receipt) {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	for i := range ls.Receipts {
		if ls.Receipts[i].RequestID == r.RequestID {
			ls.Receipts[i] = r
			return
		}
	}
	ls.Receipts = append(ls.Receipts, r)
}

// Get returns the receipt for requestID, or nil.
func (ls *LocalStore) Get(requestID string) *Receipt {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	for _, r := range ls.Receipts {
		if r.RequestID == requestID {
			return &r
		}
	}
	return nil
}

// List returns a copy of all receipts.
func (ls *LocalStore) List() []Receipt {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	return append([]Receipt(nil), ls.Receipts...)
}
