package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/pixievault/pixievault/internal/filesystem"
	"github.com/pixievault/pixievault/internal/vault"
)

// Backend loads and saves the whole document.
type Backend interface {
	Load() (*vault.Document, error)
	Save(doc *vault.Document) error
}

// FileBackend keeps the document as pretty-printed JSON in a single file.
type FileBackend struct {
	Path string
}

// NewFileBackend returns a backend for the document at path.
func NewFileBackend(path string) *FileBackend {
	return &FileBackend{Path: path}
}

// Load reads the document. A missing file is an empty document.
func (b *FileBackend) Load() (*vault.Document, error) {
	data, ok, err := filesystem.ReadFile(b.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read vault: %w", err)
	}
	if !ok {
		return vault.NewDocument(), nil
	}

	var doc vault.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptDocument, b.Path, err)
	}
	return &doc, nil
}

// Save replaces the file with the encoded document.
func (b *FileBackend) Save(doc *vault.Document) error {
	data, err := Encode(doc)
	if err != nil {
		return err
	}
	if err := filesystem.WriteFileAtomic(b.Path, data, filesystem.FilePerm); err != nil {
		return fmt.Errorf("failed to save vault: %w", err)
	}
	return nil
}

// Encode renders the document the way it is written to disk: two-space
// indentation, non-ASCII text kept as-is.
func Encode(doc *vault.Document) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("failed to marshal vault: %w", err)
	}
	return buf.Bytes(), nil
}

// MemoryBackend holds the document in memory. It is used in tests and
// anywhere a throwaway vault is needed.
type MemoryBackend struct {
	mu      sync.Mutex
	doc     *vault.Document
	saves   int
	saveErr error
}

// NewMemoryBackend returns a backend seeded with doc, which may be nil.
func NewMemoryBackend(doc *vault.Document) *MemoryBackend {
	b := &MemoryBackend{}
	if doc != nil {
		b.doc = doc.Clone()
	}
	return b
}

func (b *MemoryBackend) Load() (*vault.Document, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.doc == nil {
		return vault.NewDocument(), nil
	}
	return b.doc.Clone(), nil
}

func (b *MemoryBackend) Save(doc *vault.Document) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.saveErr != nil {
		return b.saveErr
	}
	b.doc = doc.Clone()
	b.saves++
	return nil
}

// FailSaves makes subsequent saves return err. Pass nil to recover.
func (b *MemoryBackend) FailSaves(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.saveErr = err
}

// Saves returns the number of successful saves.
func (b *MemoryBackend) Saves() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.saves
}

// Document returns a copy of the last saved document, or nil if nothing was saved or seeded.
func (b *MemoryBackend) Document() *vault.Document {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.doc == nil {
		return nil
	}
	return b.doc.Clone()
}
