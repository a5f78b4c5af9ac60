// Package vault provides data types for credential entries and the document that holds them.
package vault

import "maps"

// Base field names in display order.
const (
	FieldName     = "name"
	FieldProtocol = "protocol"
	FieldWebsite  = "website"
	FieldUsername = "username"
	FieldPassword = "password"
	FieldNotes    = "notes"
)

// BaseFieldNames lists the fixed schema fields in the order they are presented.
var BaseFieldNames = []string{FieldName, FieldProtocol, FieldWebsite, FieldUsername, FieldPassword, FieldNotes}

// IsBaseField reports whether name is one of the six fixed fields.
func IsBaseField(name string) bool {
	switch name {
	case FieldName, FieldProtocol, FieldWebsite, FieldUsername, FieldPassword, FieldNotes:
		return true
	}
	return false
}

// Entry is a single stored credential record.
type Entry struct {
	ID           string            `json:"id" yaml:"id"`
	Name         string            `json:"name" yaml:"name"`
	Protocol     string            `json:"protocol" yaml:"protocol"`
	Website      string            `json:"website" yaml:"website"`
	Username     string            `json:"username" yaml:"username"`
	Password     string            `json:"password" yaml:"password"`
	Notes        string            `json:"notes" yaml:"notes"`
	Custom       map[string]string `json:"custom" yaml:"custom"`
	CreatedAt    int64             `json:"created_at" yaml:"created_at"`
	UpdatedAt    int64             `json:"updated_at" yaml:"updated_at"`
	AccessCount  int64             `json:"access_count" yaml:"access_count"`
	LastAccessAt *int64            `json:"last_access_at" yaml:"last_access_at"`
}

// Document is the persisted container for all entries.
type Document struct {
	Entries []Entry `json:"entries"`
}

// NewDocument returns an empty document.
func NewDocument() *Document {
	return &Document{Entries: []Entry{}}
}

// Clone returns a deep copy of the entry.
func (e Entry) Clone() Entry {
	c := e
	c.Custom = make(map[string]string, len(e.Custom))
	maps.Copy(c.Custom, e.Custom)
	if e.LastAccessAt != nil {
		at := *e.LastAccessAt
		c.LastAccessAt = &at
	}
	return c
}

// Clone returns a deep copy of the document.
func (d *Document) Clone() *Document {
	c := &Document{Entries: make([]Entry, len(d.Entries))}
	for i, e := range d.Entries {
		c.Entries[i] = e.Clone()
	}
	return c
}

// BaseValue returns the value of a base field by name.
func (e Entry) BaseValue(name string) (string, bool) {
	switch name {
	case FieldName:
		return e.Name, true
	case FieldProtocol:
		return e.Protocol, true
	case FieldWebsite:
		return e.Website, true
	case FieldUsername:
		return e.Username, true
	case FieldPassword:
		return e.Password, true
	case FieldNotes:
		return e.Notes, true
	}
	return "", false
}

// Lookup resolves a field label against the base fields first and then the custom fields.
func (e Entry) Lookup(name string) (string, bool) {
	if v, ok := e.BaseValue(name); ok {
		return v, true
	}
	v, ok := e.Custom[name]
	return v, ok
}

// LastAccess returns the last access timestamp, or 0 when the entry was never accessed.
func (e Entry) LastAccess() int64 {
	if e.LastAccessAt == nil {
		return 0
	}
	return *e.LastAccessAt
}
