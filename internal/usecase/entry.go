package usecase

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"strings"

	"github.com/pixievault/pixievault/internal/logging"
	"github.com/pixievault/pixievault/internal/query"
	"github.com/pixievault/pixievault/internal/vault"
)

// ErrNotFound is returned when no entry has the requested id.
var ErrNotFound = errors.New("entry not found")

// Repository is the persistence contract the use cases need. *store.Store satisfies it.
type Repository interface {
	Entries() []vault.Entry
	Get(id string) (vault.Entry, bool)
	Add(base vault.BaseFields, custom map[string]string) (vault.Entry, error)
	Update(id string, base vault.BaseFields, custom map[string]string) (bool, error)
	Delete(id string) error
	RecordAccess(id string) (bool, error)
}

type Entry struct {
	repo Repository
	log  logging.Logger
}

func NewEntry(repo Repository, log logging.Logger) *Entry {
	if log == nil {
		log = logging.Nop()
	}
	return &Entry{
		repo: repo,
		log:  log.With("component", "entries"),
	}
}

type ListInput struct {
	Term  string
	Field string
	Sort  query.SortMode
}

type ListResult struct {
	Entries  []vault.Entry
	Total    int
	Filtered bool
}

// Status summarises the result the way the list footer shows it.
func (r *ListResult) Status() string {
	n := len(r.Entries)
	switch {
	case r.Filtered && n == 0:
		return "No matches found, try 'Any' field or clear filters"
	case r.Filtered:
		return fmt.Sprintf("%s (filtered)", countEntries(n))
	default:
		return countEntries(n)
	}
}

func countEntries(n int) string {
	if n == 1 {
		return "1 entry"
	}
	return fmt.Sprintf("%d entries", n)
}

func (u *Entry) List(ctx context.Context, input ListInput) *ListResult {
	all := u.repo.Entries()
	entries := query.Filter(all, query.Criteria{
		Term:  input.Term,
		Field: input.Field,
		Sort:  input.Sort,
	})

	u.log.Debug(ctx, "listed entries", "total", len(all), "shown", len(entries), "sort", string(input.Sort))
	return &ListResult{
		Entries:  entries,
		Total:    len(all),
		Filtered: strings.TrimSpace(input.Term) != "",
	}
}

// Get returns an entry without counting it as an access.
func (u *Entry) Get(_ context.Context, id string) (vault.Entry, error) {
	e, ok := u.repo.Get(id)
	if !ok {
		return vault.Entry{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return e, nil
}

// Show returns an entry for display and records the access.
func (u *Entry) Show(ctx context.Context, id string) (vault.Entry, error) {
	found, err := u.repo.RecordAccess(id)
	if err != nil {
		return vault.Entry{}, err
	}
	if !found {
		return vault.Entry{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	u.log.Info(ctx, "entry accessed", "id", id)
	return u.Get(ctx, id)
}

type AddInput struct {
	Base   vault.BaseFields
	Custom map[string]string
	// Confirm is the repeated password, when the shell collected one.
	Confirm *string
}

type Result struct {
	Entry    vault.Entry
	Warnings []string
}

func (u *Entry) Add(ctx context.Context, input AddInput) (*Result, error) {
	base := input.Base.Trimmed()
	custom := normalizeCustom(input.Custom)

	password := deref(base.Password)
	if err := vault.ValidateInput(vault.Input{
		Name:     deref(base.Name),
		Password: password,
		Confirm:  input.Confirm,
		Custom:   custom,
	}); err != nil {
		return nil, err
	}

	entry, err := u.repo.Add(base, custom)
	if err != nil {
		return nil, err
	}

	u.log.Info(ctx, "entry added", "id", entry.ID, "custom_fields", len(custom))
	warnings := append(vault.PasswordWarnings(password), vault.CustomFieldWarnings(custom)...)
	return &Result{Entry: entry, Warnings: warnings}, nil
}

type UpdateInput struct {
	ID   string
	Base vault.BaseFields
	// Custom replaces the entry's custom fields entirely.
	Custom  map[string]string
	Confirm *string
}

func (u *Entry) Update(ctx context.Context, input UpdateInput) (*Result, error) {
	current, ok := u.repo.Get(input.ID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, input.ID)
	}

	base := input.Base.Trimmed()
	custom := normalizeCustom(input.Custom)

	merged := current
	base.Apply(&merged)
	if err := vault.ValidateInput(vault.Input{
		Name:     merged.Name,
		Password: merged.Password,
		Confirm:  input.Confirm,
		Custom:   custom,
	}); err != nil {
		return nil, err
	}

	found, err := u.repo.Update(input.ID, base, custom)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, input.ID)
	}

	updated, err := u.Get(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	u.log.Info(ctx, "entry updated", "id", input.ID, "custom_fields", len(custom))
	var warnings []string
	if base.Password != nil {
		warnings = vault.PasswordWarnings(*base.Password)
	}
	warnings = append(warnings, vault.CustomFieldWarnings(custom)...)
	return &Result{Entry: updated, Warnings: warnings}, nil
}

// Delete removes an entry. Deleting an unknown id is not an error.
func (u *Entry) Delete(ctx context.Context, id string) error {
	if err := u.repo.Delete(id); err != nil {
		return err
	}
	u.log.Info(ctx, "entry deleted", "id", id)
	return nil
}

// Fields returns the labels for a "search within" selector, starting with the any-field sentinel.
func (u *Entry) Fields(_ context.Context) []string {
	return append([]string{query.AnyField}, query.FieldLabels(u.repo.Entries())...)
}

// normalizeCustom trims keys and values. Blank keys are kept so validation can reject them.
func normalizeCustom(custom map[string]string) map[string]string {
	out := make(map[string]string, len(custom))
	for k, v := range custom {
		out[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	return out
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// MergeCustom applies sets and then removals to a copy of current. It is how
// edit shells derive the full replacement mapping from incremental changes.
func MergeCustom(current, set map[string]string, unset []string) map[string]string {
	out := make(map[string]string, len(current)+len(set))
	maps.Copy(out, current)
	maps.Copy(out, set)
	for _, k := range unset {
		delete(out, k)
	}
	return out
}
