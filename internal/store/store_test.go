package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pixievault/pixievault/internal/vault"
)

type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Unix(1_700_000_000, 0)}
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func sequentialIDs(prefix string) func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

func openMemory(t *testing.T, clock *fakeClock) (*Store, *MemoryBackend) {
	t.Helper()
	backend := NewMemoryBackend(nil)
	s, err := Open(backend, WithClock(clock.Now))
	require.NoError(t, err)
	return s, backend
}

func openFile(t *testing.T, path string, clock *fakeClock) *Store {
	t.Helper()
	s, err := Open(NewFileBackend(path), WithClock(clock.Now))
	require.NoError(t, err)
	return s
}

func TestAddScenarioMail(t *testing.T) {
	clock := newFakeClock()
	s, backend := openMemory(t, clock)

	_, err := s.Add(vault.BaseFields{
		Name:     vault.String("Mail"),
		Username: vault.String("a@b.com"),
		Password: vault.String("x"),
	}, nil)
	require.NoError(t, err)

	entries := s.Entries()
	require.Len(t, entries, 1)
	e := entries[0]
	assert.Equal(t, "Mail", e.Name)
	assert.Equal(t, "a@b.com", e.Username)
	assert.Equal(t, "x", e.Password)
	assert.Equal(t, int64(0), e.AccessCount)
	assert.Nil(t, e.LastAccessAt)
	assert.Equal(t, e.CreatedAt, e.UpdatedAt)
	assert.Equal(t, clock.Now().Unix(), e.CreatedAt)
	assert.NotNil(t, e.Custom)
	assert.Empty(t, e.Custom)
	assert.Equal(t, 1, backend.Saves())
}

func TestAddTrimsIdentifyingFieldsOnly(t *testing.T) {
	s, _ := openMemory(t, newFakeClock())

	e, err := s.Add(vault.BaseFields{
		Name:     vault.String("  Bank "),
		Protocol: vault.String(" https "),
		Website:  vault.String(" bank.example "),
		Username: vault.String(" me "),
		Password: vault.String(" p w "),
		Notes:    vault.String(" remember \n"),
	}, map[string]string{" PIN ": " 1234 "})
	require.NoError(t, err)

	assert.Equal(t, "Bank", e.Name)
	assert.Equal(t, "https", e.Protocol)
	assert.Equal(t, "bank.example", e.Website)
	assert.Equal(t, "me", e.Username)
	assert.Equal(t, " p w ", e.Password)
	assert.Equal(t, " remember \n", e.Notes)
	assert.Equal(t, map[string]string{" PIN ": " 1234 "}, e.Custom)
}

func TestAddAssignsUniqueIDs(t *testing.T) {
	s, _ := openMemory(t, newFakeClock())

	seen := map[string]bool{}
	for i := range 50 {
		e, err := s.Add(vault.BaseFields{Name: vault.String(fmt.Sprintf("e%d", i))}, nil)
		require.NoError(t, err)
		require.NotEmpty(t, e.ID)
		require.False(t, seen[e.ID], "id %s reused", e.ID)
		seen[e.ID] = true
	}
	assert.Len(t, s.Entries(), 50)
}

func TestAddRetriesOnIDCollision(t *testing.T) {
	ids := []string{"a", "a", "", "b"}
	next := func() string {
		id := ids[0]
		ids = ids[1:]
		return id
	}
	s, err := Open(NewMemoryBackend(nil), WithIDGenerator(next))
	require.NoError(t, err)

	first, err := s.Add(vault.BaseFields{}, nil)
	require.NoError(t, err)
	second, err := s.Add(vault.BaseFields{}, nil)
	require.NoError(t, err)

	assert.Equal(t, "a", first.ID)
	assert.Equal(t, "b", second.ID)
}

func TestAddFailsWhenGeneratorIsStuck(t *testing.T) {
	s, err := Open(NewMemoryBackend(nil), WithIDGenerator(func() string { return "same" }))
	require.NoError(t, err)

	_, err = s.Add(vault.BaseFields{}, nil)
	require.NoError(t, err)
	_, err = s.Add(vault.BaseFields{}, nil)
	assert.ErrorIs(t, err, ErrIDExhausted)
	assert.Len(t, s.Entries(), 1)
}

func TestUpdateMergesBaseAndReplacesCustom(t *testing.T) {
	clock := newFakeClock()
	s, _ := openMemory(t, clock)

	e, err := s.Add(vault.BaseFields{
		Name:     vault.String("Mail"),
		Website:  vault.String("mail.example"),
		Password: vault.String("old"),
	}, map[string]string{"PIN": "1", "recovery": "abc"})
	require.NoError(t, err)

	clock.Advance(time.Minute)
	found, err := s.Update(e.ID, vault.BaseFields{Password: vault.String(" new ")}, map[string]string{"PIN": "2"})
	require.NoError(t, err)
	require.True(t, found)

	got, ok := s.Get(e.ID)
	require.True(t, ok)
	assert.Equal(t, "Mail", got.Name)
	assert.Equal(t, "mail.example", got.Website)
	assert.Equal(t, " new ", got.Password)
	assert.Equal(t, map[string]string{"PIN": "2"}, got.Custom)
	assert.Equal(t, e.CreatedAt, got.CreatedAt)
	assert.Equal(t, clock.Now().Unix(), got.UpdatedAt)
}

func TestUpdateWithNilCustomClearsIt(t *testing.T) {
	s, _ := openMemory(t, newFakeClock())
	e, err := s.Add(vault.BaseFields{Name: vault.String("x")}, map[string]string{"k": "v"})
	require.NoError(t, err)

	found, err := s.Update(e.ID, vault.BaseFields{}, nil)
	require.NoError(t, err)
	require.True(t, found)

	got, _ := s.Get(e.ID)
	assert.NotNil(t, got.Custom)
	assert.Empty(t, got.Custom)
}

func TestUpdateUnknownIDLeavesDocumentUnchanged(t *testing.T) {
	clock := newFakeClock()
	path := filepath.Join(t.TempDir(), "vault.json")
	s := openFile(t, path, clock)

	_, err := s.Add(vault.BaseFields{Name: vault.String("Mail")}, map[string]string{"k": "v"})
	require.NoError(t, err)

	before, err := os.ReadFile(path)
	require.NoError(t, err)

	clock.Advance(time.Hour)
	found, err := s.Update("missing", vault.BaseFields{Name: vault.String("Other")}, nil)
	require.NoError(t, err)
	assert.False(t, found)

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	reencoded, err := Encode(&vault.Document{Entries: s.Entries()})
	require.NoError(t, err)
	assert.Equal(t, before, reencoded)
}

func TestDeleteRemovesEntryAndClosesGap(t *testing.T) {
	s, _ := openMemory(t, newFakeClock())

	var ids []string
	for _, name := range []string{"a", "b", "c"} {
		e, err := s.Add(vault.BaseFields{Name: vault.String(name)}, nil)
		require.NoError(t, err)
		ids = append(ids, e.ID)
	}

	require.NoError(t, s.Delete(ids[1]))

	entries := s.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, ids[0], entries[0].ID)
	assert.Equal(t, ids[2], entries[1].ID)
	for _, e := range entries {
		assert.NotEqual(t, ids[1], e.ID)
	}
}

func TestDeleteUnknownIDIsNoOp(t *testing.T) {
	s, backend := openMemory(t, newFakeClock())
	_, err := s.Add(vault.BaseFields{Name: vault.String("a")}, nil)
	require.NoError(t, err)
	before := s.Entries()

	require.NoError(t, s.Delete("missing"))
	require.NoError(t, s.Delete("missing"))

	assert.Equal(t, before, s.Entries())
	assert.Equal(t, before, backend.Document().Entries)
}

func TestRecordAccessTwice(t *testing.T) {
	clock := newFakeClock()
	s, _ := openMemory(t, clock)
	e, err := s.Add(vault.BaseFields{Name: vault.String("Mail")}, nil)
	require.NoError(t, err)

	clock.Advance(time.Minute)
	found, err := s.RecordAccess(e.ID)
	require.NoError(t, err)
	require.True(t, found)

	clock.Advance(time.Minute)
	second := clock.Now().Unix()
	found, err = s.RecordAccess(e.ID)
	require.NoError(t, err)
	require.True(t, found)

	got, _ := s.Get(e.ID)
	assert.Equal(t, int64(2), got.AccessCount)
	require.NotNil(t, got.LastAccessAt)
	assert.Equal(t, second, *got.LastAccessAt)
	assert.Equal(t, e.UpdatedAt, got.UpdatedAt)
}

func TestRecordAccessUnknownIDWritesNothing(t *testing.T) {
	s, backend := openMemory(t, newFakeClock())
	_, err := s.Add(vault.BaseFields{Name: vault.String("Mail")}, nil)
	require.NoError(t, err)

	found, err := s.RecordAccess("missing")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, 1, backend.Saves())
}

func TestEveryMutationPersistsOnce(t *testing.T) {
	s, backend := openMemory(t, newFakeClock())

	e, err := s.Add(vault.BaseFields{Name: vault.String("a")}, nil)
	require.NoError(t, err)
	_, err = s.Update(e.ID, vault.BaseFields{}, nil)
	require.NoError(t, err)
	_, err = s.RecordAccess(e.ID)
	require.NoError(t, err)
	require.NoError(t, s.Delete(e.ID))

	assert.Equal(t, 4, backend.Saves())
	assert.Empty(t, backend.Document().Entries)
}

func TestFailedSaveKeepsPreviousState(t *testing.T) {
	s, backend := openMemory(t, newFakeClock())
	e, err := s.Add(vault.BaseFields{Name: vault.String("a")}, nil)
	require.NoError(t, err)

	diskFull := errors.New("disk full")
	backend.FailSaves(diskFull)

	_, err = s.Add(vault.BaseFields{Name: vault.String("b")}, nil)
	assert.ErrorIs(t, err, diskFull)
	_, err = s.Update(e.ID, vault.BaseFields{Name: vault.String("changed")}, nil)
	assert.ErrorIs(t, err, diskFull)
	_, err = s.RecordAccess(e.ID)
	assert.ErrorIs(t, err, diskFull)
	assert.ErrorIs(t, s.Delete(e.ID), diskFull)

	entries := s.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "a", entries[0].Name)
	assert.Equal(t, int64(0), entries[0].AccessCount)
}

func TestEntriesReturnsSnapshot(t *testing.T) {
	s, _ := openMemory(t, newFakeClock())
	_, err := s.Add(vault.BaseFields{Name: vault.String("a")}, map[string]string{"k": "v"})
	require.NoError(t, err)

	snapshot := s.Entries()
	snapshot[0].Name = "mutated"
	snapshot[0].Custom["k"] = "mutated"

	fresh := s.Entries()
	assert.Equal(t, "a", fresh[0].Name)
	assert.Equal(t, "v", fresh[0].Custom["k"])
}

func TestAddCopiesCustomInput(t *testing.T) {
	s, _ := openMemory(t, newFakeClock())
	custom := map[string]string{"k": "v"}
	e, err := s.Add(vault.BaseFields{}, custom)
	require.NoError(t, err)

	custom["k"] = "changed"
	got, _ := s.Get(e.ID)
	assert.Equal(t, "v", got.Custom["k"])
}

func TestFileRoundTrip(t *testing.T) {
	clock := newFakeClock()
	path := filepath.Join(t.TempDir(), "data", "vault.json")
	s := openFile(t, path, clock)

	e, err := s.Add(vault.BaseFields{Name: vault.String("Mail")}, map[string]string{"k": "v"})
	require.NoError(t, err)
	clock.Advance(time.Second)
	_, err = s.RecordAccess(e.ID)
	require.NoError(t, err)

	reopened := openFile(t, path, clock)
	assert.Equal(t, s.Entries(), reopened.Entries())

	got, ok := reopened.Get(e.ID)
	require.True(t, ok)
	assert.Equal(t, map[string]string{"k": "v"}, got.Custom)
	assert.Equal(t, e.CreatedAt, got.CreatedAt)
	assert.Equal(t, e.UpdatedAt, got.UpdatedAt)
	require.NotNil(t, got.LastAccessAt)
	assert.Equal(t, clock.Now().Unix(), *got.LastAccessAt)
}

func TestFileFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vault.json")
	s, err := Open(NewFileBackend(path), WithClock(newFakeClock().Now), WithIDGenerator(sequentialIDs("id")))
	require.NoError(t, err)

	_, err = s.Add(vault.BaseFields{Name: vault.String("Café <home>")}, nil)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	want := `{
  "entries": [
    {
      "id": "id-1",
      "name": "Café <home>",
      "protocol": "",
      "website": "",
      "username": "",
      "password": "",
      "notes": "",
      "custom": {},
      "created_at": 1700000000,
      "updated_at": 1700000000,
      "access_count": 0,
      "last_access_at": null
    }
  ]
}
`
	assert.Equal(t, want, string(data))
}

func TestOpenMissingFileIsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope", "vault.json")
	s := openFile(t, path, newFakeClock())

	assert.Empty(t, s.Entries())
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err), "opening must not create the document")
}

func TestOpenRejectsCorruptDocuments(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"invalid json", `{"entries": [`},
		{"empty file", ``},
		{"empty id", `{"entries": [{"id": "", "name": "a"}]}`},
		{"duplicate id", `{"entries": [{"id": "x"}, {"id": "x"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "vault.json")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o600))

			_, err := Open(NewFileBackend(path))
			assert.ErrorIs(t, err, ErrCorruptDocument)
		})
	}
}

func TestOpenFillsMissingCollections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vault.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"entries": [{"id": "x", "name": "legacy"}]}`), 0o600))

	s, err := Open(NewFileBackend(path))
	require.NoError(t, err)

	got, ok := s.Get("x")
	require.True(t, ok)
	assert.NotNil(t, got.Custom)
	assert.Nil(t, got.LastAccessAt)

	empty := filepath.Join(t.TempDir(), "vault.json")
	require.NoError(t, os.WriteFile(empty, []byte(`{}`), 0o600))
	s, err = Open(NewFileBackend(empty))
	require.NoError(t, err)
	assert.NotNil(t, s.Entries())
	assert.Empty(t, s.Entries())
}

func TestOpenPropagatesReadErrors(t *testing.T) {
	dir := t.TempDir()
	// A directory where the file should be cannot be read as a document.
	path := filepath.Join(dir, "vault.json")
	require.NoError(t, os.Mkdir(path, 0o750))

	_, err := Open(NewFileBackend(path))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCorruptDocument)
}
