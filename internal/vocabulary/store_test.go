package vocabulary

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "vocab.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

func TestStoreAddAndList(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	entry := &Entry{
		Word:        "cat",
		Translation: "猫",
		Inflections: []string{"cats"},
	}
	require.NoError(t, store.Add(ctx, entry))
	assert.NotEmpty(t, entry.ID, "ID should be generated")
	assert.Equal(t, CategoryWantToLearn, entry.Category, "default category")

	entries, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "cat", entries[0].Word)
	assert.Equal(t, "猫", entries[0].Translation)
	assert.Equal(t, []string{"cats"}, entries[0].Inflections)
}

func TestStoreGet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	entry := &Entry{Word: "cat", Translation: "猫", Inflections: []string{"cats"}}
	require.NoError(t, store.Add(ctx, entry))

	got, err := store.Get(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, "cat", got.Word)
	assert.Equal(t, []string{"cats"}, got.Inflections)

	_, err = store.Get(ctx, "missing-id")
	assert.Error(t, err)
}

func TestStoreAddRejectsEmptyWord(t *testing.T) {
	store := newTestStore(t)
	err := store.Add(context.Background(), &Entry{Translation: "猫"})
	assert.Error(t, err)
}

func TestStorePromote(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	entry := &Entry{Word: "dog", Translation: "狗"}
	require.NoError(t, store.Add(ctx, entry))

	require.NoError(t, store.Promote(ctx, entry.ID, CategoryLearning))

	entries, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, CategoryLearning, entries[0].Category)

	assert.Error(t, store.Promote(ctx, "missing-id", CategoryLearning))
	assert.Error(t, store.Promote(ctx, entry.ID, Category("bogus")))
}

func TestStoreDelete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	entry := &Entry{Word: "bird", Translation: "鸟"}
	require.NoError(t, store.Add(ctx, entry))
	require.NoError(t, store.Delete(ctx, entry.ID))

	entries, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestLoadWordListAndImport(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "words.toml")
	content := `
source_lang = "zh-CN"
target_lang = "en"

[[words]]
word = "cat"
translation = "猫"
inflections = ["cats"]

[[words]]
word = "run"
translation = "跑"
inflections = ["ran", "running"]
category = "learning"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	list, err := LoadWordList(path)
	require.NoError(t, err)
	assert.Equal(t, "zh-CN", list.SourceLang)
	require.Len(t, list.Words, 2)

	store := newTestStore(t)
	imported, err := Import(context.Background(), store, list)
	require.NoError(t, err)
	assert.Equal(t, 2, imported)

	entries, err := store.List(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, CategoryLearning, entries[1].Category)
}

func TestLoadWordListMissingFile(t *testing.T) {
	_, err := LoadWordList(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestEntrySurfaces(t *testing.T) {
	entry := &Entry{Word: "go", Inflections: []string{"went", "gone", " "}}
	assert.Equal(t, []string{"go", "went", "gone"}, entry.Surfaces())
}
