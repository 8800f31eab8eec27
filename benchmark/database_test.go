package benchmark

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyRegistryBounded(t *testing.T) {
	r := NewKeyRegistry(3)
	_, ok := r.Random()
	assert.False(t, ok)

	for i := 0; i < 10; i++ {
		r.Add(strconv.Itoa(i))
	}
	assert.Equal(t, 3, r.Len())

	// only the three most recent keys survive
	recent := map[string]bool{"7": true, "8": true, "9": true}
	for iter := 0; iter < 50; iter++ {
		k, ok := r.Random()
		require.True(t, ok)
		assert.True(t, recent[k], "unexpected key %s", k)
	}
}

func TestKeyRegistryConcurrent(t *testing.T) {
	r := NewKeyRegistry(100)
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		w := w
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				r.Add(strconv.Itoa(w*1000 + i))
				r.Random()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 100, r.Len())
}

func TestNewDatabaseUnknownBackend(t *testing.T) {
	_, err := NewDatabase(context.Background(), DatabaseConfig{Type: "cassandra"})
	assert.ErrorIs(t, err, ErrBackendNotFound)
	assert.False(t, IsConnectionError(err))
}

func TestNewDatabaseMemory(t *testing.T) {
	db, err := NewDatabase(context.Background(), DatabaseConfig{Type: DatabaseTypeMemory})
	require.NoError(t, err)

	// nothing inserted yet
	assert.True(t, IsKeyNotFound(db.Read(context.Background())))
	require.NoError(t, db.Insert(context.Background(), GenerateDocument(1)))
	require.NoError(t, db.Read(context.Background()))
	require.NoError(t, db.Close())

	assert.ErrorIs(t, db.Insert(context.Background(), GenerateDocument(1)), ErrDatabaseClosed)
}

func TestConnectionErrorUnwraps(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := error(&ConnectionError{Backend: DatabaseTypeRedis, Cause: cause})

	assert.True(t, IsConnectionError(err))
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "redis")
}

func TestPebbleDatabase(t *testing.T) {
	cfg := DatabaseConfig{
		Type:                 DatabaseTypePebble,
		PebblePath:           filepath.Join(t.TempDir(), "pebble"),
		PebbleBlockCacheSize: 1 << 20,
		KeyRegistrySize:      100,
	}

	db, err := NewDatabase(context.Background(), cfg)
	require.NoError(t, err)

	ctx := context.Background()
	assert.ErrorIs(t, db.Read(ctx), ErrKeyNotFound)

	for iter := 0; iter < 20; iter++ {
		require.NoError(t, db.Insert(ctx, GenerateDocument(1)))
	}
	for iter := 0; iter < 20; iter++ {
		require.NoError(t, db.Read(ctx))
	}
	require.NoError(t, db.Close())
	assert.ErrorIs(t, db.Insert(ctx, GenerateDocument(1)), ErrDatabaseClosed)

	// reopening wipes the previous run
	db, err = NewDatabase(ctx, cfg)
	require.NoError(t, err)
	defer db.Close()
	pdb := db.(*PebbleDatabase)
	assert.Equal(t, 0, pdb.keys.Len())
}

func TestPebbleRefusesUnsafePaths(t *testing.T) {
	notStore := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(notStore, "notes.txt"), []byte("keep me"), 0o644))

	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	for _, path := range []string{"", ".", "/", notStore, file} {
		_, err := NewPebbleDatabase(DatabaseConfig{PebblePath: path, PebbleBlockCacheSize: -1})
		assert.ErrorIs(t, err, ErrUnsafePebblePath, "path %q", path)
	}

	_, err := os.Stat(filepath.Join(notStore, "notes.txt"))
	assert.NoError(t, err)
}

func TestPebbleWipesEmptyDirectory(t *testing.T) {
	dir := t.TempDir()
	db, err := NewPebbleDatabase(DatabaseConfig{PebblePath: dir, PebbleBlockCacheSize: -1})
	require.NoError(t, err)
	require.NoError(t, db.Close())
}
