package benchmark

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/cockroachdb/pebble"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/rs/zerolog/log"
)

// PebbleDatabase implements the Database interface for an embedded Pebble store.
// Documents are stored as JSON under the Keccak256 hash of their id.
type PebbleDatabase struct {
	mu    sync.RWMutex
	db    *pebble.DB
	cache *pebble.Cache
	keys  *KeyRegistry
}

// ErrUnsafePebblePath is returned when the configured path is not a directory
// the benchmark may wipe
var ErrUnsafePebblePath = errors.New("refusing to wipe pebble path")

// NewPebbleDatabase wipes cfg.PebblePath and opens a fresh Pebble instance there
func NewPebbleDatabase(cfg DatabaseConfig) (*PebbleDatabase, error) {
	if err := resetPebbleDir(cfg.PebblePath); err != nil {
		return nil, err
	}

	opts := &pebble.Options{}

	var cache *pebble.Cache
	if cfg.PebbleBlockCacheSize >= 0 {
		cache = pebble.NewCache(cfg.PebbleBlockCacheSize)
		opts.Cache = cache

		log.Info().
			Int64("block_cache_size", cfg.PebbleBlockCacheSize).
			Msg("Created Pebble with block cache")
	} else {
		log.Info().Msg("Created Pebble with block cache disabled")
	}

	db, err := pebble.Open(cfg.PebblePath, opts)
	if err != nil {
		if cache != nil {
			cache.Unref()
		}
		return nil, err
	}

	return &PebbleDatabase{
		db:    db,
		cache: cache,
		keys:  NewKeyRegistry(cfg.KeyRegistrySize),
	}, nil
}

// resetPebbleDir removes path only when it is missing, empty or an existing
// Pebble store. Root-like paths and directories holding anything else are refused.
func resetPebbleDir(path string) error {
	clean := filepath.Clean(path)
	if path == "" || clean == "." || clean == ".." || clean == filepath.VolumeName(clean)+string(filepath.Separator) {
		return fmt.Errorf("%w: %q", ErrUnsafePebblePath, path)
	}
	if home, err := os.UserHomeDir(); err == nil && filepath.Clean(home) == clean {
		return fmt.Errorf("%w: %q is the home directory", ErrUnsafePebblePath, path)
	}

	info, err := os.Stat(clean)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %q is not a directory", ErrUnsafePebblePath, path)
	}

	entries, err := os.ReadDir(clean)
	if err != nil {
		return err
	}
	if len(entries) > 0 && !isPebbleDir(entries) {
		return fmt.Errorf("%w: %q is not a pebble store", ErrUnsafePebblePath, path)
	}
	if err := os.RemoveAll(clean); err != nil {
		return fmt.Errorf("reset pebble path: %w", err)
	}
	return nil
}

// isPebbleDir looks for the OPTIONS and MANIFEST files every Pebble store writes
func isPebbleDir(entries []os.DirEntry) bool {
	var options, manifest bool
	for _, e := range entries {
		name := e.Name()
		switch {
		case strings.HasPrefix(name, "OPTIONS-"):
			options = true
		case strings.HasPrefix(name, "MANIFEST-"):
			manifest = true
		}
	}
	return options && manifest
}

func pebbleKey(id string) []byte {
	return crypto.Keccak256([]byte(id))
}

// Insert implements Database.Insert for Pebble
func (p *PebbleDatabase) Insert(_ context.Context, doc Document) error {
	value, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.db == nil {
		return ErrDatabaseClosed
	}

	if err := p.db.Set(pebbleKey(doc.ID), value, pebble.NoSync); err != nil {
		return err
	}
	p.keys.Add(doc.ID)
	return nil
}

// Read implements Database.Read for Pebble: fetch a random previously inserted document
func (p *PebbleDatabase) Read(_ context.Context) error {
	id, ok := p.keys.Random()
	if !ok {
		return ErrKeyNotFound
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.db == nil {
		return ErrDatabaseClosed
	}

	_, closer, err := p.db.Get(pebbleKey(id))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return ErrKeyNotFound
		}
		return err
	}
	return closer.Close()
}

// Close implements Database.Close for Pebble
func (p *PebbleDatabase) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var err error
	if p.db != nil {
		m := p.db.Metrics()
		log.Debug().
			Int64("compactions", m.Compact.Count).
			Uint64("memtable_size", m.MemTable.Size).
			Msg("Pebble metrics at close")

		err = p.db.Close()
		p.db = nil
	}

	if p.cache != nil {
		p.cache.Unref()
		p.cache = nil
	}

	return err
}
