package cache

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/ChristopherKlein0802/CarbonAware-FinOps-Local-sub000/pkg/models/domain"
	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

// Class controls what happens when a re-fetch fails after TTL expiry.
// Primary data (billing, runtime, emissions inputs) must surface as absent;
// secondary data may be served stale with an explicit flag.
type Class string

const (
	ClassPrimary   Class = "primary"
	ClassSecondary Class = "secondary"
)

// Entry is what the store persists per (source, key).
type Entry struct {
	Value     json.RawMessage `json:"value"`
	FetchedAt time.Time       `json:"fetched_at"`
}

// Result describes how a value was obtained.
type Result struct {
	Fresh bool // fetched now or within TTL
	Stale bool // served past TTL because the re-fetch failed (secondary only)
}

type FetchFunc func(ctx context.Context) (json.RawMessage, error)

// Store is a TTL-aware read-through cache keyed by (source, key).
// Writes are atomic per key: entries are written to a temp file and renamed
// into place, so concurrent runs never observe a partial entry.
type Store interface {
	GetOrFetch(ctx context.Context, source, key string, ttl time.Duration, class Class, fetch FetchFunc) (json.RawMessage, Result, error)
	Invalidate(source, key string) error
}

type fileStore struct {
	dir string

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewFileStore(dir string) (Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache dir %q: %w", dir, err)
	}
	return &fileStore{
		dir:   dir,
		locks: make(map[string]*sync.Mutex),
	}, nil
}

func (s *fileStore) GetOrFetch(
	ctx context.Context,
	source, key string,
	ttl time.Duration,
	class Class,
	fetch FetchFunc,
) (json.RawMessage, Result, error) {
	lock := s.keyLock(source, key)
	lock.Lock()
	defer lock.Unlock()

	logger := zerolog.Ctx(ctx)

	entry, err := s.read(source, key)
	if err == nil && time.Since(entry.FetchedAt) < ttl {
		return entry.Value, Result{Fresh: true}, nil
	}

	value, fetchErr := fetch(ctx)
	if fetchErr == nil {
		if writeErr := s.write(source, key, Entry{Value: value, FetchedAt: time.Now().UTC()}); writeErr != nil {
			logger.Warn().Err(writeErr).Str("source", source).Str("key", key).
				Msg("cache write failed, serving uncached value")
		}
		return value, Result{Fresh: true}, nil
	}

	// Expired and the re-fetch failed. Secondary data may be served stale
	// with an explicit flag; primary data must come back absent.
	if class == ClassSecondary && err == nil {
		logger.Warn().Err(fetchErr).Str("source", source).Str("key", key).
			Time("fetched_at", entry.FetchedAt).
			Msg("serving stale cache entry after fetch failure")
		return entry.Value, Result{Stale: true}, nil
	}

	return nil, Result{}, fetchErr
}

func (s *fileStore) Invalidate(source, key string) error {
	lock := s.keyLock(source, key)
	lock.Lock()
	defer lock.Unlock()

	err := os.Remove(s.path(source, key))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func (s *fileStore) keyLock(source, key string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := source + "/" + key
	if l, ok := s.locks[id]; ok {
		return l
	}
	l := &sync.Mutex{}
	s.locks[id] = l
	return l
}

func (s *fileStore) path(source, key string) string {
	return filepath.Join(s.dir, sanitize(source), sanitize(key)+".json")
}

func (s *fileStore) read(source, key string) (Entry, error) {
	data, err := os.ReadFile(s.path(source, key))
	if err != nil {
		return Entry{}, err
	}
	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return Entry{}, fmt.Errorf("corrupt cache entry %s/%s: %w", source, key, err)
	}
	return entry, nil
}

func (s *fileStore) write(source, key string, entry Entry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	dir := filepath.Join(s.dir, sanitize(source))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	// Write-then-swap: an aborted run must not leave a partial entry visible.
	tmp, err := os.CreateTemp(dir, sanitize(key)+".*.tmp")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), s.path(source, key))
}

func sanitize(s string) string {
	r := strings.NewReplacer("/", "_", string(filepath.Separator), "_", ":", "_")
	return r.Replace(s)
}

// GetOrFetchAs is a typed wrapper around Store.GetOrFetch for sources that
// cache structured responses.
func GetOrFetchAs[T any](
	ctx context.Context,
	store Store,
	source, key string,
	ttl time.Duration,
	class Class,
	fetch func(ctx context.Context) (T, error),
) (T, Result, error) {
	var zero T

	raw, res, err := store.GetOrFetch(ctx, source, key, ttl, class, func(ctx context.Context) (json.RawMessage, error) {
		v, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		return json.Marshal(v)
	})
	if err != nil {
		return zero, res, err
	}

	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return zero, res, domain.NewSourceError(domain.ErrMalformedResponse, source, err)
	}
	return out, res, nil
}
