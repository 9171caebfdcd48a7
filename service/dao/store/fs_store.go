package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	neturl "net/url"
	"strings"
	"sync"

	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/option"
	"github.com/viant/afs/url"
	"github.com/viant/moderation/service/dao"
)

// FSStore persists each entity as a JSON document under baseURL using
// viant/afs, so any afs scheme (file://, mem://, s3://, gs://) can back it.
// Conditional writes are serialised by a process-local lock; run a single
// writer per baseURL.
type FSStore[K comparable, T any] struct {
	fs          afs.Service
	baseURL     string
	keySelector func(*T) K
	mu          sync.RWMutex
}

// NewFSStore creates the base location when missing.
func NewFSStore[K comparable, T any](ctx context.Context, fs afs.Service, baseURL string, keySelector func(*T) K) (*FSStore[K, T], error) {
	if baseURL == "" {
		return nil, fmt.Errorf("base URL cannot be empty")
	}
	if fs == nil {
		fs = afs.New()
	}
	if !strings.Contains(baseURL, "://") {
		baseURL = url.Normalize(baseURL, file.Scheme)
	}
	exists, _ := fs.Exists(ctx, baseURL)
	if !exists {
		if err := fs.Create(ctx, baseURL, file.DefaultDirOsMode, true); err != nil {
			return nil, fmt.Errorf("failed to create base directory %s: %w", baseURL, err)
		}
	}
	return &FSStore[K, T]{fs: fs, baseURL: baseURL, keySelector: keySelector}, nil
}

// Save writes or overwrites the document for t.
func (s *FSStore[K, T]) Save(ctx context.Context, t *T) error {
	if t == nil {
		return dao.ErrNilEntity
	}
	key := s.keySelector(t)
	var zero K
	if key == zero {
		return dao.ErrInvalidID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(ctx, key, t)
}

// Insert writes the document only when no document exists for its key.
func (s *FSStore[K, T]) Insert(ctx context.Context, t *T) error {
	if t == nil {
		return dao.ErrNilEntity
	}
	key := s.keySelector(t)
	var zero K
	if key == zero {
		return dao.ErrInvalidID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	exists, err := s.fs.Exists(ctx, s.documentURL(key))
	if err != nil {
		return fmt.Errorf("failed to check document %v: %w", key, err)
	}
	if exists {
		return dao.ErrExists
	}
	return s.write(ctx, key, t)
}

// Load reads the document stored under key.
func (s *FSStore[K, T]) Load(ctx context.Context, key K) (*T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.read(ctx, key)
}

// UpdateIf reads, mutates and rewrites the document while holding the lock.
func (s *FSStore[K, T]) UpdateIf(ctx context.Context, key K, mutation dao.Mutation[T]) (*T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, err := s.read(ctx, key)
	if err != nil {
		return nil, err
	}
	if err = mutation(current); err != nil {
		return nil, err
	}
	if err = s.write(ctx, key, current); err != nil {
		return nil, err
	}
	return current, nil
}

// Delete removes the document; a missing document is not an error.
func (s *FSStore[K, T]) Delete(ctx context.Context, key K) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	URL := s.documentURL(key)
	exists, err := s.fs.Exists(ctx, URL)
	if err != nil {
		return fmt.Errorf("failed to check document %v: %w", key, err)
	}
	if !exists {
		return nil
	}
	if err = s.fs.Delete(ctx, URL); err != nil {
		return fmt.Errorf("failed to delete document %v: %w", key, err)
	}
	return nil
}

// List decodes every JSON document under baseURL.
func (s *FSStore[K, T]) List(ctx context.Context, _ ...*dao.Parameter) ([]*T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	objects, err := s.fs.List(ctx, s.baseURL, option.NewRecursive(false))
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	var result []*T
	for _, object := range objects {
		if object.IsDir() || !strings.HasSuffix(object.Name(), ".json") {
			continue
		}
		data, err := s.fs.Download(ctx, object)
		if err != nil {
			return nil, fmt.Errorf("failed to read document %s: %w", object.URL(), err)
		}
		var entity T
		if err := json.Unmarshal(data, &entity); err != nil {
			return nil, fmt.Errorf("failed to decode document %s: %w", object.URL(), err)
		}
		result = append(result, &entity)
	}
	return result, nil
}

func (s *FSStore[K, T]) read(ctx context.Context, key K) (*T, error) {
	URL := s.documentURL(key)
	exists, err := s.fs.Exists(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("failed to check document %v: %w", key, err)
	}
	if !exists {
		return nil, dao.ErrNotFound
	}
	data, err := s.fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("failed to read document %v: %w", key, err)
	}
	var entity T
	if err := json.Unmarshal(data, &entity); err != nil {
		return nil, fmt.Errorf("failed to decode document %v: %w", key, err)
	}
	return &entity, nil
}

func (s *FSStore[K, T]) write(ctx context.Context, key K, t *T) error {
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("failed to encode document %v: %w", key, err)
	}
	URL := s.documentURL(key)
	if err = s.fs.Upload(ctx, URL, file.DefaultFileOsMode, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write document %s: %w", URL, err)
	}
	return nil
}

func (s *FSStore[K, T]) documentURL(key K) string {
	return url.Join(s.baseURL, neturl.PathEscape(fmt.Sprint(key))+".json")
}

var _ dao.Conditional[string, struct{}] = (*FSStore[string, struct{}])(nil)
