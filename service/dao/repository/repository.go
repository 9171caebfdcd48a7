// Package repository assembles the typed stores used by the moderation
// pipeline for the configured storage vendor.
package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/url"

	"github.com/viant/moderation/model"
	"github.com/viant/moderation/service/dao"
	"github.com/viant/moderation/service/dao/store"
	"github.com/viant/moderation/service/dao/store/postgres"
)

// Storage vendors.
const (
	VendorMemory   = "memory"
	VendorFS       = "fs"
	VendorPostgres = "postgres"
)

// Config selects and locates the backing store.
type Config struct {
	Vendor string `yaml:"vendor" json:"vendor"`
	// BaseURL is the afs location of the fs vendor, e.g. file:///var/lib/moderation or s3://bucket/moderation.
	BaseURL string `yaml:"baseURL,omitempty" json:"baseURL,omitempty"`
	// DSN is the postgres connection string.
	DSN         string `yaml:"dsn,omitempty" json:"dsn,omitempty"`
	TablePrefix string `yaml:"tablePrefix,omitempty" json:"tablePrefix,omitempty"`
}

// DefaultConfig keeps everything in memory.
func DefaultConfig() Config {
	return Config{Vendor: VendorMemory, TablePrefix: "moderation_"}
}

// Validate checks the vendor specific settings.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Vendor) {
	case "", VendorMemory:
	case VendorFS:
		if c.BaseURL == "" {
			return fmt.Errorf("store.baseURL is required for vendor %q", VendorFS)
		}
	case VendorPostgres:
		if c.DSN == "" {
			return fmt.Errorf("store.dsn is required for vendor %q", VendorPostgres)
		}
	default:
		return fmt.Errorf("unsupported store vendor %q", c.Vendor)
	}
	return nil
}

// Repository groups the entity stores.
type Repository struct {
	Challenges  dao.Conditional[string, model.Challenge]
	Cooldowns   dao.Conditional[string, model.Cooldown]
	Items       dao.Conditional[string, model.Item]
	Contents    dao.Conditional[string, model.Content]
	Updates     dao.Conditional[string, model.Update]
	Subscribers dao.Conditional[string, model.Subscriber]

	close func()
}

// Close releases vendor resources.
func (r *Repository) Close() {
	if r != nil && r.close != nil {
		r.close()
	}
}

func challengeKey(c *model.Challenge) string   { return c.ID }
func cooldownKey(c *model.Cooldown) string     { return c.Email }
func itemKey(i *model.Item) string             { return i.ID }
func contentKey(c *model.Content) string       { return c.ID }
func updateKey(u *model.Update) string         { return u.ID }
func subscriberKey(s *model.Subscriber) string { return s.Email }

// Memory returns process-local stores.
func Memory() *Repository {
	return &Repository{
		Challenges:  store.NewMemoryStore[string, model.Challenge](challengeKey),
		Cooldowns:   store.NewMemoryStore[string, model.Cooldown](cooldownKey),
		Items:       store.NewMemoryStore[string, model.Item](itemKey),
		Contents:    store.NewMemoryStore[string, model.Content](contentKey),
		Updates:     store.NewMemoryStore[string, model.Update](updateKey),
		Subscribers: store.NewMemoryStore[string, model.Subscriber](subscriberKey),
	}
}

// New opens the stores described by config.
func New(ctx context.Context, config Config, fs afs.Service) (*Repository, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	switch strings.ToLower(config.Vendor) {
	case VendorFS:
		return newFS(ctx, config, fs)
	case VendorPostgres:
		return newPostgres(ctx, config)
	}
	return Memory(), nil
}

func newFS(ctx context.Context, config Config, fs afs.Service) (*Repository, error) {
	if fs == nil {
		fs = afs.New()
	}
	baseURL := config.BaseURL
	if !strings.Contains(baseURL, "://") {
		baseURL = url.Normalize(baseURL, file.Scheme)
	}
	var err error
	repo := &Repository{}
	location := func(name string) string { return url.Join(baseURL, name) }
	if repo.Challenges, err = store.NewFSStore[string, model.Challenge](ctx, fs, location("challenges"), challengeKey); err != nil {
		return nil, err
	}
	if repo.Cooldowns, err = store.NewFSStore[string, model.Cooldown](ctx, fs, location("cooldowns"), cooldownKey); err != nil {
		return nil, err
	}
	if repo.Items, err = store.NewFSStore[string, model.Item](ctx, fs, location("items"), itemKey); err != nil {
		return nil, err
	}
	if repo.Contents, err = store.NewFSStore[string, model.Content](ctx, fs, location("contents"), contentKey); err != nil {
		return nil, err
	}
	if repo.Updates, err = store.NewFSStore[string, model.Update](ctx, fs, location("updates"), updateKey); err != nil {
		return nil, err
	}
	if repo.Subscribers, err = store.NewFSStore[string, model.Subscriber](ctx, fs, location("subscribers"), subscriberKey); err != nil {
		return nil, err
	}
	return repo, nil
}

type migrator interface {
	Migrate(ctx context.Context) error
}

func newPostgres(ctx context.Context, config Config) (*Repository, error) {
	pool, err := pgxpool.New(ctx, config.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	repo, err := postgresRepository(pool, config.TablePrefix)
	if err == nil {
		err = repo.migrate(ctx)
	}
	if err != nil {
		pool.Close()
		return nil, err
	}
	repo.close = pool.Close
	return repo, nil
}

func postgresRepository(pool *pgxpool.Pool, prefix string) (*Repository, error) {
	var err error
	repo := &Repository{}
	if repo.Challenges, err = postgres.New[model.Challenge](pool, prefix+"challenges", challengeKey); err != nil {
		return nil, err
	}
	if repo.Cooldowns, err = postgres.New[model.Cooldown](pool, prefix+"cooldowns", cooldownKey); err != nil {
		return nil, err
	}
	if repo.Items, err = postgres.New[model.Item](pool, prefix+"items", itemKey); err != nil {
		return nil, err
	}
	if repo.Contents, err = postgres.New[model.Content](pool, prefix+"contents", contentKey); err != nil {
		return nil, err
	}
	if repo.Updates, err = postgres.New[model.Update](pool, prefix+"updates", updateKey); err != nil {
		return nil, err
	}
	if repo.Subscribers, err = postgres.New[model.Subscriber](pool, prefix+"subscribers", subscriberKey); err != nil {
		return nil, err
	}
	return repo, nil
}

func (r *Repository) migrate(ctx context.Context) error {
	stores := []interface{}{r.Challenges, r.Cooldowns, r.Items, r.Contents, r.Updates, r.Subscribers}
	for _, s := range stores {
		if m, ok := s.(migrator); ok {
			if err := m.Migrate(ctx); err != nil {
				return err
			}
		}
	}
	return nil
}
