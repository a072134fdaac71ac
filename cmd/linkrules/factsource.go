package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/liamcoop/linkrules/facts"
	"github.com/liamcoop/linkrules/rules"
)

const (
	factsReference = "reference"
	factsPostgres  = "postgres"
	factsRedis     = "redis"
)

type factOptions struct {
	kind        string
	databaseURL string
	redisAddr   string
	cache       bool
}

// factBackend hands out a FactSource per subject, e.g. a page URL
type factBackend struct {
	kind    string
	subject func(ctx context.Context, subject string) rules.FactSource
	ping    func(ctx context.Context) error
	close   func() error
}

func openFacts(ctx context.Context, opts factOptions) (*factBackend, error) {
	switch opts.kind {
	case factsReference:
		return &factBackend{
			kind:    factsReference,
			subject: func(context.Context, string) rules.FactSource { return facts.Reference() },
			ping:    func(context.Context) error { return nil },
			close:   func() error { return nil },
		}, nil

	case factsPostgres:
		if opts.databaseURL == "" {
			return nil, errors.New("--database-url or DATABASE_URL is required for postgres facts")
		}
		db, err := sql.Open("postgres", opts.databaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to ping database: %w", err)
		}
		store := facts.NewSQLStore(db, facts.Postgres)
		return &factBackend{
			kind: factsPostgres,
			subject: func(ctx context.Context, subject string) rules.FactSource {
				return cached(store.Subject(ctx, subject), opts.cache)
			},
			ping:  db.PingContext,
			close: db.Close,
		}, nil

	case factsRedis:
		client := redis.NewClient(&redis.Options{Addr: opts.redisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to ping redis: %w", err)
		}
		store := facts.NewRedisStore(client)
		return &factBackend{
			kind: factsRedis,
			subject: func(ctx context.Context, subject string) rules.FactSource {
				return cached(store.Subject(ctx, subject), opts.cache)
			},
			ping:  func(ctx context.Context) error { return client.Ping(ctx).Err() },
			close: client.Close,
		}, nil

	default:
		return nil, fmt.Errorf("unknown fact source %q (use: %s, %s, %s)", opts.kind, factsReference, factsPostgres, factsRedis)
	}
}

// requiresSubject reports whether facts are keyed by subject
func (b *factBackend) requiresSubject() bool {
	return b.kind != factsReference
}

// source returns the facts for subject
func (b *factBackend) source(ctx context.Context, subject string) (rules.FactSource, error) {
	if subject == "" && b.requiresSubject() {
		return nil, fmt.Errorf("a subject is required for %s facts", b.kind)
	}
	return b.subject(ctx, subject), nil
}

func cached(src rules.FactSource, enabled bool) rules.FactSource {
	if !enabled {
		return src
	}
	return facts.Cached(src, facts.DefaultCacheConfig())
}
