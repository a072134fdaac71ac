package facts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strconv"

	"github.com/liamcoop/linkrules/rules"
)

// Dialect selects the placeholder style of the underlying driver
type Dialect int

const (
	// Postgres uses $1, $2 ... placeholders (lib/pq)
	Postgres Dialect = iota
	// SQLite uses ? placeholders
	SQLite
)

var dollarPlaceholder = regexp.MustCompile(`\$\d+`)

// SQLStore keeps facts in the facts table, keyed by subject and fact name.
// A subject is whatever the facts describe, typically a page URL.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
}

// NewSQLStore creates a store on an open database. The facts table must exist
// (see migrations/).
func NewSQLStore(db *sql.DB, dialect Dialect) *SQLStore {
	return &SQLStore{db: db, dialect: dialect}
}

func (s *SQLStore) query(q string) string {
	if s.dialect == SQLite {
		return dollarPlaceholder.ReplaceAllString(q, "?")
	}
	return q
}

// Put inserts or replaces a fact value
func (s *SQLStore) Put(ctx context.Context, subject, name string, value any) error {
	kind, text, err := encodeValue(value)
	if err != nil {
		return fmt.Errorf("fact %s: %w", name, err)
	}

	_, err = s.db.ExecContext(ctx, s.query(`
		INSERT INTO facts (subject, name, kind, value, updated_at)
		VALUES ($1, $2, $3, $4, CURRENT_TIMESTAMP)
		ON CONFLICT (subject, name)
		DO UPDATE SET kind = excluded.kind, value = excluded.value, updated_at = CURRENT_TIMESTAMP
	`), subject, name, kind, text)
	if err != nil {
		return fmt.Errorf("failed to store fact %s: %w", name, err)
	}

	return nil
}

// Delete removes a fact
func (s *SQLStore) Delete(ctx context.Context, subject, name string) error {
	result, err := s.db.ExecContext(ctx, s.query(`
		DELETE FROM facts
		WHERE subject = $1 AND name = $2
	`), subject, name)
	if err != nil {
		return fmt.Errorf("failed to delete fact: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return notFound(name)
	}

	return nil
}

// Subject returns a FactSource reading facts of one subject.
// ctx bounds every lookup made through the returned source.
func (s *SQLStore) Subject(ctx context.Context, subject string) *SQLSource {
	return &SQLSource{ctx: ctx, store: s, subject: subject}
}

// SQLSource is a FactSource bound to one subject for one evaluation cycle.
// Each Lookup is a query, so facts no condition reads are never fetched.
type SQLSource struct {
	ctx     context.Context
	store   *SQLStore
	subject string
}

// Lookup reads a single fact
func (src *SQLSource) Lookup(name string) (any, error) {
	var kind, text string
	err := src.store.db.QueryRowContext(src.ctx, src.store.query(`
		SELECT kind, value
		FROM facts
		WHERE subject = $1 AND name = $2
	`), src.subject, name).Scan(&kind, &text)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(name)
	}
	if err != nil {
		return nil, &rules.FactLookupError{Fact: name, Err: err}
	}

	v, err := decodeValue(kind, text)
	if err != nil {
		return nil, &rules.FactLookupError{Fact: name, Err: err}
	}
	return v, nil
}

func encodeValue(value any) (kind, text string, err error) {
	v, err := Normalize(value)
	if err != nil {
		return "", "", err
	}

	switch x := v.(type) {
	case string:
		return "string", x, nil
	case int64:
		return "int", strconv.FormatInt(x, 10), nil
	case bool:
		return "bool", strconv.FormatBool(x), nil
	case float64:
		return "double", strconv.FormatFloat(x, 'g', -1, 64), nil
	}
	return "", "", fmt.Errorf("unsupported fact value type %T", v)
}

func decodeValue(kind, text string) (any, error) {
	switch kind {
	case "string":
		return text, nil
	case "int":
		return strconv.ParseInt(text, 10, 64)
	case "bool":
		return strconv.ParseBool(text)
	case "double":
		return strconv.ParseFloat(text, 64)
	default:
		return nil, fmt.Errorf("unknown fact kind %q", kind)
	}
}
