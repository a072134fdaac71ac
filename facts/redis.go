package facts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/liamcoop/linkrules/rules"
)

const redisKeyPrefix = "facts:"

// RedisStore keeps each subject's facts in a hash "facts:<subject>" whose
// fields are fact names and whose values are JSON.
type RedisStore struct {
	client redis.UniversalClient
}

// NewRedisStore wraps a connected client
func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client}
}

func redisKey(subject string) string {
	return redisKeyPrefix + subject
}

// Put stores one fact value
func (s *RedisStore) Put(ctx context.Context, subject, name string, value any) error {
	v, err := Normalize(value)
	if err != nil {
		return fmt.Errorf("fact %s: %w", name, err)
	}

	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("fact %s: %w", name, err)
	}

	if err := s.client.HSet(ctx, redisKey(subject), name, data).Err(); err != nil {
		return fmt.Errorf("failed to store fact %s: %w", name, err)
	}
	return nil
}

// Subject returns a FactSource reading facts of one subject
func (s *RedisStore) Subject(ctx context.Context, subject string) *RedisSource {
	return &RedisSource{ctx: ctx, store: s, subject: subject}
}

// RedisSource is a FactSource bound to one subject for one evaluation cycle
type RedisSource struct {
	ctx     context.Context
	store   *RedisStore
	subject string
}

// Lookup reads and decodes one hash field
func (src *RedisSource) Lookup(name string) (any, error) {
	raw, err := src.store.client.HGet(src.ctx, redisKey(src.subject), name).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, notFound(name)
	}
	if err != nil {
		return nil, &rules.FactLookupError{Fact: name, Err: err}
	}

	v, err := decodeJSONValue(raw)
	if err != nil {
		return nil, &rules.FactLookupError{Fact: name, Err: err}
	}
	return v, nil
}

// decodeJSONValue keeps integers as int64 instead of float64
func decodeJSONValue(raw []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("decode fact value: %w", err)
	}

	switch x := v.(type) {
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i, nil
		}
		return x.Float64()
	case string, bool:
		return x, nil
	default:
		return nil, fmt.Errorf("unsupported fact value %s", raw)
	}
}
