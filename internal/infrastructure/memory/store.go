// Package memory is an in-process RecordStore used by tests and STORE_DRIVER=memory.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/sngm3741/chat-survey/api/internal/survey/application"
)

type uniqueKey struct {
	coll  application.Collection
	field string
}

// Store keeps records per collection in insertion order. Records are deep-copied
// on the way in and out so callers never share state with the store.
type Store struct {
	mu      sync.RWMutex
	records map[application.Collection][]application.Record
	unique  []uniqueKey
}

// Option customises a Store.
type Option func(*Store)

// WithUniqueFold rejects inserts whose field equals an existing value under ASCII case folding.
func WithUniqueFold(coll application.Collection, field string) Option {
	return func(s *Store) { s.unique = append(s.unique, uniqueKey{coll: coll, field: field}) }
}

// New returns an empty store. The surveys short-code constraint is always on.
func New(opts ...Option) *Store {
	s := &Store{records: make(map[application.Collection][]application.Record)}
	WithUniqueFold(application.CollectionSurveys, application.FieldShortCode)(s)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) FindOne(ctx context.Context, coll application.Collection, where application.Predicate) (application.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, rec := range s.records[coll] {
		if application.Match(where, rec) {
			return cloneRecord(rec), nil
		}
	}
	return nil, application.ErrRecordNotFound
}

func (s *Store) FindMany(ctx context.Context, coll application.Collection, where application.Predicate, order *application.OrderBy) ([]application.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	out := make([]application.Record, 0)
	for _, rec := range s.records[coll] {
		if application.Match(where, rec) {
			out = append(out, cloneRecord(rec))
		}
	}
	s.mu.RUnlock()

	if order != nil {
		sort.SliceStable(out, func(i, j int) bool {
			c := application.CompareValues(out[i][order.Field], out[j][order.Field])
			if order.Desc {
				return c > 0
			}
			return c < 0
		})
	}
	return out, nil
}

func (s *Store) Insert(ctx context.Context, coll application.Collection, rec application.Record) (application.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	stored := cloneRecord(rec)
	if id, _ := stored[application.FieldID].(string); id == "" {
		stored[application.FieldID] = uuid.NewString()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	id := stored[application.FieldID].(string)
	for _, existing := range s.records[coll] {
		if existing[application.FieldID] == id {
			return nil, fmt.Errorf("%w: %s/%s already exists", application.ErrRecordConflict, coll, id)
		}
		if err := s.checkUnique(coll, existing, stored); err != nil {
			return nil, err
		}
	}
	s.records[coll] = append(s.records[coll], stored)
	return cloneRecord(stored), nil
}

func (s *Store) Update(ctx context.Context, coll application.Collection, id string, guard application.Predicate, fields application.Record) (application.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	recs := s.records[coll]
	for i, rec := range recs {
		if rec[application.FieldID] != id {
			continue
		}
		if !application.Match(guard, rec) {
			return nil, fmt.Errorf("%w: %s/%s guard failed", application.ErrRecordConflict, coll, id)
		}
		next := cloneRecord(rec)
		for k, v := range fields {
			if k == application.FieldID {
				continue
			}
			next[k] = cloneValue(v)
		}
		for j, other := range recs {
			if j == i {
				continue
			}
			if err := s.checkUnique(coll, other, next); err != nil {
				return nil, err
			}
		}
		recs[i] = next
		return cloneRecord(next), nil
	}
	return nil, fmt.Errorf("%w: %s/%s", application.ErrRecordNotFound, coll, id)
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error {
	return nil
}

func (s *Store) checkUnique(coll application.Collection, existing, candidate application.Record) error {
	for _, key := range s.unique {
		if key.coll != coll {
			continue
		}
		v, ok := candidate[key.field].(string)
		if !ok || v == "" {
			continue
		}
		if application.Match(application.EqFold{Field: key.field, Value: v}, existing) {
			return fmt.Errorf("%w: %s.%s %q already taken", application.ErrRecordConflict, coll, key.field, v)
		}
	}
	return nil
}

func cloneRecord(rec application.Record) application.Record {
	out := make(application.Record, len(rec))
	for k, v := range rec {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, item := range t {
			out[k] = cloneValue(item)
		}
		return out
	case application.Record:
		return map[string]any(cloneRecord(t))
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = cloneValue(item)
		}
		return out
	case []string:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = item
		}
		return out
	default:
		return v
	}
}
