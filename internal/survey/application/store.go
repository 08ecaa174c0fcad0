package application

import (
	"context"
	"errors"
	"strings"
)

// Collection names a logical record set inside a RecordStore.
type Collection string

const (
	CollectionSurveys             Collection = "surveys"
	CollectionResponses           Collection = "responses"
	CollectionFailedNotifications Collection = "failed_notifications"
)

// Record is a schemaless document. Values are plain Go values:
// string, bool, float64/int, []any, map[string]any and nil.
type Record map[string]any

// FieldID is the primary key every record carries.
const FieldID = "id"

var (
	// ErrRecordNotFound is returned when no record matches.
	ErrRecordNotFound = errors.New("record not found")
	// ErrRecordConflict is returned on duplicate keys and on guarded updates whose guard no longer holds.
	ErrRecordConflict = errors.New("record conflict")
)

// RecordStore is the persistence port the survey core depends on.
// Implementations must apply Update atomically: the guard check and every field
// in the write become visible together or not at all.
type RecordStore interface {
	// FindOne returns the first record matching where, or ErrRecordNotFound.
	FindOne(ctx context.Context, coll Collection, where Predicate) (Record, error)
	// FindMany returns every match. A nil where matches everything. A nil order keeps insertion order.
	FindMany(ctx context.Context, coll Collection, where Predicate, order *OrderBy) ([]Record, error)
	// Insert stores rec, assigning an id when rec has none, and returns the stored record.
	Insert(ctx context.Context, coll Collection, rec Record) (Record, error)
	// Update merges fields into the record with the given id if guard (optional) matches it.
	Update(ctx context.Context, coll Collection, id string, guard Predicate, fields Record) (Record, error)
}

// Predicate is a closed set of filter shapes. Backends translate each shape
// into their own query language.
type Predicate interface {
	predicate()
}

// Eq matches records whose Field equals Value exactly.
type Eq struct {
	Field string
	Value any
}

// EqFold matches records whose string Field equals Value under ASCII case folding.
type EqFold struct {
	Field string
	Value string
}

// Or matches when either side matches.
type Or struct {
	Left, Right Predicate
}

// And matches when both sides match.
type And struct {
	Left, Right Predicate
}

func (Eq) predicate()     {}
func (EqFold) predicate() {}
func (Or) predicate()     {}
func (And) predicate()    {}

// OrderBy sorts FindMany results on one field.
type OrderBy struct {
	Field string
	Desc  bool
}

// Match evaluates pred against rec. It is the reference every backend agrees with.
func Match(pred Predicate, rec Record) bool {
	switch p := pred.(type) {
	case nil:
		return true
	case Eq:
		return EqualValues(rec[p.Field], p.Value)
	case EqFold:
		s, ok := rec[p.Field].(string)
		return ok && FoldASCII(s) == FoldASCII(p.Value)
	case Or:
		return Match(p.Left, rec) || Match(p.Right, rec)
	case And:
		return Match(p.Left, rec) && Match(p.Right, rec)
	default:
		return false
	}
}

// EqualValues compares two record values, treating every numeric kind as float64.
func EqualValues(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if fa, ok := numeric(a); ok {
		fb, ok := numeric(b)
		return ok && fa == fb
	}
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	}
	return false
}

// CompareValues orders two record values. Nil sorts first, then numbers, then strings.
func CompareValues(a, b any) int {
	ra, rb := rank(a), rank(b)
	if ra != rb {
		return ra - rb
	}
	switch ra {
	case 1:
		fa, _ := numeric(a)
		fb, _ := numeric(b)
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		}
		return 0
	case 2:
		return strings.Compare(a.(string), b.(string))
	}
	return 0
}

func rank(v any) int {
	if v == nil {
		return 0
	}
	if _, ok := numeric(v); ok {
		return 1
	}
	if _, ok := v.(string); ok {
		return 2
	}
	return 3
}

func numeric(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

// FoldASCII lowercases A-Z only. Non-ASCII bytes are left alone so that every
// backend folds the same way (SQLite lower() has the same behaviour).
func FoldASCII(s string) string {
	b := []byte(s)
	changed := false
	for i, c := range b {
		if 'A' <= c && c <= 'Z' {
			b[i] = c + ('a' - 'A')
			changed = true
		}
	}
	if !changed {
		return s
	}
	return string(b)
}
