// Package sqlite stores records as JSON documents in a single SQLite table.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
	"github.com/sngm3741/chat-survey/api/internal/survey/application"
)

// Store implements application.RecordStore on database/sql.
type Store struct {
	db *sql.DB
}

// Open connects to the database file at path. Transactions take the write
// lock up front so guarded updates never interleave.
func Open(path string) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?_txlock=immediate&_busy_timeout=5000&_journal_mode=WAL", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	return db, nil
}

func New(db *sql.DB) (*Store, error) {
	if db == nil {
		return nil, errors.New("nil db")
	}
	return &Store{db: db}, nil
}

func (s *Store) FindOne(ctx context.Context, coll application.Collection, where application.Predicate) (application.Record, error) {
	clause, args, err := compile(where)
	if err != nil {
		return nil, err
	}
	query := "SELECT body FROM records WHERE collection = ? AND " + clause + " ORDER BY seq LIMIT 1"
	var body string
	err = s.db.QueryRowContext(ctx, query, append([]any{string(coll)}, args...)...).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, application.ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite find %s: %w", coll, err)
	}
	return decode(body)
}

func (s *Store) FindMany(ctx context.Context, coll application.Collection, where application.Predicate, order *application.OrderBy) ([]application.Record, error) {
	clause, args, err := compile(where)
	if err != nil {
		return nil, err
	}
	args = append([]any{string(coll)}, args...)
	query := "SELECT body FROM records WHERE collection = ? AND " + clause
	if order != nil {
		dir := "ASC"
		if order.Desc {
			dir = "DESC"
		}
		query += " ORDER BY json_extract(body, ?) " + dir + ", seq ASC"
		args = append(args, jsonPath(order.Field))
	} else {
		query += " ORDER BY seq ASC"
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite find %s: %w", coll, err)
	}
	defer rows.Close()

	out := make([]application.Record, 0)
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("sqlite scan %s: %w", coll, err)
		}
		rec, err := decode(body)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite rows %s: %w", coll, err)
	}
	return out, nil
}

func (s *Store) Insert(ctx context.Context, coll application.Collection, rec application.Record) (application.Record, error) {
	stored := make(application.Record, len(rec)+1)
	for k, v := range rec {
		stored[k] = v
	}
	id, _ := stored[application.FieldID].(string)
	if id == "" {
		id = uuid.NewString()
		stored[application.FieldID] = id
	}
	body, err := json.Marshal(stored)
	if err != nil {
		return nil, fmt.Errorf("sqlite encode %s: %w", coll, err)
	}
	if _, err := s.db.ExecContext(ctx,
		"INSERT INTO records (collection, id, body) VALUES (?, ?, ?)",
		string(coll), id, string(body)); err != nil {
		return nil, translate(coll, id, err)
	}
	return decode(string(body))
}

func (s *Store) Update(ctx context.Context, coll application.Collection, id string, guard application.Predicate, fields application.Record) (rec application.Record, err error) {
	clause, args, err := compile(guard)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("sqlite begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var (
		body    string
		matched bool
	)
	query := "SELECT body, CASE WHEN " + clause + " THEN 1 ELSE 0 END FROM records WHERE collection = ? AND id = ?"
	err = tx.QueryRowContext(ctx, query, append(args, string(coll), id)...).Scan(&body, &matched)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s/%s", application.ErrRecordNotFound, coll, id)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite load %s/%s: %w", coll, id, err)
	}
	if !matched {
		return nil, fmt.Errorf("%w: %s/%s guard failed", application.ErrRecordConflict, coll, id)
	}

	current, err := decode(body)
	if err != nil {
		return nil, err
	}
	for k, v := range fields {
		if k == application.FieldID {
			continue
		}
		current[k] = v
	}
	next, err := json.Marshal(current)
	if err != nil {
		return nil, fmt.Errorf("sqlite encode %s: %w", coll, err)
	}
	if _, err = tx.ExecContext(ctx,
		"UPDATE records SET body = ? WHERE collection = ? AND id = ?",
		string(next), string(coll), id); err != nil {
		return nil, translate(coll, id, err)
	}
	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("sqlite commit: %w", err)
	}
	return decode(string(next))
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// compile turns a predicate into a SQL boolean expression over the body column.
// Case folding uses lower(), which folds ASCII only, matching application.FoldASCII.
func compile(pred application.Predicate) (string, []any, error) {
	switch p := pred.(type) {
	case nil:
		return "1 = 1", nil, nil
	case application.Eq:
		col, colArgs := column(p.Field)
		if p.Value == nil {
			return col + " IS NULL", colArgs, nil
		}
		v, err := sqlValue(p.Value)
		if err != nil {
			return "", nil, err
		}
		return col + " = ?", append(colArgs, v), nil
	case application.EqFold:
		col, colArgs := column(p.Field)
		return "lower(" + col + ") = lower(?)", append(colArgs, p.Value), nil
	case application.Or:
		return combine("OR", p.Left, p.Right)
	case application.And:
		return combine("AND", p.Left, p.Right)
	default:
		return "", nil, fmt.Errorf("sqlite: unsupported predicate %T", pred)
	}
}

func combine(op string, left, right application.Predicate) (string, []any, error) {
	l, la, err := compile(left)
	if err != nil {
		return "", nil, err
	}
	r, ra, err := compile(right)
	if err != nil {
		return "", nil, err
	}
	return "(" + l + " " + op + " " + r + ")", append(la, ra...), nil
}

func column(field string) (string, []any) {
	if field == application.FieldID {
		return "id", nil
	}
	return "json_extract(body, ?)", []any{jsonPath(field)}
}

func jsonPath(field string) string {
	return `$."` + strings.ReplaceAll(field, `"`, `\"`) + `"`
}

// sqlValue maps record values to what json_extract yields for them.
func sqlValue(v any) (any, error) {
	switch t := v.(type) {
	case string, int, int32, int64, float32, float64:
		return t, nil
	case bool:
		if t {
			return 1, nil
		}
		return 0, nil
	default:
		return nil, fmt.Errorf("sqlite: cannot compare against %T", v)
	}
}

func translate(coll application.Collection, id string, err error) error {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
		return fmt.Errorf("%w: %s/%s: %v", application.ErrRecordConflict, coll, id, err)
	}
	return fmt.Errorf("sqlite write %s/%s: %w", coll, id, err)
}

func decode(body string) (application.Record, error) {
	var rec application.Record
	if err := json.Unmarshal([]byte(body), &rec); err != nil {
		return nil, fmt.Errorf("sqlite decode: %w", err)
	}
	return rec, nil
}
