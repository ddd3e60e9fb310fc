// Package pgxtest holds hand-written pgx fakes for repository and store tests.
package pgxtest

import (
	"context"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"wellness/internal/infra"
)

// Row is a pgx.Row backed by a scan function. A nil function yields pgx.ErrNoRows.
type Row struct {
	scan func(dest ...any) error
}

func NewRow(scanner func(dest ...any) error) Row {
	return Row{scan: scanner}
}

func (r Row) Scan(dest ...any) error {
	if r.scan == nil {
		return pgx.ErrNoRows
	}
	return r.scan(dest...)
}

// ErrRow returns a row whose Scan fails with err.
func ErrRow(err error) Row {
	return Row{scan: func(...any) error { return err }}
}

// Rows is a pgx.Rows over a fixed list of scan functions.
type Rows struct {
	scans []func(dest ...any) error
	idx   int
	err   error
	// Closed reports whether Close was called.
	Closed bool
}

func NewRows(scans ...func(dest ...any) error) *Rows {
	return &Rows{scans: scans, idx: -1}
}

// WithErr sets the error reported by Err after iteration.
func (r *Rows) WithErr(err error) *Rows {
	r.err = err
	return r
}

func (r *Rows) Close() { r.Closed = true }

func (r *Rows) Err() error { return r.err }

func (r *Rows) Next() bool {
	if r.idx+1 >= len(r.scans) {
		return false
	}
	r.idx++
	return true
}

func (r *Rows) Scan(dest ...any) error {
	if r.idx < 0 || r.idx >= len(r.scans) {
		return fmt.Errorf("scan called without row")
	}
	return r.scans[r.idx](dest...)
}

func (r *Rows) CommandTag() pgconn.CommandTag { return pgconn.CommandTag{} }

func (r *Rows) Conn() *pgx.Conn { return nil }

func (r *Rows) FieldDescriptions() []pgconn.FieldDescription { return nil }

func (r *Rows) Values() ([]any, error) {
	return nil, fmt.Errorf("values not supported in test rows")
}

func (r *Rows) RawValues() [][]byte { return nil }

// Call records one statement sent to an Executor.
type Call struct {
	Query string
	Args  []any
}

// Executor is an infra.SQLExecutor whose behaviour is set per test. Queries
// are checked for a valid marker the same way SQLRunner does.
type Executor struct {
	mu    sync.Mutex
	Calls []Call

	ExecFn     func(query string, args ...any) (pgconn.CommandTag, error)
	QueryRowFn func(query string, args ...any) pgx.Row
	QueryFn    func(query string, args ...any) (pgx.Rows, error)
}

func (e *Executor) record(query string, args []any) error {
	e.mu.Lock()
	e.Calls = append(e.Calls, Call{Query: query, Args: args})
	e.mu.Unlock()
	_, _, err := infra.ExtractMarker(query)
	return err
}

func (e *Executor) Exec(_ context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	if err := e.record(query, args); err != nil {
		return pgconn.CommandTag{}, err
	}
	if e.ExecFn == nil {
		return pgconn.NewCommandTag("OK 1"), nil
	}
	return e.ExecFn(query, args...)
}

func (e *Executor) QueryRow(_ context.Context, query string, args ...any) pgx.Row {
	if err := e.record(query, args); err != nil {
		return ErrRow(err)
	}
	if e.QueryRowFn == nil {
		return Row{}
	}
	return e.QueryRowFn(query, args...)
}

func (e *Executor) Query(_ context.Context, query string, args ...any) (pgx.Rows, error) {
	if err := e.record(query, args); err != nil {
		return nil, err
	}
	if e.QueryFn == nil {
		return NewRows(), nil
	}
	return e.QueryFn(query, args...)
}

// Last returns the most recent call.
func (e *Executor) Last() Call {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.Calls) == 0 {
		return Call{}
	}
	return e.Calls[len(e.Calls)-1]
}

var _ infra.SQLExecutor = (*Executor)(nil)
