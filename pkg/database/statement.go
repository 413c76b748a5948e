package database

import (
	"context"
	"database/sql"

	"github.com/ruslano69/dbcore/pkg/recordset"
)

// Statement - общий контракт всех statement: закрытие
// Close идемпотентен; после Close statement непригоден
type Statement interface {
	Close() error
}

// Compile-time checks
var (
	_ Statement = (*PlainStatement)(nil)
	_ Statement = (*PreparedStatement)(nil)
	_ Statement = (*BatchStatement)(nil)
	_ Statement = (*BatchPreparedStatement)(nil)
)

// stmtCache - лениво подготовленный *sql.Stmt
// Подготавливается заново, если транзакция сменилась (gen)
type stmtCache struct {
	stmt *sql.Stmt
	gen  uint64
}

func (c *stmtCache) get(ctx context.Context, ex executor, gen uint64, query string) (*sql.Stmt, error) {
	if c.stmt != nil && c.gen == gen {
		return c.stmt, nil
	}
	_ = c.reset()

	stmt, err := ex.PrepareContext(ctx, query)
	if err != nil {
		return nil, err
	}
	c.stmt, c.gen = stmt, gen
	return stmt, nil
}

func (c *stmtCache) reset() error {
	if c.stmt == nil {
		return nil
	}
	err := c.stmt.Close()
	c.stmt = nil
	return err
}

// PlainStatement - statement без параметров, SQL передается при каждом выполнении
type PlainStatement struct {
	m      *ConnectionManager
	last   string
	closed bool
}

// ExecuteQuery выполняет запрос и возвращает все строки
func (s *PlainStatement) ExecuteQuery(ctx context.Context, query string) (*recordset.RecordSet, error) {
	return s.ExecuteQueryPage(ctx, query, 0, 0)
}

// ExecuteQueryPage выполняет запрос и возвращает страницу page размера size (1-based)
func (s *PlainStatement) ExecuteQueryPage(ctx context.Context, query string, page, size int) (*recordset.RecordSet, error) {
	if s.closed {
		return nil, ErrStatementClosed
	}
	s.last = query
	return s.m.query(ctx, query, nil, nil, page, size)
}

// ExecuteUpdate выполняет изменяющий запрос
func (s *PlainStatement) ExecuteUpdate(ctx context.Context, query string) (int64, error) {
	if s.closed {
		return 0, ErrStatementClosed
	}
	s.last = query
	return s.m.update(ctx, query, nil, nil)
}

// QueryString возвращает последний выполненный SQL
func (s *PlainStatement) QueryString() string {
	return s.last
}

// Close закрывает statement
func (s *PlainStatement) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.m.untrack(s)
	return nil
}
