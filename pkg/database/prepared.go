package database

import (
	"context"
	"fmt"

	"github.com/ruslano69/dbcore/pkg/recordset"
)

// PreparedStatement - statement с фиксированным SQL и позиционными параметрами "?"
//
// Драйверный statement подготавливается при первом выполнении и переиспользуется
// до SetSQL, Close или завершения транзакции.
type PreparedStatement struct {
	m      *ConnectionManager
	sql    string
	params []any
	cache  stmtCache
	closed bool
}

// Set заменяет все параметры
func (s *PreparedStatement) Set(values ...any) {
	s.params = append(s.params[:0], values...)
}

// SetAt задает параметр по номеру (1-based)
func (s *PreparedStatement) SetAt(index int, v any) error {
	params, err := setAt(s.params, index, v)
	if err != nil {
		return err
	}
	s.params = params
	return nil
}

// ClearParams сбрасывает параметры
func (s *PreparedStatement) ClearParams() {
	s.params = s.params[:0]
}

// Params возвращает копию текущих параметров
func (s *PreparedStatement) Params() []any {
	return append([]any(nil), s.params...)
}

// SQL возвращает текст запроса
func (s *PreparedStatement) SQL() string {
	return s.sql
}

// SetSQL меняет текст запроса; параметры и подготовленный statement сбрасываются
func (s *PreparedStatement) SetSQL(query string) error {
	if s.closed {
		return ErrStatementClosed
	}
	s.sql = query
	s.params = s.params[:0]
	return s.cache.reset()
}

// ExecuteQuery выполняет запрос с текущими параметрами
func (s *PreparedStatement) ExecuteQuery(ctx context.Context) (*recordset.RecordSet, error) {
	return s.ExecuteQueryPage(ctx, 0, 0)
}

// ExecuteQueryPage выполняет запрос и возвращает страницу page размера size (1-based)
func (s *PreparedStatement) ExecuteQueryPage(ctx context.Context, page, size int) (*recordset.RecordSet, error) {
	if s.closed {
		return nil, ErrStatementClosed
	}
	return s.m.query(ctx, s.sql, s.params, &s.cache, page, size)
}

// ExecuteUpdate выполняет изменяющий запрос с текущими параметрами
func (s *PreparedStatement) ExecuteUpdate(ctx context.Context) (int64, error) {
	if s.closed {
		return 0, ErrStatementClosed
	}
	return s.m.update(ctx, s.sql, s.params, &s.cache)
}

// QueryString возвращает SQL с подставленными текущими параметрами
func (s *PreparedStatement) QueryString() string {
	return BuildQueryString(s.sql, s.params)
}

// Close закрывает statement и драйверный statement
func (s *PreparedStatement) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.params = nil
	s.m.untrack(s)
	return s.cache.reset()
}

// setAt записывает значение в позицию index (1-based), расширяя набор NULL-ами
func setAt(params []any, index int, v any) ([]any, error) {
	if index < 1 {
		return params, fmt.Errorf("%w: parameter index %d, must be >= 1", ErrIllegalArgument, index)
	}
	for len(params) < index {
		params = append(params, nil)
	}
	params[index-1] = v
	return params, nil
}
