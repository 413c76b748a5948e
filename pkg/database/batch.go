package database

import (
	"context"

	"github.com/ruslano69/dbcore/pkg/datasource"
)

// BatchStatement - очередь SQL текстов, выполняемых одним пакетом
type BatchStatement struct {
	m      *ConnectionManager
	queue  []string
	closed bool
}

// AddBatch добавляет SQL в очередь
func (s *BatchStatement) AddBatch(query string) error {
	if s.closed {
		return ErrStatementClosed
	}
	s.queue = append(s.queue, query)
	return nil
}

// ClearBatch очищает очередь
func (s *BatchStatement) ClearBatch() {
	s.queue = nil
}

// Len возвращает размер очереди
func (s *BatchStatement) Len() int {
	return len(s.queue)
}

// ExecuteBatch выполняет очередь и возвращает количество затронутых строк по каждому элементу
// Очередь очищается в любом случае
func (s *BatchStatement) ExecuteBatch(ctx context.Context) ([]int64, error) {
	if s.closed {
		return nil, ErrStatementClosed
	}
	defer s.ClearBatch()

	items := make([]datasource.BatchItem, len(s.queue))
	for i, q := range s.queue {
		items[i] = datasource.BatchItem{SQL: q}
	}
	return s.m.batch(ctx, items, false)
}

// Close очищает очередь и закрывает statement
func (s *BatchStatement) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.queue = nil
	s.m.untrack(s)
	return nil
}

// BatchPreparedStatement - один параметризованный SQL и очередь наборов параметров
type BatchPreparedStatement struct {
	m      *ConnectionManager
	sql    string
	params []any
	queue  [][]any
	closed bool
}

// Set заменяет текущий набор параметров
func (s *BatchPreparedStatement) Set(values ...any) {
	s.params = append(s.params[:0], values...)
}

// SetAt задает параметр текущего набора по номеру (1-based)
func (s *BatchPreparedStatement) SetAt(index int, v any) error {
	params, err := setAt(s.params, index, v)
	if err != nil {
		return err
	}
	s.params = params
	return nil
}

// ClearParams сбрасывает текущий набор параметров
func (s *BatchPreparedStatement) ClearParams() {
	s.params = s.params[:0]
}

// AddBatch ставит текущий набор параметров в очередь и сбрасывает его
func (s *BatchPreparedStatement) AddBatch() error {
	if s.closed {
		return ErrStatementClosed
	}
	s.queue = append(s.queue, append([]any(nil), s.params...))
	s.params = s.params[:0]
	return nil
}

// AddBatchValues ставит набор values в очередь
func (s *BatchPreparedStatement) AddBatchValues(values ...any) error {
	if s.closed {
		return ErrStatementClosed
	}
	s.queue = append(s.queue, append([]any(nil), values...))
	return nil
}

// ClearBatch очищает очередь
func (s *BatchPreparedStatement) ClearBatch() {
	s.queue = nil
}

// Len возвращает размер очереди
func (s *BatchPreparedStatement) Len() int {
	return len(s.queue)
}

// SQL возвращает текст запроса
func (s *BatchPreparedStatement) SQL() string {
	return s.sql
}

// ExecuteBatch выполняет очередь и возвращает количество затронутых строк по каждому набору
// Очередь очищается в любом случае
func (s *BatchPreparedStatement) ExecuteBatch(ctx context.Context) ([]int64, error) {
	if s.closed {
		return nil, ErrStatementClosed
	}
	defer s.ClearBatch()

	items := make([]datasource.BatchItem, len(s.queue))
	for i, args := range s.queue {
		items[i] = datasource.BatchItem{SQL: s.sql, Args: args}
	}
	return s.m.batch(ctx, items, true)
}

// QueryString возвращает SQL с подставленным текущим набором параметров
func (s *BatchPreparedStatement) QueryString() string {
	return BuildQueryString(s.sql, s.params)
}

// Close очищает очередь и закрывает statement
func (s *BatchPreparedStatement) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.queue = nil
	s.params = nil
	s.m.untrack(s)
	return nil
}
