package dao

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ruslano69/dbcore/pkg/database"
	"github.com/ruslano69/dbcore/pkg/recordset"
)

// SelectSupport - выборки произвольным SQL через ConnectionManager
// Закрывает созданные statement, но никогда не освобождает сам менеджер
type SelectSupport struct {
	m   *database.ConnectionManager
	log zerolog.Logger
}

// NewSelectSupport создает SelectSupport поверх менеджера
func NewSelectSupport(m *database.ConnectionManager) *SelectSupport {
	return &SelectSupport{m: m, log: log.Logger}
}

// Manager возвращает ConnectionManager
func (s *SelectSupport) Manager() *database.ConnectionManager {
	return s.m
}

// Select выполняет запрос и возвращает все строки
func (s *SelectSupport) Select(ctx context.Context, query string, binds ...any) (*recordset.RecordSet, error) {
	return s.SelectPage(ctx, query, 0, 0, binds...)
}

// SelectPage выполняет запрос и возвращает страницу page размера size (1-based)
// С параметрами используется PreparedStatement, без них - PlainStatement
func (s *SelectSupport) SelectPage(ctx context.Context, query string, page, size int, binds ...any) (*recordset.RecordSet, error) {
	if s.m == nil {
		return nil, ErrNoConnection
	}

	if len(binds) == 0 {
		st, err := s.m.CreateStatement()
		if err != nil {
			return nil, err
		}
		defer st.Close()
		return st.ExecuteQueryPage(ctx, query, page, size)
	}

	st, err := s.m.CreatePreparedStatement(query)
	if err != nil {
		return nil, err
	}
	defer st.Close()

	st.Set(binds...)
	return st.ExecuteQueryPage(ctx, page, size)
}
