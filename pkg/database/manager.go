package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ruslano69/dbcore/pkg/datasource"
	"github.com/ruslano69/dbcore/pkg/recordset"
	"github.com/ruslano69/dbcore/pkg/retry"
)

// executor - общая часть *sql.Conn и *sql.Tx
type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}

// Compile-time checks
var (
	_ executor = (*sql.Conn)(nil)
	_ executor = (*sql.Tx)(nil)
)

// ConnectionManager - владелец одного физического подключения и всех statement, созданных через него
//
// При выключенном autocommit (по умолчанию) транзакция открывается при первом выполнении
// и завершается Commit/Rollback. Release откатывает незафиксированные изменения.
// Не предназначен для одновременного использования из нескольких горутин.
type ConnectionManager struct {
	owner      string
	datasource string
	registry   *datasource.Registry
	log        zerolog.Logger
	retry      retry.Config
	fetchSize  int

	handle     *datasource.Handle
	ownsHandle bool // прямое подключение: Release закрывает пул
	conn       *sql.Conn
	tx         *sql.Tx
	txGen      uint64 // меняется при завершении транзакции и смене autocommit
	autoCommit bool

	statements []Statement
	released   bool
	connErr    error
}

// NewConnectionManager создает менеджер; owner используется только для диагностики
func NewConnectionManager(owner string, opts ...Option) *ConnectionManager {
	m := &ConnectionManager{
		owner:     owner,
		registry:  datasource.Default(),
		log:       log.Logger,
		retry:     retry.DefaultConfig(),
		fetchSize: recordset.DefaultFetchSize,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.log = m.log.With().Str("owner", owner).Str("datasource", m.datasource).Logger()
	return m
}

// Connect получает подключение из именованного источника данных
func (m *ConnectionManager) Connect(ctx context.Context) error {
	if err := m.beforeConnect(); err != nil {
		return err
	}
	if m.datasource == "" {
		return m.broken("", fmt.Errorf("%w: datasource name is empty", ErrIllegalArgument))
	}

	retryer, err := retry.NewRetryer(m.retry)
	if err != nil {
		return m.broken(m.datasource, err)
	}

	var (
		h    *datasource.Handle
		conn *sql.Conn
	)
	err = retryer.Do(ctx, func(ctx context.Context) error {
		var err error
		h, err = m.registry.Lookup(ctx, m.datasource)
		if err != nil {
			if errors.Is(err, datasource.ErrUnknownDatasource) || errors.Is(err, datasource.ErrUnknownDriver) {
				return retry.Permanent(err)
			}
			return err
		}
		conn, err = h.DB().Conn(ctx)
		return err
	})
	if err != nil {
		return m.broken(m.datasource, err)
	}

	m.handle, m.conn = h, conn
	m.log.Debug().Str("driver", h.Dialect().Name).Msg("connected")
	return nil
}

// ConnectDirect открывает приватный пул по прямым учетным данным
// Пул принадлежит менеджеру и закрывается в Release
func (m *ConnectionManager) ConnectDirect(ctx context.Context, driver, url, uid, pwd string) error {
	if err := m.beforeConnect(); err != nil {
		return err
	}
	source := driver + " " + url

	retryer, err := retry.NewRetryer(m.retry)
	if err != nil {
		return m.broken(source, err)
	}

	var (
		h    *datasource.Handle
		conn *sql.Conn
	)
	err = retryer.Do(ctx, func(ctx context.Context) error {
		var err error
		h, err = m.registry.OpenDirect(ctx, driver, url, uid, pwd)
		if err != nil {
			if errors.Is(err, datasource.ErrUnknownDriver) || errors.Is(err, datasource.ErrIllegalArgument) {
				return retry.Permanent(err)
			}
			return err
		}
		conn, err = h.DB().Conn(ctx)
		if err != nil {
			_ = h.Close()
		}
		return err
	})
	if err != nil {
		return m.broken(source, err)
	}

	m.handle, m.conn, m.ownsHandle = h, conn, true
	m.log.Debug().Str("driver", driver).Msg("connected directly")
	return nil
}

func (m *ConnectionManager) beforeConnect() error {
	if m.released {
		return ErrReleased
	}
	if m.connErr != nil {
		return m.connErr
	}
	if m.conn != nil {
		return fmt.Errorf("%w: already connected", ErrIllegalArgument)
	}
	return nil
}

// broken фиксирует фатальную ошибку подключения
func (m *ConnectionManager) broken(source string, err error) error {
	cerr := &ConnectionError{Source: source, Err: err}
	m.connErr = cerr
	m.log.Error().Err(err).Msg("failed to connect")
	return cerr
}

// usable проверяет, что менеджер подключен и не освобожден
func (m *ConnectionManager) usable() error {
	switch {
	case m.released:
		return ErrReleased
	case m.connErr != nil:
		return m.connErr
	case m.conn == nil:
		return ErrNotConnected
	}
	return nil
}

// executor возвращает подключение или текущую транзакцию, открывая ее при необходимости
func (m *ConnectionManager) executor(ctx context.Context) (executor, uint64, error) {
	if err := m.usable(); err != nil {
		return nil, 0, err
	}
	if m.autoCommit {
		return m.conn, m.txGen, nil
	}
	if m.tx == nil {
		// Отмена контекста вызова не должна откатывать всю транзакцию
		tx, err := m.conn.BeginTx(context.WithoutCancel(ctx), nil)
		if err != nil {
			m.log.Error().Err(err).Msg("failed to begin transaction")
			return nil, 0, fmt.Errorf("failed to begin transaction: %w", err)
		}
		m.tx = tx
	}
	return m.tx, m.txGen, nil
}

// ========== Statements ==========

// CreateStatement создает statement для SQL, передаваемого при каждом выполнении
func (m *ConnectionManager) CreateStatement() (*PlainStatement, error) {
	if err := m.usable(); err != nil {
		return nil, err
	}
	s := &PlainStatement{m: m}
	m.track(s)
	return s, nil
}

// CreatePreparedStatement создает statement с фиксированным SQL и позиционными параметрами "?"
func (m *ConnectionManager) CreatePreparedStatement(query string) (*PreparedStatement, error) {
	if err := m.usable(); err != nil {
		return nil, err
	}
	s := &PreparedStatement{m: m, sql: query}
	m.track(s)
	return s, nil
}

// CreateBatchStatement создает statement с очередью SQL текстов
func (m *ConnectionManager) CreateBatchStatement() (*BatchStatement, error) {
	if err := m.usable(); err != nil {
		return nil, err
	}
	s := &BatchStatement{m: m}
	m.track(s)
	return s, nil
}

// CreateBatchPreparedStatement создает statement с одним SQL и очередью наборов параметров
func (m *ConnectionManager) CreateBatchPreparedStatement(query string) (*BatchPreparedStatement, error) {
	if err := m.usable(); err != nil {
		return nil, err
	}
	s := &BatchPreparedStatement{m: m, sql: query}
	m.track(s)
	return s, nil
}

func (m *ConnectionManager) track(s Statement) {
	m.statements = append(m.statements, s)
}

func (m *ConnectionManager) untrack(s Statement) {
	for i, st := range m.statements {
		if st == s {
			m.statements = append(m.statements[:i], m.statements[i+1:]...)
			return
		}
	}
}

// StatementCount возвращает количество открытых statement
func (m *ConnectionManager) StatementCount() int {
	return len(m.statements)
}

// ========== Транзакции ==========

// Commit фиксирует текущую транзакцию; без открытой транзакции ничего не делает
func (m *ConnectionManager) Commit() error {
	if err := m.usable(); err != nil {
		return err
	}
	if m.tx == nil {
		return nil
	}

	tx := m.tx
	m.tx = nil
	m.txGen++
	if err := tx.Commit(); err != nil {
		m.log.Error().Err(err).Msg("commit failed")
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Rollback откатывает текущую транзакцию; без открытой транзакции ничего не делает
func (m *ConnectionManager) Rollback() error {
	if err := m.usable(); err != nil {
		return err
	}
	if m.tx == nil {
		return nil
	}

	tx := m.tx
	m.tx = nil
	m.txGen++
	if err := tx.Rollback(); err != nil {
		m.log.Error().Err(err).Msg("rollback failed")
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}
	return nil
}

// SetAutoCommit переключает режим autocommit
// Включение фиксирует открытую транзакцию
func (m *ConnectionManager) SetAutoCommit(on bool) error {
	if err := m.usable(); err != nil {
		return err
	}
	if on == m.autoCommit {
		return nil
	}

	if on {
		if err := m.Commit(); err != nil {
			return err
		}
	}
	m.autoCommit = on
	m.txGen++
	return nil
}

// AutoCommit возвращает текущий режим autocommit
func (m *ConnectionManager) AutoCommit() bool {
	return m.autoCommit
}

// ========== Информация ==========

// Owner возвращает владельца менеджера
func (m *ConnectionManager) Owner() string {
	return m.owner
}

// Datasource возвращает имя источника данных ("" для прямого подключения)
func (m *ConnectionManager) Datasource() string {
	return m.datasource
}

// DriverName возвращает тип СУБД подключения ("" до Connect)
func (m *ConnectionManager) DriverName() string {
	if m.handle == nil {
		return ""
	}
	return m.handle.Dialect().Name
}

// Ping проверяет подключение
func (m *ConnectionManager) Ping(ctx context.Context) error {
	if err := m.usable(); err != nil {
		return err
	}
	return m.conn.PingContext(ctx)
}

// ========== Release ==========

// Release закрывает все statement, откатывает транзакцию и возвращает подключение
//
// Идемпотентен и безопасен без успешного Connect. Ошибки очистки
// логируются и не возвращаются, чтобы не скрыть исходную ошибку вызывающего.
func (m *ConnectionManager) Release() {
	if m.released {
		return
	}
	m.released = true

	statements := m.statements
	m.statements = nil
	for _, s := range statements {
		if err := s.Close(); err != nil {
			m.log.Warn().Err(err).Msg("failed to close statement")
		}
	}

	if m.tx != nil {
		if err := m.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			m.log.Warn().Err(err).Msg("failed to rollback on release")
		}
		m.tx = nil
	}

	if m.conn != nil {
		if err := m.conn.Close(); err != nil {
			m.log.Warn().Err(err).Msg("failed to close connection")
		}
		m.conn = nil
	}

	if m.ownsHandle && m.handle != nil {
		if err := m.handle.Close(); err != nil {
			m.log.Warn().Err(err).Msg("failed to close direct datasource")
		}
	}
	m.handle = nil

	m.log.Debug().Msg("released")
}

// ========== Выполнение ==========

// dialect возвращает диалект подключения
func (m *ConnectionManager) dialect() datasource.Dialect {
	if m.handle == nil {
		return datasource.Dialect{}
	}
	return m.handle.Dialect()
}

// native адаптирует плейсхолдеры под драйвер
func (m *ConnectionManager) native(query string) string {
	if m.dialect().NumberedPlaceholders {
		return Rebind(query)
	}
	return query
}

// logSQL пишет запрос с подставленными параметрами на уровне debug
func (m *ConnectionManager) logSQL(literal string) {
	if e := m.log.Debug(); e.Enabled() {
		e.Str("sql", literal).Msg("execute")
	}
}

// fail логирует ошибку выполнения и оборачивает ее в QueryError
func (m *ConnectionManager) fail(literal string, err error) error {
	m.log.Error().Err(err).Str("sql", literal).Msg("query failed")
	return &QueryError{SQL: literal, Err: err}
}

// query выполняет запрос и материализует результат
// cache != nil - выполнение через подготовленный statement
func (m *ConnectionManager) query(ctx context.Context, query string, args []any, cache *stmtCache, page, size int) (*recordset.RecordSet, error) {
	literal := BuildQueryString(query, args)
	m.logSQL(literal)

	ex, gen, err := m.executor(ctx)
	if err != nil {
		return nil, err
	}
	bound := bindAll(m.dialect(), args)

	var rows *sql.Rows
	if cache != nil {
		stmt, err := cache.get(ctx, ex, gen, m.native(query))
		if err != nil {
			return nil, m.fail(literal, err)
		}
		rows, err = stmt.QueryContext(ctx, bound...)
		if err != nil {
			return nil, m.fail(literal, err)
		}
	} else {
		rows, err = ex.QueryContext(ctx, m.native(query), bound...)
		if err != nil {
			return nil, m.fail(literal, err)
		}
	}

	rs, err := recordset.New(rows, page, size, recordset.WithFetchSize(m.fetchSize))
	if err != nil {
		return nil, m.fail(literal, err)
	}
	return rs, nil
}

// update выполняет изменяющий запрос и возвращает количество затронутых строк
func (m *ConnectionManager) update(ctx context.Context, query string, args []any, cache *stmtCache) (int64, error) {
	literal := BuildQueryString(query, args)
	m.logSQL(literal)

	ex, gen, err := m.executor(ctx)
	if err != nil {
		return 0, err
	}
	bound := bindAll(m.dialect(), args)

	var res sql.Result
	if cache != nil {
		stmt, err := cache.get(ctx, ex, gen, m.native(query))
		if err != nil {
			return 0, m.fail(literal, err)
		}
		res, err = stmt.ExecContext(ctx, bound...)
		if err != nil {
			return 0, m.fail(literal, err)
		}
	} else {
		res, err = ex.ExecContext(ctx, m.native(query), bound...)
		if err != nil {
			return 0, m.fail(literal, err)
		}
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, m.fail(literal, err)
	}
	return n, nil
}

// batch выполняет очередь одним пакетом драйвера
// shared = все элементы используют один SQL (batch-prepared)
// При ошибке возвращаются счетчики уже выполненных элементов
func (m *ConnectionManager) batch(ctx context.Context, items []datasource.BatchItem, shared bool) ([]int64, error) {
	if len(items) == 0 {
		return []int64{}, nil
	}
	if e := m.log.Debug(); e.Enabled() {
		e.Int("items", len(items)).Str("sql", BuildQueryString(items[0].SQL, items[0].Args)).Msg("execute batch")
	}

	ex, _, err := m.executor(ctx)
	if err != nil {
		return nil, err
	}

	d := m.dialect()
	native := make([]datasource.BatchItem, len(items))
	for i, item := range items {
		native[i] = datasource.BatchItem{SQL: m.native(item.SQL), Args: bindAll(d, item.Args)}
	}

	if d.Batch != nil {
		counts, err := d.Batch(ctx, m.conn, native)
		if err != nil {
			return counts, m.failBatch(items, err)
		}
		return counts, nil
	}

	counts := make([]int64, 0, len(items))
	var stmt *sql.Stmt
	if shared {
		stmt, err = ex.PrepareContext(ctx, native[0].SQL)
		if err != nil {
			return counts, m.failBatch(items, &datasource.BatchError{Index: 0, Err: err})
		}
		defer stmt.Close()
	}

	for i, item := range native {
		var res sql.Result
		if stmt != nil {
			res, err = stmt.ExecContext(ctx, item.Args...)
		} else {
			res, err = ex.ExecContext(ctx, item.SQL, item.Args...)
		}
		if err != nil {
			return counts, m.failBatch(items, &datasource.BatchError{Index: i, Err: err})
		}
		n, err := res.RowsAffected()
		if err != nil {
			return counts, m.failBatch(items, &datasource.BatchError{Index: i, Err: err})
		}
		counts = append(counts, n)
	}
	return counts, nil
}

// failBatch строит QueryError по элементу, на котором упал пакет
func (m *ConnectionManager) failBatch(items []datasource.BatchItem, err error) error {
	var be *datasource.BatchError
	if errors.As(err, &be) && be.Index >= 0 && be.Index < len(items) {
		item := items[be.Index]
		return m.fail(BuildQueryString(item.SQL, item.Args), err)
	}
	return m.fail(BuildQueryString(items[0].SQL, items[0].Args), err)
}
