package database

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ruslano69/dbcore/pkg/datasource"
	"github.com/ruslano69/dbcore/pkg/datasource/sqlite"
	"github.com/ruslano69/dbcore/pkg/retry"
)

const testDatasource = "test"

// setupRegistry создает приватный реестр с БД SQLite и таблицей t
func setupRegistry(t *testing.T) *datasource.Registry {
	t.Helper()

	reg := datasource.NewRegistry()
	reg.RegisterDriver(datasource.DriverSQLite, &sqlite.Driver{})
	require.NoError(t, reg.Register(datasource.Config{
		Name:   testDatasource,
		Driver: datasource.DriverSQLite,
		DSN:    filepath.Join(t.TempDir(), "database.db"),
	}))
	t.Cleanup(func() { reg.CloseAll() })

	m := connect(t, reg, WithAutoCommit(true))
	st, err := m.CreateStatement()
	require.NoError(t, err)
	_, err = st.ExecuteUpdate(context.Background(),
		`CREATE TABLE t (id INTEGER PRIMARY KEY, name VARCHAR(50), created TIMESTAMP, data BLOB)`)
	require.NoError(t, err)
	m.Release()

	return reg
}

func connect(t *testing.T, reg *datasource.Registry, opts ...Option) *ConnectionManager {
	t.Helper()

	base := []Option{WithDatasource(testDatasource), WithRegistry(reg), WithLogger(zerolog.Nop())}
	m := NewConnectionManager(t.Name(), append(base, opts...)...)
	require.NoError(t, m.Connect(context.Background()))
	t.Cleanup(m.Release)
	return m
}

func countRows(t *testing.T, reg *datasource.Registry) int64 {
	t.Helper()

	m := connect(t, reg, WithAutoCommit(true))
	defer m.Release()

	st, err := m.CreateStatement()
	require.NoError(t, err)
	rs, err := st.ExecuteQuery(context.Background(), "SELECT COUNT(*) AS n FROM t")
	require.NoError(t, err)
	n, err := rs.GetInt64(1, "n")
	require.NoError(t, err)
	return n
}

func insert(t *testing.T, m *ConnectionManager, id int, name string) {
	t.Helper()

	st, err := m.CreatePreparedStatement("INSERT INTO t (id, name) VALUES (?, ?)")
	require.NoError(t, err)
	defer st.Close()

	st.Set(id, name)
	n, err := st.ExecuteUpdate(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(1), n)
}

// --- Release ---

func TestRelease_NeverConnected(t *testing.T) {
	m := NewConnectionManager("never", WithLogger(zerolog.Nop()))

	assert.NotPanics(t, func() {
		m.Release()
		m.Release()
	})

	_, err := m.CreateStatement()
	assert.ErrorIs(t, err, ErrReleased)
	assert.ErrorIs(t, m.Connect(context.Background()), ErrReleased)
}

func TestRelease_AfterFailedConnect(t *testing.T) {
	m := NewConnectionManager("failed",
		WithDatasource("missing"),
		WithRegistry(datasource.NewRegistry()),
		WithLogger(zerolog.Nop()))

	require.Error(t, m.Connect(context.Background()))
	assert.NotPanics(t, func() {
		m.Release()
		m.Release()
	})
}

func TestRelease_Twice(t *testing.T) {
	reg := setupRegistry(t)
	m := connect(t, reg)
	insert(t, m, 1, "a")

	assert.NotPanics(t, func() {
		m.Release()
		m.Release()
	})
	assert.ErrorIs(t, m.Ping(context.Background()), ErrReleased)
}

// --- Connect ---

func TestConnect_UnknownDatasource(t *testing.T) {
	m := NewConnectionManager("unknown",
		WithDatasource("missing"),
		WithRegistry(datasource.NewRegistry()),
		WithRetry(retry.EnableRetry(5, time.Second)),
		WithLogger(zerolog.Nop()))
	defer m.Release()

	start := time.Now()
	err := m.Connect(context.Background())
	require.Error(t, err)

	// Неизвестное имя не повторяется
	assert.Less(t, time.Since(start), time.Second)

	var cerr *ConnectionError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "missing", cerr.Source)
	assert.ErrorIs(t, err, datasource.ErrUnknownDatasource)

	// Ошибка фатальна для экземпляра
	assert.Equal(t, err, m.Connect(context.Background()))
	_, err = m.CreatePreparedStatement("SELECT 1")
	assert.ErrorAs(t, err, &cerr)
}

func TestConnect_EmptyName(t *testing.T) {
	m := NewConnectionManager("empty", WithLogger(zerolog.Nop()))
	defer m.Release()

	err := m.Connect(context.Background())
	assert.ErrorIs(t, err, ErrIllegalArgument)
}

func TestConnect_Twice(t *testing.T) {
	reg := setupRegistry(t)
	m := connect(t, reg)

	assert.ErrorIs(t, m.Connect(context.Background()), ErrIllegalArgument)
	assert.Equal(t, datasource.DriverSQLite, m.DriverName())
	assert.NoError(t, m.Ping(context.Background()))
}

func TestConnectDirect(t *testing.T) {
	reg := datasource.NewRegistry()
	reg.RegisterDriver(datasource.DriverSQLite, &sqlite.Driver{})
	path := filepath.Join(t.TempDir(), "direct.db")

	m := NewConnectionManager("direct", WithRegistry(reg), WithLogger(zerolog.Nop()), WithAutoCommit(true))
	require.NoError(t, m.ConnectDirect(context.Background(), datasource.DriverSQLite, "sqlite://"+path, "", ""))

	st, err := m.CreateStatement()
	require.NoError(t, err)
	_, err = st.ExecuteUpdate(context.Background(), "CREATE TABLE x (id INTEGER)")
	require.NoError(t, err)
	n, err := st.ExecuteUpdate(context.Background(), "INSERT INTO x VALUES (1), (2)")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	m.Release()
	assert.Empty(t, reg.Registered())
}

func TestConnectDirect_UnknownDriver(t *testing.T) {
	m := NewConnectionManager("direct", WithRegistry(datasource.NewRegistry()), WithLogger(zerolog.Nop()))
	defer m.Release()

	err := m.ConnectDirect(context.Background(), "oracle", "host", "u", "p")
	var cerr *ConnectionError
	require.ErrorAs(t, err, &cerr)
	assert.ErrorIs(t, err, datasource.ErrUnknownDriver)
}

// --- Транзакции ---

func TestAutoCommit_DefaultFalse(t *testing.T) {
	reg := setupRegistry(t)
	m := connect(t, reg)

	assert.False(t, m.AutoCommit())
	insert(t, m, 1, "a")
	require.NoError(t, m.Rollback())

	assert.Equal(t, int64(0), countRows(t, reg))
}

func TestCommit(t *testing.T) {
	reg := setupRegistry(t)
	m := connect(t, reg)

	insert(t, m, 1, "a")
	insert(t, m, 2, "b")
	require.NoError(t, m.Commit())

	assert.Equal(t, int64(2), countRows(t, reg))

	// Без открытой транзакции Commit/Rollback ничего не делают
	assert.NoError(t, m.Commit())
	assert.NoError(t, m.Rollback())
}

func TestRelease_RollsBack(t *testing.T) {
	reg := setupRegistry(t)
	m := connect(t, reg)

	insert(t, m, 1, "a")
	m.Release()

	assert.Equal(t, int64(0), countRows(t, reg))
}

func TestSetAutoCommit_CommitsOpenTransaction(t *testing.T) {
	reg := setupRegistry(t)
	m := connect(t, reg)

	insert(t, m, 1, "a")
	require.NoError(t, m.SetAutoCommit(true))
	assert.True(t, m.AutoCommit())
	assert.Equal(t, int64(1), countRows(t, reg))

	// В режиме autocommit каждое выполнение фиксируется сразу
	insert(t, m, 2, "b")
	assert.Equal(t, int64(2), countRows(t, reg))
}

// --- Statements ---

func TestStatementTracking(t *testing.T) {
	reg := setupRegistry(t)
	m := connect(t, reg)

	plain, err := m.CreateStatement()
	require.NoError(t, err)
	prepared, err := m.CreatePreparedStatement("SELECT * FROM t WHERE id = ?")
	require.NoError(t, err)
	batch, err := m.CreateBatchStatement()
	require.NoError(t, err)
	batchPrepared, err := m.CreateBatchPreparedStatement("INSERT INTO t (id) VALUES (?)")
	require.NoError(t, err)
	assert.Equal(t, 4, m.StatementCount())

	require.NoError(t, plain.Close())
	require.NoError(t, plain.Close())
	assert.Equal(t, 3, m.StatementCount())

	prepared.Set(1)
	_, err = prepared.ExecuteQuery(context.Background())
	require.NoError(t, err)

	require.NoError(t, batch.AddBatch("INSERT INTO t (id) VALUES (1)"))

	m.Release()
	assert.Equal(t, 0, m.StatementCount())

	_, err = prepared.ExecuteQuery(context.Background())
	assert.ErrorIs(t, err, ErrStatementClosed)
	assert.Equal(t, 0, batch.Len())
	assert.ErrorIs(t, batchPrepared.AddBatch(), ErrStatementClosed)
}

func TestPreparedStatement_ReprepareAfterCommit(t *testing.T) {
	reg := setupRegistry(t)
	m := connect(t, reg)

	st, err := m.CreatePreparedStatement("INSERT INTO t (id, name) VALUES (?, ?)")
	require.NoError(t, err)

	for id := 1; id <= 3; id++ {
		st.Set(id, "row")
		n, err := st.ExecuteUpdate(context.Background())
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
		require.NoError(t, m.Commit())
	}
	assert.Equal(t, int64(3), countRows(t, reg))
}

func TestPreparedStatement_Params(t *testing.T) {
	reg := setupRegistry(t)
	m := connect(t, reg)

	st, err := m.CreatePreparedStatement("SELECT ?, ?")
	require.NoError(t, err)

	assert.ErrorIs(t, st.SetAt(0, "x"), ErrIllegalArgument)
	require.NoError(t, st.SetAt(2, "b"))
	assert.Equal(t, []any{nil, "b"}, st.Params())
	require.NoError(t, st.SetAt(1, "a"))
	assert.Equal(t, "SELECT 'a', 'b'", st.QueryString())

	st.ClearParams()
	assert.Empty(t, st.Params())

	require.NoError(t, st.SetSQL("SELECT id FROM t WHERE id > ?"))
	assert.Equal(t, "SELECT id FROM t WHERE id > ?", st.SQL())
	assert.Empty(t, st.Params())
}

func TestExecuteQueryPage(t *testing.T) {
	reg := setupRegistry(t)
	m := connect(t, reg)

	for id := 1; id <= 25; id++ {
		insert(t, m, id, "row")
	}

	st, err := m.CreatePreparedStatement("SELECT id FROM t WHERE id > ? ORDER BY id")
	require.NoError(t, err)
	st.Set(0)

	for _, tc := range []struct {
		page, rows int
		first      int64
	}{{2, 10, 11}, {3, 5, 21}, {4, 0, 0}} {
		rs, err := st.ExecuteQueryPage(context.Background(), tc.page, 10)
		require.NoError(t, err)
		require.Equal(t, tc.rows, rs.RowCount(), "page %d", tc.page)
		if tc.rows > 0 {
			first, err := rs.GetInt64(1, "ID")
			require.NoError(t, err)
			assert.Equal(t, tc.first, first)
		}
	}
}

// --- Привязка параметров ---

func TestBinding_NullRoundTrip(t *testing.T) {
	reg := setupRegistry(t)
	m := connect(t, reg)

	var nilString *string
	values := []any{nil, "", nilString, []byte{}}

	st, err := m.CreatePreparedStatement("INSERT INTO t (id, name, data) VALUES (?, ?, ?)")
	require.NoError(t, err)
	for i, v := range values {
		st.Set(i+1, v, v)
		_, err := st.ExecuteUpdate(context.Background())
		require.NoError(t, err)
	}

	q, err := m.CreateStatement()
	require.NoError(t, err)
	rs, err := q.ExecuteQuery(context.Background(),
		"SELECT COUNT(*) AS n FROM t WHERE name IS NULL AND data IS NULL")
	require.NoError(t, err)
	n, err := rs.GetInt64(1, "N")
	require.NoError(t, err)
	assert.Equal(t, int64(len(values)), n)

	rs, err = q.ExecuteQuery(context.Background(), "SELECT name FROM t WHERE name = ''")
	require.NoError(t, err)
	assert.Equal(t, 0, rs.RowCount())
}

func TestBinding_TimeAndBytes(t *testing.T) {
	reg := setupRegistry(t)
	m := connect(t, reg)

	created := time.Date(2024, 3, 1, 12, 30, 45, 0, time.UTC)
	st, err := m.CreatePreparedStatement("INSERT INTO t (id, created, data) VALUES (?, ?, ?)")
	require.NoError(t, err)
	st.Set(1, created, []byte{0xde, 0xad})
	_, err = st.ExecuteUpdate(context.Background())
	require.NoError(t, err)

	sel, err := m.CreatePreparedStatement("SELECT created, data FROM t WHERE created = ?")
	require.NoError(t, err)
	sel.Set(&created)
	rs, err := sel.ExecuteQuery(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, rs.RowCount())

	got, err := rs.GetTimestamp(1, "created")
	require.NoError(t, err)
	assert.True(t, got.Equal(created), "got %v, want %v", got, created)

	data, err := rs.Get(1, "data")
	require.NoError(t, err)
	assert.Equal(t, []byte{0xde, 0xad}, data)
}

// --- Ошибки ---

func TestQueryError_CarriesLiteralSQL(t *testing.T) {
	reg := setupRegistry(t)
	m := connect(t, reg)

	st, err := m.CreatePreparedStatement("INSERT INTO missing (name) VALUES (?)")
	require.NoError(t, err)
	st.Set("o'brien")

	_, err = st.ExecuteUpdate(context.Background())
	var qerr *QueryError
	require.ErrorAs(t, err, &qerr)
	assert.Equal(t, "INSERT INTO missing (name) VALUES ('o''brien')", qerr.SQL)
	assert.Contains(t, err.Error(), "missing")

	plain, err := m.CreateStatement()
	require.NoError(t, err)
	_, err = plain.ExecuteQuery(context.Background(), "SELEC nonsense")
	require.ErrorAs(t, err, &qerr)
	assert.Equal(t, "SELEC nonsense", qerr.SQL)
}

// --- Batch ---

func TestBatchStatement(t *testing.T) {
	reg := setupRegistry(t)
	m := connect(t, reg)

	st, err := m.CreateBatchStatement()
	require.NoError(t, err)

	counts, err := st.ExecuteBatch(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, counts)
	assert.Empty(t, counts)

	require.NoError(t, st.AddBatch("INSERT INTO t (id, name) VALUES (1, 'a')"))
	require.NoError(t, st.AddBatch("INSERT INTO t (id, name) VALUES (2, 'b')"))
	require.NoError(t, st.AddBatch("INSERT INTO t (id, name) VALUES (3, 'c')"))
	require.NoError(t, st.AddBatch("UPDATE t SET name = 'x'"))
	require.NoError(t, st.AddBatch("DELETE FROM t WHERE id = 42"))

	counts, err = st.ExecuteBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 1, 1, 3, 0}, counts)
	assert.Equal(t, 0, st.Len())

	require.NoError(t, m.Commit())
	assert.Equal(t, int64(3), countRows(t, reg))

	require.NoError(t, st.AddBatch("DELETE FROM t"))
	require.NoError(t, st.Close())
	assert.Equal(t, 0, st.Len())
}

func TestBatchPreparedStatement(t *testing.T) {
	reg := setupRegistry(t)
	m := connect(t, reg)

	st, err := m.CreateBatchPreparedStatement("INSERT INTO t (id, name) VALUES (?, ?)")
	require.NoError(t, err)

	st.Set(10, "a")
	require.NoError(t, st.AddBatch())
	require.NoError(t, st.SetAt(1, 11))
	require.NoError(t, st.SetAt(2, "b"))
	require.NoError(t, st.AddBatch())
	require.NoError(t, st.AddBatchValues(12, "c"))
	assert.Equal(t, 3, st.Len())
	assert.Equal(t, "INSERT INTO t (id, name) VALUES (?, ?)", st.QueryString())

	counts, err := st.ExecuteBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 1, 1}, counts)

	// Дубликат первичного ключа в третьем наборе
	require.NoError(t, st.AddBatchValues(13, "d"))
	require.NoError(t, st.AddBatchValues(14, "e"))
	require.NoError(t, st.AddBatchValues(10, "dup"))
	counts, err = st.ExecuteBatch(context.Background())

	var qerr *QueryError
	require.ErrorAs(t, err, &qerr)
	assert.Equal(t, "INSERT INTO t (id, name) VALUES (10, 'dup')", qerr.SQL)
	var berr *datasource.BatchError
	require.True(t, errors.As(err, &berr))
	assert.Equal(t, 2, berr.Index)
	assert.Equal(t, []int64{1, 1}, counts)
	assert.Equal(t, 0, st.Len())

	require.NoError(t, m.Rollback())
	assert.Equal(t, int64(0), countRows(t, reg))
}
