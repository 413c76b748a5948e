package datasource_test

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ruslano69/dbcore/pkg/datasource"
	"github.com/ruslano69/dbcore/pkg/datasource/sqlite"
)

// countingDriver считает открытые и закрытые пулы
type countingDriver struct {
	sqlite.Driver
	opened atomic.Int32
	closed atomic.Int32
}

func (d *countingDriver) Open(ctx context.Context, cfg datasource.Config) (*datasource.Handle, error) {
	h, err := d.Driver.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	d.opened.Add(1)
	return datasource.NewHandle(h.Name(), h.DB(), h.Dialect(), func() error {
		d.closed.Add(1)
		return nil
	}), nil
}

func newRegistry(t *testing.T) (*datasource.Registry, *countingDriver) {
	t.Helper()

	d := &countingDriver{}
	reg := datasource.NewRegistry()
	reg.RegisterDriver(datasource.DriverSQLite, d)
	require.NoError(t, reg.Register(datasource.Config{
		Name:   "main",
		Driver: datasource.DriverSQLite,
		DSN:    filepath.Join(t.TempDir(), "main.db"),
	}))
	t.Cleanup(func() { reg.CloseAll() })
	return reg, d
}

func TestRegister(t *testing.T) {
	reg, _ := newRegistry(t)
	cfg := datasource.Config{Name: "main", Driver: datasource.DriverSQLite, DSN: "other.db"}

	assert.ErrorIs(t, reg.Register(cfg), datasource.ErrDuplicateDatasource)
	assert.ErrorIs(t, reg.Register(datasource.Config{Driver: "sqlite", DSN: "x"}), datasource.ErrIllegalArgument)
	assert.ErrorIs(t, reg.Register(datasource.Config{Name: "x", Driver: "sqlite"}), datasource.ErrIllegalArgument)

	require.NoError(t, reg.Register(datasource.Config{Name: "aux", Driver: datasource.DriverSQLite, DSN: "aux.db"}))
	assert.Equal(t, []string{"aux", "main"}, reg.Registered())
}

func TestLookup_Caches(t *testing.T) {
	reg, d := newRegistry(t)
	ctx := context.Background()

	h1, err := reg.Lookup(ctx, "main")
	require.NoError(t, err)
	h2, err := reg.Lookup(ctx, "main")
	require.NoError(t, err)

	assert.Same(t, h1, h2)
	assert.Equal(t, int32(1), d.opened.Load())
	assert.Equal(t, "main", h1.Name())
	assert.Equal(t, datasource.DriverSQLite, h1.Dialect().Name)
}

func TestLookup_ConcurrentFirstUse(t *testing.T) {
	reg, d := newRegistry(t)
	ctx := context.Background()

	const n = 16
	handles := make([]*datasource.Handle, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			h, err := reg.Lookup(ctx, "main")
			assert.NoError(t, err)
			handles[i] = h
		}(i)
	}
	wg.Wait()

	for _, h := range handles {
		assert.Same(t, handles[0], h)
	}
	// каждый лишний пул закрыт
	assert.Equal(t, d.opened.Load()-1, d.closed.Load())
}

func TestLookup_Unknown(t *testing.T) {
	reg, _ := newRegistry(t)

	_, err := reg.Lookup(context.Background(), "absent")
	assert.ErrorIs(t, err, datasource.ErrUnknownDatasource)

	require.NoError(t, reg.Register(datasource.Config{Name: "ora", Driver: "oracle", DSN: "x"}))
	_, err = reg.Lookup(context.Background(), "ora")
	assert.ErrorIs(t, err, datasource.ErrUnknownDriver)
}

func TestCloseAll_ReopensOnLookup(t *testing.T) {
	reg, d := newRegistry(t)
	ctx := context.Background()

	_, err := reg.Lookup(ctx, "main")
	require.NoError(t, err)
	require.NoError(t, reg.CloseAll())
	assert.Equal(t, int32(1), d.closed.Load())

	h, err := reg.Lookup(ctx, "main")
	require.NoError(t, err)
	require.NoError(t, h.DB().PingContext(ctx))
	assert.Equal(t, int32(2), d.opened.Load())
}

func TestOpenDirect(t *testing.T) {
	reg, d := newRegistry(t)
	ctx := context.Background()

	h, err := reg.OpenDirect(ctx, datasource.DriverSQLite, filepath.Join(t.TempDir(), "direct.db"), "", "")
	require.NoError(t, err)
	defer h.Close()

	assert.Empty(t, h.Name())
	assert.Equal(t, []string{"main"}, reg.Registered())

	_, err = reg.OpenDirect(ctx, "db2", "x", "", "")
	assert.ErrorIs(t, err, datasource.ErrUnknownDriver)

	_, err = reg.OpenDirect(ctx, datasource.DriverSQLite, " ", "", "")
	assert.True(t, errors.Is(err, datasource.ErrIllegalArgument))
	assert.Equal(t, int32(1), d.opened.Load())
}

func TestDialect_NormalizeTime(t *testing.T) {
	var plain datasource.Dialect
	now := time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)
	assert.Equal(t, now, plain.NormalizeTime(now))

	assert.Equal(t, "2024-03-01 10:30:00", (&sqlite.Driver{}).Dialect().NormalizeTime(now))
}
