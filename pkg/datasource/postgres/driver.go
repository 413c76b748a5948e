package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/ruslano69/dbcore/pkg/datasource"
)

const (
	defaultMaxConns = 10
	defaultMinConns = 2
)

// Compile-time check: Driver должен реализовывать интерфейс datasource.Driver
var _ datasource.Driver = (*Driver)(nil)

// Регистрация драйвера в глобальном реестре
func init() {
	datasource.RegisterDriver(datasource.DriverPostgres, &Driver{})
}

// Driver - драйвер источника данных PostgreSQL
// Пул подключений - pgxpool, наружу отдается как *sql.DB через pgx stdlib
type Driver struct{}

// Open создает pgxpool и оборачивает его в *sql.DB
func (d *Driver) Open(ctx context.Context, cfg datasource.Config) (*datasource.Handle, error) {
	// Парсим connection string
	config, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}

	// Настраиваем pool из конфига
	if cfg.MaxConns > 0 {
		config.MaxConns = int32(cfg.MaxConns)
	} else {
		config.MaxConns = defaultMaxConns
	}

	if cfg.MinConns > 0 {
		config.MinConns = int32(cfg.MinConns)
	} else {
		config.MinConns = defaultMinConns
	}

	if cfg.ConnMaxLifetime > 0 {
		config.MaxConnLifetime = cfg.ConnMaxLifetime
	}

	// Создаем connection pool
	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Проверяем подключение
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db := stdlib.OpenDBFromPool(pool)

	return datasource.NewHandle(cfg.Name, db, d.Dialect(), func() error {
		pool.Close()
		return nil
	}), nil
}

// BuildDSN добавляет учетные данные к URL или keyword/value строке подключения
func (d *Driver) BuildDSN(rawURL, uid, pwd string) (string, error) {
	if strings.TrimSpace(rawURL) == "" {
		return "", fmt.Errorf("%w: empty postgres url", datasource.ErrIllegalArgument)
	}

	var dsn string
	if strings.HasPrefix(rawURL, "postgres://") || strings.HasPrefix(rawURL, "postgresql://") {
		u, err := url.Parse(rawURL)
		if err != nil {
			return "", fmt.Errorf("%w: malformed postgres url: %v", datasource.ErrIllegalArgument, err)
		}
		if uid != "" {
			u.User = url.UserPassword(uid, pwd)
		}
		dsn = u.String()
	} else {
		// keyword/value формат: "host=localhost dbname=app"
		dsn = rawURL
		if uid != "" {
			dsn += fmt.Sprintf(" user=%s password=%s", quoteKV(uid), quoteKV(pwd))
		}
	}

	// Проверяем, что pgx сможет разобрать результат
	if _, err := pgx.ParseConfig(dsn); err != nil {
		return "", fmt.Errorf("%w: %v", datasource.ErrIllegalArgument, err)
	}
	return dsn, nil
}

// Dialect возвращает диалект PostgreSQL: плейсхолдеры $n и нативный batch
func (d *Driver) Dialect() datasource.Dialect {
	return datasource.Dialect{
		Name:                 datasource.DriverPostgres,
		NumberedPlaceholders: true,
		Batch:                sendBatch,
	}
}

// sendBatch отправляет все элементы одним pgx.Batch
// Выполняется на выделенном подключении менеджера, поэтому попадает в его транзакцию
func sendBatch(ctx context.Context, conn *sql.Conn, items []datasource.BatchItem) ([]int64, error) {
	counts := make([]int64, 0, len(items))

	err := conn.Raw(func(driverConn any) error {
		c, ok := driverConn.(*stdlib.Conn)
		if !ok {
			return fmt.Errorf("unexpected driver connection %T", driverConn)
		}

		batch := &pgx.Batch{}
		for _, item := range items {
			batch.Queue(item.SQL, item.Args...)
		}

		results := c.Conn().SendBatch(ctx, batch)
		for i := range items {
			tag, err := results.Exec()
			if err != nil {
				results.Close()
				return &datasource.BatchError{Index: i, Err: err}
			}
			counts = append(counts, tag.RowsAffected())
		}
		return results.Close()
	})
	if err != nil {
		return counts, err
	}
	return counts, nil
}

// quoteKV экранирует значение для keyword/value строки подключения
func quoteKV(s string) string {
	if s != "" && !strings.ContainsAny(s, ` '\`) {
		return s
	}
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `'`, `\'`)
	return "'" + s + "'"
}
