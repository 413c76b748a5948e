package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ruslano69/dbcore/pkg/datasource"
	"github.com/ruslano69/dbcore/pkg/recordset"
)

const driverSqlite = "sqlite"

// busyTimeoutPragma ждет снятия блокировки вместо немедленного SQLITE_BUSY
const busyTimeoutPragma = "_pragma=busy_timeout(5000)"

// Compile-time check: Driver должен реализовывать интерфейс datasource.Driver
var _ datasource.Driver = (*Driver)(nil)

// Регистрация драйвера в глобальном реестре
func init() {
	datasource.RegisterDriver(datasource.DriverSQLite, &Driver{})
}

// Driver - драйвер источника данных SQLite
type Driver struct{}

// Open открывает файл БД SQLite
func (d *Driver) Open(ctx context.Context, cfg datasource.Config) (*datasource.Handle, error) {
	db, err := sql.Open(driverSqlite, withPragmas(cfg.DSN))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	cfg.ApplyPool(db)

	// Проверяем подключение
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return datasource.NewHandle(cfg.Name, db, d.Dialect()), nil
}

// BuildDSN для SQLite: url - путь к файлу, учетные данные не используются
func (d *Driver) BuildDSN(url, uid, pwd string) (string, error) {
	if strings.TrimSpace(url) == "" {
		return "", fmt.Errorf("%w: empty sqlite path", datasource.ErrIllegalArgument)
	}
	return strings.TrimPrefix(url, "sqlite://"), nil
}

// Dialect возвращает диалект SQLite
// SQLite не имеет типа времени: время хранится текстом в формате RecordSet
func (d *Driver) Dialect() datasource.Dialect {
	return datasource.Dialect{
		Name: datasource.DriverSQLite,
		TimeValue: func(t time.Time) any {
			return t.Format(recordset.TimestampLayout)
		},
	}
}

// withPragmas добавляет busy_timeout, если DSN не задает pragma явно
func withPragmas(dsn string) string {
	if strings.Contains(dsn, "_pragma=") {
		return dsn
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&" + busyTimeoutPragma
	}
	return dsn + "?" + busyTimeoutPragma
}
