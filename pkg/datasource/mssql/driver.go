package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"

	_ "github.com/denisenkom/go-mssqldb" // MS SQL Server driver

	"github.com/ruslano69/dbcore/pkg/datasource"
)

// driverName - имя драйвера go-mssqldb, принимающее плейсхолдеры "?"
const driverName = "mssql"

// Compile-time check: Driver должен реализовывать интерфейс datasource.Driver
var _ datasource.Driver = (*Driver)(nil)

func init() {
	// Register MS SQL Server driver in registry
	datasource.RegisterDriver(datasource.DriverMSSQL, &Driver{})
}

// Driver implements datasource.Driver for Microsoft SQL Server.
type Driver struct{}

// Open opens a connection pool and verifies the server is reachable.
func (d *Driver) Open(ctx context.Context, cfg datasource.Config) (*datasource.Handle, error) {
	// Open database connection
	db, err := sql.Open(driverName, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	cfg.ApplyPool(db)

	// Test connection
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return datasource.NewHandle(cfg.Name, db, d.Dialect()), nil
}

// BuildDSN adds credentials to either a sqlserver:// URL or an ADO-style
// "server=...;database=..." string.
func (d *Driver) BuildDSN(rawURL, uid, pwd string) (string, error) {
	if strings.TrimSpace(rawURL) == "" {
		return "", fmt.Errorf("%w: empty mssql url", datasource.ErrIllegalArgument)
	}

	if strings.HasPrefix(rawURL, "sqlserver://") {
		u, err := url.Parse(rawURL)
		if err != nil {
			return "", fmt.Errorf("%w: malformed sqlserver url: %v", datasource.ErrIllegalArgument, err)
		}
		if u.Host == "" {
			return "", fmt.Errorf("%w: sqlserver url without host", datasource.ErrIllegalArgument)
		}
		if uid != "" {
			u.User = url.UserPassword(uid, pwd)
		}
		return u.String(), nil
	}

	if !strings.Contains(rawURL, "=") {
		return "", fmt.Errorf("%w: unsupported mssql connection string %q", datasource.ErrIllegalArgument, rawURL)
	}

	dsn := strings.TrimRight(rawURL, ";")
	if uid != "" {
		// ";" в значении начал бы новый ключ строки подключения
		if strings.Contains(uid, ";") || strings.Contains(pwd, ";") {
			return "", fmt.Errorf("%w: ';' in mssql credentials", datasource.ErrIllegalArgument)
		}
		dsn += fmt.Sprintf(";user id=%s;password=%s", uid, pwd)
	}
	return dsn, nil
}

// Dialect returns the SQL Server dialect.
func (d *Driver) Dialect() datasource.Dialect {
	return datasource.Dialect{Name: datasource.DriverMSSQL}
}
