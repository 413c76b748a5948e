package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"

	"github.com/go-sql-driver/mysql"

	"github.com/ruslano69/dbcore/pkg/datasource"
)

// Compile-time check: Driver должен реализовывать интерфейс datasource.Driver
var _ datasource.Driver = (*Driver)(nil)

func init() {
	// Регистрируем MySQL драйвер в реестре
	datasource.RegisterDriver(datasource.DriverMySQL, &Driver{})
}

// Driver - драйвер источника данных MySQL
type Driver struct{}

// Open подключается к MySQL
// parseTime включается всегда: DATETIME/DATE сканируются в time.Time
func (d *Driver) Open(ctx context.Context, cfg datasource.Config) (*datasource.Handle, error) {
	mcfg, err := mysql.ParseDSN(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse dsn: %w", err)
	}
	mcfg.ParseTime = true

	connector, err := mysql.NewConnector(mcfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connector: %w", err)
	}

	db := sql.OpenDB(connector)
	cfg.ApplyPool(db)

	// Проверяем соединение
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return datasource.NewHandle(cfg.Name, db, d.Dialect()), nil
}

// BuildDSN принимает "mysql://host:port/db" или DSN драйвера "tcp(host:port)/db"
func (d *Driver) BuildDSN(rawURL, uid, pwd string) (string, error) {
	if strings.TrimSpace(rawURL) == "" {
		return "", fmt.Errorf("%w: empty mysql url", datasource.ErrIllegalArgument)
	}

	var mcfg *mysql.Config
	if strings.HasPrefix(rawURL, "mysql://") {
		u, err := url.Parse(rawURL)
		if err != nil {
			return "", fmt.Errorf("%w: malformed mysql url: %v", datasource.ErrIllegalArgument, err)
		}
		mcfg = mysql.NewConfig()
		mcfg.Net = "tcp"
		mcfg.Addr = u.Host
		mcfg.DBName = strings.TrimPrefix(u.Path, "/")
		for key, values := range u.Query() {
			if len(values) > 0 {
				if mcfg.Params == nil {
					mcfg.Params = make(map[string]string)
				}
				mcfg.Params[key] = values[0]
			}
		}
	} else {
		var err error
		mcfg, err = mysql.ParseDSN(rawURL)
		if err != nil {
			return "", fmt.Errorf("%w: malformed mysql dsn: %v", datasource.ErrIllegalArgument, err)
		}
	}

	if uid != "" {
		mcfg.User = uid
		mcfg.Passwd = pwd
	}
	mcfg.ParseTime = true

	return mcfg.FormatDSN(), nil
}

// Dialect возвращает диалект MySQL
func (d *Driver) Dialect() datasource.Dialect {
	return datasource.Dialect{Name: datasource.DriverMySQL}
}
