// Package config загружает YAML-конфигурацию источников данных,
// повторов подключения и логирования.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"gopkg.in/yaml.v3"

	"github.com/ruslano69/dbcore/pkg/datasource"
	"github.com/ruslano69/dbcore/pkg/logging"
	"github.com/ruslano69/dbcore/pkg/recordset"
	"github.com/ruslano69/dbcore/pkg/retry"
)

// Config - корневая конфигурация
type Config struct {
	Datasources []DatasourceConfig `yaml:"datasources"`
	FetchSize   int                `yaml:"fetch_size,omitempty"`
	Retry       RetryConfig        `yaml:"retry,omitempty"`
	Logging     logging.Config     `yaml:"logging,omitempty"`
}

// DatasourceConfig - один источник данных
// Либо задается DSN целиком, либо он строится из host/port/database/user/password
type DatasourceConfig struct {
	Name     string `yaml:"name"`
	Driver   string `yaml:"driver"`             // sqlite, postgres, mysql, mssql
	DSN      string `yaml:"dsn,omitempty"`      // готовая строка подключения
	Host     string `yaml:"host,omitempty"`     // для сетевых СУБД
	Port     int    `yaml:"port,omitempty"`     // порт СУБД
	Database string `yaml:"database,omitempty"` // имя БД или путь к файлу
	User     string `yaml:"user,omitempty"`
	Password string `yaml:"password,omitempty"`
	Schema   string `yaml:"schema,omitempty"`  // PostgreSQL schema (default: public)
	SSLMode  string `yaml:"sslmode,omitempty"` // PostgreSQL SSL mode

	MaxConns           int `yaml:"max_conns,omitempty"`
	MinConns           int `yaml:"min_conns,omitempty"`
	ConnMaxLifetimeSec int `yaml:"conn_max_lifetime_sec,omitempty"`
}

// RetryConfig - повторы подключения
type RetryConfig struct {
	Enabled     bool    `yaml:"enabled"`
	MaxAttempts int     `yaml:"max_attempts"`
	Strategy    string  `yaml:"strategy"` // constant, linear, exponential
	InitialWait int     `yaml:"initial_wait_ms"`
	MaxWait     int     `yaml:"max_wait_ms"`
	Jitter      float64 `yaml:"jitter"`
}

// Load читает конфигурацию из YAML файла
func Load(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse разбирает YAML и проверяет конфигурацию
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate проверяет источники данных и политику повторов
func (c *Config) Validate() error {
	seen := make(map[string]bool, len(c.Datasources))
	for i, ds := range c.Datasources {
		if ds.Name == "" {
			return fmt.Errorf("datasources[%d]: name is required", i)
		}
		if seen[ds.Name] {
			return fmt.Errorf("datasources[%d]: duplicate name %s", i, ds.Name)
		}
		seen[ds.Name] = true

		if ds.BuildDSN() == "" {
			return fmt.Errorf("datasource %s: cannot build dsn for driver %q", ds.Name, ds.Driver)
		}
	}
	if c.FetchSize < 0 {
		return fmt.Errorf("fetch_size must be >= 0, got %d", c.FetchSize)
	}
	if c.Retry.Enabled {
		policy := c.RetryPolicy()
		if err := policy.Validate(); err != nil {
			return fmt.Errorf("retry: %w", err)
		}
	}
	return nil
}

// EffectiveFetchSize возвращает fetch_size или значение по умолчанию
func (c *Config) EffectiveFetchSize() int {
	if c.FetchSize > 0 {
		return c.FetchSize
	}
	return recordset.DefaultFetchSize
}

// RetryPolicy переводит настройки в retry.Config
// Незаданные значения берутся из retry.DefaultConfig
func (c *Config) RetryPolicy() retry.Config {
	p := retry.DefaultConfig()
	p.Enabled = c.Retry.Enabled

	if c.Retry.MaxAttempts > 0 {
		p.MaxAttempts = c.Retry.MaxAttempts
	}
	if c.Retry.InitialWait > 0 {
		p.InitialDelay = time.Duration(c.Retry.InitialWait) * time.Millisecond
	}
	if c.Retry.MaxWait > 0 {
		p.MaxDelay = time.Duration(c.Retry.MaxWait) * time.Millisecond
	}
	if c.Retry.Strategy != "" {
		p.BackoffStrategy = retry.BackoffStrategy(strings.ToLower(c.Retry.Strategy))
	}
	if c.Retry.Jitter > 0 {
		p.Jitter = c.Retry.Jitter
	}
	return p
}

// RegisterDatasources регистрирует все источники в реестре
// reg == nil означает глобальный реестр
func (c *Config) RegisterDatasources(reg *datasource.Registry) error {
	if reg == nil {
		reg = datasource.Default()
	}
	for _, ds := range c.Datasources {
		if err := reg.Register(ds.Datasource()); err != nil {
			return fmt.Errorf("failed to register datasource %s: %w", ds.Name, err)
		}
	}
	return nil
}

// Datasource переводит настройки в datasource.Config
func (ds DatasourceConfig) Datasource() datasource.Config {
	return datasource.Config{
		Name:            ds.Name,
		Driver:          normalizeDriver(ds.Driver),
		DSN:             ds.BuildDSN(),
		MaxConns:        ds.MaxConns,
		MinConns:        ds.MinConns,
		ConnMaxLifetime: time.Duration(ds.ConnMaxLifetimeSec) * time.Second,
	}
}

// BuildDSN возвращает DSN, если он задан, или строит его из отдельных полей
func (ds DatasourceConfig) BuildDSN() string {
	if ds.DSN != "" {
		return ds.DSN
	}

	switch normalizeDriver(ds.Driver) {
	case datasource.DriverPostgres:
		sslMode := ds.SSLMode
		if sslMode == "" {
			sslMode = "disable"
		}
		schema := ds.Schema
		if schema == "" {
			schema = "public"
		}
		u := url.URL{
			Scheme:   "postgres",
			User:     userinfo(ds.User, ds.Password),
			Host:     fmt.Sprintf("%s:%d", ds.Host, portOr(ds.Port, 5432)),
			Path:     "/" + ds.Database,
			RawQuery: url.Values{"sslmode": {sslMode}, "search_path": {schema}}.Encode(),
		}
		return u.String()

	case datasource.DriverMSSQL:
		u := url.URL{
			Scheme:   "sqlserver",
			User:     userinfo(ds.User, ds.Password),
			Host:     fmt.Sprintf("%s:%d", ds.Host, portOr(ds.Port, 1433)),
			RawQuery: url.Values{"database": {ds.Database}}.Encode(),
		}
		return u.String()

	case datasource.DriverSQLite:
		return ds.Database

	case datasource.DriverMySQL:
		if ds.Database == "" {
			return ""
		}
		mcfg := mysql.NewConfig()
		mcfg.User = ds.User
		mcfg.Passwd = ds.Password
		mcfg.Net = "tcp"
		mcfg.Addr = fmt.Sprintf("%s:%d", ds.Host, portOr(ds.Port, 3306))
		mcfg.DBName = ds.Database
		mcfg.ParseTime = true
		return mcfg.FormatDSN()

	default:
		return ""
	}
}

// normalizeDriver приводит синонимы к именам драйверов реестра
func normalizeDriver(driver string) string {
	switch strings.ToLower(driver) {
	case "postgresql", "pgx":
		return datasource.DriverPostgres
	case "sqlserver":
		return datasource.DriverMSSQL
	case "sqlite3":
		return datasource.DriverSQLite
	default:
		return strings.ToLower(driver)
	}
}

func portOr(port, def int) int {
	if port > 0 {
		return port
	}
	return def
}

func userinfo(user, password string) *url.Userinfo {
	if user == "" {
		return nil
	}
	return url.UserPassword(user, password)
}
