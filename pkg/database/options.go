package database

import (
	"github.com/rs/zerolog"

	"github.com/ruslano69/dbcore/pkg/datasource"
	"github.com/ruslano69/dbcore/pkg/retry"
)

// Option - опция ConnectionManager
type Option func(*ConnectionManager)

// WithDatasource задает имя источника данных для Connect
func WithDatasource(name string) Option {
	return func(m *ConnectionManager) {
		m.datasource = name
	}
}

// WithLogger задает логгер (по умолчанию глобальный log.Logger)
func WithLogger(logger zerolog.Logger) Option {
	return func(m *ConnectionManager) {
		m.log = logger
	}
}

// WithRetry задает политику повторов при получении подключения
func WithRetry(cfg retry.Config) Option {
	return func(m *ConnectionManager) {
		m.retry = cfg
	}
}

// WithFetchSize задает подсказку размера буфера строк для чтения
func WithFetchSize(n int) Option {
	return func(m *ConnectionManager) {
		if n > 0 {
			m.fetchSize = n
		}
	}
}

// WithRegistry задает реестр источников (по умолчанию глобальный)
func WithRegistry(r *datasource.Registry) Option {
	return func(m *ConnectionManager) {
		if r != nil {
			m.registry = r
		}
	}
}

// WithAutoCommit задает начальный режим autocommit (по умолчанию выключен)
func WithAutoCommit(on bool) Option {
	return func(m *ConnectionManager) {
		m.autoCommit = on
	}
}
