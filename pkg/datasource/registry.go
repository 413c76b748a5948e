package datasource

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Handle - открытый источник данных: пул подключений и диалект
type Handle struct {
	name    string
	db      *sql.DB
	dialect Dialect
	closers []func() error
}

// NewHandle создает Handle
// closers вызываются после закрытия db (например, закрытие pgxpool)
func NewHandle(name string, db *sql.DB, dialect Dialect, closers ...func() error) *Handle {
	return &Handle{
		name:    name,
		db:      db,
		dialect: dialect,
		closers: closers,
	}
}

// Name возвращает имя источника ("" для прямых подключений)
func (h *Handle) Name() string {
	return h.name
}

// DB возвращает пул подключений
func (h *Handle) DB() *sql.DB {
	return h.db
}

// Dialect возвращает диалект
func (h *Handle) Dialect() Dialect {
	return h.dialect
}

// Close закрывает пул и связанные ресурсы
func (h *Handle) Close() error {
	var errs []error
	if h.db != nil {
		if err := h.db.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	for _, c := range h.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Registry - реестр драйверов и именованных источников данных
//
// Кэш открытых источников заполняется лениво и не более одного раза на имя.
// Если два вызова Lookup одновременно открыли один источник, проигравший
// закрывает свой пул и использует уже сохраненный.
type Registry struct {
	driversMu sync.RWMutex
	drivers   map[string]Driver

	configsMu sync.RWMutex
	configs   map[string]Config

	openMu sync.Mutex
	open   map[string]*Handle
}

// NewRegistry создает пустой реестр
func NewRegistry() *Registry {
	return &Registry{
		drivers: make(map[string]Driver),
		configs: make(map[string]Config),
		open:    make(map[string]*Handle),
	}
}

// RegisterDriver регистрирует драйвер под именем типа СУБД
func (r *Registry) RegisterDriver(name string, d Driver) {
	r.driversMu.Lock()
	defer r.driversMu.Unlock()
	r.drivers[name] = d
}

// Driver возвращает драйвер по имени
func (r *Registry) Driver(name string) (Driver, error) {
	r.driversMu.RLock()
	d, ok := r.drivers[name]
	r.driversMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s (available drivers: %v)", ErrUnknownDriver, name, r.DriverNames())
	}
	return d, nil
}

// DriverNames возвращает отсортированный список зарегистрированных драйверов
func (r *Registry) DriverNames() []string {
	r.driversMu.RLock()
	defer r.driversMu.RUnlock()

	names := make([]string, 0, len(r.drivers))
	for name := range r.drivers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Register регистрирует конфигурацию источника данных
// Повторная регистрация того же имени допустима только с идентичной конфигурацией
func (r *Registry) Register(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	r.configsMu.Lock()
	defer r.configsMu.Unlock()

	if existing, ok := r.configs[cfg.Name]; ok {
		if existing == cfg {
			return nil
		}
		return fmt.Errorf("%w: %s", ErrDuplicateDatasource, cfg.Name)
	}
	r.configs[cfg.Name] = cfg
	return nil
}

// Registered возвращает отсортированный список имен источников
func (r *Registry) Registered() []string {
	r.configsMu.RLock()
	defer r.configsMu.RUnlock()

	names := make([]string, 0, len(r.configs))
	for name := range r.configs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup возвращает открытый источник по имени, открывая его при первом обращении
func (r *Registry) Lookup(ctx context.Context, name string) (*Handle, error) {
	r.openMu.Lock()
	h, ok := r.open[name]
	r.openMu.Unlock()
	if ok {
		return h, nil
	}

	r.configsMu.RLock()
	cfg, ok := r.configs[name]
	r.configsMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDatasource, name)
	}

	d, err := r.Driver(cfg.Driver)
	if err != nil {
		return nil, err
	}

	// Открываем вне блокировки: подключение может занять время
	opened, err := d.Open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open datasource %s: %w", name, err)
	}

	r.openMu.Lock()
	defer r.openMu.Unlock()

	if existing, ok := r.open[name]; ok {
		// Параллельный вызов успел раньше, оба пула эквивалентны
		_ = opened.Close()
		return existing, nil
	}
	r.open[name] = opened
	return opened, nil
}

// OpenDirect открывает приватный источник по прямым учетным данным
// Источник не кэшируется; закрывать его должен вызывающий
func (r *Registry) OpenDirect(ctx context.Context, driver, url, uid, pwd string) (*Handle, error) {
	d, err := r.Driver(driver)
	if err != nil {
		return nil, err
	}

	dsn, err := d.BuildDSN(url, uid, pwd)
	if err != nil {
		return nil, err
	}

	h, err := d.Open(ctx, Config{Driver: driver, DSN: dsn})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s connection: %w", driver, err)
	}
	return h, nil
}

// CloseAll закрывает все открытые источники
// Зарегистрированные конфигурации сохраняются: следующий Lookup откроет источник заново
func (r *Registry) CloseAll() error {
	r.openMu.Lock()
	defer r.openMu.Unlock()

	var errs []error
	for name, h := range r.open {
		if err := h.Close(); err != nil {
			errs = append(errs, fmt.Errorf("datasource %s: %w", name, err))
		}
		delete(r.open, name)
	}
	return errors.Join(errs...)
}

// ========== Global Registry ==========

var globalRegistry = NewRegistry()

// RegisterDriver регистрирует драйвер в глобальном реестре
// Обычно вызывается в init() пакетов драйверов
//
// Пример (в pkg/datasource/postgres/driver.go):
//
//	func init() {
//	    datasource.RegisterDriver(datasource.DriverPostgres, &Driver{})
//	}
func RegisterDriver(name string, d Driver) {
	globalRegistry.RegisterDriver(name, d)
}

// Register регистрирует источник данных в глобальном реестре
func Register(cfg Config) error {
	return globalRegistry.Register(cfg)
}

// Registered возвращает имена источников глобального реестра
func Registered() []string {
	return globalRegistry.Registered()
}

// DriverNames возвращает драйверы глобального реестра
func DriverNames() []string {
	return globalRegistry.DriverNames()
}

// Lookup находит (и при необходимости открывает) источник в глобальном реестре
func Lookup(ctx context.Context, name string) (*Handle, error) {
	return globalRegistry.Lookup(ctx, name)
}

// OpenDirect открывает приватный источник через глобальный реестр драйверов
func OpenDirect(ctx context.Context, driver, url, uid, pwd string) (*Handle, error) {
	return globalRegistry.OpenDirect(ctx, driver, url, uid, pwd)
}

// CloseAll закрывает все открытые источники глобального реестра
// Вызывается при остановке процесса
func CloseAll() error {
	return globalRegistry.CloseAll()
}

// Default возвращает глобальный реестр
func Default() *Registry {
	return globalRegistry
}
