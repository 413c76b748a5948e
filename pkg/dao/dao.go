package dao

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/ruslano69/dbcore/pkg/database"
	"github.com/ruslano69/dbcore/pkg/recordset"
	"github.com/ruslano69/dbcore/pkg/vo"
)

// ErrNoConnection - Dao создан без ConnectionManager
var ErrNoConnection = errors.New("no connection manager")

// Dao сохраняет ValueObject через ConnectionManager
//
// Формы SQL задает SQLBuilder (по умолчанию StandardSQL). Dao не фиксирует
// и не откатывает транзакции: это делает владелец ConnectionManager.
type Dao struct {
	SelectSupport
	builder SQLBuilder
}

// Option - опция Dao
type Option func(*Dao)

// WithLogger задает логгер
func WithLogger(logger zerolog.Logger) Option {
	return func(d *Dao) {
		d.log = logger
	}
}

// New создает Dao; builder == nil означает StandardSQL
func New(m *database.ConnectionManager, builder SQLBuilder, opts ...Option) *Dao {
	if builder == nil {
		builder = StandardSQL{}
	}
	d := &Dao{
		SelectSupport: *NewSelectSupport(m),
		builder:       builder,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Builder возвращает SQLBuilder
func (d *Dao) Builder() SQLBuilder {
	return d.builder
}

// Save сохраняет массив группами в порядке vo.SaveOrder
//
// Для каждой непустой группы запрос строится один раз по первой записи
// и выполняется отдельно для каждой записи. Результат - количества
// затронутых строк в порядке выполнения, длиной arr.Size().
// Пустой массив дает []int64{0}, отсутствие менеджера - nil без ошибки.
// Первая ошибка прерывает сохранение; откат выполняет вызывающий.
func (d *Dao) Save(ctx context.Context, arr *vo.Array) ([]int64, error) {
	if d.m == nil {
		d.log.Warn().Msg("save skipped: no connection manager")
		return nil, nil
	}
	if arr == nil || arr.Size() == 0 {
		return []int64{0}, nil
	}

	fields, keys := arr.UserFields(), arr.UserKeys()
	result := make([]int64, 0, arr.Size())

	for _, t := range vo.SaveOrder {
		group := arr.Get(t)
		if len(group) == 0 {
			continue
		}

		counts, err := d.saveGroup(ctx, t, group, fields, keys)
		if err != nil {
			return nil, err
		}
		result = append(result, counts...)
	}

	return result, nil
}

// saveGroup выполняет одну группу через один PreparedStatement
func (d *Dao) saveGroup(ctx context.Context, t vo.MutationType, group []vo.ValueObject, fields, keys []string) ([]int64, error) {
	query, err := d.shape(t, group[0], fields, keys)
	if err != nil {
		return nil, fmt.Errorf("%s group: %w", t, err)
	}

	st, err := d.m.CreatePreparedStatement(query)
	if err != nil {
		return nil, fmt.Errorf("%s group: %w", t, err)
	}
	defer st.Close()

	counts := make([]int64, 0, len(group))
	for i, v := range group {
		values, err := extract(t, v, fields, keys)
		if err != nil {
			return nil, fmt.Errorf("%s group, row %d: %w", t, i, err)
		}

		st.ClearParams()
		st.Set(values...)

		n, err := st.ExecuteUpdate(ctx)
		if err != nil {
			return nil, fmt.Errorf("%s group, row %d: %w", t, i, err)
		}
		counts = append(counts, n)
	}

	if e := d.log.Debug(); e.Enabled() {
		e.Stringer("type", t).Int("rows", len(group)).Msg("group saved")
	}
	return counts, nil
}

// shape возвращает форму SQL для типа мутации
func (d *Dao) shape(t vo.MutationType, v vo.ValueObject, fields, keys []string) (string, error) {
	switch t {
	case vo.Insert:
		return d.builder.InsertSQL(v)
	case vo.Update:
		return d.builder.UpdateSQL(v)
	case vo.Delete:
		return d.builder.DeleteSQL(v)
	case vo.UpdateOnly:
		return d.builder.UpdateOnlySQL(v, fields)
	case vo.UserUpdate:
		return d.builder.UserUpdateSQL(v, fields, keys)
	case vo.UserDelete:
		return d.builder.UserDeleteSQL(v, keys)
	}
	return "", fmt.Errorf("%w: %s", vo.ErrIllegalArgument, t)
}

// extract возвращает значения записи для типа мутации
func extract(t vo.MutationType, v vo.ValueObject, fields, keys []string) ([]any, error) {
	if err := vo.Validate(v); err != nil {
		return nil, err
	}

	switch t {
	case vo.Insert:
		return v.InsertValues(), nil
	case vo.Update:
		return v.UpdateValues(), nil
	case vo.Delete:
		return v.DeleteValues(), nil
	case vo.UpdateOnly:
		return v.UpdateOnlyValues(fields)
	case vo.UserUpdate:
		return v.UserUpdateValues(fields, keys)
	case vo.UserDelete:
		return v.UserDeleteValues(keys)
	}
	return nil, fmt.Errorf("%w: %s", vo.ErrIllegalArgument, t)
}

// ========== Одиночные операции ==========

// Insert вставляет запись
func (d *Dao) Insert(ctx context.Context, v vo.ValueObject) (int64, error) {
	return d.exec(ctx, vo.Insert, v, nil, nil)
}

// Update обновляет неключевые поля записи по первичному ключу
func (d *Dao) Update(ctx context.Context, v vo.ValueObject) (int64, error) {
	return d.exec(ctx, vo.Update, v, nil, nil)
}

// Delete удаляет запись по первичному ключу
func (d *Dao) Delete(ctx context.Context, v vo.ValueObject) (int64, error) {
	return d.exec(ctx, vo.Delete, v, nil, nil)
}

// UpdateOnlyFields обновляет только поля fields по первичному ключу
func (d *Dao) UpdateOnlyFields(ctx context.Context, v vo.ValueObject, fields ...string) (int64, error) {
	return d.exec(ctx, vo.UpdateOnly, v, fields, nil)
}

// UserUpdate обновляет поля fields у строк, совпадающих по полям keys
func (d *Dao) UserUpdate(ctx context.Context, v vo.ValueObject, fields, keys []string) (int64, error) {
	return d.exec(ctx, vo.UserUpdate, v, fields, keys)
}

// UserDelete удаляет строки, совпадающие по полям keys
func (d *Dao) UserDelete(ctx context.Context, v vo.ValueObject, keys ...string) (int64, error) {
	return d.exec(ctx, vo.UserDelete, v, nil, keys)
}

func (d *Dao) exec(ctx context.Context, t vo.MutationType, v vo.ValueObject, fields, keys []string) (int64, error) {
	if d.m == nil {
		return 0, ErrNoConnection
	}
	if v == nil {
		return 0, fmt.Errorf("%w: nil value object", vo.ErrIllegalArgument)
	}

	counts, err := d.saveGroup(ctx, t, []vo.ValueObject{v}, fields, keys)
	if err != nil {
		return 0, err
	}
	return counts[0], nil
}

// ========== Выборки ==========

// FindByKey выбирает строку по первичному ключу записи v
func (d *Dao) FindByKey(ctx context.Context, v vo.ValueObject) (*recordset.RecordSet, error) {
	keys := v.KeyNames()
	if len(keys) == 0 {
		return nil, fmt.Errorf("%w: %s has no primary key", ErrEmptyShape, v.TableName())
	}
	query := d.builder.SelectSQL(v) + " WHERE " + WhereKeys(keys)
	return d.Select(ctx, query, v.KeyValues()...)
}

// List выбирает страницу всех строк таблицы записи v
func (d *Dao) List(ctx context.Context, v vo.ValueObject, page, size int) (*recordset.RecordSet, error) {
	return d.SelectPage(ctx, d.builder.SelectSQL(v), page, size)
}
