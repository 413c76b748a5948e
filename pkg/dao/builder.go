package dao

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ruslano69/dbcore/pkg/vo"
)

// ErrEmptyShape - по метаданным записи нельзя построить запрос
// (нет неключевых полей для UPDATE, нет ключей для DELETE)
var ErrEmptyShape = errors.New("cannot build statement")

// SQLBuilder - формы SQL для одной таблицы
// Плейсхолдеры "?" идут в порядке соответствующих методов vo.ValueObject
type SQLBuilder interface {
	InsertSQL(v vo.ValueObject) (string, error)
	UpdateSQL(v vo.ValueObject) (string, error)
	DeleteSQL(v vo.ValueObject) (string, error)
	UpdateOnlySQL(v vo.ValueObject, fields []string) (string, error)
	UserUpdateSQL(v vo.ValueObject, fields, keys []string) (string, error)
	UserDeleteSQL(v vo.ValueObject, keys []string) (string, error)

	// SelectSQL - выборка всех полей таблицы без WHERE
	SelectSQL(v vo.ValueObject) string
}

// Compile-time check
var _ SQLBuilder = StandardSQL{}

// StandardSQL строит формы SQL по метаданным записи
// Сгенерированные DAO встраивают его и переопределяют отдельные формы при необходимости
type StandardSQL struct{}

// InsertSQL - INSERT INTO T (f1, f2) VALUES (?, ?)
func (StandardSQL) InsertSQL(v vo.ValueObject) (string, error) {
	fields := v.FieldNames()
	if len(fields) == 0 {
		return "", fmt.Errorf("%w: %s has no fields", ErrEmptyShape, v.TableName())
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		v.TableName(), strings.Join(fields, ", "), placeholders(len(fields))), nil
}

// UpdateSQL - UPDATE T SET nonkey = ? ... WHERE key = ? AND ...
func (b StandardSQL) UpdateSQL(v vo.ValueObject) (string, error) {
	return b.update(v, vo.NonKeyFields(v), v.KeyNames())
}

// DeleteSQL - DELETE FROM T WHERE key = ? AND ...
func (b StandardSQL) DeleteSQL(v vo.ValueObject) (string, error) {
	return b.delete(v, v.KeyNames())
}

// UpdateOnlySQL - UPDATE T SET fields WHERE первичный ключ
func (b StandardSQL) UpdateOnlySQL(v vo.ValueObject, fields []string) (string, error) {
	return b.update(v, fields, v.KeyNames())
}

// UserUpdateSQL - UPDATE T SET fields WHERE keys
func (b StandardSQL) UserUpdateSQL(v vo.ValueObject, fields, keys []string) (string, error) {
	return b.update(v, fields, keys)
}

// UserDeleteSQL - DELETE FROM T WHERE keys
func (b StandardSQL) UserDeleteSQL(v vo.ValueObject, keys []string) (string, error) {
	return b.delete(v, keys)
}

// SelectSQL - SELECT f1, f2 FROM T
func (StandardSQL) SelectSQL(v vo.ValueObject) string {
	fields := v.FieldNames()
	cols := "*"
	if len(fields) > 0 {
		cols = strings.Join(fields, ", ")
	}
	return fmt.Sprintf("SELECT %s FROM %s", cols, v.TableName())
}

func (StandardSQL) update(v vo.ValueObject, fields, keys []string) (string, error) {
	if len(fields) == 0 {
		return "", fmt.Errorf("%w: UPDATE %s without fields", ErrEmptyShape, v.TableName())
	}
	if len(keys) == 0 {
		return "", fmt.Errorf("%w: UPDATE %s without keys", ErrEmptyShape, v.TableName())
	}
	return fmt.Sprintf("UPDATE %s SET %s WHERE %s",
		v.TableName(), assignments(fields, ", "), assignments(keys, " AND ")), nil
}

func (StandardSQL) delete(v vo.ValueObject, keys []string) (string, error) {
	if len(keys) == 0 {
		return "", fmt.Errorf("%w: DELETE %s without keys", ErrEmptyShape, v.TableName())
	}
	return fmt.Sprintf("DELETE FROM %s WHERE %s", v.TableName(), assignments(keys, " AND ")), nil
}

// WhereKeys - условие "k1 = ? AND k2 = ?" для списка ключей
func WhereKeys(keys []string) string {
	return assignments(keys, " AND ")
}

func assignments(names []string, sep string) string {
	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = name + " = ?"
	}
	return strings.Join(parts, sep)
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
