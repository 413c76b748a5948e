package recordset

import (
	"errors"
	"fmt"
)

var (
	// ErrColumnNotFound - колонки нет в метаданных RecordSet
	// Ошибка программиста, а не данных
	ErrColumnNotFound = errors.New("column not found")

	// ErrRowOutOfRange - номер строки вне [1, RowCount]
	ErrRowOutOfRange = errors.New("row out of range")

	// ErrNumberFormat - значение не является числом
	ErrNumberFormat = errors.New("malformed number")

	// ErrDateFormat - значение не является датой/временем
	ErrDateFormat = errors.New("malformed date")
)

// ColumnNotFoundError - запрошенная колонка отсутствует
type ColumnNotFoundError struct {
	Name string
}

func (e *ColumnNotFoundError) Error() string {
	return fmt.Sprintf("column not found: %s", e.Name)
}

// Is позволяет errors.Is(err, ErrColumnNotFound)
func (e *ColumnNotFoundError) Is(target error) bool {
	return target == ErrColumnNotFound
}

// FormatError - значение колонки не приводится к запрошенному типу
type FormatError struct {
	Column string
	Value  string
	Kind   error // ErrNumberFormat или ErrDateFormat
	Err    error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("%v: column %s, value %q: %v", e.Kind, e.Column, e.Value, e.Err)
}

func (e *FormatError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}
