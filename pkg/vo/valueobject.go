package vo

import "errors"

var (
	// ErrIllegalArgument - несовпадение длин имен и значений, неизвестный тип мутации
	ErrIllegalArgument = errors.New("illegal argument")

	// ErrUnknownField - поля с таким именем нет в записи
	ErrUnknownField = errors.New("unknown field")
)

// Record - метаданные и значения одной строки таблицы
//
// FieldNames/FieldValues и KeyNames/KeyValues - параллельные массивы.
// Реализуется сгенерированным кодом, по одному типу на таблицу, без reflection.
type Record interface {
	TableName() string
	FieldNames() []string
	FieldValues() []any
	KeyNames() []string
	KeyValues() []any

	// GetByName/SetByName - доступ к полю по имени без учета регистра
	GetByName(name string) (any, error)
	SetByName(name string, v any) error
}

// ValueObject - запись, которую умеет сохранять Dao
//
// Производные наборы значений соответствуют формам SQL из dao.SQLBuilder:
//
//	InsertValues       все поля в порядке FieldNames
//	UpdateValues       неключевые поля, затем ключи
//	DeleteValues       ключи
//	UpdateOnlyValues   поля fields, затем ключи
//	UserUpdateValues   поля fields, затем поля keys
//	UserDeleteValues   поля keys
//
// Типовая реализация делегирует функциям Derive*.
type ValueObject interface {
	Record

	InsertValues() []any
	UpdateValues() []any
	DeleteValues() []any
	UpdateOnlyValues(fields []string) ([]any, error)
	UserUpdateValues(fields, keys []string) ([]any, error)
	UserDeleteValues(keys []string) ([]any, error)
}
