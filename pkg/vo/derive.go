package vo

import (
	"fmt"
	"strings"
)

// Validate проверяет согласованность параллельных массивов записи
func Validate(r Record) error {
	if n, v := len(r.FieldNames()), len(r.FieldValues()); n != v {
		return fmt.Errorf("%w: %s has %d field names and %d values", ErrIllegalArgument, r.TableName(), n, v)
	}
	if n, v := len(r.KeyNames()), len(r.KeyValues()); n != v {
		return fmt.Errorf("%w: %s has %d key names and %d values", ErrIllegalArgument, r.TableName(), n, v)
	}
	return nil
}

// IndexOf возвращает позицию имени без учета регистра или -1
func IndexOf(names []string, name string) int {
	for i, n := range names {
		if strings.EqualFold(n, name) {
			return i
		}
	}
	return -1
}

// Lookup возвращает значение поля по имени из параллельных массивов
// Используется в реализациях GetByName
func Lookup(names []string, values []any, name string) (any, error) {
	i := IndexOf(names, name)
	if i < 0 || i >= len(values) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownField, name)
	}
	return values[i], nil
}

// NonKeyFields возвращает имена полей, не входящих в первичный ключ
func NonKeyFields(r Record) []string {
	keys := r.KeyNames()
	var out []string
	for _, name := range r.FieldNames() {
		if IndexOf(keys, name) < 0 {
			out = append(out, name)
		}
	}
	return out
}

// DeriveInsert - все значения в порядке FieldNames
func DeriveInsert(r Record) []any {
	return append([]any(nil), r.FieldValues()...)
}

// DeriveUpdate - значения неключевых полей, затем значения ключей
func DeriveUpdate(r Record) []any {
	names, values, keys := r.FieldNames(), r.FieldValues(), r.KeyNames()

	out := make([]any, 0, len(values)+len(keys))
	for i, name := range names {
		if IndexOf(keys, name) < 0 && i < len(values) {
			out = append(out, values[i])
		}
	}
	return append(out, r.KeyValues()...)
}

// DeriveDelete - значения ключей
func DeriveDelete(r Record) []any {
	return append([]any(nil), r.KeyValues()...)
}

// DeriveUpdateOnly - значения полей fields, затем значения первичного ключа
func DeriveUpdateOnly(r Record, fields []string) ([]any, error) {
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: update-only fields are empty", ErrIllegalArgument)
	}
	out, err := byNames(r, fields)
	if err != nil {
		return nil, err
	}
	return append(out, r.KeyValues()...), nil
}

// DeriveUserUpdate - значения полей fields, затем значения полей keys
func DeriveUserUpdate(r Record, fields, keys []string) ([]any, error) {
	if len(fields) == 0 || len(keys) == 0 {
		return nil, fmt.Errorf("%w: user update needs fields and keys", ErrIllegalArgument)
	}
	out, err := byNames(r, fields)
	if err != nil {
		return nil, err
	}
	k, err := byNames(r, keys)
	if err != nil {
		return nil, err
	}
	return append(out, k...), nil
}

// DeriveUserDelete - значения полей keys
func DeriveUserDelete(r Record, keys []string) ([]any, error) {
	if len(keys) == 0 {
		return nil, fmt.Errorf("%w: user delete keys are empty", ErrIllegalArgument)
	}
	return byNames(r, keys)
}

func byNames(r Record, names []string) ([]any, error) {
	out := make([]any, 0, len(names))
	for _, name := range names {
		v, err := r.GetByName(name)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
