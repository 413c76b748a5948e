package database

import (
	"time"

	"github.com/ruslano69/dbcore/pkg/datasource"
)

// bindValue приводит параметр к значению для драйвера
//
//   - nil и "" -> NULL
//   - time.Time -> нормализация диалекта (SQLite: текст в формате RecordSet)
//   - []byte нулевой длины -> NULL, иначе бинарное значение
//   - остальное передается как есть
func bindValue(d datasource.Dialect, v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case string:
		if x == "" {
			return nil
		}
		return x
	case *string:
		if x == nil || *x == "" {
			return nil
		}
		return *x
	case time.Time:
		return d.NormalizeTime(x)
	case *time.Time:
		if x == nil {
			return nil
		}
		return d.NormalizeTime(*x)
	case []byte:
		if len(x) == 0 {
			return nil
		}
		return x
	}
	return v
}

// bindAll привязывает набор параметров
func bindAll(d datasource.Dialect, args []any) []any {
	if len(args) == 0 {
		return nil
	}
	bound := make([]any, len(args))
	for i, v := range args {
		bound[i] = bindValue(d, v)
	}
	return bound
}
