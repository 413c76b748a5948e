package vo

import (
	"fmt"
	"strings"
)

// MutationType - способ сохранения ValueObject
type MutationType int

// Типы в порядке объявления. Порядок выполнения при сохранении задает SaveOrder
const (
	Insert     MutationType = iota + 1 // INSERT всех полей
	Update                             // UPDATE неключевых полей по первичному ключу
	Delete                             // DELETE по первичному ключу
	UserUpdate                         // UPDATE полей UserFields по ключам UserKeys
	UserDelete                         // DELETE по ключам UserKeys
	UpdateOnly                         // UPDATE полей UserFields по первичному ключу
)

// SaveOrder - порядок обработки групп при сохранении массива
//
// USER_DELETE выполняется раньше USER_UPDATE и оба после UPDATE_ONLY,
// что отличается от порядка объявления типов. Порядок закреплен тестом.
var SaveOrder = [...]MutationType{Insert, Update, Delete, UpdateOnly, UserDelete, UserUpdate}

var mutationNames = map[MutationType]string{
	Insert:     "INSERT",
	Update:     "UPDATE",
	Delete:     "DELETE",
	UserUpdate: "USER_UPDATE",
	UserDelete: "USER_DELETE",
	UpdateOnly: "UPDATE_ONLY",
}

// String возвращает имя типа
func (t MutationType) String() string {
	if name, ok := mutationNames[t]; ok {
		return name
	}
	return fmt.Sprintf("MutationType(%d)", int(t))
}

// Valid проверяет, что тип объявлен
func (t MutationType) Valid() bool {
	_, ok := mutationNames[t]
	return ok
}

// ParseMutationType разбирает имя типа ("insert", "USER_UPDATE", ...)
func ParseMutationType(s string) (MutationType, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	for t, n := range mutationNames {
		if n == name {
			return t, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown mutation type %q", ErrIllegalArgument, s)
}
