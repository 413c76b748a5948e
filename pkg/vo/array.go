package vo

// entry - пара (тип мутации, запись)
type entry struct {
	t MutationType
	v ValueObject
}

// Array - упорядоченный набор записей, сгруппированных по типу мутации
//
// Порядок добавления внутри одного типа сохраняется. UserFields/UserKeys
// используются группами UPDATE_ONLY, USER_UPDATE и USER_DELETE.
type Array struct {
	entries    []entry
	userFields []string
	userKeys   []string
}

// NewArray создает пустой массив
func NewArray() *Array {
	return &Array{}
}

// Add добавляет запись; nil и необъявленный тип мутации игнорируются
func (a *Array) Add(t MutationType, v ValueObject) {
	if v == nil || !t.Valid() {
		return
	}
	a.entries = append(a.entries, entry{t: t, v: v})
}

// Get возвращает записи типа t в порядке добавления
// nil только если массив пуст целиком, иначе не-nil срез (возможно пустой)
func (a *Array) Get(t MutationType) []ValueObject {
	if len(a.entries) == 0 {
		return nil
	}
	out := make([]ValueObject, 0)
	for _, e := range a.entries {
		if e.t == t {
			out = append(out, e.v)
		}
	}
	return out
}

// Size возвращает общее количество записей
func (a *Array) Size() int {
	return len(a.entries)
}

// Count возвращает количество записей типа t
func (a *Array) Count(t MutationType) int {
	n := 0
	for _, e := range a.entries {
		if e.t == t {
			n++
		}
	}
	return n
}

// SetUserFields задает поля для UPDATE_ONLY и USER_UPDATE
func (a *Array) SetUserFields(fields ...string) {
	a.userFields = append([]string(nil), fields...)
}

// SetUserKeys задает ключи для USER_UPDATE и USER_DELETE
func (a *Array) SetUserKeys(keys ...string) {
	a.userKeys = append([]string(nil), keys...)
}

// UserFields возвращает поля для UPDATE_ONLY и USER_UPDATE
func (a *Array) UserFields() []string {
	return append([]string(nil), a.userFields...)
}

// UserKeys возвращает ключи для USER_UPDATE и USER_DELETE
func (a *Array) UserKeys() []string {
	return append([]string(nil), a.userKeys...)
}

// Clear удаляет все записи; UserFields/UserKeys сохраняются
func (a *Array) Clear() {
	a.entries = nil
}
