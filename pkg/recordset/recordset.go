package recordset

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// Форматы хранения временных значений в RecordSet
const (
	// TimestampLayout - дата и время; дробная часть секунд выводится только если не нулевая
	TimestampLayout = "2006-01-02 15:04:05.999999999"

	// DateLayout - только дата
	DateLayout = "2006-01-02"

	// TimeLayout - только время
	TimeLayout = "15:04:05.999999999"
)

// DefaultFetchSize - подсказка размера буфера строк при материализации
const DefaultFetchSize = 100

// RecordSet - материализованный, опционально постраничный снимок результата запроса
//
// После создания неизменяем, кроме позиции курсора. Курсор 1-based, 0 = перед первой строкой.
// Не предназначен для одновременного перемещения курсора из нескольких горутин.
type RecordSet struct {
	// Параллельные массивы метаданных, индекс = позиция колонки
	columns    []string // имена в верхнем регистре
	sizes      []int64  // display size
	precisions []int64  // реальная точность
	scales     []int64
	types      []SQLType
	typeNames  []string

	index map[string]int // имя колонки -> 0-based позиция (первое вхождение)

	rows   []map[string]any
	cursor int

	page      int
	pageSize  int
	totalRows int
}

// Option - опция материализации
type Option func(*options)

type options struct {
	fetchSize int
}

// WithFetchSize задает подсказку размера буфера строк
func WithFetchSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.fetchSize = n
		}
	}
}

// New материализует курсор
//
// Если page > 0 и pageSize > 0, сохраняются только строки окна
// [(page-1)*pageSize+1, page*pageSize]; иначе сохраняются все строки.
// Курсор всегда читается до конца и закрывается, независимо от окна и ошибок.
func New(rows *sql.Rows, page, pageSize int, opts ...Option) (rs *RecordSet, err error) {
	defer func() {
		if cerr := rows.Close(); cerr != nil && err == nil {
			rs, err = nil, fmt.Errorf("failed to close cursor: %w", cerr)
		}
	}()

	o := options{fetchSize: DefaultFetchSize}
	for _, opt := range opts {
		opt(&o)
	}

	rs, err = newEmpty(rows)
	if err != nil {
		return nil, err
	}

	windowed := page > 0 && pageSize > 0
	first, last := 1, 0
	capacity := o.fetchSize
	if windowed {
		rs.page, rs.pageSize = page, pageSize
		first = (page-1)*pageSize + 1
		last = page * pageSize
		capacity = min(pageSize, o.fetchSize)
	}
	rs.rows = make([]map[string]any, 0, capacity)

	n := len(rs.columns)
	dest := make([]any, n)
	ptrs := make([]any, n)
	for i := range dest {
		ptrs[i] = &dest[i]
	}

	for rows.Next() {
		rs.totalRows++
		if windowed && (rs.totalRows < first || rs.totalRows > last) {
			continue
		}

		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row %d: %w", rs.totalRows, err)
		}

		row := make(map[string]any, n)
		for i, v := range dest {
			// повторное имя колонки не перетирает первое вхождение
			if rs.index[rs.columns[i]] == i {
				row[rs.columns[i]] = rs.convert(i, v)
			}
			dest[i] = nil
		}
		rs.rows = append(rs.rows, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return rs, nil
}

// newEmpty читает метаданные колонок
func newEmpty(rows *sql.Rows) (*RecordSet, error) {
	cts, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("failed to read column metadata: %w", err)
	}

	n := len(cts)
	rs := &RecordSet{
		columns:    make([]string, n),
		sizes:      make([]int64, n),
		precisions: make([]int64, n),
		scales:     make([]int64, n),
		types:      make([]SQLType, n),
		typeNames:  make([]string, n),
		index:      make(map[string]int, n),
	}

	for i, ct := range cts {
		name := strings.ToUpper(ct.Name())
		rs.columns[i] = name
		if _, dup := rs.index[name]; !dup {
			rs.index[name] = i
		}

		rs.typeNames[i] = ct.DatabaseTypeName()
		rs.types[i] = TypeOf(rs.typeNames[i])

		length, hasLength := ct.Length()
		precision, scale, hasDecimal := ct.DecimalSize()
		switch {
		case hasLength:
			rs.sizes[i] = length
			rs.precisions[i] = length
		case hasDecimal:
			rs.sizes[i] = precision
			rs.precisions[i] = precision
		}
		if hasDecimal {
			rs.precisions[i] = precision
			rs.scales[i] = scale
		}
	}

	return rs, nil
}

// convert приводит значение драйвера к форме хранения:
// числа - int64/float64/pgtype.Numeric, бинарные - []byte, NULL - nil, остальное - текст
func (rs *RecordSet) convert(col int, v any) any {
	if v == nil {
		return nil
	}
	t := rs.types[col]

	switch x := v.(type) {
	case int64:
		return x
	case int:
		return int64(x)
	case int32:
		return int64(x)
	case int16:
		return int64(x)
	case int8:
		return int64(x)
	case uint8:
		return int64(x)
	case uint16:
		return int64(x)
	case uint32:
		return int64(x)
	case uint64:
		return x
	case float64:
		return x
	case float32:
		return float64(x)
	case pgtype.Numeric:
		return x
	case bool:
		if x {
			return "1"
		}
		return "0"
	case time.Time:
		switch t {
		case TypeDate:
			return x.Format(DateLayout)
		case TypeTime:
			return x.Format(TimeLayout)
		default:
			return x.Format(TimestampLayout)
		}
	case []byte:
		if t.IsBinary() {
			b := make([]byte, len(x))
			copy(b, x)
			return b
		}
		return rs.convertText(t, string(x))
	case string:
		return rs.convertText(t, x)
	default:
		if s, ok := v.(fmt.Stringer); ok {
			return s.String()
		}
		return fmt.Sprintf("%v", v)
	}
}

// convertText разбирает текст числовых колонок (MySQL text protocol, NUMERIC из pgx)
// Если разобрать не удалось, значение остается текстом
func (rs *RecordSet) convertText(t SQLType, s string) any {
	switch {
	case t.IsInteger():
		if n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64); err == nil {
			return n
		}
	case t.IsFloat():
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return f
		}
	case t.IsDecimal():
		var n pgtype.Numeric
		if err := n.Scan(strings.TrimSpace(s)); err == nil && n.Valid {
			return n
		}
	}
	return s
}

// ========== Метаданные ==========

// Columns возвращает имена колонок (в верхнем регистре)
func (rs *RecordSet) Columns() []string {
	return append([]string(nil), rs.columns...)
}

// ColumnCount возвращает количество колонок
func (rs *RecordSet) ColumnCount() int {
	return len(rs.columns)
}

// ColumnSizes возвращает display size колонок
func (rs *RecordSet) ColumnSizes() []int64 {
	return append([]int64(nil), rs.sizes...)
}

// ColumnPrecisions возвращает реальную точность колонок
func (rs *RecordSet) ColumnPrecisions() []int64 {
	return append([]int64(nil), rs.precisions...)
}

// ColumnScales возвращает scale колонок
func (rs *RecordSet) ColumnScales() []int64 {
	return append([]int64(nil), rs.scales...)
}

// ColumnTypes возвращает коды типов колонок
func (rs *RecordSet) ColumnTypes() []SQLType {
	return append([]SQLType(nil), rs.types...)
}

// ColumnTypeNames возвращает имена типов драйвера
func (rs *RecordSet) ColumnTypeNames() []string {
	return append([]string(nil), rs.typeNames...)
}

// FindColumn возвращает 1-based позицию колонки; регистр имени не важен
func (rs *RecordSet) FindColumn(name string) (int, error) {
	i, ok := rs.index[strings.ToUpper(name)]
	if !ok {
		return 0, &ColumnNotFoundError{Name: name}
	}
	return i + 1, nil
}

// ColumnName возвращает имя колонки по 1-based позиции
func (rs *RecordSet) ColumnName(col int) (string, error) {
	if col < 1 || col > len(rs.columns) {
		return "", &ColumnNotFoundError{Name: strconv.Itoa(col)}
	}
	return rs.columns[col-1], nil
}

// ========== Строки и страницы ==========

// RowCount возвращает количество материализованных строк
func (rs *RecordSet) RowCount() int {
	return len(rs.rows)
}

// TotalRows возвращает количество строк курсора до применения окна
func (rs *RecordSet) TotalRows() int {
	return rs.totalRows
}

// Page возвращает номер страницы (0 = без пагинации)
func (rs *RecordSet) Page() int {
	return rs.page
}

// PageSize возвращает размер страницы (0 = без пагинации)
func (rs *RecordSet) PageSize() int {
	return rs.pageSize
}

// Rows возвращает копии строк как name->value
func (rs *RecordSet) Rows() []map[string]any {
	out := make([]map[string]any, len(rs.rows))
	for i, r := range rs.rows {
		out[i] = copyRow(r)
	}
	return out
}

// Row возвращает копию строки по 1-based номеру
func (rs *RecordSet) Row(row int) (map[string]any, error) {
	r, err := rs.row(row)
	if err != nil {
		return nil, err
	}
	return copyRow(r), nil
}

func (rs *RecordSet) row(row int) (map[string]any, error) {
	if row < 1 || row > len(rs.rows) {
		return nil, fmt.Errorf("%w: %d (rows: %d)", ErrRowOutOfRange, row, len(rs.rows))
	}
	return rs.rows[row-1], nil
}

func copyRow(r map[string]any) map[string]any {
	c := make(map[string]any, len(r))
	for k, v := range r {
		c[k] = v
	}
	return c
}

// ========== Навигация ==========

// First ставит курсор на первую строку
func (rs *RecordSet) First() bool {
	if len(rs.rows) == 0 {
		return false
	}
	rs.cursor = 1
	return true
}

// Last ставит курсор на последнюю строку
func (rs *RecordSet) Last() bool {
	rs.cursor = len(rs.rows)
	return len(rs.rows) > 0
}

// Next сдвигает курсор вперед; false, когда строки закончились
func (rs *RecordSet) Next() bool {
	if rs.cursor < len(rs.rows) {
		rs.cursor++
		return true
	}
	rs.cursor = len(rs.rows) + 1
	return false
}

// Prev сдвигает курсор назад; false, когда курсор ушел перед первой строкой
func (rs *RecordSet) Prev() bool {
	if rs.cursor > 1 {
		rs.cursor--
		return true
	}
	rs.cursor = 0
	return false
}

// Move ставит курсор на строку n (1-based); при n вне диапазона курсор не меняется
func (rs *RecordSet) Move(n int) bool {
	if n < 1 || n > len(rs.rows) {
		return false
	}
	rs.cursor = n
	return true
}

// BeforeFirst возвращает курсор в начальную позицию
func (rs *RecordSet) BeforeFirst() {
	rs.cursor = 0
}

// Position возвращает позицию курсора
func (rs *RecordSet) Position() int {
	return rs.cursor
}

// IsFirst - курсор на первой строке
func (rs *RecordSet) IsFirst() bool {
	return len(rs.rows) > 0 && rs.cursor == 1
}

// IsLast - курсор на последней строке
func (rs *RecordSet) IsLast() bool {
	return len(rs.rows) > 0 && rs.cursor == len(rs.rows)
}
