package recordset

import (
	"encoding/hex"
	"math"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// maxDecimalScale - максимальное число знаков после запятой при переводе в pgtype.Numeric
const maxDecimalScale = 38

// ========== Доступ по номеру строки ==========

// Get возвращает хранимое значение как есть
// Номер строки 1-based, имя колонки без учета регистра.
// При повторяющихся именах колонок возвращается значение первой из них, как и в FindColumn
func (rs *RecordSet) Get(row int, column string) (any, error) {
	key, err := rs.key(column)
	if err != nil {
		return nil, err
	}
	r, err := rs.row(row)
	if err != nil {
		return nil, err
	}
	return r[key], nil
}

// IsNull - значение NULL
func (rs *RecordSet) IsNull(row int, column string) (bool, error) {
	v, err := rs.Get(row, column)
	if err != nil {
		return false, err
	}
	return v == nil, nil
}

// GetString возвращает значение текстом; NULL -> ""
func (rs *RecordSet) GetString(row int, column string) (string, error) {
	v, err := rs.Get(row, column)
	if err != nil {
		return "", err
	}
	return text(v), nil
}

// GetInt64 возвращает значение целым, дробная часть отбрасывается
func (rs *RecordSet) GetInt64(row int, column string) (int64, error) {
	v, err := rs.Get(row, column)
	if err != nil {
		return 0, err
	}
	if n, ok := v.(int64); ok {
		return n, nil
	}

	r, err := number(column, v)
	if err != nil {
		return 0, err
	}
	i := new(big.Int).Quo(r.Num(), r.Denom())
	if !i.IsInt64() {
		return 0, &FormatError{Column: column, Value: text(v), Kind: ErrNumberFormat, Err: strconv.ErrRange}
	}
	return i.Int64(), nil
}

// GetInt - GetInt64 с проверкой диапазона int
func (rs *RecordSet) GetInt(row int, column string) (int, error) {
	n, err := rs.GetInt64(row, column)
	if err != nil {
		return 0, err
	}
	if n < math.MinInt || n > math.MaxInt {
		return 0, &FormatError{Column: column, Value: strconv.FormatInt(n, 10), Kind: ErrNumberFormat, Err: strconv.ErrRange}
	}
	return int(n), nil
}

// GetFloat64 возвращает значение числом с плавающей точкой
func (rs *RecordSet) GetFloat64(row int, column string) (float64, error) {
	v, err := rs.Get(row, column)
	if err != nil {
		return 0, err
	}
	if f, ok := v.(float64); ok {
		return f, nil
	}

	r, err := number(column, v)
	if err != nil {
		return 0, err
	}
	f, _ := r.Float64()
	return f, nil
}

// GetFloat32 - GetFloat64 с округлением до float32
func (rs *RecordSet) GetFloat32(row int, column string) (float32, error) {
	f, err := rs.GetFloat64(row, column)
	if err != nil {
		return 0, err
	}
	return float32(f), nil
}

// GetDecimal возвращает значение десятичным числом фиксированной точности
// NULL -> 0
func (rs *RecordSet) GetDecimal(row int, column string) (pgtype.Numeric, error) {
	v, err := rs.Get(row, column)
	if err != nil {
		return pgtype.Numeric{}, err
	}
	if n, ok := v.(pgtype.Numeric); ok && n.Valid && !n.NaN && n.InfinityModifier == pgtype.Finite {
		return n, nil
	}

	r, err := number(column, v)
	if err != nil {
		return pgtype.Numeric{}, err
	}
	return ratToNumeric(r), nil
}

// GetDate возвращает дату (время отбрасывается); NULL или "" -> нулевое время
func (rs *RecordSet) GetDate(row int, column string) (time.Time, error) {
	v, err := rs.Get(row, column)
	if err != nil {
		return time.Time{}, err
	}
	t, err := parseTemporal(column, v, DateLayout, TimestampLayout)
	if err != nil {
		return time.Time{}, err
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
}

// GetTimestamp возвращает дату и время; NULL или "" -> нулевое время
func (rs *RecordSet) GetTimestamp(row int, column string) (time.Time, error) {
	v, err := rs.Get(row, column)
	if err != nil {
		return time.Time{}, err
	}
	return parseTemporal(column, v, TimestampLayout, DateLayout, time.RFC3339Nano)
}

// ========== Доступ по курсору ==========

// Value возвращает хранимое значение текущей строки
func (rs *RecordSet) Value(column string) (any, error) {
	return rs.Get(rs.cursor, column)
}

// Text возвращает значение текущей строки текстом
func (rs *RecordSet) Text(column string) (string, error) {
	return rs.GetString(rs.cursor, column)
}

// Int возвращает значение текущей строки как int
func (rs *RecordSet) Int(column string) (int, error) {
	return rs.GetInt(rs.cursor, column)
}

// Int64 возвращает значение текущей строки как int64
func (rs *RecordSet) Int64(column string) (int64, error) {
	return rs.GetInt64(rs.cursor, column)
}

// Float64 возвращает значение текущей строки как float64
func (rs *RecordSet) Float64(column string) (float64, error) {
	return rs.GetFloat64(rs.cursor, column)
}

// Float32 возвращает значение текущей строки как float32
func (rs *RecordSet) Float32(column string) (float32, error) {
	return rs.GetFloat32(rs.cursor, column)
}

// Decimal возвращает значение текущей строки как pgtype.Numeric
func (rs *RecordSet) Decimal(column string) (pgtype.Numeric, error) {
	return rs.GetDecimal(rs.cursor, column)
}

// Date возвращает дату текущей строки
func (rs *RecordSet) Date(column string) (time.Time, error) {
	return rs.GetDate(rs.cursor, column)
}

// Timestamp возвращает дату и время текущей строки
func (rs *RecordSet) Timestamp(column string) (time.Time, error) {
	return rs.GetTimestamp(rs.cursor, column)
}

// ========== Приведение типов ==========

func (rs *RecordSet) key(column string) (string, error) {
	key := strings.ToUpper(column)
	if _, ok := rs.index[key]; !ok {
		return "", &ColumnNotFoundError{Name: column}
	}
	return key, nil
}

// text - текстовое представление хранимого значения
func text(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case pgtype.Numeric:
		dv, err := x.Value()
		if err != nil || dv == nil {
			return ""
		}
		s, _ := dv.(string)
		return s
	case []byte:
		return string(x)
	default:
		return ""
	}
}

// number - единый путь числового приведения
// NULL и пустой текст дают 0, нечисловой текст - FormatError
func number(column string, v any) (*big.Rat, error) {
	switch x := v.(type) {
	case nil:
		return new(big.Rat), nil
	case int64:
		return new(big.Rat).SetInt64(x), nil
	case uint64:
		return new(big.Rat).SetUint64(x), nil
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return nil, &FormatError{Column: column, Value: text(v), Kind: ErrNumberFormat, Err: strconv.ErrSyntax}
		}
	case []byte:
		// бинарные значения не являются числами
		return nil, &FormatError{Column: column, Value: "0x" + hex.EncodeToString(x), Kind: ErrNumberFormat, Err: strconv.ErrSyntax}
	}

	s := strings.TrimSpace(text(v))
	if s == "" {
		return new(big.Rat), nil
	}
	r, ok := new(big.Rat).SetString(s)
	if !ok {
		return nil, &FormatError{Column: column, Value: s, Kind: ErrNumberFormat, Err: strconv.ErrSyntax}
	}
	return r, nil
}

// ratToNumeric переводит рациональное число в Numeric{Int, Exp}
// Непериодические дроби переводятся точно, остальные усекаются до maxDecimalScale знаков
func ratToNumeric(r *big.Rat) pgtype.Numeric {
	if r.IsInt() {
		return pgtype.Numeric{Int: new(big.Int).Set(r.Num()), Valid: true}
	}

	ten := big.NewInt(10)
	num := new(big.Int).Set(r.Num())
	den := r.Denom()
	rem := new(big.Int)
	q := new(big.Int)
	for exp := 1; exp <= maxDecimalScale; exp++ {
		num.Mul(num, ten)
		q.QuoRem(num, den, rem)
		if rem.Sign() == 0 || exp == maxDecimalScale {
			return pgtype.Numeric{Int: new(big.Int).Set(q), Exp: int32(-exp), Valid: true}
		}
	}
	return pgtype.Numeric{Int: q, Exp: -maxDecimalScale, Valid: true}
}

// parseTemporal строго разбирает текст одним из форматов
func parseTemporal(column string, v any, layouts ...string) (time.Time, error) {
	s := strings.TrimSpace(text(v))
	if s == "" {
		return time.Time{}, nil
	}

	var firstErr error
	for _, layout := range layouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, &FormatError{Column: column, Value: s, Kind: ErrDateFormat, Err: firstErr}
}
