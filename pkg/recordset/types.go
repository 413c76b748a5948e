package recordset

import (
	"strings"
)

// SQLType - код типа колонки (коды совпадают с java.sql.Types, которые
// понимают потребители RecordSet: экспортеры и гриды)
type SQLType int

// Коды типов
const (
	TypeBit           SQLType = -7
	TypeTinyInt       SQLType = -6
	TypeBigInt        SQLType = -5
	TypeLongVarBinary SQLType = -4
	TypeVarBinary     SQLType = -3
	TypeBinary        SQLType = -2
	TypeLongVarChar   SQLType = -1
	TypeNull          SQLType = 0
	TypeChar          SQLType = 1
	TypeNumeric       SQLType = 2
	TypeDecimal       SQLType = 3
	TypeInteger       SQLType = 4
	TypeSmallInt      SQLType = 5
	TypeFloat         SQLType = 6
	TypeReal          SQLType = 7
	TypeDouble        SQLType = 8
	TypeVarChar       SQLType = 12
	TypeBoolean       SQLType = 16
	TypeDate          SQLType = 91
	TypeTime          SQLType = 92
	TypeTimestamp     SQLType = 93
	TypeOther         SQLType = 1111
	TypeBlob          SQLType = 2004
	TypeClob          SQLType = 2005
	TypeTimestampTZ   SQLType = 2014
)

// exactTypes - имена типов четырех поддерживаемых драйверов
//
// SQLite   INTEGER, TEXT, REAL, BLOB, NUMERIC + объявленные типы колонок
// Postgres INT2/INT4/INT8, FLOAT4/FLOAT8, BPCHAR, BYTEA, TIMESTAMPTZ ...
// MySQL    TINYINT..BIGINT, DECIMAL, DATETIME, *TEXT, *BLOB
// MS SQL   BIT, MONEY, NVARCHAR, DATETIME2, UNIQUEIDENTIFIER ...
var exactTypes = map[string]SQLType{
	"BIT":              TypeBit,
	"TINYINT":          TypeTinyInt,
	"SMALLINT":         TypeSmallInt,
	"INT2":             TypeSmallInt,
	"MEDIUMINT":        TypeInteger,
	"INT":              TypeInteger,
	"INT4":             TypeInteger,
	"INTEGER":          TypeInteger,
	"BIGINT":           TypeBigInt,
	"INT8":             TypeBigInt,
	"FLOAT":            TypeDouble,
	"FLOAT8":           TypeDouble,
	"DOUBLE":           TypeDouble,
	"DOUBLE PRECISION": TypeDouble,
	"REAL":             TypeReal,
	"FLOAT4":           TypeReal,
	"DECIMAL":          TypeDecimal,
	"NUMERIC":          TypeNumeric,
	"MONEY":            TypeDecimal,
	"SMALLMONEY":       TypeDecimal,
	"CHAR":             TypeChar,
	"BPCHAR":           TypeChar,
	"NCHAR":            TypeChar,
	"VARCHAR":          TypeVarChar,
	"NVARCHAR":         TypeVarChar,
	"TEXT":             TypeLongVarChar,
	"NTEXT":            TypeLongVarChar,
	"TINYTEXT":         TypeLongVarChar,
	"MEDIUMTEXT":       TypeLongVarChar,
	"LONGTEXT":         TypeLongVarChar,
	"CLOB":             TypeClob,
	"UUID":             TypeOther,
	"UNIQUEIDENTIFIER": TypeChar,
	"JSON":             TypeOther,
	"JSONB":            TypeOther,
	"XML":              TypeLongVarChar,
	"BOOL":             TypeBoolean,
	"BOOLEAN":          TypeBoolean,
	"DATE":             TypeDate,
	"TIME":             TypeTime,
	"TIMETZ":           TypeTime,
	"DATETIME":         TypeTimestamp,
	"DATETIME2":        TypeTimestamp,
	"SMALLDATETIME":    TypeTimestamp,
	"TIMESTAMP":        TypeTimestamp,
	"TIMESTAMPTZ":      TypeTimestampTZ,
	"INTERVAL":         TypeOther,
	"DATETIMEOFFSET":   TypeTimestampTZ,
	"BINARY":           TypeBinary,
	"VARBINARY":        TypeVarBinary,
	"BYTEA":            TypeLongVarBinary,
	"IMAGE":            TypeLongVarBinary,
	"BLOB":             TypeBlob,
	"TINYBLOB":         TypeBlob,
	"MEDIUMBLOB":       TypeBlob,
	"LONGBLOB":         TypeBlob,
}

// TypeOf определяет код типа по имени типа драйвера
// Неизвестные имена разбираются по правилам affinity SQLite
func TypeOf(dbTypeName string) SQLType {
	name := strings.ToUpper(strings.TrimSpace(dbTypeName))
	if name == "" {
		return TypeNull
	}

	// Убираем параметры и модификаторы: VARCHAR(100), INT UNSIGNED, _INT4 (массивы pg)
	if i := strings.IndexByte(name, '('); i >= 0 {
		name = strings.TrimSpace(name[:i])
	}
	name = strings.TrimSpace(strings.TrimSuffix(name, " UNSIGNED"))
	if strings.HasPrefix(name, "UNSIGNED ") {
		name = strings.TrimPrefix(name, "UNSIGNED ")
	}

	if t, ok := exactTypes[name]; ok {
		return t
	}
	if strings.HasPrefix(name, "_") {
		return TypeOther
	}

	switch {
	case strings.Contains(name, "INT"):
		return TypeInteger
	case strings.Contains(name, "CHAR"), strings.Contains(name, "CLOB"), strings.Contains(name, "TEXT"):
		return TypeVarChar
	case strings.Contains(name, "BLOB"), strings.Contains(name, "BINARY"):
		return TypeBlob
	case strings.Contains(name, "REAL"), strings.Contains(name, "FLOA"), strings.Contains(name, "DOUB"):
		return TypeDouble
	case strings.Contains(name, "DATE") && strings.Contains(name, "TIME"):
		return TypeTimestamp
	case strings.Contains(name, "TIMESTAMP"):
		return TypeTimestamp
	case strings.Contains(name, "DEC"), strings.Contains(name, "NUM"), strings.Contains(name, "MONEY"):
		return TypeDecimal
	}
	return TypeOther
}

// IsInteger - целочисленный тип
func (t SQLType) IsInteger() bool {
	switch t {
	case TypeTinyInt, TypeSmallInt, TypeInteger, TypeBigInt:
		return true
	}
	return false
}

// IsFloat - тип с плавающей точкой
func (t SQLType) IsFloat() bool {
	return t == TypeFloat || t == TypeReal || t == TypeDouble
}

// IsDecimal - десятичный тип фиксированной точности
func (t SQLType) IsDecimal() bool {
	return t == TypeDecimal || t == TypeNumeric
}

// IsNumeric - значения колонки хранятся в RecordSet числами
func (t SQLType) IsNumeric() bool {
	return t.IsInteger() || t.IsFloat() || t.IsDecimal()
}

// IsBinary - бинарный тип
func (t SQLType) IsBinary() bool {
	switch t {
	case TypeBinary, TypeVarBinary, TypeLongVarBinary, TypeBlob:
		return true
	}
	return false
}

// IsTemporal - тип даты/времени
func (t SQLType) IsTemporal() bool {
	switch t {
	case TypeDate, TypeTime, TypeTimestamp, TypeTimestampTZ:
		return true
	}
	return false
}

// String возвращает имя кода
func (t SQLType) String() string {
	switch t {
	case TypeBit:
		return "BIT"
	case TypeTinyInt:
		return "TINYINT"
	case TypeBigInt:
		return "BIGINT"
	case TypeLongVarBinary:
		return "LONGVARBINARY"
	case TypeVarBinary:
		return "VARBINARY"
	case TypeBinary:
		return "BINARY"
	case TypeLongVarChar:
		return "LONGVARCHAR"
	case TypeNull:
		return "NULL"
	case TypeChar:
		return "CHAR"
	case TypeNumeric:
		return "NUMERIC"
	case TypeDecimal:
		return "DECIMAL"
	case TypeInteger:
		return "INTEGER"
	case TypeSmallInt:
		return "SMALLINT"
	case TypeFloat:
		return "FLOAT"
	case TypeReal:
		return "REAL"
	case TypeDouble:
		return "DOUBLE"
	case TypeVarChar:
		return "VARCHAR"
	case TypeBoolean:
		return "BOOLEAN"
	case TypeDate:
		return "DATE"
	case TypeTime:
		return "TIME"
	case TypeTimestamp:
		return "TIMESTAMP"
	case TypeBlob:
		return "BLOB"
	case TypeClob:
		return "CLOB"
	case TypeTimestampTZ:
		return "TIMESTAMP_WITH_TIMEZONE"
	default:
		return "OTHER"
	}
}
