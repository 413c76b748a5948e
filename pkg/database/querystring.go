package database

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ruslano69/dbcore/pkg/recordset"
)

// BuildQueryString подставляет параметры в текст запроса вместо "?"
//
// Результат предназначен только для логов и сообщений об ошибках и никогда не выполняется.
// Строки и время заключаются в кавычки, nil и "" выводятся как NULL,
// бинарные значения - как 0x..., остальное - как есть.
// Если параметров меньше, чем плейсхолдеров, лишние "?" остаются в тексте.
func BuildQueryString(query string, params []any) string {
	if len(params) == 0 || !strings.Contains(query, "?") {
		return query
	}

	parts := splitPlaceholders(query)
	var sb strings.Builder
	sb.Grow(len(query) + 16*len(params))

	sb.WriteString(parts[0])
	for i, part := range parts[1:] {
		if i < len(params) {
			sb.WriteString(literal(params[i]))
		} else {
			sb.WriteByte('?')
		}
		sb.WriteString(part)
	}
	return sb.String()
}

// literal - текстовое представление параметра в SQL
func literal(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case string:
		if x == "" {
			return "NULL"
		}
		return quote(x)
	case *string:
		if x == nil || *x == "" {
			return "NULL"
		}
		return quote(*x)
	case time.Time:
		return quote(x.Format(recordset.TimestampLayout))
	case *time.Time:
		if x == nil {
			return "NULL"
		}
		return quote(x.Format(recordset.TimestampLayout))
	case []byte:
		if len(x) == 0 {
			return "NULL"
		}
		return "0x" + hex.EncodeToString(x)
	case bool:
		return strconv.FormatBool(x)
	case fmt.Stringer:
		return quote(x.String())
	}
	return fmt.Sprint(v)
}

func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// Rebind заменяет плейсхолдеры "?" на $1..$n (PostgreSQL)
// Знаки вопроса внутри строковых литералов и идентификаторов в кавычках не трогаются
func Rebind(query string) string {
	if !strings.Contains(query, "?") {
		return query
	}

	parts := splitPlaceholders(query)
	var sb strings.Builder
	sb.Grow(len(query) + 2*len(parts))

	sb.WriteString(parts[0])
	for i, part := range parts[1:] {
		sb.WriteByte('$')
		sb.WriteString(strconv.Itoa(i + 1))
		sb.WriteString(part)
	}
	return sb.String()
}

// splitPlaceholders делит запрос по плейсхолдерам "?"
// вне строковых литералов и идентификаторов в кавычках
func splitPlaceholders(query string) []string {
	var parts []string
	start := 0
	var quoteChar byte
	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case quoteChar != 0:
			// '' внутри литерала закрывает и сразу открывает его снова: состояние не меняется
			if c == quoteChar {
				quoteChar = 0
			}
		case c == '\'' || c == '"':
			quoteChar = c
		case c == '?':
			parts = append(parts, query[start:i])
			start = i + 1
		}
	}
	return append(parts, query[start:])
}
