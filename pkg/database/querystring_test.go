package database

import (
	"testing"
	"time"

	"github.com/ruslano69/dbcore/pkg/datasource"
	"github.com/ruslano69/dbcore/pkg/recordset"
)

func TestBuildQueryString(t *testing.T) {
	ts := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
	empty := ""

	tests := []struct {
		name   string
		query  string
		params []any
		want   string
	}{
		{"no params", "SELECT 1", nil, "SELECT 1"},
		{"string quoted", "SELECT * FROM t WHERE name = ?", []any{"o'brien"}, "SELECT * FROM t WHERE name = 'o''brien'"},
		{"number raw", "DELETE FROM t WHERE id = ?", []any{42}, "DELETE FROM t WHERE id = 42"},
		{"float raw", "UPDATE t SET price = ?", []any{1.5}, "UPDATE t SET price = 1.5"},
		{"nil and empty", "VALUES (?, ?, ?)", []any{nil, "", &empty}, "VALUES (NULL, NULL, NULL)"},
		{"time quoted", "WHERE created = ?", []any{ts}, "WHERE created = '2024-05-06 07:08:09'"},
		{"bytes hex", "SET data = ?", []any{[]byte{0xca, 0xfe}}, "SET data = 0xcafe"},
		{"empty bytes", "SET data = ?", []any{[]byte{}}, "SET data = NULL"},
		{"bool", "SET active = ?", []any{true}, "SET active = true"},
		{"missing params", "VALUES (?, ?)", []any{1}, "VALUES (1, ?)"},
		{"extra params", "VALUES (?)", []any{1, 2}, "VALUES (1)"},
		{"trailing placeholder", "?", []any{"x"}, "'x'"},
		{"quoted question mark", "SELECT '?', ?", []any{5}, "SELECT '?', 5"},
		{"quoted identifier", `SELECT "why?" FROM t WHERE a = ? AND b = 'it''s ?'`, []any{"x"}, `SELECT "why?" FROM t WHERE a = 'x' AND b = 'it''s ?'`},
		{"only quoted", "SELECT '?'", []any{1}, "SELECT '?'"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BuildQueryString(tt.query, tt.params); got != tt.want {
				t.Errorf("BuildQueryString() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRebind(t *testing.T) {
	tests := []struct {
		query string
		want  string
	}{
		{"SELECT 1", "SELECT 1"},
		{"SELECT * FROM t WHERE a = ? AND b = ?", "SELECT * FROM t WHERE a = $1 AND b = $2"},
		{"SELECT '?' FROM t WHERE a = ?", "SELECT '?' FROM t WHERE a = $1"},
		{"SELECT 'it''s ?' , ? FROM \"odd?\"", "SELECT 'it''s ?' , $1 FROM \"odd?\""},
		{"INSERT INTO t VALUES (?, ?, ?)", "INSERT INTO t VALUES ($1, $2, $3)"},
	}

	for _, tt := range tests {
		if got := Rebind(tt.query); got != tt.want {
			t.Errorf("Rebind(%q) = %q, want %q", tt.query, got, tt.want)
		}
	}
}

func TestBindValue(t *testing.T) {
	sqliteDialect := datasource.Dialect{
		Name: datasource.DriverSQLite,
		TimeValue: func(t time.Time) any {
			return t.Format(recordset.TimestampLayout)
		},
	}
	plain := datasource.Dialect{Name: datasource.DriverMySQL}
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	if v := bindValue(plain, ""); v != nil {
		t.Errorf("bindValue(\"\") = %#v, want nil", v)
	}
	if v := bindValue(plain, []byte{}); v != nil {
		t.Errorf("bindValue([]byte{}) = %#v, want nil", v)
	}
	if v := bindValue(plain, (*time.Time)(nil)); v != nil {
		t.Errorf("bindValue((*time.Time)(nil)) = %#v, want nil", v)
	}
	if v := bindValue(plain, ts); v != ts {
		t.Errorf("bindValue(time) for mysql = %#v, want time.Time", v)
	}
	if v := bindValue(sqliteDialect, &ts); v != "2024-01-02 03:04:05" {
		t.Errorf("bindValue(*time) for sqlite = %#v", v)
	}
	if v := bindValue(plain, 7); v != 7 {
		t.Errorf("bindValue(7) = %#v", v)
	}
	if bindAll(plain, nil) != nil {
		t.Error("bindAll(nil) must be nil")
	}
}
