package recordset

import "testing"

func TestTypeOf(t *testing.T) {
	tests := []struct {
		name string
		want SQLType
	}{
		// SQLite
		{"INTEGER", TypeInteger},
		{"varchar(100)", TypeVarChar},
		{"DECIMAL(10,2)", TypeDecimal},
		{"BLOB", TypeBlob},
		{"", TypeNull},
		// PostgreSQL
		{"INT8", TypeBigInt},
		{"FLOAT4", TypeReal},
		{"NUMERIC", TypeNumeric},
		{"TIMESTAMPTZ", TypeTimestampTZ},
		{"BYTEA", TypeLongVarBinary},
		{"INTERVAL", TypeOther},
		{"_INT4", TypeOther},
		// MySQL
		{"INT UNSIGNED", TypeInteger},
		{"UNSIGNED BIGINT", TypeBigInt},
		{"MEDIUMTEXT", TypeLongVarChar},
		{"DATETIME", TypeTimestamp},
		// MS SQL
		{"NVARCHAR", TypeVarChar},
		{"MONEY", TypeDecimal},
		{"DATETIMEOFFSET", TypeTimestampTZ},
		{"UNIQUEIDENTIFIER", TypeChar},
		// affinity
		{"UNSIGNED BIG INT", TypeInteger},
		{"CHARACTER(20)", TypeVarChar},
		{"DOUBLE PRECISION", TypeDouble},
		{"GEOMETRY", TypeOther},
	}

	for _, tt := range tests {
		if got := TypeOf(tt.name); got != tt.want {
			t.Errorf("TypeOf(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestSQLType_Classes(t *testing.T) {
	if !TypeBigInt.IsInteger() || !TypeBigInt.IsNumeric() {
		t.Error("BIGINT must be integer and numeric")
	}
	if !TypeNumeric.IsDecimal() || TypeNumeric.IsFloat() {
		t.Error("NUMERIC must be decimal, not float")
	}
	if !TypeLongVarBinary.IsBinary() || TypeVarChar.IsBinary() {
		t.Error("binary classification is wrong")
	}
	if !TypeTimestampTZ.IsTemporal() || TypeInteger.IsTemporal() {
		t.Error("temporal classification is wrong")
	}
	if TypeTimestampTZ.String() != "TIMESTAMP_WITH_TIMEZONE" {
		t.Errorf("String() = %s", TypeTimestampTZ)
	}
}
