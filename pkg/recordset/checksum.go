package recordset

import (
	"encoding/hex"
	"math"

	"github.com/zeebo/xxh3"
)

const (
	fieldSeparator = 0x1f // unit separator между значениями
	nullMarker     = 0x00
)

// Checksum вычисляет xxh3 (64-bit) хеш имен колонок и материализованных строк
// в порядке следования. Используется для сравнения страниц, полученных из разных
// источников данных: одинаковые данные дают одинаковый хеш независимо от драйвера,
// пока значения совпадают в текстовом представлении.
// Значения колонок с повторяющимся именем учитываются один раз.
func (rs *RecordSet) Checksum() string {
	h := xxh3.New()

	for _, col := range rs.columns {
		_, _ = h.WriteString(col)
		_, _ = h.Write([]byte{fieldSeparator})
	}

	for _, row := range rs.rows {
		for i, col := range rs.columns {
			if rs.index[col] != i {
				continue
			}
			v := row[col]
			switch x := v.(type) {
			case nil:
				_, _ = h.Write([]byte{nullMarker})
			case float64:
				// целые значения float совпадают с INTEGER другого драйвера
				if x == math.Trunc(x) && math.Abs(x) < 1<<53 {
					_, _ = h.WriteString(text(int64(x)))
				} else {
					_, _ = h.WriteString(text(x))
				}
			case []byte:
				_, _ = h.WriteString(hex.EncodeToString(x))
			default:
				_, _ = h.WriteString(text(v))
			}
			_, _ = h.Write([]byte{fieldSeparator})
		}
	}

	return hex.EncodeToString(uint64ToBytes(h.Sum64()))
}

// uint64ToBytes конвертирует uint64 в байтовый массив (big-endian).
func uint64ToBytes(v uint64) []byte {
	b := make([]byte, 8)
	for i := 7; i >= 0; i-- {
		b[i] = byte(v)
		v >>= 8
	}
	return b
}
