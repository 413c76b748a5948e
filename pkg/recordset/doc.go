// Package recordset предоставляет RecordSet - материализованный снимок результата запроса
//
// RecordSet читает *sql.Rows до конца при создании и сразу закрывает курсор,
// поэтому после New подключение свободно для следующих запросов.
//
// # Хранение значений
//
// Имена колонок приводятся к верхнему регистру. Значения хранятся в виде:
//   - int64 / float64 - целые и вещественные колонки
//   - pgtype.Numeric - DECIMAL/NUMERIC, полученные драйвером как текст или Numeric
//   - []byte - бинарные колонки
//   - nil - NULL
//   - string - все остальное, время в форматах TimestampLayout / DateLayout / TimeLayout
//
// # Пагинация
//
// При page > 0 и pageSize > 0 сохраняются только строки окна
// [(page-1)*pageSize+1, page*pageSize]. TotalRows возвращает число строк курсора.
//
//	rs, err := recordset.New(rows, 2, 10)
//	for rs.Next() {
//	    id, _ := rs.Int64("ID")
//	    name, _ := rs.Text("NAME")
//	}
//
// # Типизированные геттеры
//
// GetInt/GetInt64/GetFloat64/GetFloat32/GetDecimal используют общий путь приведения:
// NULL и пустая строка дают 0, нечисловой текст - *FormatError с Kind == ErrNumberFormat.
// GetDate/GetTimestamp разбирают текст строго по форматам пакета.
package recordset
