package database

import (
	"errors"
	"fmt"
)

var (
	// ErrReleased - ConnectionManager освобожден, дальнейшее использование невозможно
	ErrReleased = errors.New("connection manager released")

	// ErrNotConnected - Connect еще не вызывался
	ErrNotConnected = errors.New("connection manager not connected")

	// ErrStatementClosed - statement закрыт
	ErrStatementClosed = errors.New("statement closed")

	// ErrIllegalArgument - некорректный номер параметра, пустое имя источника и т.п.
	ErrIllegalArgument = errors.New("illegal argument")
)

// ConnectionError - не удалось получить подключение
// Фатальна для ConnectionManager: повторный Connect возвращает ту же ошибку
type ConnectionError struct {
	// Source - имя источника данных или "driver url" для прямого подключения
	Source string
	Err    error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("failed to connect to %s: %v", e.Source, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// QueryError - ошибка выполнения запроса
// SQL содержит текст запроса с подставленными параметрами (только для диагностики)
type QueryError struct {
	SQL string
	Err error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("query failed: %v [sql: %s]", e.Err, e.SQL)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}
