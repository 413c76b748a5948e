// Package database управляет подключением и statement поверх database/sql
//
// ConnectionManager владеет одним *sql.Conn, взятым из пула источника данных
// (pkg/datasource), и всеми statement, созданными через него. Release закрывает
// statement, откатывает незафиксированную транзакцию и возвращает подключение в пул.
//
//	m := database.NewConnectionManager("orders-job", database.WithDatasource("main"))
//	defer m.Release()
//	if err := m.Connect(ctx); err != nil {
//	    return err
//	}
//	st, _ := m.CreatePreparedStatement("SELECT * FROM orders WHERE status = ?")
//	st.Set("new")
//	rs, err := st.ExecuteQueryPage(ctx, 1, 50)
//
// # Statement
//
//   - PlainStatement - SQL передается при каждом выполнении
//   - PreparedStatement - фиксированный SQL с параметрами "?"
//   - BatchStatement - очередь SQL текстов
//   - BatchPreparedStatement - один SQL и очередь наборов параметров
//
// Плейсхолдер всегда "?"; для PostgreSQL запрос переписывается в $1..$n.
//
// # Привязка параметров
//
// nil и "" привязываются как NULL, []byte нулевой длины - как NULL,
// time.Time нормализуется диалектом драйвера. Ошибки выполнения возвращаются
// как *QueryError с текстом запроса, в который подставлены параметры.
package database
