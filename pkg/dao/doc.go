// Package dao сохраняет ValueObject в базу данных.
//
// Dao получает открытый database.ConnectionManager и не управляет его
// жизненным циклом и транзакциями. Save выполняет группы vo.Array в
// порядке vo.SaveOrder, по одному PreparedStatement на группу:
//
//	m := database.NewConnectionManager("orders", database.WithDatasource("main"))
//	if err := m.Connect(ctx); err != nil {
//		return err
//	}
//	defer m.Release()
//
//	d := dao.New(m, nil)
//	counts, err := d.Save(ctx, arr)
//	if err != nil {
//		m.Rollback()
//		return err
//	}
//	return m.Commit()
//
// SelectSupport выполняет произвольные выборки и возвращает recordset.RecordSet.
package dao
