// Package vo описывает ValueObject - запись таблицы, которую сохраняет dao.Dao,
// и Array - набор записей, сгруппированных по типу мутации.
//
// Реализации ValueObject не используют reflection: на каждую таблицу
// генерируется отдельный тип, методы которого делегируют функциям Derive*.
package vo
