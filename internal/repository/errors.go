// Package repository содержит реализации хранилищ пользователей, каталога, заказов и уведомлений.
package repository

import "errors"

var (
	// ErrNotFound возвращается, если запись не найдена.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateEmail возвращается при попытке создать пользователя с занятым email.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrDuplicateEmployeeID возвращается при попытке создать пользователя с занятым табельным номером.
	ErrDuplicateEmployeeID = errors.New("employee id already registered")
	// ErrStaleOrder возвращается, если статус заказа изменился после чтения.
	ErrStaleOrder = errors.New("order was modified concurrently")
	// ErrAlreadyRated возвращается при повторной оценке заказа.
	ErrAlreadyRated = errors.New("order already rated")
)
