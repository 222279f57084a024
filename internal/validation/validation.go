// Package validation содержит функции валидации входных данных.
package validation

import (
	"net/mail"
	"strings"
)

// MinPasswordLength задаёт минимальную длину пароля при регистрации.
const MinPasswordLength = 6

// FieldError описывает ошибку в одном поле запроса.
type FieldError struct {
	Field   string
	Message string
}

// Error содержит все найденные ошибки полей.
type Error struct {
	Fields []FieldError
}

func (e *Error) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return strings.Join(parts, ", ")
}

// Validator накапливает ошибки полей.
type Validator struct {
	fields []FieldError
}

// Check добавляет ошибку, если условие ok ложно.
func (v *Validator) Check(ok bool, field, message string) {
	if !ok {
		v.fields = append(v.fields, FieldError{Field: field, Message: message})
	}
}

// Err возвращает *Error, если были ошибки, иначе nil.
func (v *Validator) Err() error {
	if len(v.fields) == 0 {
		return nil
	}
	return &Error{Fields: v.fields}
}

// NotBlank проверяет, что строка содержит непробельные символы.
func NotBlank(s string) bool {
	return strings.TrimSpace(s) != ""
}

// IsValidEmail проверяет формат адреса электронной почты.
func IsValidEmail(email string) bool {
	if email == "" || strings.ContainsAny(email, " <>") {
		return false
	}
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return false
	}
	return addr.Address == email && strings.Contains(email[strings.LastIndex(email, "@")+1:], ".")
}

// IsValidRating проверяет, что оценка лежит в диапазоне от 1 до 5.
func IsValidRating(stars int) bool {
	return stars >= 1 && stars <= 5
}
