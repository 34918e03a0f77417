// Package validation содержит функции валидации входных данных.
package validation

import (
	"net/mail"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// IsValidRatingUUID проверяет идентификатор оценки из маршрута.
func IsValidRatingUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}

// ParseOrderID разбирает положительный номер заказа из маршрута.
func ParseOrderID(s string) (int64, bool) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// ParseQueryRating разбирает предзаполненную оценку из параметра запроса.
// Значение вне диапазона 1..5 игнорируется.
func ParseQueryRating(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 || n > 5 {
		return 0
	}
	return n
}

// IsValidRating проверяет оценку, отправленную покупателем.
func IsValidRating(n int) bool {
	return n >= 1 && n <= 5
}

// IsValidEmail проверяет адрес электронной почты.
func IsValidEmail(s string) bool {
	if s == "" {
		return false
	}
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}
