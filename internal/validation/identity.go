// Package validation содержит функции валидации входных данных.
package validation

import (
	"strconv"
	"strings"
)

const (
	maxAccountLen = 64
	maxTokenLen   = 16
)

var componentNames = map[string]struct{}{
	"reserve":  {},
	"staking":  {},
	"fixed":    {},
	"discount": {},
	"range":    {},
}

// IsValidAccount проверяет идентичность пользовательского аккаунта: латиница, цифры, '_', '-', '.',
// от 3 до 64 символов. Символ '/' запрещён, поэтому пользовательский аккаунт
// не может совпасть с аккаунтом компонента кампании.
func IsValidAccount(account string) bool {
	if len(account) < 3 || len(account) > maxAccountLen {
		return false
	}

	for i := 0; i < len(account); i++ {
		ch := account[i]
		switch {
		case ch >= 'a' && ch <= 'z', ch >= 'A' && ch <= 'Z', ch >= '0' && ch <= '9':
		case ch == '_' || ch == '-' || ch == '.':
		default:
			return false
		}
	}

	return true
}

// IsComponentAccount проверяет, что строка является аккаунтом компонента кампании вида funding/{id}/{component}.
func IsComponentAccount(account string) bool {
	parts := strings.Split(account, "/")
	if len(parts) != 3 || parts[0] != "funding" {
		return false
	}

	id, err := strconv.ParseUint(parts[1], 10, 64)
	if err != nil || id == 0 || parts[1] != strconv.FormatUint(id, 10) {
		return false
	}

	_, ok := componentNames[parts[2]]
	return ok
}

// IsValidSpender разрешает выдавать разрешения пользователям и компонентам кампаний.
func IsValidSpender(account string) bool {
	return IsValidAccount(account) || IsComponentAccount(account)
}

// IsValidToken проверяет тикер токена: заглавная латиница и цифры, от 2 до 16 символов, первым идёт буква.
func IsValidToken(symbol string) bool {
	if len(symbol) < 2 || len(symbol) > maxTokenLen {
		return false
	}
	if symbol[0] < 'A' || symbol[0] > 'Z' {
		return false
	}

	for i := 1; i < len(symbol); i++ {
		ch := symbol[i]
		if (ch < 'A' || ch > 'Z') && (ch < '0' || ch > '9') {
			return false
		}
	}

	return true
}
