// Package shortid генерирует короткие идентификаторы ссылок.
package shortid

import "github.com/lithammer/shortuuid/v4"

// Length длина сгенерированного идентификатора
const Length = 7

// New возвращает первые Length символов base57 shortuuid
func New() string {
	return shortuuid.New()[:Length]
}
