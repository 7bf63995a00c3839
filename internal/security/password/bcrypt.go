// Package password hashea y verifica credenciales con bcrypt.
package password

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// DefaultCost es el costo bcrypt usado al registrar.
const DefaultCost = bcrypt.DefaultCost

var ErrEmpty = errors.New("password: empty")

// Hash devuelve el hash bcrypt (salt incluido) de plain.
func Hash(plain string) (string, error) {
	return HashWithCost(plain, DefaultCost)
}

// HashWithCost es Hash con costo explícito; los tests usan bcrypt.MinCost.
func HashWithCost(plain string, cost int) (string, error) {
	if plain == "" {
		return "", ErrEmpty
	}
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Verify compara plain contra un hash bcrypt. Un hash malformado no verifica.
func Verify(plain, hash string) bool {
	if plain == "" || hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
