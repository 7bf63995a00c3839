// Package tokens reúne las primitivas criptográficas del core de sesión:
// digests SHA-256, bytes aleatorios seguros y OTPs numéricos.
package tokens

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"math/big"
	"strconv"
)

// RefreshTokenBytes es la entropía de un refresh token crudo.
const RefreshTokenBytes = 64

const (
	otpMin = 100000
	otpMax = 999999
)

// SHA256Base64 devuelve sha256(input) en base64 estándar (con padding).
// Es el formato que se guarda en DB para temp tokens, OTPs y refresh tokens.
func SHA256Base64(s string) string {
	sum := sha256.Sum256([]byte(s))
	return base64.StdEncoding.EncodeToString(sum[:])
}

// RandomBase64 genera n bytes de crypto/rand y los codifica en base64 estándar.
func RandomBase64(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

// GenerateOpaqueToken genera un token opaco aleatorio (base64url sin padding).
func GenerateOpaqueToken(nBytes int) (string, error) {
	b := make([]byte, nBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// GenerateOTP devuelve un código de 6 dígitos uniforme en [100000, 999999].
func GenerateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(otpMax-otpMin+1))
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(n.Int64()+otpMin, 10), nil
}

// EqualDigest compara dos digests en tiempo constante.
func EqualDigest(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
