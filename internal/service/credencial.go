package service

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const bcryptCost = 12

// Verificador hashes and checks cashier passwords against the digests kept in
// the local mirror. It must produce what the backend produces, otherwise the
// offline path would reject passwords the API accepts.
type Verificador interface {
	Hash(password string) (string, error)
	Verificar(password, digest string) bool
}

type verificador struct{ algo string }

// NewVerificador supports "sha256" (lowercase hex, deterministic) and "bcrypt".
// Verification detects bcrypt digests by prefix regardless of algo.
func NewVerificador(algo string) (Verificador, error) {
	algo = strings.ToLower(strings.TrimSpace(algo))
	switch algo {
	case "", "sha256":
		return verificador{algo: "sha256"}, nil
	case "bcrypt":
		return verificador{algo: "bcrypt"}, nil
	default:
		return nil, fmt.Errorf("algoritmo de hash no soportado: %q", algo)
	}
}

func (v verificador) Hash(password string) (string, error) {
	if v.algo == "bcrypt" {
		h, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
		if err != nil {
			return "", err
		}
		return string(h), nil
	}
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:]), nil
}

func (v verificador) Verificar(password, digest string) bool {
	if digest == "" {
		return false
	}
	if strings.HasPrefix(digest, "$2") {
		return bcrypt.CompareHashAndPassword([]byte(digest), []byte(password)) == nil
	}
	sum := sha256.Sum256([]byte(password))
	want := hex.EncodeToString(sum[:])
	return subtle.ConstantTimeCompare([]byte(want), []byte(strings.ToLower(digest))) == 1
}
