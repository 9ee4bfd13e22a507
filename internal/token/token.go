// Package token generates verification codes.
package token

import (
	"crypto/rand"
	"encoding/hex"
)

// Length is the size of a generated code in characters.
const Length = 32

// Generate returns 16 bytes of cryptographically secure randomness as
// 32 lowercase hex characters. Collision resistance comes from the
// 128 bits; the store's unique index on code is only a backstop.
func Generate() string {
	b := make([]byte, Length/2)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand never fails on supported platforms
		panic("token: " + err.Error())
	}
	return hex.EncodeToString(b)
}
