/*
File Name:  Hash.go
Copyright:  2021 Peernet s.r.o.
*/

package protocol

import (
	"golang.org/x/crypto/sha3"
)

// HashData abstracts the hash function. It is the legacy Keccak-256 (pre-standard SHA-3 padding).
func HashData(data []byte) (hash []byte) {
	h := sha3.NewLegacyKeccak256()
	h.Write(data)
	return h.Sum(nil)
}

// HashSize is Keccak-256 digest size = 256 bits
const HashSize = 32
