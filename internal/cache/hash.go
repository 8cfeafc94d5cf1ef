package cache

import (
	"crypto/sha256"
	"fmt"
)

// HashSource returns the hex SHA-256 of src.
func HashSource(src []byte) string {
	return fmt.Sprintf("%x", sha256.Sum256(src))
}
