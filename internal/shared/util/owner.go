package util

import (
	"crypto/sha256"
	"encoding/hex"
)

const ownerPrefixLen = 32

// OwnerPrefix maps a user id ("google:123", "guest:abc") to the storage
// prefix that holds that user's bills. The raw id never reaches a path.
func OwnerPrefix(userID string) string {
	sum := sha256.Sum256([]byte("bills:" + userID))
	return hex.EncodeToString(sum[:])[:ownerPrefixLen]
}
