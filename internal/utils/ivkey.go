package utils

import (
	"crypto/aes"
	"encoding/hex"
	"fmt"
	"strings"
)

// NormalizeHex strips the separators people paste keys with and lowercases the result
func NormalizeHex(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(strings.ToLower(s), "0x")
	return strings.NewReplacer(" ", "", ":", "", "\t", "").Replace(s)
}

// ValidateHex returns an error if s is not a hex string
func ValidateHex(name, s string) error {
	if len(s) == 0 {
		return fmt.Errorf("%s is empty", name)
	}
	if _, err := hex.DecodeString(s); err != nil {
		return fmt.Errorf("invalid %s hex string: %v", name, err)
	}
	return nil
}

// SplitIVKey splits a concatenated iv+key hex string into its 16 byte IV and the key
func SplitIVKey(ivkey string) (string, string, error) {
	ivkey = NormalizeHex(ivkey)
	if err := ValidateHex("iv+key", ivkey); err != nil {
		return "", "", err
	}
	if len(ivkey) <= aes.BlockSize*2 {
		return "", "", fmt.Errorf("iv+key must be longer than %d hex characters, got %d", aes.BlockSize*2, len(ivkey))
	}
	return ivkey[:aes.BlockSize*2], ivkey[aes.BlockSize*2:], nil
}
