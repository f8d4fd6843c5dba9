package keygen

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"regexp"
	"time"
)

const (
	// FreePrefix is the prefix of the deterministic daily free key
	FreePrefix = "THOMAS-"
	// VipPrefix is the default prefix for generated VIP keys
	VipPrefix = "THOMAS_"
	// VipLength is the default number of random characters in a VIP key
	VipLength = 12
	// APIKeyLength is the length of a generated API key in bytes (32 bytes = 64 hex chars)
	APIKeyLength = 32

	freeKeyMultiplier = 2593885817
	freeKeyOffset     = 4610273
)

// KeyClass is the classified shape of a key string
type KeyClass string

const (
	ClassFree    KeyClass = "free"
	ClassVip     KeyClass = "vip"
	ClassUnknown KeyClass = "unknown"
)

var (
	freeKeyRegex = regexp.MustCompile(`^` + FreePrefix + `\d+$`)
	vipKeyRegex  = regexp.MustCompile(`^` + VipPrefix + `[a-zA-Z0-9]+$`)
)

// FreeKey returns the deterministic free key for a given day of month.
// The value is intentionally guessable; it rotates once per calendar day.
func FreeKey(day int) string {
	return fmt.Sprintf("%s%d", FreePrefix, int64(day)*freeKeyMultiplier+freeKeyOffset)
}

// FreeKeyFor returns the free key for the calendar day of t (local time)
func FreeKeyFor(t time.Time) string {
	return FreeKey(t.Day())
}

// VipKey returns prefix followed by length random alphanumeric characters
func VipKey(prefix string, length int) (string, error) {
	chars := make([]byte, 0, length)
	for len(chars) < length {
		buf := make([]byte, length)
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}
		for _, c := range []byte(base64.StdEncoding.EncodeToString(buf)) {
			if isAlnum(c) {
				chars = append(chars, c)
				if len(chars) == length {
					break
				}
			}
		}
	}
	return prefix + string(chars), nil
}

// APIKeyValue returns a new random API key as 64 lowercase hex characters
func APIKeyValue() (string, error) {
	buf := make([]byte, APIKeyLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// Classify reports whether a key string has the free or VIP shape.
// Anything else, including empty, classifies as unknown.
func Classify(value string) KeyClass {
	switch {
	case freeKeyRegex.MatchString(value):
		return ClassFree
	case vipKeyRegex.MatchString(value):
		return ClassVip
	default:
		return ClassUnknown
	}
}

func isAlnum(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}
