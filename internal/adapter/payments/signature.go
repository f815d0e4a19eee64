package payments

import (
	"crypto/hmac"
	"encoding/hex"
	"hash"
)

func hexHMAC(h func() hash.Hash, secret string, parts ...[]byte) string {
	mac := hmac.New(h, []byte(secret))
	for _, p := range parts {
		mac.Write(p)
	}
	return hex.EncodeToString(mac.Sum(nil))
}

// validHexHMAC compares in constant time. An empty signature never matches.
func validHexHMAC(h func() hash.Hash, secret string, body []byte, signature string) bool {
	if signature == "" || secret == "" {
		return false
	}
	expected := hexHMAC(h, secret, body)
	return hmac.Equal([]byte(expected), []byte(signature))
}
