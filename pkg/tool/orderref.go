package tool

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// GenerateOrderReference builds a gateway-legal reference for one charge
// attempt: application id + coarse UTC timestamp + random suffix, reduced to
// letters and digits only. The random suffix keeps two calls in the same
// process tick distinct; the timestamp alone is not enough.
func GenerateOrderReference(applicationID uint) string {
	var buf [4]byte
	_, _ = rand.Read(buf[:])
	raw := fmt.Sprintf("APP%d%s%s",
		applicationID,
		time.Now().UTC().Format("20060102150405"),
		hex.EncodeToString(buf[:]),
	)
	return stripNonAlphanumeric(raw)
}

func stripNonAlphanumeric(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
