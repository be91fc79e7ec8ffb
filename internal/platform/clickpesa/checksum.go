package clickpesa

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Checksum signs an outbound payload for gateways that require a
// request-integrity proof. The gateway's verifier recomputes the digest, so
// key ordering and value stringification must match it bit for bit:
// keys sorted lexicographically, values stringified canonically, concatenated
// with no separator, HMAC-SHA256 with the shared secret, hex encoded.
func Checksum(payload map[string]any, secret string) string {
	keys := make([]string, 0, len(payload))
	for k := range payload {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		b.WriteString(canonicalString(payload[k]))
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(b.String()))
	return hex.EncodeToString(mac.Sum(nil))
}

// canonicalString applies the gateway's fixed stringification rule:
// nil -> "", bool -> "true"/"false", composite -> canonical JSON,
// everything else -> its plain string form.
func canonicalString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case bool:
		if t {
			return "true"
		}
		return "false"
	case string:
		return t
	case map[string]any, []any:
		// encoding/json sorts map keys, which is exactly the canonical form.
		raw, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(raw)
	default:
		return fmt.Sprint(t)
	}
}
