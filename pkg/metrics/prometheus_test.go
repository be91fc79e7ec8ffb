package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestComputeApproximateRequestSize(t *testing.T) {
	body := `{"application_id":1}`
	req := httptest.NewRequest("POST", "http://example.com/api/v1/payment/start", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	size := computeApproximateRequestSize(req)

	// At minimum: path + method + proto + one header + host + body.
	min := len("/api/v1/payment/start") + len("POST") + len("HTTP/1.1") +
		len("Content-Type") + len("application/json") + len("example.com") + len(body)
	require.GreaterOrEqual(t, size, min)
}

func TestComputeApproximateRequestSize_NoBody(t *testing.T) {
	req := httptest.NewRequest("GET", "http://example.com/healthz", nil)
	require.Greater(t, computeApproximateRequestSize(req), 0)
}

func TestMillisecondsSince(t *testing.T) {
	start := time.Now().Add(-250 * time.Millisecond)
	elapsed := MillisecondsSince(start)
	require.GreaterOrEqual(t, elapsed, 250.0)
	require.Less(t, elapsed, 10_000.0)
}
