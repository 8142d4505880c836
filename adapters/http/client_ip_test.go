package verifyhttp

import (
	"net/http"
	"net/http/httptest"
	"net/netip"
	"testing"

	"github.com/stretchr/testify/require"
)

func requestFrom(remote string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = remote
	return r
}

func TestDefaultClientIP(t *testing.T) {
	fn := DefaultClientIP()

	require.Equal(t, "203.0.113.9", fn(requestFrom("203.0.113.9:1234")))
	require.Empty(t, fn(requestFrom("10.0.0.5:1234")))
	require.Empty(t, fn(requestFrom("127.0.0.1:1234")))
	require.Empty(t, fn(requestFrom("not-an-ip")))
}

func TestClientIPFromForwardedHeaders_TrustedPeer(t *testing.T) {
	fn := ClientIPFromForwardedHeaders([]netip.Prefix{netip.MustParsePrefix("10.0.0.0/8")})

	r := requestFrom("10.1.2.3:443")
	r.Header.Set("X-Forwarded-For", "203.0.113.7, 10.1.2.3")
	require.Equal(t, "203.0.113.7", fn(r))

	// CF-Connecting-IP wins over X-Forwarded-For.
	r.Header.Set("CF-Connecting-IP", "198.51.100.2")
	require.Equal(t, "198.51.100.2", fn(r))
}

func TestClientIPFromForwardedHeaders_UntrustedPeerIgnoresHeaders(t *testing.T) {
	fn := ClientIPFromForwardedHeaders([]netip.Prefix{netip.MustParsePrefix("10.0.0.0/8")})

	r := requestFrom("198.51.100.20:443")
	r.Header.Set("X-Forwarded-For", "203.0.113.7")
	require.Equal(t, "198.51.100.20", fn(r))
}

func TestClientIPFromForwardedHeaders_PrivateForwardedValueRejected(t *testing.T) {
	fn := ClientIPFromForwardedHeaders([]netip.Prefix{netip.MustParsePrefix("10.0.0.0/8")})

	// Header value is not routable and neither is the peer: attribution is
	// unknown and the limiter fails open.
	r := requestFrom("10.1.2.3:443")
	r.Header.Set("X-Forwarded-For", "192.168.0.9")
	require.Empty(t, fn(r))
}
