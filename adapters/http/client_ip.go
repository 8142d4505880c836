package verifyhttp

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// ClientIPFunc resolves the address a request is attributed to for rate
// limiting. An empty result means the address is unknown and the limiter
// lets the request through.
type ClientIPFunc func(r *http.Request) string

// DefaultClientIP attributes requests to their peer address, but only when
// that address is globally routable. A private or loopback peer is almost
// always an ingress or reverse proxy, and counting every request against it
// would throttle the whole deployment as one client.
func DefaultClientIP() ClientIPFunc {
	return func(r *http.Request) string {
		addr, ok := peerAddr(r)
		if ok && routable(addr) {
			return addr.String()
		}
		return ""
	}
}

// ClientIPFromForwardedHeaders resolves the client from CF-Connecting-IP or
// X-Forwarded-For, but only when the request arrived through a peer listed in
// trustedProxies; forwarded headers from any other peer are client-controlled
// and ignored. Without a usable header it falls back to DefaultClientIP
// behavior.
func ClientIPFromForwardedHeaders(trustedProxies []netip.Prefix) ClientIPFunc {
	return func(r *http.Request) string {
		peer, ok := peerAddr(r)
		if !ok {
			return ""
		}
		if containsAddr(trustedProxies, peer) {
			if a, ok := headerAddr(r.Header.Get("CF-Connecting-IP")); ok {
				return a.String()
			}
			if a, ok := headerAddr(firstForwarded(r.Header.Get("X-Forwarded-For"))); ok {
				return a.String()
			}
		}
		if routable(peer) {
			return peer.String()
		}
		return ""
	}
}

func peerAddr(r *http.Request) (netip.Addr, bool) {
	if r == nil || r.RemoteAddr == "" {
		return netip.Addr{}, false
	}
	host := r.RemoteAddr
	if h, _, err := net.SplitHostPort(host); err == nil && h != "" {
		host = h
	}
	a, err := netip.ParseAddr(host)
	if err != nil {
		return netip.Addr{}, false
	}
	return a, true
}

// firstForwarded picks the left-most entry of an X-Forwarded-For list, the
// address of the original client.
func firstForwarded(v string) string {
	if i := strings.IndexByte(v, ','); i >= 0 {
		v = v[:i]
	}
	return strings.TrimSpace(v)
}

// headerAddr parses a forwarded-header value, accepting only routable
// addresses.
func headerAddr(v string) (netip.Addr, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return netip.Addr{}, false
	}
	a, err := netip.ParseAddr(v)
	if err != nil || !routable(a) {
		return netip.Addr{}, false
	}
	return a, true
}

func containsAddr(prefixes []netip.Prefix, a netip.Addr) bool {
	for _, p := range prefixes {
		if p.Contains(a) {
			return true
		}
	}
	return false
}

func routable(a netip.Addr) bool {
	switch {
	case !a.IsValid(), a.IsUnspecified(), a.IsLoopback(), a.IsPrivate():
		return false
	case a.IsLinkLocalUnicast(), a.IsLinkLocalMulticast(), a.IsMulticast():
		return false
	}
	return true
}
