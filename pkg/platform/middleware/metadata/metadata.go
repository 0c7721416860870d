package metadata

import (
	"net/http"
	"strings"

	"github.com/mssola/useragent"
)

// ClientIPFromRequest extracts the real client IP from the request, handling proxies and load balancers.
func ClientIPFromRequest(r *http.Request) string {
	// X-Forwarded-For can contain multiple IPs (client, proxy1, proxy2, ...)
	// Take the first IP which is the original client
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	// RemoteAddr is "ip:port", or "[::1]:port" for IPv6
	if addr := r.RemoteAddr; addr != "" {
		if idx := strings.LastIndex(addr, ":"); idx != -1 {
			return addr[:idx]
		}
		return addr
	}

	return "unknown"
}

// ClientAgent is a compact description of the client software behind a
// connection, used in session logs.
type ClientAgent struct {
	Browser string
	OS      string
	Mobile  bool
	Bot     bool
}

// String renders the agent as "browser/os", or "unknown".
func (a ClientAgent) String() string {
	if a.Browser == "" && a.OS == "" {
		return "unknown"
	}
	return a.Browser + "/" + a.OS
}

// ParseClientAgent parses a User-Agent header. Empty input yields a zero value.
func ParseClientAgent(raw string) ClientAgent {
	if strings.TrimSpace(raw) == "" {
		return ClientAgent{}
	}
	ua := useragent.New(raw)
	browser, _ := ua.Browser()
	return ClientAgent{
		Browser: browser,
		OS:      ua.OSInfo().Name,
		Mobile:  ua.Mobile(),
		Bot:     ua.Bot(),
	}
}
