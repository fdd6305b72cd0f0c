package httpapi

import "time"

// maxBodyBytes controls the maximum allowed request body size for JSON endpoints.
var maxBodyBytes int64 = 1 << 16

// SetMaxBodyBytes allows configuring the maximum request body size.
func SetMaxBodyBytes(n int64) {
	if n <= 0 {
		maxBodyBytes = 1 << 16
		return
	}
	maxBodyBytes = n
}

// sseKeepAlive is the interval between comment frames on idle event streams.
var sseKeepAlive = 15 * time.Second

// SetSSEKeepAlive sets the event stream keep-alive interval; non-positive
// values restore the default.
func SetSSEKeepAlive(d time.Duration) {
	if d <= 0 {
		d = 15 * time.Second
	}
	sseKeepAlive = d
}

// CORS configuration (opt-in). If disabled, no CORS middleware is added.
var (
	corsEnabled        bool
	corsAllowedOrigins []string
	corsAllowedMethods []string
	corsAllowedHeaders []string
)

// SetCORSOptions configures CORS behavior for the HTTP server.
func SetCORSOptions(enabled bool, origins, methods, headers []string) {
	corsEnabled = enabled
	corsAllowedOrigins = append([]string(nil), origins...)
	corsAllowedMethods = append([]string(nil), methods...)
	corsAllowedHeaders = append([]string(nil), headers...)
}
