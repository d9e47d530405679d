package caldav

import (
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// statusRecorder tracks the status/byte count actually written, so the
// request log line reflects what went over the wire even when a handler
// never calls WriteHeader explicitly (implicit 200).
type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
	bytes       int
}

func (r *statusRecorder) WriteHeader(code int) {
	if !r.wroteHeader {
		r.status = code
		r.wroteHeader = true
		r.ResponseWriter.WriteHeader(code)
	}
}

func (r *statusRecorder) Write(p []byte) (int, error) {
	if !r.wroteHeader {
		r.WriteHeader(http.StatusOK)
	}
	n, err := r.ResponseWriter.Write(p)
	r.bytes += n
	return n, err
}

func realIP(req *http.Request) string {
	if xff := req.Header.Get("X-Forwarded-For"); xff != "" {
		if ip := strings.TrimSpace(strings.Split(xff, ",")[0]); ip != "" {
			return ip
		}
	}
	if xr := req.Header.Get("X-Real-IP"); xr != "" {
		return xr
	}
	host, _, err := net.SplitHostPort(req.RemoteAddr)
	if err != nil {
		return req.RemoteAddr
	}
	return host
}

// ServeHTTP implements the full §6 URL surface as a single dispatcher,
// grounded on the teacher's single-mux-plus-method-switch router.
func (h *Handlers) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	start := time.Now()
	rec := &statusRecorder{ResponseWriter: w}
	rec.Header().Set("DAV", davHeader)

	h.route(rec, req)

	dur := time.Since(start)
	status := rec.status
	if status == 0 {
		status = http.StatusOK
	}
	logEvent := h.logger.Debug()
	if req.Method != http.MethodGet && req.Method != "PROPFIND" {
		logEvent = h.logger.Info()
	}
	logEvent.
		Str("method", req.Method).
		Str("path", req.URL.Path).
		Int("status", status).
		Int("bytes", rec.bytes).
		Float64("duration_ms", float64(dur.Microseconds())/1000.0).
		Str("ip", realIP(req)).
		Msg("caldav request")
}

func (h *Handlers) route(w http.ResponseWriter, req *http.Request) {
	p := req.URL.Path
	if req.Method == http.MethodOptions {
		w.Header().Set("Allow", allowHeader)
		w.WriteHeader(http.StatusOK)
		return
	}

	switch {
	case p == "/" || p == "/caldav" || p == "/caldav/":
		h.handleRootDiscovery(w, req)
		return
	case p == "/.well-known/caldav":
		http.Redirect(w, req, "/caldav/", http.StatusMovedPermanently)
		return
	}

	segs := splitPath(p)

	switch {
	case len(segs) >= 2 && segs[0] == "caldav" && segs[1] == "principals":
		username := ""
		if len(segs) >= 3 {
			username = segs[2]
		}
		http.Redirect(w, req, PrincipalHref(username), http.StatusMovedPermanently)
		return

	case len(segs) >= 1 && segs[0] == "principals":
		h.handleRootDiscovery(w, req)
		return

	case len(segs) >= 4 && segs[0] == "calendar" && segs[1] == "dav" && segs[3] == "user":
		email, err := url.PathUnescape(segs[2])
		if err != nil {
			email = segs[2]
		}
		h.routeEmailPath(w, req, email, segs[4:])
		return

	case len(segs) >= 2 && segs[0] == "caldav" && segs[1] == "users":
		username := ""
		if len(segs) >= 3 {
			username = segs[2]
		}
		h.routeUserPath(w, req, username, segs[3:])
		return
	}

	http.NotFound(w, req)
}

// splitPath trims leading/trailing slashes and splits on "/", returning
// nil for the empty path.
func splitPath(p string) []string {
	trimmed := strings.Trim(p, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

func (h *Handlers) routeEmailPath(w http.ResponseWriter, req *http.Request, email string, rest []string) {
	ctx := HrefContext{Email: email}
	switch len(rest) {
	case 0:
		h.handleEmailHome(w, req, ctx)
	case 1:
		h.handleCollection(w, req, ctx, rest[0])
	default:
		h.handleObject(w, req, ctx, rest[0], rest[1])
	}
}

func (h *Handlers) routeUserPath(w http.ResponseWriter, req *http.Request, username string, rest []string) {
	ctx := HrefContext{Username: username}
	switch len(rest) {
	case 0:
		h.handleUserHome(w, req, ctx)
	case 1:
		h.handleCollection(w, req, ctx, rest[0])
	default:
		h.handleObject(w, req, ctx, rest[0], rest[1])
	}
}
