package caldav

import (
	"net/http"

	"github.com/calendarserver/caldav-mcp/internal/authn"
)

// tryAuthenticate returns the authenticated principal, or nil if the
// header is absent or invalid — used at the discovery endpoints where an
// unauthenticated request still gets a (reduced) 207 rather than a 401
// (§9 "Unauthenticated discovery by design").
func (h *Handlers) tryAuthenticate(req *http.Request) *authn.Principal {
	p, err := authn.Authenticate(req.Context(), h.store, req.Header.Get("Authorization"))
	if err != nil {
		return nil
	}
	return p
}

// authnPathUser applies §4.E's path-user fallback policy.
func authnPathUser(req *http.Request, r authn.Resolver, pathUsername string) (*authn.Principal, error) {
	return authn.PathUserFallback(req.Context(), r, req.Header.Get("Authorization"), pathUsername)
}

// authnEmailUser applies §4.E's email-user fallback policy.
func authnEmailUser(req *http.Request, r authn.Resolver, pathEmail string) (*authn.Principal, error) {
	return authn.EmailUserFallback(req.Context(), r, req.Header.Get("Authorization"), pathEmail)
}

func (h *Handlers) requireUnauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Basic realm="CalDAV"`)
	w.Header().Set("DAV", davHeader)
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte("Unauthorized"))
}
