package caldav

import (
	"net/http"

	"github.com/calendarserver/caldav-mcp/internal/davprops"
	"github.com/calendarserver/caldav-mcp/internal/davxml"
	"github.com/calendarserver/caldav-mcp/internal/model"
)

const maxPropfindBody = 64 * 1024

// handleRootDiscovery serves "/", "/caldav/", "/caldav", and "/principals"
// (§4.F discovery endpoints): always answerable without credentials.
func (h *Handlers) handleRootDiscovery(w http.ResponseWriter, req *http.Request) {
	if req.URL.Path == "/" && req.Method != "PROPFIND" && req.Method != http.MethodOptions {
		http.Redirect(w, req, "/caldav/", http.StatusMovedPermanently)
		return
	}
	if req.Method != "PROPFIND" {
		w.Header().Set("Allow", allowHeader)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	principal := h.tryAuthenticate(req)
	authenticated := principal != nil
	var principalHref string
	if authenticated {
		principalHref = PrincipalHref(principal.Username)
	}

	body, _ := readBody(req, maxPropfindBody)
	pr := parsePropfindOrAll(body)
	all := davprops.RootProps(authenticated, principalHref, "CalDAV")
	found, notFound := davprops.Filter(pr, all)

	ms := &davxml.Multistatus{}
	ms.AddResponse(davxml.Response{Href: req.URL.Path, Found: found, NotFound: notFound})
	writeMultistatus(w, ms)
}

// handleEmailHome serves /calendar/dav/{email}/user/ (§4.F): a known email
// gets the email-home multi-status when no credentials are sent
// (dataaccessd needs this before it ever sends credentials) or when the
// sent credentials are valid; an unknown email, or a present Authorization
// header that fails to authenticate, is a 401.
func (h *Handlers) handleEmailHome(w http.ResponseWriter, req *http.Request, ctx HrefContext) {
	if req.Method != "PROPFIND" {
		w.Header().Set("Allow", allowHeader)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	user, err := h.store.GetUserByEmail(req.Context(), ctx.Email)
	if err != nil || user == nil {
		h.requireUnauthorized(w)
		return
	}
	if header := req.Header.Get("Authorization"); header != "" {
		if p := h.tryAuthenticate(req); p == nil {
			h.requireUnauthorized(w)
			return
		}
	}

	body, _ := readBody(req, maxPropfindBody)
	pr := parsePropfindOrAll(body)

	emailCtx := davprops.EmailHomeContext{
		PrincipalHref:    PrincipalHref(user.Username),
		CalendarHomeHref: ctx.CalendarHomeHref(),
		Email:            ctx.Email,
		ResourceID:       "urn:x-user:" + user.ID,
		OwnerHref:        PrincipalHref(user.Username),
	}
	all := davprops.EmailHomeProps(emailCtx)
	found, notFound := davprops.Filter(pr, all)

	ms := &davxml.Multistatus{}
	ms.AddResponse(davxml.Response{Href: req.URL.Path, Found: found, NotFound: notFound})

	if depthOf(req) == 1 {
		cals, err := h.store.ListCalendarsForUser(req.Context(), user.ID)
		if err == nil {
			shared, _ := h.store.ListSharedCalendarsForUser(req.Context(), user.ID)
			cals = append(cals, shared...)
			for _, cal := range cals {
				h.appendCalendarResponse(req, ms, ctx, cal, user.ID, user.Username, pr)
			}
		}
	}

	writeMultistatus(w, ms)
}

// handleUserHome serves /caldav/users/{username}/ (§4.F): path-user
// fallback auth; Depth:0 returns home props, Depth:1 enumerates calendars.
func (h *Handlers) handleUserHome(w http.ResponseWriter, req *http.Request, ctx HrefContext) {
	if req.Method != "PROPFIND" {
		w.Header().Set("Allow", allowHeader)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	principal, err := authnPathUser(req, h.store, ctx.Username)
	if err != nil {
		h.requireUnauthorized(w)
		return
	}

	body, _ := readBody(req, maxPropfindBody)
	pr := parsePropfindOrAll(body)

	all := davprops.CalendarHomeProps(PrincipalHref(principal.Username), principal.Username)
	found, notFound := davprops.Filter(pr, all)

	ms := &davxml.Multistatus{}
	ms.AddResponse(davxml.Response{Href: req.URL.Path, Found: found, NotFound: notFound})

	if depthOf(req) == 1 {
		cals, err := h.store.ListCalendarsForUser(req.Context(), principal.UserID)
		if err == nil {
			shared, _ := h.store.ListSharedCalendarsForUser(req.Context(), principal.UserID)
			cals = append(cals, shared...)
			for _, cal := range cals {
				h.appendCalendarResponse(req, ms, ctx, cal, principal.UserID, principal.Username, pr)
			}
		}
	}

	writeMultistatus(w, ms)
}

func (h *Handlers) appendCalendarResponse(req *http.Request, ms *davxml.Multistatus, ctx HrefContext, cal *model.Calendar, userID, principalUsername string, pr *davxml.PropfindRequest) {
	perm, ok, err := h.store.GetAccess(req.Context(), cal.ID, userID)
	if err != nil || !ok {
		return
	}
	owner, err := h.store.GetUserByID(req.Context(), cal.OwnerID)
	ownerHref := PrincipalHref(cal.OwnerID)
	if err == nil && owner != nil {
		ownerHref = PrincipalHref(owner.Username)
	}
	all := davprops.CalendarProps(davprops.CalendarContext{
		Calendar:      *cal,
		SelfHref:      ctx.CalendarHref(cal.ID),
		OwnerHref:     ownerHref,
		PrincipalHref: PrincipalHref(principalUsername),
		Permission:    perm,
	})
	found, notFound := davprops.Filter(pr, all)
	ms.AddResponse(davxml.Response{Href: ctx.CalendarHref(cal.ID), Found: found, NotFound: notFound})
}

func depthOf(req *http.Request) int {
	if req.Header.Get("Depth") == "1" {
		return 1
	}
	return 0
}
