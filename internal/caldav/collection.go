package caldav

import (
	"encoding/xml"
	"net/http"
	"strings"

	"github.com/calendarserver/caldav-mcp/internal/davprops"
	"github.com/calendarserver/caldav-mcp/internal/davxml"
	"github.com/calendarserver/caldav-mcp/internal/model"
)

const maxCollectionBody = 256 * 1024

func (h *Handlers) authenticateFor(req *http.Request, ctx HrefContext) (string, string, bool) {
	if ctx.viaEmail() {
		p, err := authnEmailUser(req, h.store, ctx.Email)
		if err != nil {
			return "", "", false
		}
		return p.UserID, p.Username, true
	}
	p, err := authnPathUser(req, h.store, ctx.Username)
	if err != nil {
		return "", "", false
	}
	return p.UserID, p.Username, true
}

// handleCollection dispatches PROPFIND/REPORT/PROPPATCH/MKCALENDAR/DELETE
// on /caldav/users/{username}/{cid}/ and its email-path twin (§4.F).
//
// ctx.Username/ctx.Email stay fixed to the URL path segment throughout,
// so rendered hrefs and the MKCALENDAR namespace check always reflect the
// path the client requested; the authenticated principal's own username
// (which may differ — §4.E policy 2 lets any valid credential authenticate
// against any user's path) is threaded through separately as principalUsername.
func (h *Handlers) handleCollection(w http.ResponseWriter, req *http.Request, ctx HrefContext, calendarID string) {
	userID, principalUsername, ok := h.authenticateFor(req, ctx)
	if !ok {
		h.requireUnauthorized(w)
		return
	}

	if req.Method == "MKCALENDAR" {
		h.handleMkcalendar(w, req, ctx, userID, principalUsername, calendarID)
		return
	}

	cal, err := h.store.GetCalendar(req.Context(), calendarID)
	if err != nil || cal == nil {
		http.NotFound(w, req)
		return
	}
	perm, hasAccess, err := h.store.GetAccess(req.Context(), calendarID, userID)
	if err != nil || !hasAccess {
		writeStatus(w, http.StatusForbidden, "forbidden")
		return
	}

	switch req.Method {
	case "PROPFIND":
		h.handleCollectionPropfind(w, req, ctx, cal, principalUsername, perm)
	case "REPORT":
		h.handleReport(w, req, ctx, cal)
	case "PROPPATCH":
		h.handleProppatch(w, req, ctx, cal, perm)
	case http.MethodDelete:
		h.handleDeleteCalendar(w, req, cal, perm)
	default:
		w.Header().Set("Allow", allowHeader)
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *Handlers) handleCollectionPropfind(w http.ResponseWriter, req *http.Request, ctx HrefContext, cal *model.Calendar, principalUsername string, perm model.Permission) {
	body, _ := readBody(req, maxPropfindBody)
	pr := parsePropfindOrAll(body)

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

	ms := &davxml.Multistatus{}
	ms.AddResponse(davxml.Response{Href: ctx.CalendarHref(cal.ID), Found: found, NotFound: notFound})

	if depthOf(req) == 1 {
		objs, err := h.store.ListObjects(req.Context(), cal.ID)
		if err == nil {
			for _, obj := range objs {
				objAll := davprops.CalendarObjectProps(*obj, false)
				objFound, objNotFound := davprops.Filter(pr, objAll)
				ms.AddResponse(davxml.Response{Href: ctx.ObjectHref(cal.ID, obj.UID), Found: objFound, NotFound: objNotFound})
			}
		}
	}

	writeMultistatus(w, ms)
}

// handleMkcalendar implements §4.F MKCALENDAR: parses optional
// displayname/calendar-color, forbids creating in another user's
// namespace, refuses duplicates.
func (h *Handlers) handleMkcalendar(w http.ResponseWriter, req *http.Request, ctx HrefContext, userID, principalUsername, calendarID string) {
	if ctx.viaEmail() {
		self, err := h.store.GetUserByID(req.Context(), userID)
		if err != nil || self == nil || self.Email == nil || *self.Email != ctx.Email {
			writeStatus(w, http.StatusForbidden, "forbidden")
			return
		}
	} else if principalUsername != ctx.Username {
		writeStatus(w, http.StatusForbidden, "forbidden")
		return
	}

	if existing, err := h.store.GetCalendar(req.Context(), calendarID); err == nil && existing != nil {
		writeStatus(w, http.StatusMethodNotAllowed, "calendar already exists")
		return
	}

	body, _ := readBody(req, maxCollectionBody)
	displayName, color := parseMkcalendarBody(body)
	if displayName == "" {
		displayName = calendarID
	}
	if color == "" {
		color = "#0E61B9"
	}

	cal, err := h.store.CreateCalendar(req.Context(), calendarID, userID, displayName, "", color, "UTC")
	if err != nil {
		writeStatus(w, http.StatusInternalServerError, "storage error")
		return
	}
	_ = cal

	w.WriteHeader(http.StatusCreated)
}

func parseMkcalendarBody(body []byte) (displayName, color string) {
	if len(body) == 0 {
		return "", ""
	}
	dec := xml.NewDecoder(strings.NewReader(string(body)))
	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		switch start.Name.Local {
		case "displayname":
			var v string
			_ = dec.DecodeElement(&v, &start)
			displayName = v
		case "calendar-color":
			var v string
			_ = dec.DecodeElement(&v, &start)
			color = v
		}
	}
	return displayName, color
}

// handleProppatch implements §4.F PROPPATCH: updates displayname /
// calendar-description / calendar-color, returns a 207 with a 200
// propstat listing the set properties as empty elements.
func (h *Handlers) handleProppatch(w http.ResponseWriter, req *http.Request, ctx HrefContext, cal *model.Calendar, perm model.Permission) {
	if perm != model.PermissionReadWrite {
		writeStatus(w, http.StatusForbidden, "forbidden")
		return
	}
	body, _ := readBody(req, maxCollectionBody)

	var displayName, description, color *string
	dec := xml.NewDecoder(strings.NewReader(string(body)))
	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		var v string
		switch start.Name.Local {
		case "displayname":
			_ = dec.DecodeElement(&v, &start)
			displayName = &v
		case "calendar-description":
			_ = dec.DecodeElement(&v, &start)
			description = &v
		case "calendar-color":
			_ = dec.DecodeElement(&v, &start)
			color = &v
		}
	}

	updated, err := h.store.UpdateCalendarProps(req.Context(), cal.ID, displayName, description, color)
	if err != nil {
		writeStatus(w, http.StatusInternalServerError, "storage error")
		return
	}
	_ = updated

	var props []davxml.PropValue
	if displayName != nil {
		props = append(props, davxml.PropValue{Name: davxml.PropName{Space: davxml.NSDAV, Local: "displayname"}})
	}
	if description != nil {
		props = append(props, davxml.PropValue{Name: davxml.PropName{Space: davxml.NSCalDAV, Local: "calendar-description"}})
	}
	if color != nil {
		props = append(props, davxml.PropValue{Name: davxml.PropName{Space: davxml.NSApple, Local: "calendar-color"}})
	}

	ms := &davxml.Multistatus{}
	ms.AddResponse(davxml.Response{Href: ctx.CalendarHref(cal.ID), Found: props})
	writeMultistatus(w, ms)
}

func (h *Handlers) handleDeleteCalendar(w http.ResponseWriter, req *http.Request, cal *model.Calendar, perm model.Permission) {
	if perm != model.PermissionReadWrite {
		writeStatus(w, http.StatusForbidden, "forbidden")
		return
	}
	if err := h.store.DeleteCalendar(req.Context(), cal.ID); err != nil {
		writeStatus(w, http.StatusInternalServerError, "storage error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
