package caldav

import (
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/calendarserver/caldav-mcp/internal/davprops"
	"github.com/calendarserver/caldav-mcp/internal/davxml"
	"github.com/calendarserver/caldav-mcp/internal/model"
	"github.com/calendarserver/caldav-mcp/internal/synctoken"
)

// handleReport implements §4.F REPORT: dispatches on the parsed variant.
func (h *Handlers) handleReport(w http.ResponseWriter, req *http.Request, ctx HrefContext, cal *model.Calendar) {
	body, err := readBody(req, maxCollectionBody)
	if err != nil {
		writeStatus(w, http.StatusBadRequest, "bad request")
		return
	}
	rr, err := davxml.ParseReport(body)
	if err != nil || rr.Kind == davxml.ReportUnknown {
		writeStatus(w, http.StatusBadRequest, "unsupported report")
		return
	}

	pr := &davxml.PropfindRequest{Kind: davxml.PropfindProps, Props: rr.Props}
	includeData := wantsCalendarData(rr.Props)

	switch rr.Kind {
	case davxml.ReportCalendarMultiget:
		h.reportMultiget(w, req, ctx, cal, rr, pr, includeData)
	case davxml.ReportCalendarQuery:
		h.reportQuery(w, req, ctx, cal, rr, pr, includeData)
	case davxml.ReportSyncCollection:
		h.reportSyncCollection(w, req, ctx, cal, rr, pr, includeData)
	}
}

func wantsCalendarData(props []davxml.PropName) bool {
	for _, p := range props {
		if p.Local == "calendar-data" {
			return true
		}
	}
	return false
}

func (h *Handlers) objectResponse(ctx HrefContext, cal *model.Calendar, obj *model.CalendarObject, pr *davxml.PropfindRequest, includeData bool) davxml.Response {
	all := davprops.CalendarObjectProps(*obj, includeData)
	found, notFound := davprops.Filter(pr, all)
	return davxml.Response{Href: ctx.ObjectHref(cal.ID, obj.UID), Found: found, NotFound: notFound}
}

// reportMultiget implements the calendar-multiget variant: hrefs are
// stripped to their trailing {uid}.ics, percent-decoded, and loaded in
// one query; missing hrefs are silently omitted.
func (h *Handlers) reportMultiget(w http.ResponseWriter, req *http.Request, ctx HrefContext, cal *model.Calendar, rr *davxml.ReportRequest, pr *davxml.PropfindRequest, includeData bool) {
	uids := make([]string, 0, len(rr.Hrefs))
	for _, href := range rr.Hrefs {
		file := path.Base(href)
		if dec, err := url.PathUnescape(file); err == nil {
			file = dec
		}
		uids = append(uids, strings.TrimSuffix(file, ".ics"))
	}

	objs, err := h.store.GetObjectsByUIDs(req.Context(), cal.ID, uids)
	if err != nil {
		writeStatus(w, http.StatusInternalServerError, "storage error")
		return
	}

	ms := &davxml.Multistatus{}
	for _, obj := range objs {
		ms.AddResponse(h.objectResponse(ctx, cal, obj, pr, includeData))
	}
	writeMultistatus(w, ms)
}

// reportQuery implements the calendar-query variant: a time-range filter
// at any depth triggers a ranged listing; otherwise all objects.
func (h *Handlers) reportQuery(w http.ResponseWriter, req *http.Request, ctx HrefContext, cal *model.Calendar, rr *davxml.ReportRequest, pr *davxml.PropfindRequest, includeData bool) {
	var objs []*model.CalendarObject
	var err error

	if rr.TimeRange != nil {
		start, serr := parseICalTime(rr.TimeRange.Start)
		end, eerr := parseICalTime(rr.TimeRange.End)
		if serr != nil || eerr != nil {
			writeStatus(w, http.StatusBadRequest, "bad time-range")
			return
		}
		objs, err = h.store.ListObjectsInRange(req.Context(), cal.ID, start, end)
	} else {
		objs, err = h.store.ListObjects(req.Context(), cal.ID)
	}
	if err != nil {
		writeStatus(w, http.StatusInternalServerError, "storage error")
		return
	}

	ms := &davxml.Multistatus{}
	for _, obj := range objs {
		ms.AddResponse(h.objectResponse(ctx, cal, obj, pr, includeData))
	}
	writeMultistatus(w, ms)
}

// reportSyncCollection implements the sync-collection variant: empty
// token means initial sync (all objects); otherwise replay the change
// log since the token, encoding deletions as bare hrefs with no propstat
// (§9 tombstone encoding).
func (h *Handlers) reportSyncCollection(w http.ResponseWriter, req *http.Request, ctx HrefContext, cal *model.Calendar, rr *davxml.ReportRequest, pr *davxml.PropfindRequest, includeData bool) {
	ms := &davxml.Multistatus{}

	if rr.SyncToken == "" {
		objs, err := h.store.ListObjects(req.Context(), cal.ID)
		if err != nil {
			writeStatus(w, http.StatusInternalServerError, "storage error")
			return
		}
		for _, obj := range objs {
			ms.AddResponse(h.objectResponse(ctx, cal, obj, pr, includeData))
		}
		ms.SyncToken = synctoken.EnsureURI(cal.SyncToken)
		writeMultistatus(w, ms)
		return
	}

	changes, currentToken, err := h.store.GetSyncChangesSince(req.Context(), cal.ID, rr.SyncToken)
	if err != nil {
		writeStatus(w, http.StatusInternalServerError, "storage error")
		return
	}

	seen := make(map[string]bool, len(changes))
	for i := len(changes) - 1; i >= 0; i-- {
		c := changes[i]
		if seen[c.ObjectUID] {
			continue
		}
		seen[c.ObjectUID] = true

		if c.ChangeType == model.ChangeDeleted {
			ms.AddResponse(davxml.Response{Href: ctx.ObjectHref(cal.ID, c.ObjectUID)})
			continue
		}
		obj, err := h.store.GetObject(req.Context(), cal.ID, c.ObjectUID)
		if err != nil || obj == nil {
			continue
		}
		ms.AddResponse(h.objectResponse(ctx, cal, obj, pr, includeData))
	}

	ms.SyncToken = synctoken.EnsureURI(currentToken)
	writeMultistatus(w, ms)
}

// parseICalTime accepts the basic RFC 5545 UTC form (20060102T150405Z).
func parseICalTime(v string) (time.Time, error) {
	return time.Parse("20060102T150405Z", v)
}
