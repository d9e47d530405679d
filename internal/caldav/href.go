package caldav

import "strings"

// HrefContext is §4.F's per-request {email?, username} pair that decides
// which of the two URL templates a response's hrefs use. Arriving via the
// email path re-encodes "@" as "%40" so the hrefs match the exact URL the
// client will re-request (dataaccessd binds credentials per exact URL,
// §9 "Percent-encoding of email").
type HrefContext struct {
	Email    string
	Username string
}

func (c HrefContext) viaEmail() bool { return c.Email != "" }

func encodeEmail(email string) string {
	return strings.ReplaceAll(email, "@", "%40")
}

// PrincipalHref is the canonical principal URL, always username-based
// regardless of HrefContext (principals live under /caldav/users/).
func PrincipalHref(username string) string {
	return "/caldav/users/" + username + "/"
}

// CalendarHomeHref is the collection root hrefs are relative to.
func (c HrefContext) CalendarHomeHref() string {
	if c.viaEmail() {
		return "/calendar/dav/" + encodeEmail(c.Email) + "/user/"
	}
	return "/caldav/users/" + c.Username + "/"
}

func (c HrefContext) CalendarHref(calendarID string) string {
	return c.CalendarHomeHref() + calendarID + "/"
}

func (c HrefContext) ObjectHref(calendarID, uid string) string {
	return c.CalendarHref(calendarID) + uid + ".ics"
}
