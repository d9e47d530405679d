// Package davprops is the Component D property registry: canonical
// per-resource-type property sets (§4.D) and the AllProp/PropName/Props
// filter that reduces a set to what a PROPFIND actually asked for.
package davprops

import (
	"fmt"

	"github.com/calendarserver/caldav-mcp/internal/davxml"
	"github.com/calendarserver/caldav-mcp/internal/model"
)

func prop(space, local, raw string) davxml.PropValue {
	return davxml.PropValue{Name: davxml.PropName{Space: space, Local: local}, RawXML: raw}
}

func href(h string) string {
	return "<D:href>" + h + "</D:href>"
}

// collectionResourcetype is shared by every collection resource (root,
// calendar home, email home); Calendar adds the calendar resourcetype.
func collectionResourcetype() davxml.PropValue {
	return prop(davxml.NSDAV, "resourcetype", "<D:collection/>")
}

func calendarResourcetype() davxml.PropValue {
	return prop(davxml.NSDAV, "resourcetype", `<D:collection/><C:calendar xmlns:C="`+davxml.NSCalDAV+`"/>`)
}

func currentUserPrincipal(authenticated bool, principalHref string) davxml.PropValue {
	if !authenticated {
		return prop(davxml.NSDAV, "current-user-principal", "<D:unauthenticated/>")
	}
	return prop(davxml.NSDAV, "current-user-principal", href(principalHref))
}

// RootProps is §4.D's Root set: resourcetype, displayname,
// current-user-principal. Shared by `/`, `/caldav/`, and principal paths.
func RootProps(authenticated bool, principalHref, displayName string) []davxml.PropValue {
	return []davxml.PropValue{
		collectionResourcetype(),
		prop(davxml.NSDAV, "displayname", displayName),
		currentUserPrincipal(authenticated, principalHref),
	}
}

// CalendarHomeProps is §4.D's Calendar home set.
func CalendarHomeProps(principalHref, displayName string) []davxml.PropValue {
	return []davxml.PropValue{
		collectionResourcetype(),
		prop(davxml.NSDAV, "displayname", displayName),
		currentUserPrincipal(true, principalHref),
	}
}

// EmailHomeContext supplies the per-user data §4.D's Email home set needs.
type EmailHomeContext struct {
	PrincipalHref        string
	CalendarHomeHref     string
	Email            string
	ResourceID       string
	OwnerHref        string
}

// EmailHomeProps is §4.D's Email home set (authenticated only).
func EmailHomeProps(ctx EmailHomeContext) []davxml.PropValue {
	return []davxml.PropValue{
		collectionResourcetype(),
		currentUserPrincipal(true, ctx.PrincipalHref),
		prop(davxml.NSDAV, "principal-URL", href(ctx.PrincipalHref)),
		prop(davxml.NSCalDAV, "calendar-home-set", href(ctx.CalendarHomeHref)),
		prop(davxml.NSCalDAV, "calendar-user-address-set", href("mailto:"+ctx.Email)),
		prop(davxml.NSCS, "email-address-set", "<CS:email-address>"+ctx.Email+"</CS:email-address>"),
		prop(davxml.NSCalDAV, "schedule-inbox-URL", href(ctx.CalendarHomeHref+"inbox/")),
		prop(davxml.NSCalDAV, "schedule-outbox-URL", href(ctx.CalendarHomeHref+"outbox/")),
		supportedReportSet(),
		prop(davxml.NSDAV, "current-user-privilege-set", privilege("read-write")),
		prop(davxml.NSCS, "notification-URL", href(ctx.CalendarHomeHref+"notifications/")),
		prop(davxml.NSCS, "dropbox-home-URL", href(ctx.CalendarHomeHref+"dropbox/")),
		prop(davxml.NSDAV, "principal-collection-set", href("/caldav/principals/")),
		prop(davxml.NSDAV, "resource-id", ctx.ResourceID),
		prop(davxml.NSDAV, "owner", href(ctx.OwnerHref)),
	}
}

func supportedReportSet() davxml.PropValue {
	raw := `<D:supported-report><D:report><C:calendar-multiget xmlns:C="` + davxml.NSCalDAV + `"/></D:report></D:supported-report>` +
		`<D:supported-report><D:report><C:calendar-query xmlns:C="` + davxml.NSCalDAV + `"/></D:report></D:supported-report>` +
		`<D:supported-report><D:report><D:sync-collection/></D:report></D:supported-report>`
	return prop(davxml.NSDAV, "supported-report-set", raw)
}

func privilege(level string) string {
	switch level {
	case "read-write":
		return `<D:privilege><D:read/></D:privilege><D:privilege><D:write/></D:privilege><D:privilege><D:write-content/></D:privilege>`
	default:
		return `<D:privilege><D:read/></D:privilege>`
	}
}

// CalendarContext supplies the per-calendar data §4.D's Calendar set needs.
type CalendarContext struct {
	Calendar      model.Calendar
	SelfHref      string
	OwnerHref     string
	PrincipalHref string
	Permission    model.Permission
}

// CalendarProps is §4.D's Calendar set.
func CalendarProps(ctx CalendarContext) []davxml.PropValue {
	cal := ctx.Calendar
	return []davxml.PropValue{
		calendarResourcetype(),
		prop(davxml.NSDAV, "displayname", cal.Name),
		prop(davxml.NSCalDAV, "calendar-description", cal.Description),
		prop(davxml.NSApple, "calendar-color", cal.Color),
		prop(davxml.NSApple, "calendar-order", "1"),
		prop(davxml.NSCalDAV, "calendar-timezone", cal.Timezone),
		prop(davxml.NSCalDAV, "supported-calendar-component-set",
			`<C:comp name="VEVENT"/><C:comp name="VTODO"/>`),
		prop(davxml.NSCS, "getctag", cal.CTag),
		prop(davxml.NSDAV, "sync-token", cal.SyncToken),
		currentUserPrincipal(true, ctx.PrincipalHref),
		prop(davxml.NSDAV, "current-user-privilege-set", privilege(string(ctx.Permission))),
		prop(davxml.NSDAV, "owner", href(ctx.OwnerHref)),
		supportedReportSet(),
		prop(davxml.NSCalDAV, "schedule-calendar-transp", "<C:opaque/>"),
		prop(davxml.NSCalDAV, "schedule-default-calendar-URL", href(ctx.SelfHref)),
		prop(davxml.NSDAV, "getcontenttype", "text/calendar"),
		prop(davxml.NSDAV, "resource-id", fmt.Sprintf("urn:x-calendar:%s", cal.ID)),
	}
}

// CalendarObjectProps is §4.D's Calendar object set. calendarData is
// included only when the caller already knows it was requested (REPORT
// handlers decide this once per request rather than per object).
func CalendarObjectProps(obj model.CalendarObject, includeData bool) []davxml.PropValue {
	props := []davxml.PropValue{
		prop(davxml.NSDAV, "getetag", `"`+obj.ETag+`"`),
		prop(davxml.NSDAV, "getcontenttype", "text/calendar; component="+string(obj.ComponentType)),
	}
	if includeData {
		props = append(props, prop(davxml.NSCalDAV, "calendar-data", escapeCData(obj.ICalData)))
	}
	return props
}

func escapeCData(data string) string {
	// iCalendar text is already a restricted character set (CRLF-terminated
	// lines of printable ASCII/UTF-8); the few XML-significant characters
	// that can appear in free-text fields (&, <, >) still need escaping.
	out := make([]byte, 0, len(data))
	for i := 0; i < len(data); i++ {
		switch data[i] {
		case '&':
			out = append(out, "&amp;"...)
		case '<':
			out = append(out, "&lt;"...)
		case '>':
			out = append(out, "&gt;"...)
		default:
			out = append(out, data[i])
		}
	}
	return string(out)
}
