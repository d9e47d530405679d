package davxml

import (
	"fmt"
	"html"
	"strings"
)

// PropValue is one property found on a resource: RawXML is written
// verbatim inside the generated <prop> element, letting callers emit
// nested markup (e.g. <C:calendar-data>...</C:calendar-data>, or a
// resourcetype's child elements) without this package knowing their shape.
type PropValue struct {
	Name   PropName
	RawXML string
}

// Response is one <D:response> entry: Found succeeds with a 200 propstat,
// NotFound (when non-empty) adds a 404 propstat listing the missing
// property names, per §4.C/§4.D.
type Response struct {
	Href     string
	Found    []PropValue
	NotFound []PropName
}

// Multistatus builds a <D:multistatus> document per §4.C: all four
// canonical namespaces declared on the root, one <D:response> per
// resource, and an optional top-level <D:sync-token> sibling for
// sync-collection REPORT replies.
type Multistatus struct {
	Responses []Response
	SyncToken string
}

func (m *Multistatus) AddResponse(r Response) {
	m.Responses = append(m.Responses, r)
}

// Render serializes the multistatus document as a UTF-8 XML byte string.
func (m *Multistatus) Render() []byte {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="utf-8"?>`)
	b.WriteString("\n")
	fmt.Fprintf(&b, `<D:multistatus xmlns:D=%q xmlns:C=%q xmlns:A=%q xmlns:CS=%q>`,
		NSDAV, NSCalDAV, NSApple, NSCS)
	b.WriteString("\n")

	for _, r := range m.Responses {
		writeResponse(&b, r)
	}

	if m.SyncToken != "" {
		fmt.Fprintf(&b, "  <D:sync-token>%s</D:sync-token>\n", html.EscapeString(m.SyncToken))
	}

	b.WriteString("</D:multistatus>\n")
	return []byte(b.String())
}

func writeResponse(b *strings.Builder, r Response) {
	b.WriteString("  <D:response>\n")
	fmt.Fprintf(b, "    <D:href>%s</D:href>\n", html.EscapeString(r.Href))

	if len(r.Found) > 0 {
		b.WriteString("    <D:propstat>\n      <D:prop>\n")
		for _, pv := range r.Found {
			writeProp(b, pv)
		}
		b.WriteString("      </D:prop>\n      <D:status>HTTP/1.1 200 OK</D:status>\n    </D:propstat>\n")
	}

	if len(r.NotFound) > 0 {
		b.WriteString("    <D:propstat>\n      <D:prop>\n")
		for _, n := range r.NotFound {
			fmt.Fprintf(b, "        <%s/>\n", qualifiedName(n))
		}
		b.WriteString("      </D:prop>\n      <D:status>HTTP/1.1 404 Not Found</D:status>\n    </D:propstat>\n")
	}

	b.WriteString("  </D:response>\n")
}

func writeProp(b *strings.Builder, pv PropValue) {
	name := qualifiedName(pv.Name)
	if pv.RawXML == "" {
		fmt.Fprintf(b, "        <%s/>\n", name)
		return
	}
	fmt.Fprintf(b, "        <%s>%s</%s>\n", name, pv.RawXML, name)
}

// qualifiedName renders a PropName using the canonical output prefix for
// its namespace, falling back to the bare local name for anything outside
// the four known namespaces (davprops only emits properties from those
// four, but 404 names echo the client's request and may use any namespace).
func qualifiedName(n PropName) string {
	prefix, ok := canonicalPrefix[n.Space]
	if !ok {
		return n.Local
	}
	return prefix + ":" + n.Local
}
