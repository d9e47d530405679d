package davprops

import (
	"testing"

	"github.com/calendarserver/caldav-mcp/internal/davxml"
)

func sampleProps() []davxml.PropValue {
	return []davxml.PropValue{
		{Name: davxml.PropName{Space: davxml.NSDAV, Local: "displayname"}, RawXML: "My Calendar"},
		{Name: davxml.PropName{Space: davxml.NSDAV, Local: "resourcetype"}, RawXML: "<D:collection/>"},
		{Name: davxml.PropName{Space: davxml.NSCalDAV, Local: "calendar-description"}, RawXML: "desc"},
	}
}

func TestFilterAllProp(t *testing.T) {
	req := &davxml.PropfindRequest{Kind: davxml.PropfindAllProp}
	found, notFound := Filter(req, sampleProps())
	if len(found) != 3 {
		t.Fatalf("found = %d, want 3", len(found))
	}
	if notFound != nil {
		t.Fatalf("notFound = %v, want nil", notFound)
	}
	if found[0].RawXML != "My Calendar" {
		t.Errorf("AllProp should preserve values, got %q", found[0].RawXML)
	}
}

func TestFilterPropName(t *testing.T) {
	req := &davxml.PropfindRequest{Kind: davxml.PropfindPropName}
	found, notFound := Filter(req, sampleProps())
	if len(found) != 3 {
		t.Fatalf("found = %d, want 3", len(found))
	}
	if notFound != nil {
		t.Fatalf("notFound = %v, want nil", notFound)
	}
	for _, pv := range found {
		if pv.RawXML != "" {
			t.Errorf("PropName should blank values, got %q for %+v", pv.RawXML, pv.Name)
		}
	}
}

func TestFilterPropsExactMatch(t *testing.T) {
	req := &davxml.PropfindRequest{
		Kind: davxml.PropfindProps,
		Props: []davxml.PropName{
			{Space: davxml.NSDAV, Local: "displayname"},
			{Space: davxml.NSDAV, Local: "nonexistent"},
		},
	}
	found, notFound := Filter(req, sampleProps())
	if len(found) != 1 || found[0].Name.Local != "displayname" {
		t.Fatalf("found = %+v, want [displayname]", found)
	}
	if len(notFound) != 1 || notFound[0].Local != "nonexistent" {
		t.Fatalf("notFound = %+v, want [nonexistent]", notFound)
	}
}

func TestFilterPropsEmptyRequest(t *testing.T) {
	req := &davxml.PropfindRequest{Kind: davxml.PropfindProps}
	found, notFound := Filter(req, sampleProps())
	if found != nil || notFound != nil {
		t.Fatalf("found=%v notFound=%v, want both nil for an empty request", found, notFound)
	}
}
