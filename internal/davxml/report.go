package davxml

import (
	"bytes"
	"encoding/xml"
	"io"
)

type ReportKind int

const (
	ReportUnknown ReportKind = iota
	ReportCalendarMultiget
	ReportCalendarQuery
	ReportSyncCollection
)

// TimeRange is the optional <C:time-range start=".." end=".."/> filter
// inside a calendar-query REPORT (§4.C, §4.F).
type TimeRange struct {
	Start string
	End   string
}

// ReportRequest is the tagged value §4.C's REPORT parser produces:
// CalendarMultiget carries the requested hrefs, CalendarQuery carries an
// optional time-range filter, SyncCollection carries the client's last
// sync-token (empty on an initial sync).
type ReportRequest struct {
	Kind      ReportKind
	Props     []PropName
	Hrefs     []string
	TimeRange *TimeRange
	SyncToken string
}

// ParseReport implements §4.C's REPORT parser. An unrecognized root
// element, or a body with no root element, yields ReportUnknown; malformed
// XML returns an error. Callers in §4.F degrade both to a 400.
func ParseReport(body []byte) (*ReportRequest, error) {
	dec := xml.NewDecoder(bytes.NewReader(body))
	req := &ReportRequest{}

	root, err := nextStart(dec)
	if err != nil {
		return nil, err
	}
	if root == nil {
		return &ReportRequest{Kind: ReportUnknown}, nil
	}
	switch root.Name.Local {
	case "calendar-multiget":
		req.Kind = ReportCalendarMultiget
	case "calendar-query":
		req.Kind = ReportCalendarQuery
	case "sync-collection":
		req.Kind = ReportSyncCollection
	default:
		return &ReportRequest{Kind: ReportUnknown}, nil
	}

	depth := 0
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "prop":
				props, err := readProps(dec)
				if err != nil {
					return nil, err
				}
				req.Props = props
				continue
			case "href":
				var href string
				if err := dec.DecodeElement(&href, &t); err != nil {
					return nil, err
				}
				req.Hrefs = append(req.Hrefs, href)
				continue
			case "time-range":
				tr := &TimeRange{}
				for _, a := range t.Attr {
					switch a.Name.Local {
					case "start":
						tr.Start = a.Value
					case "end":
						tr.End = a.Value
					}
				}
				req.TimeRange = tr
			case "sync-token":
				var tok string
				if err := dec.DecodeElement(&tok, &t); err != nil {
					return nil, err
				}
				req.SyncToken = tok
				continue
			}
			depth++
		case xml.EndElement:
			depth--
			if depth < 0 {
				return req, nil
			}
		}
	}
	return req, nil
}

// nextStart advances past the XML prolog to the first start element, or
// returns nil if the document has none.
func nextStart(dec *xml.Decoder) (*xml.StartElement, error) {
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		if start, ok := tok.(xml.StartElement); ok {
			se := start.Copy()
			return &se, nil
		}
	}
}
