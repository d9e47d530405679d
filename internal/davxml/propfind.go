package davxml

import (
	"bytes"
	"encoding/xml"
	"io"
)

type PropfindKind int

const (
	PropfindAllProp PropfindKind = iota
	PropfindPropName
	PropfindProps
)

type PropfindRequest struct {
	Kind  PropfindKind
	Props []PropName
}

// ParsePropfind implements §4.C's PROPFIND parser: AllProp (empty body or
// <allprop/>), PropName (<propname/>), or Props (the <prop> children).
// Unparseable XML returns an error, which callers degrade to a 400 or an
// AllProp fallback per §4.C/§7 depending on call site.
func ParsePropfind(body []byte) (*PropfindRequest, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return &PropfindRequest{Kind: PropfindAllProp}, nil
	}

	dec := xml.NewDecoder(bytes.NewReader(body))
	req := &PropfindRequest{Kind: PropfindAllProp}
	sawAllprop, sawPropname, sawProp := false, false, false

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		switch start.Name.Local {
		case "allprop":
			sawAllprop = true
		case "propname":
			sawPropname = true
		case "prop":
			sawProp = true
			props, err := readProps(dec)
			if err != nil {
				return nil, err
			}
			req.Props = props
		}
	}

	switch {
	case sawProp:
		req.Kind = PropfindProps
	case sawPropname:
		req.Kind = PropfindPropName
	case sawAllprop:
		req.Kind = PropfindAllProp
	default:
		req.Kind = PropfindAllProp
	}
	return req, nil
}

// readProps consumes tokens until the matching </prop>, collecting each
// direct child element as a requested PropName.
func readProps(dec *xml.Decoder) ([]PropName, error) {
	var props []PropName
	depth := 0
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return props, nil
		}
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if depth == 0 {
				props = append(props, PropName{Space: ResolveSpace(t.Name.Space), Local: t.Name.Local})
			}
			depth++
		case xml.EndElement:
			if depth == 0 {
				return props, nil
			}
			depth--
		}
	}
}
