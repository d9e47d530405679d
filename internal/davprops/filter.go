package davprops

import "github.com/calendarserver/caldav-mcp/internal/davxml"

// Filter reduces the canonical property set for a resource according to
// the parsed PROPFIND request (§4.D, §8 invariant 4):
//   - AllProp: the full set, no not-found entries.
//   - PropName: the same names, values blanked out.
//   - Props(requested): exact (namespace, local_name) intersection as
//     found, the remainder of requested as not_found.
func Filter(req *davxml.PropfindRequest, all []davxml.PropValue) ([]davxml.PropValue, []davxml.PropName) {
	switch req.Kind {
	case davxml.PropfindPropName:
		names := make([]davxml.PropValue, 0, len(all))
		for _, pv := range all {
			names = append(names, davxml.PropValue{Name: pv.Name})
		}
		return names, nil

	case davxml.PropfindProps:
		byName := make(map[davxml.PropName]davxml.PropValue, len(all))
		for _, pv := range all {
			byName[pv.Name] = pv
		}
		var found []davxml.PropValue
		var notFound []davxml.PropName
		for _, want := range req.Props {
			if pv, ok := byName[want]; ok {
				found = append(found, pv)
			} else {
				notFound = append(notFound, want)
			}
		}
		return found, notFound

	default: // AllProp
		return all, nil
	}
}
