// Package davxml is the Component C XML engine: PROPFIND/REPORT parsing
// with namespace resolution, and multistatus response construction with
// namespace-prefixed output (§4.C).
package davxml

// The four canonical namespace URIs this engine understands, with their
// canonical output prefixes (§4.C).
const (
	NSDAV     = "DAV:"
	NSCalDAV  = "urn:ietf:params:xml:ns:caldav"
	NSApple   = "http://apple.com/ns/ical/"
	NSCS      = "http://calendarserver.org/ns/"
)

// canonicalPrefix maps a known namespace URI to the prefix used when
// emitting XML.
var canonicalPrefix = map[string]string{
	NSDAV:    "D",
	NSCalDAV: "C",
	NSApple:  "A",
	NSCS:     "CS",
}

// fallbackPrefixURI is the hard-coded prefix table §4.C calls for when an
// incoming element uses a prefix with no observed xmlns declaration.
// encoding/xml's Decoder resolves prefixes to URIs itself whenever the
// declaration is present anywhere in scope; this table only matters for
// the pathological case of a genuinely undeclared prefix, where the
// decoder leaves the raw prefix text in Name.Space.
var fallbackPrefixURI = map[string]string{
	"D":  NSDAV,
	"C":  NSCalDAV,
	"A":  NSApple,
	"CS": NSCS,
	"IC": NSApple,
}

// ResolveSpace canonicalizes a decoded element/attribute namespace: if
// space is already one of the four known URIs it passes through; if it
// looks like an unresolved prefix (no decoder could find its xmlns) it is
// looked up in the fallback table; otherwise it is returned as-is (an
// unknown/custom namespace, which simply won't match any canonical
// property in the registry).
func ResolveSpace(space string) string {
	if _, ok := canonicalPrefix[space]; ok {
		return space
	}
	if uri, ok := fallbackPrefixURI[space]; ok {
		return uri
	}
	return space
}

// PropName identifies a property by its resolved namespace and local name.
type PropName struct {
	Space string
	Local string
}
