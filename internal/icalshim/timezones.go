package icalshim

// zoneOffset is a closed, hard-coded entry for BuildVEvent's minimal
// VTIMEZONE synthesis (§4.B, §9 VTIMEZONE minimalism). Exact DST
// transition rules are out of scope; callers needing exact offsets should
// supply UTC ("Z"-suffixed) datetimes instead.
type zoneOffset struct {
	StandardOffset string
	DaylightOffset string
	HasDaylight    bool
}

// zoneOffsets covers a closed set of common IANA zones. Unknown zones
// fall back to UTC (+0000).
var zoneOffsets = map[string]zoneOffset{
	"UTC":                 {StandardOffset: "+0000"},
	"Etc/UTC":             {StandardOffset: "+0000"},
	"America/New_York":    {StandardOffset: "-0500", DaylightOffset: "-0400", HasDaylight: true},
	"America/Chicago":     {StandardOffset: "-0600", DaylightOffset: "-0500", HasDaylight: true},
	"America/Denver":      {StandardOffset: "-0700", DaylightOffset: "-0600", HasDaylight: true},
	"America/Los_Angeles": {StandardOffset: "-0800", DaylightOffset: "-0700", HasDaylight: true},
	"Europe/London":       {StandardOffset: "+0000", DaylightOffset: "+0100", HasDaylight: true},
	"Europe/Paris":        {StandardOffset: "+0100", DaylightOffset: "+0200", HasDaylight: true},
	"Europe/Berlin":       {StandardOffset: "+0100", DaylightOffset: "+0200", HasDaylight: true},
	"Asia/Tokyo":          {StandardOffset: "+0900"},
	"Asia/Shanghai":       {StandardOffset: "+0800"},
	"Asia/Kolkata":        {StandardOffset: "+0530"},
	"Australia/Sydney":    {StandardOffset: "+1000", DaylightOffset: "+1100", HasDaylight: true},
}

func lookupZone(tz string) zoneOffset {
	if z, ok := zoneOffsets[tz]; ok {
		return z
	}
	return zoneOffset{StandardOffset: "+0000"}
}
