// Package timezone maps a UTC instant to the single offset bucket
// whose local clock reads the delivery anchor hour (6 AM by default),
// and resolves a display zone name for that offset.
package timezone

import (
	"time"

	_ "time/tzdata" // container images may lack system tzdata
)

// AnchorHour is the local hour the digest is anchored to.
const AnchorHour = 6

// BucketFor returns the UTC offset (whole hours) whose local time is
// anchorHour at the given UTC instant. For every UTC hour exactly one
// offset is active, and as the UTC hour advances by one the active
// offset decreases by one (mod 24).
//
// The result is normalized into (-12, +12]; the unreachable remainder
// of the real-world range (-12, +13, +14) is handled by
// EquivalentOffsets.
func BucketFor(utc time.Time, anchorHour int) int {
	off := (anchorHour - utc.UTC().Hour()) % 24
	if off <= -12 {
		off += 24
	}
	if off > 12 {
		off -= 24
	}
	return off
}

// EquivalentOffsets returns every real-world offset congruent to the
// bucket offset mod 24. Subscribers at +13, +14 and -12 share a wall
// clock with -11, -10 and +12 respectively; without this they would
// never fall into any bucket.
func EquivalentOffsets(offset int) []int {
	offsets := []int{offset}
	if alt := offset + 24; alt <= 14 {
		offsets = append(offsets, alt)
	}
	if alt := offset - 24; alt >= -12 {
		offsets = append(offsets, alt)
	}
	return offsets
}

// zoneCandidates lists IANA zones that plausibly sit at each offset.
// Several entries per offset cover both DST regimes; a zone only
// counts if its offset at the queried instant matches.
var zoneCandidates = map[int][]string{
	-12: {"Etc/GMT+12"},
	-11: {"Pacific/Pago_Pago", "Pacific/Niue", "Pacific/Midway"},
	-10: {"Pacific/Honolulu", "Pacific/Tahiti", "Pacific/Rarotonga"},
	-9:  {"Pacific/Gambier", "America/Anchorage", "America/Adak"},
	-8:  {"Pacific/Pitcairn", "America/Los_Angeles", "America/Anchorage"},
	-7:  {"America/Phoenix", "America/Denver", "America/Los_Angeles"},
	-6:  {"America/Guatemala", "America/Regina", "America/Chicago", "America/Denver"},
	-5:  {"America/Panama", "America/Bogota", "America/New_York", "America/Chicago"},
	-4:  {"America/Puerto_Rico", "America/Halifax", "America/New_York"},
	-3:  {"America/Argentina/Buenos_Aires", "America/Sao_Paulo", "America/Halifax"},
	-2:  {"America/Noronha", "Atlantic/South_Georgia"},
	-1:  {"Atlantic/Cape_Verde", "Atlantic/Azores"},
	0:   {"UTC", "Atlantic/Reykjavik", "Africa/Abidjan", "Europe/London"},
	1:   {"Africa/Lagos", "Africa/Algiers", "Europe/Paris", "Europe/London"},
	2:   {"Africa/Johannesburg", "Africa/Tripoli", "Europe/Athens", "Europe/Paris"},
	3:   {"Europe/Moscow", "Africa/Nairobi", "Asia/Riyadh", "Europe/Athens"},
	4:   {"Asia/Dubai", "Asia/Baku", "Indian/Mauritius"},
	5:   {"Asia/Karachi", "Asia/Tashkent", "Indian/Maldives"},
	6:   {"Asia/Dhaka", "Asia/Bishkek", "Asia/Urumqi"},
	7:   {"Asia/Bangkok", "Asia/Jakarta", "Asia/Ho_Chi_Minh"},
	8:   {"Asia/Singapore", "Asia/Shanghai", "Australia/Perth"},
	9:   {"Asia/Tokyo", "Asia/Seoul"},
	10:  {"Australia/Brisbane", "Pacific/Port_Moresby", "Australia/Sydney"},
	11:  {"Pacific/Noumea", "Pacific/Guadalcanal", "Australia/Sydney"},
	12:  {"Pacific/Tarawa", "Pacific/Fiji", "Pacific/Auckland"},
	13:  {"Pacific/Tongatapu", "Pacific/Fakaofo", "Pacific/Auckland"},
	14:  {"Pacific/Kiritimati"},
}

// IdentifierFor returns the first canonical zone whose offset at the
// given instant equals the bucket offset, along with its loaded
// location. ok is false when no candidate matches right now; delivery
// treats that as "nothing to do", never as an error.
func IdentifierFor(offset int, at time.Time) (string, *time.Location, bool) {
	for _, name := range zoneCandidates[offset] {
		loc, err := time.LoadLocation(name)
		if err != nil {
			continue
		}
		if _, secs := at.In(loc).Zone(); secs == offset*3600 {
			return name, loc, true
		}
	}
	return "", nil, false
}
