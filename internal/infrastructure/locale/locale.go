package locale

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ttacon/libphonenumber"
	log "github.com/sirupsen/logrus"
)

const displayLayout = "3:04 PM"

// zoneByCode maps the ERP time-zone list values onto IANA zones.
var zoneByCode = map[string]string{
	"1":  "America/New_York",
	"2":  "America/Chicago",
	"3":  "America/Denver",
	"4":  "America/Los_Angeles",
	"5":  "America/Anchorage",
	"6":  "Pacific/Honolulu",
	"7":  "America/Phoenix",
	"8":  "America/Puerto_Rico",
	"9":  "America/Bogota",
	"10": "America/Mexico_City",
	"11": "America/Guayaquil",
	"12": "America/Lima",
	"13": "America/Caracas",
	"14": "America/Santo_Domingo",

	"eastern":  "America/New_York",
	"central":  "America/Chicago",
	"mountain": "America/Denver",
	"pacific":  "America/Los_Angeles",
	"alaska":   "America/Anchorage",
	"hawaii":   "Pacific/Honolulu",
	"arizona":  "America/Phoenix",
	"est":      "America/New_York",
	"cst":      "America/Chicago",
	"mst":      "America/Denver",
	"pst":      "America/Los_Angeles",
}

// Helper resolves local clocks from ERP time-zone codes and phone numbers.
type Helper struct {
	defaultZone   *time.Location
	defaultRegion string
	now           func() time.Time

	mu    sync.Mutex
	zones map[string]*time.Location
}

// NewHelper creates a Helper. Numbers without a country code are parsed in
// defaultRegion; unresolvable inputs use defaultZone.
func NewHelper(defaultZone, defaultRegion string) *Helper {
	loc, err := time.LoadLocation(defaultZone)
	if err != nil {
		log.WithError(err).WithField("zone", defaultZone).Warn("Unknown default time zone, using UTC")
		loc = time.UTC
	}
	return &Helper{
		defaultZone:   loc,
		defaultRegion: defaultRegion,
		now:           time.Now,
		zones:         make(map[string]*time.Location),
	}
}

// WithClock replaces the time source.
func (h *Helper) WithClock(now func() time.Time) *Helper {
	h.now = now
	return h
}

// LocalTimeFor formats the current time in the zone of the code, else in
// the zone of the phone number, else in the default zone.
func (h *Helper) LocalTimeFor(timeZoneCode, phone string) string {
	loc := h.ZoneFor(timeZoneCode, phone)
	return h.now().In(loc).Format(displayLayout)
}

// ZoneFor resolves the location used by LocalTimeFor.
func (h *Helper) ZoneFor(timeZoneCode, phone string) *time.Location {
	if loc := h.zoneForCode(timeZoneCode); loc != nil {
		return loc
	}
	if loc := h.zoneForPhone(phone); loc != nil {
		return loc
	}
	return h.defaultZone
}

func (h *Helper) zoneForCode(code string) *time.Location {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil
	}
	// IANA names are case-sensitive; only the ERP aliases are folded.
	if name, ok := zoneByCode[strings.ToLower(code)]; ok {
		return h.load(name)
	}
	if strings.Contains(code, "/") {
		return h.load(code)
	}
	return nil
}

func (h *Helper) zoneForPhone(phone string) *time.Location {
	if strings.TrimSpace(phone) == "" {
		return nil
	}
	num, err := libphonenumber.Parse(phone, h.defaultRegion)
	if err != nil {
		return nil
	}
	// The zone table is keyed by country code plus leading national digits
	// and is read with a fixed-width prefix.
	prefix := strconv.Itoa(int(num.GetCountryCode())) + strconv.FormatUint(num.GetNationalNumber(), 10)
	if len(prefix) < libphonenumber.MAX_REGION_CODE_LENGTH {
		return nil
	}
	zones, err := libphonenumber.GetTimeZonesForRegion(prefix)
	if err != nil {
		return nil
	}
	for _, name := range zones {
		if name == libphonenumber.UNKNOWN_TIMEZONE {
			continue
		}
		if loc := h.load(name); loc != nil {
			return loc
		}
	}
	return nil
}

func (h *Helper) load(name string) *time.Location {
	h.mu.Lock()
	defer h.mu.Unlock()

	if loc, ok := h.zones[name]; ok {
		return loc
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		h.zones[name] = nil
		return nil
	}
	h.zones[name] = loc
	return loc
}
