// Package mains resolves the local electrical mains frequency from the system
// timezone, used to place hum notches when the hum filter runs in auto mode.
package mains

import (
	"strings"

	tz "github.com/medama-io/go-timezone-country"
	"github.com/thlib/go-timezone-local/tzlocal"
)

// DefaultFrequency is used whenever the country cannot be determined
const DefaultFrequency = 50

// Detection is the outcome of a mains lookup
type Detection struct {
	Frequency int    // Hz, 50 or 60
	Timezone  string // IANA name, empty when the runtime timezone is unknown
	Country   string // empty when the timezone has no country
}

// Detect resolves the mains frequency for the runtime timezone
func Detect() Detection {
	timezone, err := tzlocal.RuntimeTZ()
	if err != nil {
		return Detection{Frequency: DefaultFrequency}
	}
	return DetectTimezone(timezone)
}

// Frequency returns the local mains frequency in Hz
func Frequency() int {
	return Detect().Frequency
}

// FrequencyForTimezone returns the mains frequency for an IANA timezone
func FrequencyForTimezone(timezone string) int {
	return DetectTimezone(timezone).Frequency
}

// DetectTimezone resolves the mains frequency for a given IANA timezone.
// UTC, GMT and Etc/* zones carry no country and resolve to the default.
func DetectTimezone(timezone string) Detection {
	d := Detection{Frequency: DefaultFrequency, Timezone: timezone}
	if timezone == "UTC" || timezone == "GMT" || strings.HasPrefix(timezone, "Etc/") {
		return d
	}

	tzMap, err := tz.NewTimezoneCountryMap()
	if err != nil {
		return d
	}
	country, err := tzMap.GetCountry(timezone)
	if err != nil {
		return d
	}

	d.Country = country
	if sixtyHertz[country] {
		d.Frequency = 60
	}
	return d
}

// sixtyHertz is the set of countries on 60 Hz mains.
// Japan is split by region and resolves to 50 Hz (Tokyo).
// Brazil is mixed with 60 Hz predominant.
var sixtyHertz = func() map[string]bool {
	regions := [][]string{
		{"United States", "Canada", "Mexico"},
		{"Belize", "Costa Rica", "El Salvador", "Guatemala", "Honduras", "Nicaragua", "Panama"},
		{"Bahamas", "Barbados", "Cayman Islands", "Cuba", "Dominican Republic", "Haiti",
			"Jamaica", "Puerto Rico", "Trinidad and Tobago", "U.S. Virgin Islands"},
		{"Brazil", "Colombia", "Ecuador", "Guyana", "Peru", "Suriname", "Venezuela"},
		{"South Korea", "Taiwan", "Philippines", "Saudi Arabia"},
		{"Guam", "American Samoa", "Marshall Islands", "Micronesia", "Palau"},
	}
	set := make(map[string]bool)
	for _, countries := range regions {
		for _, c := range countries {
			set[c] = true
		}
	}
	return set
}()
