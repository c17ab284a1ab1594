package analytics

import "strings"

// Device is the classification derived from a user-agent string.
type Device struct {
	Type    string
	Browser string
	OS      string
}

type rule struct {
	needles []string
	label   string
}

// Precedence matters: the first matching rule wins.
var (
	deviceRules = []rule{
		{[]string{"mobile"}, "Mobile"},
		{[]string{"tablet", "ipad"}, "Tablet"},
	}
	browserRules = []rule{
		{[]string{"edg"}, "Edge"},
		{[]string{"chrome"}, "Chrome"},
		{[]string{"firefox"}, "Firefox"},
		{[]string{"safari"}, "Safari"},
		{[]string{"opera"}, "Opera"},
	}
	osRules = []rule{
		{[]string{"windows"}, "Windows"},
		{[]string{"mac"}, "macOS"},
		{[]string{"linux"}, "Linux"},
		{[]string{"android"}, "Android"},
		{[]string{"ios", "iphone", "ipad"}, "iOS"},
	}
)

// Classify derives device type, browser and OS by case-insensitive substring matching.
func Classify(userAgent string) Device {
	ua := strings.ToLower(userAgent)

	return Device{
		Type:    match(ua, deviceRules, "Desktop"),
		Browser: match(ua, browserRules, "Other"),
		OS:      match(ua, osRules, "Other"),
	}
}

func match(ua string, rules []rule, fallback string) string {
	for _, r := range rules {
		for _, needle := range r.needles {
			if strings.Contains(ua, needle) {
				return r.label
			}
		}
	}

	return fallback
}
