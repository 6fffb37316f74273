package memory

import (
	"regexp"
	"strconv"
	"strings"

	contractx "github.com/tanpawarit/Juno-Tiered-Home-Agent/agent/contract"
)

var (
	nameHeaderPattern = regexp.MustCompile(`(?m)^#{1,3}\s+(?:About\s+)?(.+?)\s*$`)
	agePattern        = regexp.MustCompile(`(?im)^[-*]?\s*age:\s*(\d{1,3})\b`)
	interestsPattern  = regexp.MustCompile(`(?im)^[-*]?\s*interests?:\s*(.+)$`)
)

// parseProfile lifts light structure out of a profile document. Profiles are
// hand-edited markdown, so parsing is lenient and the full text is carried
// as Notes for prompt assembly.
func parseProfile(personID string, source contractx.ProfileSource, raw string) contractx.FamilyProfile {
	profile := contractx.FamilyProfile{
		PersonID: personID,
		Name:     displayName(personID),
		Notes:    strings.TrimSpace(raw),
		Source:   source,
	}

	if m := nameHeaderPattern.FindStringSubmatch(raw); m != nil {
		if name := strings.TrimSpace(m[1]); name != "" {
			profile.Name = name
		}
	}
	if m := agePattern.FindStringSubmatch(raw); m != nil {
		if age, err := strconv.Atoi(m[1]); err == nil {
			profile.Age = age
		}
	}
	if m := interestsPattern.FindStringSubmatch(raw); m != nil {
		for _, item := range strings.Split(m[1], ",") {
			if item = strings.TrimSpace(item); item != "" {
				profile.Interests = append(profile.Interests, item)
			}
		}
	}
	return profile
}
