// Package phone turns collector-supplied phone numbers into E.164.
package phone

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// DefaultRegion applies to national numbers when PHONE_DEFAULT_REGION is unset.
const DefaultRegion = "US"

// NormalizeE164 returns number in E.164. National numbers are read in region.
// Input that is not a valid number comes back trimmed but otherwise untouched,
// so a typo never blocks ingestion.
func NormalizeE164(number, region string) string {
	number = strings.TrimSpace(number)
	if number == "" {
		return ""
	}
	if region == "" {
		region = DefaultRegion
	}

	parsed, err := phonenumbers.Parse(number, region)
	if err != nil || !phonenumbers.IsValidNumber(parsed) {
		return number
	}
	return phonenumbers.Format(parsed, phonenumbers.E164)
}
