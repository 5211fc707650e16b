package utils

import "strings"

// Slugify derives a URL-safe identifier from a company name. Some data
// sources append the country to the raw name ("rakuten.ca"); that suffix is
// stripped before slugging when it matches the given country code.
// The result is lowercase, alphanumeric and hyphen-delimited, with runs of
// other characters collapsed to a single hyphen. Uniqueness is not
// guaranteed here; the report store upserts by slug.
func Slugify(companyName, country string) string {
	name := strings.ToLower(strings.TrimSpace(companyName))

	if country != "" {
		suffix := "." + strings.ToLower(country)
		name = strings.TrimSuffix(name, suffix)
	}

	var b strings.Builder
	lastHyphen := true // suppress a leading hyphen
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}

	return strings.TrimSuffix(b.String(), "-")
}
