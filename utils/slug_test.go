package utils

import "testing"

func TestSlugify(t *testing.T) {
	tests := []struct {
		name    string
		company string
		country string
		expect  string
	}{
		{
			name:    "simple name",
			company: "Advance America",
			expect:  "advance-america",
		},
		{
			name:    "trailing punctuation",
			company: "Advance America!!",
			expect:  "advance-america",
		},
		{
			name:    "repeated whitespace collapses",
			company: "Advance   America",
			expect:  "advance-america",
		},
		{
			name:    "country suffix stripped",
			company: "rakuten.ca",
			country: "CA",
			expect:  "rakuten",
		},
		{
			name:    "country suffix only stripped when matching",
			company: "rakuten.ca",
			country: "US",
			expect:  "rakuten-ca",
		},
		{
			name:    "mixed punctuation",
			company: "AT&T Wireless, Inc.",
			expect:  "at-t-wireless-inc",
		},
		{
			name:    "leading punctuation",
			company: "...Acme Co",
			expect:  "acme-co",
		},
		{
			name:    "digits preserved",
			company: "24 Hour Fitness",
			expect:  "24-hour-fitness",
		},
		{
			name:    "empty name",
			company: "",
			expect:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Slugify(tt.company, tt.country)
			if got != tt.expect {
				t.Errorf("Slugify(%q, %q) = %q, want %q", tt.company, tt.country, got, tt.expect)
			}
		})
	}
}

func TestSlugify_Idempotent(t *testing.T) {
	inputs := []string{"Advance America", "rakuten.ca", "AT&T Wireless"}
	for _, input := range inputs {
		first := Slugify(input, "CA")
		second := Slugify(input, "CA")
		if first != second {
			t.Errorf("Slugify(%q) not stable: %q vs %q", input, first, second)
		}
		// Slugging a slug must be a no-op.
		if reslugged := Slugify(first, ""); reslugged != first {
			t.Errorf("Slugify(%q) = %q, want unchanged", first, reslugged)
		}
	}
}
