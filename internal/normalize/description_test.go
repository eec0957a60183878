package normalize

import "testing"

func TestDescription(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"whitespace only", " \n\t  ", ""},
		{"collapses whitespace", "  Great \n\n  role\tfor you ", "Great role for you"},
		{
			"dash bullets under section",
			"  Great   role.\n\nRequirements:   - Go  - SQL  ",
			"Great role.\n\nRequirements:\n• Go\n• SQL",
		},
		{
			"glyph variants",
			"Benefits ● Health ▪ Dental ◦ Remote",
			"Benefits\n• Health\n• Dental\n• Remote",
		},
		{
			"title cases section keyword",
			"we are hiring. RESPONSIBILITIES include shipping",
			"we are hiring.\n\nResponsibilities include shipping",
		},
		{"keyword must be a whole word", "Great skillset", "Great skillset"},
		{"hyphenated words are not bullets", "full-time role", "full-time role"},
		{
			"star markers",
			"Perks * lunch * gym",
			"Perks\n• lunch\n• gym",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Description(tt.in); got != tt.want {
				t.Errorf("Description(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestDescription_Idempotent(t *testing.T) {
	inputs := []string{
		"About us: we build things. Responsibilities - design - ship. Skills: Go, SQL ● Postgres",
		"• skills in go • about the team",
		"Qualifications\n\n\n\n* 5 years\n* Remote ok\nBenefits ▪ equity",
		"plain text with no sections",
	}

	for _, in := range inputs {
		once := Description(in)
		twice := Description(once)
		if once != twice {
			t.Errorf("not idempotent for %q:\nfirst:  %q\nsecond: %q", in, once, twice)
		}
	}
}
