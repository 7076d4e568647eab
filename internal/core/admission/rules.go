package admission

import "regexp"

// DefaultRules is the curated production rule set. The lists are intentionally
// static: admission behavior must stay reproducible across deployments.
func DefaultRules() Rules {
	return Rules{
		Explicit: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(sex|porn|xxx|adult|nude|naked|explicit|erotic|intimate)\b`),
			regexp.MustCompile(`(?i)(pornhub|xvideos|xnxx|redtube|youporn|tube8)`),
			regexp.MustCompile(`(?i)(18\+|adult content|mature content|explicit content)`),
			regexp.MustCompile(`(?i)\b(fuck|shit|bitch|asshole|dick|pussy|cock|vagina)\b`),
		},
		Suspicious: []*regexp.Regexp{
			regexp.MustCompile(`(?i)(verify.*age|age.*verification|enter.*birthday)`),
			regexp.MustCompile(`(?i)(redirect.*adult|adult.*redirect)`),
			regexp.MustCompile(`(?i)(content.*warning|viewer.*discretion|mature.*audience)`),
		},
		BlockedDomains: []string{
			"pornhub.com",
			"xvideos.com",
			"xnxx.com",
			"redtube.com",
			"youporn.com",
			"tube8.com",
			"adultfriendfinder.com",
			"ashleymadison.com",
		},
		SuspiciousWords: []string{
			"adult", "mature", "explicit", "erotic", "intimate", "sexual",
			"nude", "naked", "porn", "xxx", "sex",
		},
		DensityThreshold:      0.1,
		MinSuspiciousPatterns: 2,
	}
}
