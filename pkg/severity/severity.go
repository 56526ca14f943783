// Package severity assigns one of four ordered criticality bands to a file
// based on vulnerability-type, impact, and access-context keywords found in
// its text. The keyword tables are seed configuration, not an oracle.
package severity

import (
	"strings"

	"github.com/duynguyendang/secdex/pkg/extract"
)

// Level is a severity band, ordered critical > high > medium > low.
type Level string

const (
	LevelCritical Level = "critical"
	LevelHigh     Level = "high"
	LevelMedium   Level = "medium"
	LevelLow      Level = "low"
)

// Factors records which keywords drove the assessment.
type Factors struct {
	VulnType []string `json:"vuln_type,omitempty"`
	Impact   []string `json:"impact,omitempty"`
	Access   []string `json:"access,omitempty"`
}

// Assessment is the classification outcome. Score always falls inside the
// band associated with Level: critical [9.0,10.0], high [7.0,9.0),
// medium [4.0,7.0), low [0.0,4.0).
type Assessment struct {
	Level   Level   `json:"level"`
	Score   float64 `json:"score"`
	Factors Factors `json:"factors"`
}

// band defines one severity level by disjoint keyword sets and a score range.
type band struct {
	level    Level
	min, max float64
	vulnType []string
	impact   []string
	access   []string
}

// bands is ordered most to least severe; selection walks it top-down.
var bands = []band{
	{
		level: LevelCritical, min: 9.0, max: 10.0,
		vulnType: []string{"remote code execution", "rce", "arbitrary code execution", "command injection", "command execution", "buffer overflow"},
		impact:   []string{"full system compromise", "system compromise", "root access", "admin access", "complete takeover"},
		access:   []string{"unauthenticated", "pre-auth", "no authentication", "without authentication"},
	},
	{
		level: LevelHigh, min: 7.0, max: 9.0,
		vulnType: []string{"sql injection", "sqli", "authentication bypass", "privilege escalation", "insecure deserialization", "file upload"},
		impact:   []string{"data breach", "credential theft", "database access", "privilege gain", "account takeover"},
		access:   []string{"remote", "network accessible"},
	},
	{
		level: LevelMedium, min: 4.0, max: 7.0,
		vulnType: []string{"cross-site scripting", "xss", "cross-site request forgery", "csrf", "directory traversal", "path traversal", "open redirect"},
		impact:   []string{"session hijacking", "information disclosure", "data tampering", "defacement"},
		access:   []string{"authenticated", "user interaction"},
	},
	{
		level: LevelLow, min: 0.0, max: 4.0,
		vulnType: []string{"denial of service", "dos", "clickjacking", "information leak", "verbose error"},
		impact:   []string{"availability degradation", "minor information", "resource exhaustion"},
		access:   []string{"local", "physical"},
	},
}

// Classify scans text for severity signals and returns an assessment, or
// nil when no vulnerability-type keyword matches at all. The highest band
// with at least one type keyword and at least one impact or access keyword
// wins; a bare type match with no impact/access signal classifies as low.
// Identical input always yields an identical assessment. components are the
// software items already detected in the same text; banding itself is
// keyword-driven and does not consult them.
func Classify(components []extract.Component, text string) *Assessment {
	lower := strings.ToLower(text)

	matched := make([]Factors, len(bands))
	anyType := false
	for i, b := range bands {
		matched[i] = Factors{
			VulnType: matchAll(lower, b.vulnType),
			Impact:   matchAll(lower, b.impact),
			Access:   matchAll(lower, b.access),
		}
		if len(matched[i].VulnType) > 0 {
			anyType = true
		}
	}
	if !anyType {
		return nil
	}

	for i, b := range bands {
		f := matched[i]
		if len(f.VulnType) == 0 {
			continue
		}
		if len(f.Impact) == 0 && len(f.Access) == 0 && b.level != LevelLow {
			continue
		}
		return &Assessment{Level: b.level, Score: score(b, f), Factors: f}
	}

	// Type keywords matched somewhere, but no band had the impact/access
	// signal needed; degrade to low using the first factors found.
	for _, f := range matched {
		if len(f.VulnType) > 0 {
			low := bands[len(bands)-1]
			return &Assessment{Level: low.level, Score: score(low, f), Factors: f}
		}
	}
	return nil
}

// score places the assessment inside the band's range as a linear function
// of how many factor classes matched (1 to 3).
func score(b band, f Factors) float64 {
	classes := 0
	for _, n := range []int{len(f.VulnType), len(f.Impact), len(f.Access)} {
		if n > 0 {
			classes++
		}
	}
	span := b.max - b.min
	s := b.min + span*float64(classes)/3.0
	if s >= b.max && b.level != LevelCritical {
		s = b.max - 0.1
	}
	return s
}

func matchAll(lower string, keywords []string) []string {
	var out []string
	for _, kw := range keywords {
		if containsWord(lower, kw) {
			out = append(out, kw)
		}
	}
	return out
}

// containsWord reports whether kw occurs in text on word boundaries, so a
// short keyword like "rce" does not fire inside "resource".
func containsWord(text, kw string) bool {
	for start := 0; ; {
		i := strings.Index(text[start:], kw)
		if i < 0 {
			return false
		}
		i += start
		before := i == 0 || !isWordByte(text[i-1])
		end := i + len(kw)
		after := end == len(text) || !isWordByte(text[end])
		if before && after {
			return true
		}
		start = i + 1
	}
}

func isWordByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9'
}
