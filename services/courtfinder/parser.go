package courtfinder

import (
	"regexp"
	"strconv"
	"strings"
)

type Availability struct {
	Count   int
	Numbers []int
}

// PhraseSet is the wording the site uses to report availability. when the
// site changes its wording only the PhraseSet changes.
type PhraseSet struct {
	Version string
	// a literal substring meaning nothing is available
	NoCourts string
	// first group is the number of available courts
	CountedCourts *regexp.Regexp
	// a single available court without an explicit number
	SingleCourt *regexp.Regexp
	// first group is the number of one available court, matched repeatedly
	CourtNumber *regexp.Regexp
}

// [\s\p{Zs}] also matches non-breaking spaces
var HebrewPhrases = PhraseSet{
	Version:       "he-1",
	NoCourts:      "לא נמצאו מגרשים פנויים",
	CountedCourts: regexp.MustCompile(`נמצאו[\s\p{Zs}]+(\d+)[\s\p{Zs}]+מגרש(?:ים)?[\s\p{Zs}]+פנוי(?:ים)?`),
	SingleCourt:   regexp.MustCompile(`נמצא[\s\p{Zs}]+מגרש[\s\p{Zs}]+פנוי`),
	CourtNumber:   regexp.MustCompile(`מגרש:[\s\p{Zs}]*(\d+)`),
}

// Parse never fails, text it does not recognize has no availability.
func (p PhraseSet) Parse(text string) Availability {
	result := Availability{Numbers: []int{}}
	if strings.Contains(text, p.NoCourts) {
		return result
	}

	if m := p.CountedCourts.FindStringSubmatch(text); m != nil {
		count, err := strconv.Atoi(m[1])
		if err == nil {
			result.Count = count
		}
	} else if p.SingleCourt.MatchString(text) {
		result.Count = 1
	}

	for _, m := range p.CourtNumber.FindAllStringSubmatch(text, -1) {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		result.Numbers = append(result.Numbers, n)
	}

	if result.Count == 0 && len(result.Numbers) > 0 {
		result.Count = len(result.Numbers)
	}
	return result
}

func ParseAvailability(text string) Availability {
	return HebrewPhrases.Parse(text)
}
