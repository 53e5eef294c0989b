package domain

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	// SEOMaxScore is the best attainable total (15+20+15+20+15+15).
	SEOMaxScore = 100

	PointsTitleIdeal       = 15
	PointsTitlePresent     = 10
	PointsDescIdeal        = 20
	PointsDescPresent      = 15
	PointsViewport         = 15
	PointsOpenGraphFull    = 20
	PointsOpenGraphNoImage = 15
	PointsTwitterCard      = 15
	PointsStructuredData   = 15

	titleIdealMin = 30
	titleIdealMax = 60
	descIdealMin  = 120
	descIdealMax  = 160
)

// Keys used in SEOScore.Details.
const (
	DetailTitle       = "title"
	DetailDescription = "description"
	DetailOGTitle     = "ogTitle"
)

// Attribute order is name/property first, then content. Pages writing
// content first simply don't match.
var (
	reTitle       = regexp.MustCompile(`(?i)<title[^>]*>([^<]+)</title>`)
	reDescription = regexp.MustCompile(`(?i)<meta\s+name=["']description["']\s+content=["']([^"']+)["']`)
	reOGTitle     = metaPropertyRe("og:title")
	reOGDesc      = metaPropertyRe("og:description")
	reOGImage     = metaPropertyRe("og:image")
)

func metaPropertyRe(property string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)<meta\s+property=["']` + regexp.QuoteMeta(property) + `["']\s+content=["']([^"']+)["']`)
}

// SEOChecks holds the individual findings behind an SEOScore.
type SEOChecks struct {
	HasTitle           bool `json:"hasTitle"`
	HasMetaDescription bool `json:"hasMetaDescription"`
	HasViewport        bool `json:"hasViewport"`
	HasOpenGraph       bool `json:"hasOpenGraph"`
	HasTwitterCard     bool `json:"hasTwitterCard"`
	HasStructuredData  bool `json:"hasStructuredData"`
	TitleLength        int  `json:"titleLength"`
	DescriptionLength  int  `json:"descriptionLength"`
}

// SEOScore is the discoverability score of a page's raw markup.
type SEOScore struct {
	Total    int               `json:"total"`
	MaxScore int               `json:"maxScore"`
	Checks   SEOChecks         `json:"checks"`
	Details  map[string]string `json:"details"`
}

// ScoreMarkup scores raw HTML. It performs no I/O and never fails: markup
// that doesn't match a rule contributes nothing.
func ScoreMarkup(html string) SEOScore {
	score := SEOScore{
		MaxScore: SEOMaxScore,
		Details:  map[string]string{},
	}

	if title, ok := firstGroup(reTitle, html); ok {
		n := utf8.RuneCountInString(title)
		score.Checks.HasTitle = true
		score.Checks.TitleLength = n
		score.Details[DetailTitle] = title
		score.Total += lengthPoints(n, titleIdealMin, titleIdealMax, PointsTitleIdeal, PointsTitlePresent)
	}

	if desc, ok := firstGroup(reDescription, html); ok {
		n := utf8.RuneCountInString(desc)
		score.Checks.HasMetaDescription = true
		score.Checks.DescriptionLength = n
		score.Details[DetailDescription] = desc
		score.Total += lengthPoints(n, descIdealMin, descIdealMax, PointsDescIdeal, PointsDescPresent)
	}

	if strings.Contains(html, `name="viewport"`) || strings.Contains(html, `name='viewport'`) {
		score.Checks.HasViewport = true
		score.Total += PointsViewport
	}

	ogTitle, hasOGTitle := firstGroup(reOGTitle, html)
	_, hasOGDesc := firstGroup(reOGDesc, html)
	if hasOGTitle && hasOGDesc {
		score.Checks.HasOpenGraph = true
		score.Details[DetailOGTitle] = ogTitle
		if reOGImage.MatchString(html) {
			score.Total += PointsOpenGraphFull
		} else {
			score.Total += PointsOpenGraphNoImage
		}
	}

	if strings.Contains(html, "twitter:card") {
		score.Checks.HasTwitterCard = true
		score.Total += PointsTwitterCard
	}

	if strings.Contains(html, "application/ld+json") || strings.Contains(html, "itemscope") {
		score.Checks.HasStructuredData = true
		score.Total += PointsStructuredData
	}

	return score
}

func firstGroup(re *regexp.Regexp, s string) (string, bool) {
	m := re.FindStringSubmatch(s)
	if len(m) < 2 {
		return "", false
	}
	return m[1], true
}

func lengthPoints(n, lo, hi, ideal, present int) int {
	switch {
	case n >= lo && n <= hi:
		return ideal
	case n > 0:
		return present
	default:
		return 0
	}
}
