package formatter

import (
	"strings"
	"unicode/utf8"

	"github.com/maheshrc27/autoposter/internal/models"
)

const ellipsis = "..."

// Character ceilings per platform, counted in runes.
var limits = map[string]int{
	models.PlatformTwitter:   280,
	models.PlatformThreads:   500,
	models.PlatformInstagram: 2200,
	models.PlatformTikTok:    2200,
	models.PlatformLinkedIn:  3000,
	models.PlatformFacebook:  63206,
}

var suffixes = map[string]string{
	models.PlatformTwitter:   " #automation #socialmedia",
	models.PlatformFacebook:  "\n\n#SocialMediaAutomation #Marketing",
	models.PlatformLinkedIn:  "\n\n#ProfessionalDevelopment #Business #LinkedIn",
	models.PlatformInstagram: "\n\n#Instagram #Visual #Content #Engagement",
	models.PlatformTikTok:    "\n\n#TikTok #Trending #Viral #Content",
	models.PlatformThreads:   "\n\n#Threads #Community #Discussion",
}

// Extras carries the Threads mention step output into Format.
type Extras struct {
	Mentions     []string
	TrendingTags []string
}

func (e Extras) empty() bool {
	return len(e.Mentions) == 0 && len(e.TrendingTags) == 0
}

// Limit returns the platform's character ceiling, or 0 when it has none.
func Limit(platform string) int {
	return limits[platform]
}

// Format adapts content for a platform. It is a pure function of its
// arguments, so it must always be given the original campaign content.
//
// The platform suffix is only added when content has no hashtag and the
// result still fits. Extras are kept intact and the body is truncated
// around them with a trailing "..." when needed.
func Format(content, platform string, extras Extras) string {
	limit := Limit(platform)
	tail := renderExtras(extras)

	if limit > 0 && utf8.RuneCountInString(tail)*2 > limit {
		tail = ""
	}

	body := content
	if suffix, ok := suffixes[platform]; ok && !strings.Contains(content, "#") {
		withSuffix := content + suffix
		if limit == 0 || utf8.RuneCountInString(withSuffix)+utf8.RuneCountInString(tail) <= limit {
			body = withSuffix
		}
	}

	if limit > 0 {
		body = truncate(body, limit-utf8.RuneCountInString(tail))
	}

	return body + tail
}

func renderExtras(e Extras) string {
	if e.empty() {
		return ""
	}

	var b strings.Builder
	if len(e.Mentions) > 0 {
		b.WriteString("\n\n")
		for i, h := range e.Mentions {
			if i > 0 {
				b.WriteByte(' ')
			}
			b.WriteByte('@')
			b.WriteString(strings.TrimPrefix(h, "@"))
		}
		b.WriteString(" What do you think?")
	}
	if len(e.TrendingTags) > 0 {
		b.WriteString("\n\n")
		b.WriteString(strings.Join(e.TrendingTags, " "))
	}
	return b.String()
}

// truncate cuts s to at most max runes, ending in "..." when it had to cut.
func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	if max <= 0 {
		return ""
	}
	if max <= len(ellipsis) {
		return string([]rune(ellipsis)[:max])
	}
	runes := []rune(s)
	return string(runes[:max-len(ellipsis)]) + ellipsis
}
