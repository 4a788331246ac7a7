package formatter

import (
	"context"
	"sort"
	"strings"
)

// Candidate is a Threads account that may be mentioned.
type Candidate struct {
	Username       string   `json:"username"`
	Interests      []string `json:"interests"`
	Followers      int      `json:"followers"`
	Engagement     float64  `json:"engagement"`
	RelevanceScore int      `json:"relevance_score"`
}

// Directory finds mention candidates for a set of keywords, best first.
type Directory interface {
	Search(ctx context.Context, keywords []string, limit int) ([]Candidate, error)
}

type StaticDirectory struct {
	users []Candidate
}

func NewStaticDirectory(users []Candidate) *StaticDirectory {
	return &StaticDirectory{users: users}
}

// DefaultDirectory is the seeded directory used until a live Threads search is wired in.
func DefaultDirectory() *StaticDirectory {
	return NewStaticDirectory([]Candidate{
		{Username: "entrepreneur_mike", Interests: []string{"business", "startup", "marketing"}, Followers: 15000, Engagement: 8.5},
		{Username: "tech_sarah", Interests: []string{"technology", "AI", "programming"}, Followers: 12000, Engagement: 7.2},
		{Username: "creative_anna", Interests: []string{"design", "art", "creativity"}, Followers: 8500, Engagement: 9.1},
		{Username: "fitness_john", Interests: []string{"fitness", "health", "motivation"}, Followers: 20000, Engagement: 6.8},
		{Username: "food_lover_emma", Interests: []string{"cooking", "recipes", "food"}, Followers: 11000, Engagement: 8.9},
		{Username: "travel_wanderer", Interests: []string{"travel", "adventure", "photography"}, Followers: 18000, Engagement: 7.5},
		{Username: "finance_guru", Interests: []string{"finance", "investing", "money"}, Followers: 25000, Engagement: 8.0},
		{Username: "lifestyle_jenny", Interests: []string{"lifestyle", "wellness", "beauty"}, Followers: 14000, Engagement: 8.3},
		{Username: "sports_fanatic", Interests: []string{"sports", "football", "basketball"}, Followers: 16000, Engagement: 7.8},
		{Username: "music_producer", Interests: []string{"music", "production", "beats"}, Followers: 9500, Engagement: 9.2},
	})
}

// Search scores every user by how many (keyword, interest) pairs overlap
// and returns those with a positive score ranked by score then engagement.
func (d *StaticDirectory) Search(_ context.Context, keywords []string, limit int) ([]Candidate, error) {
	results := make([]Candidate, 0, len(d.users))
	for _, u := range d.users {
		score := 0
		for _, k := range keywords {
			k = strings.ToLower(k)
			for _, interest := range u.Interests {
				i := strings.ToLower(interest)
				if strings.Contains(i, k) || strings.Contains(k, i) {
					score++
				}
			}
		}
		if score == 0 {
			continue
		}
		u.RelevanceScore = score
		results = append(results, u)
	}

	sort.SliceStable(results, func(a, b int) bool {
		if results[a].RelevanceScore != results[b].RelevanceScore {
			return results[a].RelevanceScore > results[b].RelevanceScore
		}
		return results[a].Engagement > results[b].Engagement
	})

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

var knownKeywords = []string{
	"business", "startup", "entrepreneur", "marketing", "sales",
	"technology", "programming", "code", "software",
	"design", "art", "creative", "graphics",
	"fitness", "health", "workout", "gym", "nutrition",
	"food", "cooking", "recipe", "restaurant", "chef",
	"travel", "adventure", "vacation", "explore", "journey",
	"finance", "money", "investing", "trading", "crypto",
	"lifestyle", "wellness", "beauty", "fashion", "style",
	"sports", "football", "basketball", "soccer", "game",
	"music", "song", "artist", "concert", "album",
}

// ExtractKeywords picks known topic words out of free text, falling back
// to a few loose hints and finally to "business".
func ExtractKeywords(content string) []string {
	text := strings.ToLower(content)

	var found []string
	for _, k := range knownKeywords {
		if strings.Contains(text, k) {
			found = append(found, k)
		}
	}
	if len(found) > 0 {
		return found
	}

	if strings.Contains(text, "success") || strings.Contains(text, "grow") {
		found = append(found, "business")
	}
	if strings.Contains(text, "learn") || strings.Contains(text, "skill") {
		found = append(found, "education")
	}
	if strings.Contains(text, "create") || strings.Contains(text, "build") {
		found = append(found, "creative")
	}
	if len(found) == 0 {
		return []string{"business"}
	}
	return found
}

var trendingTopics = []string{
	"#ThreadsLife",
	"#Innovation",
	"#Startup",
	"#TechTrends",
	"#CreativeWork",
	"#BusinessTips",
	"#Motivation",
	"#Learning",
	"#Community",
	"#Success",
}

// TrendingTags returns the top n trending Threads hashtags.
func TrendingTags(n int) []string {
	if n > len(trendingTopics) {
		n = len(trendingTopics)
	}
	return append([]string(nil), trendingTopics[:n]...)
}
