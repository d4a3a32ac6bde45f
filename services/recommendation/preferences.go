package recommendation

import (
	"strings"
	"unicode"
)

type keywordSet struct {
	name     string
	keywords []string
}

// Checked in order; the first set with a hit wins.
var categoryKeywords = []keywordSet{
	{"Technology", []string{"technology", "tech", "software", "coding", "programming", "computer", "digital", "web", "app", "mobile", "data", "online", "internet", "it"}},
	{"Agriculture", []string{"agriculture", "farming", "crop", "farm", "soil", "plant", "harvest", "livestock", "organic", "sustainable", "garden", "seed", "irrigation"}},
	{"Business", []string{"business", "entrepreneur", "marketing", "finance", "management", "startup", "sales", "money", "profit", "market", "company", "commerce", "trade"}},
	{"Health", []string{"health", "medical", "healthcare", "medicine", "wellness", "nutrition", "fitness", "diet", "mental health", "physical", "therapy", "disease"}},
	{"Education", []string{"education", "learning", "teach", "school", "academic", "study", "course", "knowledge", "training", "skill", "lesson", "learn"}},
}

var levelKeywords = []keywordSet{
	{"Beginner", []string{"beginner", "basic", "fundamental", "introduction", "start", "new", "novice", "elementary", "first time", "starting out", "entry"}},
	{"Intermediate", []string{"intermediate", "middle", "moderate", "average", "some experience", "familiar", "practiced"}},
	{"Advanced", []string{"advanced", "expert", "professional", "experienced", "proficient", "specialized", "master", "high level", "in-depth"}},
}

// InferPreferences reads a category and a level out of free text such as a
// chat message. Unknown text maps to Technology and Beginner.
func InferPreferences(text string) (interests, level string) {
	lower := strings.ToLower(text)
	words := map[string]bool{}
	for _, w := range strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-'
	}) {
		words[w] = true
	}

	match := func(sets []keywordSet, fallback string) string {
		for _, set := range sets {
			for _, kw := range set.keywords {
				if strings.Contains(kw, " ") {
					if strings.Contains(lower, kw) {
						return set.name
					}
				} else if words[kw] {
					return set.name
				}
			}
		}
		return fallback
	}
	return match(categoryKeywords, "Technology"), match(levelKeywords, "Beginner")
}

func fillFromQuery(req Request) Request {
	if strings.TrimSpace(req.Query) == "" {
		return req
	}
	interests, level := InferPreferences(req.Query)
	if req.Interests == "" {
		req.Interests = interests
	}
	if req.Level == "" {
		req.Level = level
	}
	return req
}
