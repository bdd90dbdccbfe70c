// Package classifier suggests tags for new notes from their text.
package classifier

import (
	"sort"
	"strings"
	"unicode"
)

type Classifier interface {
	ClassifyContent(content string) []string
}

var defaultCategories = map[string][]string{
	"work":      {"project", "meeting", "deadline", "task", "report"},
	"personal":  {"family", "friend", "home", "birthday", "holiday"},
	"shopping":  {"buy", "purchase", "store", "shop", "price"},
	"education": {"study", "learn", "course", "book", "homework"},
	"travel":    {"trip", "flight", "hotel", "vacation", "booking"},
}

// KeywordClassifier tags hashtags found in the text, then categories whose
// keywords appear in it.
type KeywordClassifier struct {
	maxTags    int
	categories map[string][]string
}

func NewKeywordClassifier(maxTags int) *KeywordClassifier {
	return &KeywordClassifier{
		maxTags:    maxTags,
		categories: defaultCategories,
	}
}

// ClassifyContent returns hashtags in order of appearance followed by
// matching categories in name order, without duplicates.
func (c *KeywordClassifier) ClassifyContent(content string) []string {
	seen := make(map[string]struct{})
	result := []string{}
	add := func(tag string) {
		if _, ok := seen[tag]; ok || tag == "" {
			return
		}
		seen[tag] = struct{}{}
		result = append(result, tag)
	}

	// Extract hashtags
	for _, word := range strings.Fields(content) {
		if strings.HasPrefix(word, "#") {
			add(strings.ToLower(strings.TrimRightFunc(strings.TrimPrefix(word, "#"), unicode.IsPunct)))
		}
	}

	names := make([]string, 0, len(c.categories))
	for name := range c.categories {
		names = append(names, name)
	}
	sort.Strings(names)

	words := make(map[string]struct{})
	for _, w := range strings.FieldsFunc(strings.ToLower(content), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		words[w] = struct{}{}
	}
	for _, name := range names {
		for _, keyword := range c.categories[name] {
			if _, ok := words[keyword]; ok {
				add(name)
				break
			}
		}
	}

	// Limit the number of tags
	if c.maxTags > 0 && len(result) > c.maxTags {
		result = result[:c.maxTags]
	}
	return result
}
