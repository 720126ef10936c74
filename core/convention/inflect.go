// Package convention derives names from model names and file names:
// resource keys for REST envelopes and human-readable labels.
package convention

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// irregular maps singular to plural for words the suffix rules get wrong.
var irregular = map[string]string{
	"person": "people",
	"man":    "men",
	"woman":  "women",
	"child":  "children",
	"mouse":  "mice",
	"datum":  "data",
	"medium": "media",
	"index":  "indices",
	"status": "statuses",
	"schema": "schemas",
}

// Pluralize returns the plural form of an English word.
func Pluralize(word string) string {
	if word == "" {
		return ""
	}
	lower := strings.ToLower(word)

	if p, ok := irregular[lower]; ok {
		return matchCase(word, p)
	}

	switch {
	case hasAnySuffix(lower, "s", "x", "z", "ch", "sh"):
		return word + "es"
	case strings.HasSuffix(lower, "y") && len(lower) > 1 && !isVowel(lower[len(lower)-2]):
		return word[:len(word)-1] + "ies"
	case strings.HasSuffix(lower, "fe"):
		return word[:len(word)-2] + "ves"
	case strings.HasSuffix(lower, "f"):
		return word[:len(word)-1] + "ves"
	}
	return word + "s"
}

// Underscore converts CamelCase, kebab-case and dotted names to snake_case.
// "BlogPost" -> "blog_post", "HTTPServer" -> "http_server".
func Underscore(name string) string {
	runes := []rune(name)
	var b strings.Builder
	for i, r := range runes {
		switch {
		case r == '-' || r == ' ' || r == '.' || r == ':':
			b.WriteByte('_')
		case unicode.IsUpper(r):
			if i > 0 && runes[i-1] != '_' && !isSeparator(runes[i-1]) &&
				(unicode.IsLower(runes[i-1]) || unicode.IsDigit(runes[i-1]) ||
					(i+1 < len(runes) && unicode.IsLower(runes[i+1]))) {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ResourceKey returns the envelope key for a model name: the underscored
// name as given ("BlogPost" -> "blog_post"). Model names are singular, so
// the key is never inflected.
func ResourceKey(name string) string {
	// Qualified names ("billing.Invoice") use the last segment.
	if i := strings.LastIndexAny(name, ".:/"); i >= 0 {
		name = name[i+1:]
	}
	return Underscore(name)
}

// CollectionPath returns the conventional REST collection path for a model
// name: "/" followed by the pluralized resource key ("LineItem" -> "/line_items").
func CollectionPath(name string) string {
	return "/" + Pluralize(ResourceKey(name))
}

// Humanize turns an identifier into a sentence-case label:
// "my_first-post" -> "My first post". A trailing "_id" is dropped.
func Humanize(s string) string {
	s = strings.TrimSuffix(s, "_id")
	s = strings.Map(func(r rune) rune {
		if r == '_' || r == '-' {
			return ' '
		}
		return r
	}, s)
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return ""
	}

	runes := []rune(strings.ToLower(s))
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

// Titleize capitalizes every word: "my first post" -> "My First Post".
func Titleize(s string) string {
	return cases.Title(language.English).String(Humanize(s))
}

func matchCase(original, replacement string) string {
	if original != "" && unicode.IsUpper(rune(original[0])) {
		return strings.ToUpper(replacement[:1]) + replacement[1:]
	}
	return replacement
}

func hasAnySuffix(s string, suffixes ...string) bool {
	for _, suf := range suffixes {
		if strings.HasSuffix(s, suf) {
			return true
		}
	}
	return false
}

func isVowel(c byte) bool {
	return strings.IndexByte("aeiou", c) >= 0
}

func isSeparator(r rune) bool {
	return r == '-' || r == ' ' || r == '.' || r == ':'
}
