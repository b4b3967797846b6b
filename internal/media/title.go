package media

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var nonWordRun = regexp.MustCompile(`\W+`)

// SanitizeTitle lowercases a title and collapses every run of non-word
// characters to a single hyphen, producing the form embedded in file-name
// stems. Returns "" for titles with no usable characters.
func SanitizeTitle(title string) string {
	sanitized := nonWordRun.ReplaceAllString(strings.ToLower(title), "-")
	return strings.Trim(sanitized, "-")
}

// TitleizeName turns a file or folder name into a display title: separator
// characters become spaces and words are title-cased.
func TitleizeName(name string) string {
	cleaned := strings.Builder{}
	prevSpace := false
	for _, r := range name {
		switch {
		case unicode.IsLetter(r) || unicode.IsNumber(r):
			cleaned.WriteRune(r)
			prevSpace = false
		case unicode.IsSpace(r) || r == '-' || r == '_' || r == '.':
			if !prevSpace {
				cleaned.WriteRune(' ')
				prevSpace = true
			}
		}
	}
	title := strings.TrimSpace(cleaned.String())
	if title == "" {
		return ""
	}
	return cases.Title(language.Und).String(title)
}
