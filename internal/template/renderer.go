// Package template resolves and renders the message text for a send: a
// priority search from the most specific override down to compiled-in
// defaults, plus a pure placeholder renderer.
package template

import (
	"regexp"
	"strings"
)

// fieldAliases maps placeholder spellings to canonical field keys. Aliases
// are data: adding one is a table entry, not a code change.
var fieldAliases = map[string]string{
	"company":         "client_name",
	"business":        "client_name",
	"client":          "client_name",
	"fname":           "first_name",
	"amount":          "value",
	"card_value":      "value",
	"gift_card_value": "value",
	"card_brand":      "brand",
	"gift_code":       "code",
	"card_code":       "code",
	"url":             "link",
	"redemption_link": "link",
}

// dollarVariants are placeholders that render the same source field with a
// currency prefix.
var dollarVariants = map[string]string{
	"dollar_value":  "value",
	"dollar_amount": "value",
}

var (
	mergeTagPattern    = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_.]+)\s*\}\}`)
	placeholderPattern = regexp.MustCompile(`\{([A-Za-z0-9_.]+)\}`)
	spaceRunPattern    = regexp.MustCompile(`[ \t]{2,}`)
)

// Variables is the substitution input for a render. Fields holds top-level
// values keyed by canonical name; Custom backs the {custom.x} namespace.
type Variables struct {
	Fields map[string]string
	Custom map[string]string
}

// lookup resolves a placeholder name to its value and whether it was found.
// Field names are case-insensitive; aliases and the link→code fallback apply.
// Custom keys are matched exactly as the sender spelled them in the bag.
func (v Variables) lookup(name string) (string, bool) {
	if rest, ok := trimPrefixFold(name, "custom."); ok {
		// Missing custom keys render as empty string rather than being
		// treated as unmatched, so a sparse bag never leaks braces.
		return v.Custom[rest], true
	}

	key := strings.ToLower(name)

	if src, ok := dollarVariants[key]; ok {
		if val, ok := v.field(src); ok && val != "" {
			return "$" + val, true
		}
		return "", false
	}

	if canonical, ok := fieldAliases[key]; ok {
		key = canonical
	}

	val, ok := v.field(key)
	if key == "link" && (!ok || val == "") {
		// A template asking for a link falls back to the bare code when
		// no redemption link was generated.
		return v.field("code")
	}

	return val, ok
}

// trimPrefixFold strips prefix from s case-insensitively, reporting whether
// it was present. The remainder keeps its original case.
func trimPrefixFold(s, prefix string) (string, bool) {
	if len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix) {
		return s[len(prefix):], true
	}
	return "", false
}

func (v Variables) field(key string) (string, bool) {
	if v.Fields == nil {
		return "", false
	}
	val, ok := v.Fields[key]
	return val, ok
}

// Render substitutes both placeholder syntaxes into tmpl: double-brace
// {{field}} merge tags first, then single-brace {field} transactional
// fields. Unmatched placeholders are stripped and whitespace runs collapsed
// so a rendered message never leaks a template artifact to a recipient.
func Render(tmpl string, vars Variables) string {
	out := mergeTagPattern.ReplaceAllStringFunc(tmpl, func(match string) string {
		name := mergeTagPattern.FindStringSubmatch(match)[1]
		val, _ := vars.lookup(name)
		return val
	})

	out = placeholderPattern.ReplaceAllStringFunc(out, func(match string) string {
		name := placeholderPattern.FindStringSubmatch(match)[1]
		val, _ := vars.lookup(name)
		return val
	})

	return tidyWhitespace(out)
}

// tidyWhitespace collapses space runs left behind by stripped placeholders
// and trims line ends, preserving intentional line breaks.
func tidyWhitespace(s string) string {
	s = spaceRunPattern.ReplaceAllString(s, " ")

	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}

	return strings.TrimSpace(strings.Join(lines, "\n"))
}
