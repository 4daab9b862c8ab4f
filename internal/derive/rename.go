package derive

import (
	"strings"
	"unicode"

	"github.com/oapigen/oapigen/internal/typedef"
)

// renamePolicies lists the accepted rename_all values.
var renamePolicies = map[string]bool{
	"lowercase":            true,
	"UPPERCASE":            true,
	"PascalCase":           true,
	"camelCase":            true,
	"snake_case":           true,
	"SCREAMING_SNAKE_CASE": true,
	"kebab-case":           true,
	"SCREAMING-KEBAB-CASE": true,
}

// validRenamePolicy reports whether policy is a known rename_all value.
// The empty policy means "keep declared names".
func validRenamePolicy(policy string) bool {
	return policy == "" || renamePolicies[policy]
}

// EncodedFieldName returns the property name a field encodes as: an
// explicit rename wins over the definition's rename_all policy, which
// wins over the declared name. Schema construction and generated struct
// tags both go through here so the two can never disagree.
func EncodedFieldName(renameAll string, f typedef.Field) string {
	if f.Rename != "" {
		return f.Rename
	}
	return applyRenameAll(renameAll, f.Name)
}

// EncodedAltName is the alternative counterpart of EncodedFieldName.
func EncodedAltName(renameAll string, alt typedef.Alternative) string {
	if alt.Rename != "" {
		return alt.Rename
	}
	return applyRenameAll(renameAll, alt.Name)
}

// applyRenameAll converts a declared identifier to the policy's casing.
func applyRenameAll(policy, name string) string {
	if policy == "" || name == "" {
		return name
	}
	words := splitWords(name)
	switch policy {
	case "lowercase":
		return strings.ToLower(strings.Join(words, ""))
	case "UPPERCASE":
		return strings.ToUpper(strings.Join(words, ""))
	case "PascalCase":
		for i, w := range words {
			words[i] = capitalize(w)
		}
		return strings.Join(words, "")
	case "camelCase":
		for i, w := range words {
			if i == 0 {
				words[i] = strings.ToLower(w)
			} else {
				words[i] = capitalize(w)
			}
		}
		return strings.Join(words, "")
	case "snake_case":
		return strings.ToLower(strings.Join(words, "_"))
	case "SCREAMING_SNAKE_CASE":
		return strings.ToUpper(strings.Join(words, "_"))
	case "kebab-case":
		return strings.ToLower(strings.Join(words, "-"))
	case "SCREAMING-KEBAB-CASE":
		return strings.ToUpper(strings.Join(words, "-"))
	default:
		return name
	}
}

// splitWords breaks an identifier into words at case boundaries and
// separators. Acronym runs stay together: HTTPServer → [HTTP, Server].
func splitWords(name string) []string {
	var words []string
	var cur []rune
	runes := []rune(name)

	flush := func() {
		if len(cur) > 0 {
			words = append(words, string(cur))
			cur = cur[:0]
		}
	}

	for i, r := range runes {
		switch {
		case r == '_' || r == '-' || r == ' ':
			flush()
		case unicode.IsUpper(r):
			prevLower := i > 0 && unicode.IsLower(runes[i-1])
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			prevUpper := i > 0 && unicode.IsUpper(runes[i-1])
			if prevLower || (prevUpper && nextLower) {
				flush()
			}
			cur = append(cur, r)
		default:
			cur = append(cur, r)
		}
	}
	flush()
	return words
}

func capitalize(w string) string {
	if w == "" {
		return w
	}
	runes := []rune(w)
	runes[0] = unicode.ToUpper(runes[0])
	for i := 1; i < len(runes); i++ {
		runes[i] = unicode.ToLower(runes[i])
	}
	return string(runes)
}
