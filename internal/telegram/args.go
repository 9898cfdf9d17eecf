package telegram

import (
	"strings"
	"unicode"

	"github.com/edgard/finadvisor/internal/profile"
)

// argAliases maps a folded argument name (lowercase, no '_' or '-') to its
// profile key.
var argAliases = map[string]string{
	"age": profile.KeyAge,

	"retire":              profile.KeyTargetRetirementAge,
	"retireage":           profile.KeyTargetRetirementAge,
	"retirementage":       profile.KeyTargetRetirementAge,
	"targetretirementage": profile.KeyTargetRetirementAge,

	"income": profile.KeyIncome,
	"salary": profile.KeyIncome,

	"cash":        profile.KeyCashSavings,
	"savings":     profile.KeyCashSavings,
	"cashsavings": profile.KeyCashSavings,

	"investments": profile.KeyInvestments,
	"brokerage":   profile.KeyInvestments,

	"retirement":         profile.KeyRetirementAccounts,
	"retirementaccounts": profile.KeyRetirementAccounts,

	"kids":     profile.KeyKidsAges,
	"kidsages": profile.KeyKidsAges,
}

// ParseProfileArgs reads key=value pairs from an /advice command into a raw
// profile. Values may be quoted with " or '. Dollar signs and thousands
// separators are stripped from amounts. Arguments that are not key=value
// pairs or whose key is unknown are returned in ignored.
func ParseProfileArgs(text string) (raw profile.RawInput, ignored []string) {
	raw = profile.RawInput{}

	tokens := splitArgs(text)
	if len(tokens) > 0 && strings.HasPrefix(tokens[0], "/") {
		tokens = tokens[1:]
	}

	for _, tok := range tokens {
		name, value, ok := strings.Cut(tok, "=")
		if !ok {
			ignored = append(ignored, tok)
			continue
		}
		key, known := argAliases[foldKey(name)]
		if !known {
			ignored = append(ignored, name)
			continue
		}
		if key != profile.KeyKidsAges {
			value = strings.NewReplacer("$", "", ",", "").Replace(value)
		}
		raw[key] = value
	}

	return raw, ignored
}

func foldKey(name string) string {
	return strings.Map(func(r rune) rune {
		if r == '_' || r == '-' {
			return -1
		}
		return unicode.ToLower(r)
	}, name)
}

// splitArgs splits on whitespace outside quotes. Quote characters are
// removed; an unterminated quote runs to the end of the text.
func splitArgs(text string) []string {
	var (
		args    []string
		current strings.Builder
		quote   rune
		inToken bool
	)

	flush := func() {
		if inToken {
			args = append(args, current.String())
			current.Reset()
			inToken = false
		}
	}

	for _, r := range text {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
				continue
			}
			current.WriteRune(r)
		case r == '"' || r == '\'':
			quote = r
			inToken = true
		case unicode.IsSpace(r):
			flush()
		default:
			current.WriteRune(r)
			inToken = true
		}
	}
	flush()

	return args
}
