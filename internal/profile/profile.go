// Package profile turns a loosely-typed financial profile, as submitted by a
// form or chat command, into the canonical record used to build advice prompts.
package profile

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/spf13/cast"
)

// Input keys accepted from the boundary.
const (
	KeyAge                 = "age"
	KeyTargetRetirementAge = "targetRetirementAge"
	KeyIncome              = "income"
	KeyCashSavings         = "cashSavings"
	KeyInvestments         = "investments"
	KeyRetirementAccounts  = "retirementAccounts"
	KeyKidsAges            = "kidsAges"
)

// Keys lists every input key in prompt order.
var Keys = []string{
	KeyAge,
	KeyTargetRetirementAge,
	KeyIncome,
	KeyCashSavings,
	KeyInvestments,
	KeyRetirementAccounts,
	KeyKidsAges,
}

// maxAmount keeps rounded currency values inside int64.
const maxAmount = float64(math.MaxInt64 / 2)

// RawInput is an untrusted profile as received from a client. Values may be
// strings, numbers or anything else; every key is optional.
type RawInput map[string]any

// Profile is the validated, default-filled financial profile. It has no
// setters; a Profile never changes after Normalize returns it.
type Profile struct {
	age                 int
	hasAge              bool
	targetRetirementAge int
	hasTargetAge        bool

	income             int64
	cashSavings        int64
	investments        int64
	retirementAccounts int64

	kidsAges string
}

// Age returns the user's age and whether it was supplied.
func (p Profile) Age() (int, bool) { return p.age, p.hasAge }

// TargetRetirementAge returns the target retirement age and whether it was supplied.
func (p Profile) TargetRetirementAge() (int, bool) { return p.targetRetirementAge, p.hasTargetAge }

// Income is the annual household income in whole dollars.
func (p Profile) Income() int64 { return p.income }

// CashSavings is the cash/emergency savings balance in whole dollars.
func (p Profile) CashSavings() int64 { return p.cashSavings }

// Investments is the brokerage/stocks/ETFs balance in whole dollars.
func (p Profile) Investments() int64 { return p.investments }

// RetirementAccounts is the 401k/IRA balance in whole dollars.
func (p Profile) RetirementAccounts() int64 { return p.retirementAccounts }

// KidsAges is the free-text description of children's ages, or "".
func (p Profile) KidsAges() string { return p.kidsAges }

// Normalize builds a Profile from raw input. It never fails: malformed or
// missing currency values become 0, malformed ages become unknown and a
// missing kids' ages value becomes the empty string.
func Normalize(raw RawInput) Profile {
	var p Profile

	p.age, p.hasAge = toAge(raw[KeyAge])
	p.targetRetirementAge, p.hasTargetAge = toAge(raw[KeyTargetRetirementAge])

	p.income = toAmount(raw[KeyIncome])
	p.cashSavings = toAmount(raw[KeyCashSavings])
	p.investments = toAmount(raw[KeyInvestments])
	p.retirementAccounts = toAmount(raw[KeyRetirementAccounts])

	p.kidsAges = toText(raw[KeyKidsAges])

	return p
}

// toNumber reports the value as a finite float64. Blank strings, nil and
// anything that does not parse are rejected.
func toNumber(v any) (float64, bool) {
	switch t := v.(type) {
	case nil:
		return 0, false
	case string:
		return parseNumber(t)
	case json.Number:
		return parseNumber(t.String())
	}

	f, err := cast.ToFloat64E(v)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// parseNumber accepts decimal and exponent notation plus unsigned 0x, 0o
// and 0b integers. Digit separators are not numbers.
func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" || strings.Contains(s, "_") {
		return 0, false
	}

	if len(s) > 2 && s[0] == '0' {
		base := 0
		switch s[1] {
		case 'x', 'X':
			base = 16
		case 'o', 'O':
			base = 8
		case 'b', 'B':
			base = 2
		}
		if base != 0 {
			n, err := strconv.ParseUint(s[2:], base, 64)
			if err != nil {
				return 0, false
			}
			return float64(n), true
		}
	}

	f, err := cast.ToFloat64E(s)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func toAmount(v any) int64 {
	f, ok := toNumber(v)
	if !ok || f <= 0 {
		return 0
	}
	f = math.Round(f)
	if f > maxAmount {
		return 0
	}
	return int64(f)
}

func toAge(v any) (int, bool) {
	f, ok := toNumber(v)
	if !ok || f < 0 || f > math.MaxInt32 {
		return 0, false
	}
	return int(f), true
}

func toText(v any) string {
	switch v.(type) {
	case nil, map[string]any, []any, bool:
		return ""
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(s)
}
