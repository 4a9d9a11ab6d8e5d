package normalizer

import (
	"regexp"
	"strings"
	"unicode"
)

// AddressParts is the result of splitting one address.
type AddressParts struct {
	Normalized   string
	WithoutPref  string
	Municipality string
	Rest         string
}

// Address rule names.
const (
	RuleCity        = "city"
	RuleWard        = "ward"
	RuleDistrict    = "district"
	RuleTownVillage = "town-village"
	RuleFallback    = "fallback"
)

// townOrVillage matches the shortest run ending in 町 or 村.
var townOrVillage = regexp.MustCompile(`(?s)^.*?[町村]`)

type addressRule struct {
	name  string
	split func(s string) (muni, rest string, ok bool)
}

// AddressSegmenter guesses the municipality of an address by trying rules in order.
// The result is a heuristic and can be empty or wrong for irregular addresses.
type AddressSegmenter struct {
	rules []addressRule
}

// NewAddressSegmenter creates a segmenter with the city, ward, district and
// town-village rules, in that priority.
func NewAddressSegmenter() *AddressSegmenter {
	return &AddressSegmenter{
		rules: []addressRule{
			{name: RuleCity, split: splitCity},
			{name: RuleWard, split: splitWard},
			{name: RuleDistrict, split: splitDistrict},
			{name: RuleTownVillage, split: splitTownVillage},
		},
	}
}

// Rules returns the rule names in evaluation order, fallback last.
func (a *AddressSegmenter) Rules() []string {
	names := make([]string, 0, len(a.rules)+1)
	for _, r := range a.rules {
		names = append(names, r.name)
	}

	return append(names, RuleFallback)
}

// Split normalizes addr and separates the prefecture, municipality and the rest.
// It also returns the name of the rule that matched. An empty address yields
// empty parts and no rule.
func (a *AddressSegmenter) Split(pref, addr string) (AddressParts, string) {
	s := Fold(strings.TrimSpace(addr))
	if s == "" {
		return AddressParts{}, ""
	}

	pref = strings.TrimSpace(pref)

	without := s
	if pref != "" && strings.HasPrefix(s, pref) {
		without = strings.TrimLeftFunc(s[len(pref):], unicode.IsSpace)
	}

	parts := AddressParts{
		Normalized:  s,
		WithoutPref: without,
		Rest:        strings.TrimSpace(without),
	}

	for _, rule := range a.rules {
		muni, rest, ok := rule.split(without)
		if !ok {
			continue
		}

		parts.Municipality = strings.TrimSpace(muni)
		parts.Rest = strings.TrimSpace(rest)

		return parts, rule.name
	}

	return parts, RuleFallback
}

// splitCity cuts after the first 市, keeping a following ward for designated cities.
func splitCity(s string) (string, string, bool) {
	city, rest, ok := cutAfter(s, "市")
	if !ok {
		return "", "", false
	}

	if ward, remaining, ok := cutAfter(rest, "区"); ok {
		return city + ward, remaining, true
	}

	return city, rest, true
}

// splitWard handles Tokyo special wards.
func splitWard(s string) (string, string, bool) {
	return cutAfter(s, "区")
}

// splitDistrict keeps the district plus the first town or village inside it.
func splitDistrict(s string) (string, string, bool) {
	district, after, ok := cutAfter(s, "郡")
	if !ok {
		return "", "", false
	}

	if m := townOrVillage.FindString(after); m != "" {
		return district + m, after[len(m):], true
	}

	return district, after, true
}

func splitTownVillage(s string) (string, string, bool) {
	m := townOrVillage.FindString(s)
	if m == "" {
		return "", "", false
	}

	return m, s[len(m):], true
}

// cutAfter splits s just after the first occurrence of marker.
func cutAfter(s, marker string) (string, string, bool) {
	i := strings.Index(s, marker)
	if i < 0 {
		return "", "", false
	}

	i += len(marker)

	return s[:i], s[i:], true
}
