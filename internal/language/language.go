// Package language defines the closed sets of language codes the translation
// provider accepts. Source and target sets differ: the target set drops the
// bare EN/PT codes in favour of their regional variants.
package language

import "strings"

var sourceCodes = map[string]struct{}{
	"BG": {}, "CS": {}, "DA": {}, "DE": {}, "EL": {}, "EN": {}, "ES": {},
	"ET": {}, "FI": {}, "FR": {}, "HU": {}, "ID": {}, "IT": {}, "JA": {},
	"KO": {}, "LT": {}, "LV": {}, "NB": {}, "NL": {}, "PL": {}, "PT": {},
	"RO": {}, "RU": {}, "SK": {}, "SL": {}, "SV": {}, "TR": {}, "UK": {},
	"ZH": {},
}

var targetCodes = map[string]struct{}{
	"BG": {}, "CS": {}, "DA": {}, "DE": {}, "EL": {}, "ES": {}, "ET": {},
	"FI": {}, "FR": {}, "HU": {}, "ID": {}, "IT": {}, "JA": {}, "KO": {},
	"LT": {}, "LV": {}, "NB": {}, "NL": {}, "PL": {}, "RO": {}, "RU": {},
	"SK": {}, "SL": {}, "SV": {}, "TR": {}, "UK": {}, "ZH": {},
	"EN-GB": {}, "EN-US": {}, "PT-BR": {}, "PT-PT": {},
}

// Normalize upper-cases a code so lookups are case-insensitive.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ValidSource reports whether code belongs to the source set.
func ValidSource(code string) bool {
	_, ok := sourceCodes[Normalize(code)]
	return ok
}

// ValidTarget reports whether code belongs to the target set.
func ValidTarget(code string) bool {
	_, ok := targetCodes[Normalize(code)]
	return ok
}

// ValidPair reports whether both codes are drawn from their respective sets.
func ValidPair(source, target string) bool {
	return ValidSource(source) && ValidTarget(target)
}
