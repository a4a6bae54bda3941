package csvio

import (
	"strings"

	"github.com/axsol/varconfig/internal/pipeline"
)

// Abstraction is one row of a name-abstraction CSV: the canonical short
// and long names of a variable plus optional target unit, scaling, and
// limits.
type Abstraction struct {
	ShortName string
	LongName  string
	Unit      string
	Scaling   string
	LimitDown string
	LimitUp   string
}

// AbstractionSet indexes abstractions by long-name prefix, then by
// lookup key. Abstraction files come in several vendor variants, so each
// row is reachable under multiple key spellings.
type AbstractionSet map[string]map[string]Abstraction

// ReadAbstractions builds an AbstractionSet from an abstraction CSV.
// Rows without both a short and a long name are skipped. Headers that do
// not look like an abstraction file yield an empty set.
func ReadAbstractions(header []string, rows []pipeline.Row) AbstractionSet {
	hmap := make(map[string]string, len(header))
	for _, h := range header {
		hmap[normalizeHeaderName(h)] = h
	}

	shortCol := hmap["axsol_name_short"]
	if shortCol == "" {
		// Some exports carry the short name in an "Unnamed: 0" column.
		for norm, original := range hmap {
			if strings.HasPrefix(norm, "unnamed:") {
				shortCol = original
				break
			}
		}
	}
	longCol := hmap["axsol_name"]

	set := make(AbstractionSet)
	if shortCol == "" || longCol == "" {
		return set
	}

	unitCol := hmap["ax_unit"]
	if unitCol == "" {
		unitCol = hmap["axsol_unit_&_resolution"]
	}
	scalingCol := hmap["ax_scaling"]
	limDownCol := hmap["ax_limitdown"]
	limUpCol := hmap["ax_limitup"]

	for _, r := range rows {
		longName := NormalizeLongName(r[longCol])
		shortName := strings.TrimSpace(r[shortCol])
		if longName == "" || shortName == "" {
			continue
		}

		abs := Abstraction{
			ShortName: shortName,
			LongName:  longName,
			Unit:      strings.TrimSpace(r[unitCol]),
			Scaling:   strings.TrimSpace(r[scalingCol]),
			LimitDown: strings.TrimSpace(r[limDownCol]),
			LimitUp:   strings.TrimSpace(r[limUpCol]),
		}

		// Each row lives in the bucket of its lowercased prefix and, so
		// that no-space query spellings find a bucket at all, in the
		// bucket of its lowercased space-free long name.
		for _, bucket := range bucketKeys(longName) {
			if set[bucket] == nil {
				set[bucket] = make(map[string]Abstraction)
			}
			for _, key := range lookupKeys(longName) {
				if _, ok := set[bucket][key]; !ok {
					set[bucket][key] = abs
				}
			}
		}
	}

	return set
}

// Lookup resolves a device row's long name against the set, trying the
// same key spellings used when building it. The query's first token is
// lowercased before picking a bucket, so case and spacing variants all
// resolve.
func (s AbstractionSet) Lookup(longName string) (Abstraction, bool) {
	norm := NormalizeLongName(longName)
	if norm == "" {
		return Abstraction{}, false
	}
	byKey := s[strings.ToLower(strings.Fields(norm)[0])]
	if byKey == nil {
		return Abstraction{}, false
	}
	for _, key := range lookupKeys(norm) {
		if abs, ok := byKey[key]; ok {
			return abs, true
		}
	}
	return Abstraction{}, false
}

// bucketKeys returns the bucket spellings a long name is indexed under:
// the lowercased first token, plus the lowercased space-free name when
// that differs.
func bucketKeys(name string) []string {
	norm := NormalizeLongName(name)
	if norm == "" {
		return nil
	}
	prefix := strings.ToLower(strings.Fields(norm)[0])
	noSpace := strings.ToLower(strings.ReplaceAll(norm, " ", ""))
	if noSpace == prefix {
		return []string{prefix}
	}
	return []string{prefix, noSpace}
}

// NormalizeLongName strips trailing commas (copied-from-Excel artifacts)
// and collapses internal whitespace. Returns "" for blank input.
func NormalizeLongName(name string) string {
	s := strings.Trim(strings.TrimSpace(name), ",")
	return strings.Join(strings.Fields(s), " ")
}

func lookupKeys(name string) []string {
	base := NormalizeLongName(name)
	noSpace := strings.ReplaceAll(base, " ", "")

	var keys []string
	seen := make(map[string]bool)
	for _, k := range []string{base, strings.ToLower(base), noSpace, strings.ToLower(noSpace)} {
		k = strings.TrimSpace(k)
		if k != "" && !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	return keys
}

func normalizeHeaderName(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
}
