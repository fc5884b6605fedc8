package report

// department.go normalizes department/division names so that routing to HOD
// configurations survives the spelling chaos of real exports:
// "Obstetrics & Gynaecology", "obstetrics gynecology" and "OBSTETRICS-AND-
// GYNECOLOGY" all resolve to the same key.
//
// Normalization: lowercase, collapse separators (&, /, -, _, whitespace
// runs) to single spaces, drop the standalone word "and", then map through
// the synonym table. The synonym table is data, not logic: equivalence
// classes that can be replaced at startup from a JSON file so new synonyms
// never require a rebuild.

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
)

// DefaultSynonymClasses is the built-in set of department equivalence
// classes. Every member of a class normalizes to the same key.
var DefaultSynonymClasses = [][]string{
	{"obstetrics gynecology", "obstetrics gynaecology", "obstetrics", "obg"},
	{"radiology", "radio diagnosis", "radiodiagnosis"},
	{"pediatrics", "paediatrics"},
	{"anesthesiology", "anaesthesiology", "anesthesia", "anaesthesia"},
	{"orthopedics", "orthopaedics"},
	{"ent", "otorhinolaryngology", "ear nose throat"},
}

var (
	synonymMu sync.RWMutex
	synonyms  = buildSynonymMap(DefaultSynonymClasses)
)

// buildSynonymMap flattens equivalence classes into a variant -> canonical
// lookup. The first member of each class is the canonical form.
func buildSynonymMap(classes [][]string) map[string]string {
	m := make(map[string]string)
	for _, class := range classes {
		if len(class) == 0 {
			continue
		}
		canonical := normalizeWords(class[0])
		for _, variant := range class {
			m[normalizeWords(variant)] = canonical
		}
	}
	return m
}

// SetSynonymClasses replaces the active synonym table.
func SetSynonymClasses(classes [][]string) {
	synonymMu.Lock()
	defer synonymMu.Unlock()
	synonyms = buildSynonymMap(classes)
}

// LoadSynonymFile replaces the synonym table from a JSON file containing an
// array of equivalence classes: [["radiology","radio diagnosis"], ...].
func LoadSynonymFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read synonym file: %w", err)
	}
	var classes [][]string
	if err := json.Unmarshal(data, &classes); err != nil {
		return fmt.Errorf("parse synonym file %s: %w", path, err)
	}
	SetSynonymClasses(classes)
	return nil
}

// separatorReplacer rewrites the punctuation that department names use
// interchangeably into plain spaces.
var separatorReplacer = strings.NewReplacer(
	"&", " ",
	"/", " ",
	"-", " ",
	"_", " ",
)

// normalizeWords lowercases, collapses separators and whitespace runs, and
// drops the standalone word "and".
func normalizeWords(s string) string {
	s = separatorReplacer.Replace(strings.ToLower(s))
	fields := strings.Fields(s)
	out := fields[:0]
	for _, f := range fields {
		if f == "and" {
			continue
		}
		out = append(out, f)
	}
	return strings.Join(out, " ")
}

// NormalizeDepartment returns the canonical key for a department name.
func NormalizeDepartment(s string) string {
	key := normalizeWords(s)
	synonymMu.RLock()
	defer synonymMu.RUnlock()
	if canonical, ok := synonyms[key]; ok {
		return canonical
	}
	return key
}

// DepartmentsMatch reports whether two division/department strings refer to
// the same department once normalized.
func DepartmentsMatch(a, b string) bool {
	return NormalizeDepartment(a) == NormalizeDepartment(b)
}
