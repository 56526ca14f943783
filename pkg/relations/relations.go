// Package relations renders a dependency/compatibility view for a detected
// primary software item from a static table. The table is read-only after
// process start; every resolved set is an independent snapshot.
package relations

import (
	"strconv"
	"strings"
)

// Incompatibility is one entry from the incompatible list. Verified is true
// when the constraint was checked against a known version and found to be
// violated; false means the environment version was unknown and the entry
// is reported as potential.
type Incompatibility struct {
	Constraint string `json:"constraint"`
	Verified   bool   `json:"verified"`
}

// Set is the dependency view for one primary software item.
type Set struct {
	Requires     map[string]string `json:"requires"`
	Optional     map[string]string `json:"optional,omitempty"`
	Incompatible []Incompatibility `json:"incompatible,omitempty"`
}

type compatEntry struct {
	requires     map[string]string
	optional     map[string]string
	incompatible []string
}

// table maps a primary software name to its compatibility entry.
var table = map[string]compatEntry{
	"wordpress": {
		requires:     map[string]string{"language": "php >= 5.6", "database": "mysql >= 5.0"},
		optional:     map[string]string{"server": "apache >= 2.4", "cache": "redis"},
		incompatible: []string{"php < 5.6", "mysql < 5.0"},
	},
	"joomla": {
		requires:     map[string]string{"language": "php >= 7.2.5", "database": "mysql >= 5.6"},
		optional:     map[string]string{"server": "apache >= 2.4"},
		incompatible: []string{"php < 7.2.5"},
	},
	"drupal": {
		requires:     map[string]string{"language": "php >= 7.3", "database": "mysql >= 5.7.8"},
		optional:     map[string]string{"server": "nginx"},
		incompatible: []string{"php < 7.3", "mysql < 5.7.8"},
	},
	"magento": {
		requires:     map[string]string{"language": "php >= 7.4", "database": "mysql >= 8.0"},
		optional:     map[string]string{"cache": "redis", "search": "elasticsearch"},
		incompatible: []string{"php < 7.4"},
	},
	"phpmyadmin": {
		requires:     map[string]string{"language": "php >= 7.2", "database": "mysql >= 5.5"},
		incompatible: []string{"php < 7.2"},
	},
}

// Resolve looks up the dependency view for name. known maps component names
// to their detected versions (e.g. "php" -> "5.5"); when the constrained
// component's version is known, incompatible entries are filtered down to
// those actually violated. Unknown names resolve to nil.
func Resolve(name string, known map[string]string) *Set {
	entry, ok := table[strings.ToLower(name)]
	if !ok {
		return nil
	}

	set := &Set{Requires: make(map[string]string, len(entry.requires))}
	for k, v := range entry.requires {
		set.Requires[k] = v
	}
	if len(entry.optional) > 0 {
		set.Optional = make(map[string]string, len(entry.optional))
		for k, v := range entry.optional {
			set.Optional[k] = v
		}
	}

	for _, raw := range entry.incompatible {
		target, op, bound, ok := parseConstraint(raw)
		if !ok {
			set.Incompatible = append(set.Incompatible, Incompatibility{Constraint: raw})
			continue
		}
		have, haveVersion := known[target]
		if !haveVersion {
			// Environment version unknown: report as potential, unverified.
			set.Incompatible = append(set.Incompatible, Incompatibility{Constraint: raw})
			continue
		}
		if violates(have, op, bound) {
			set.Incompatible = append(set.Incompatible, Incompatibility{Constraint: raw, Verified: true})
		}
	}
	return set
}

// parseConstraint splits "php < 7.0" into its target, operator, and bound.
func parseConstraint(raw string) (target, op, bound string, ok bool) {
	fields := strings.Fields(raw)
	if len(fields) != 3 {
		return "", "", "", false
	}
	switch fields[1] {
	case "<", "<=", ">", ">=", "=", "==":
		return strings.ToLower(fields[0]), fields[1], fields[2], true
	}
	return "", "", "", false
}

func violates(version, op, bound string) bool {
	cmp := compareVersions(version, bound)
	switch op {
	case "<":
		return cmp < 0
	case "<=":
		return cmp <= 0
	case ">":
		return cmp > 0
	case ">=":
		return cmp >= 0
	case "=", "==":
		return cmp == 0
	}
	return false
}

// compareVersions compares dotted numeric versions; missing segments are
// treated as zero, non-numeric segments compare lexically.
func compareVersions(a, b string) int {
	as := strings.Split(a, ".")
	bs := strings.Split(b, ".")
	n := len(as)
	if len(bs) > n {
		n = len(bs)
	}
	for i := 0; i < n; i++ {
		av, bv := "0", "0"
		if i < len(as) {
			av = as[i]
		}
		if i < len(bs) {
			bv = bs[i]
		}
		ai, aerr := strconv.Atoi(av)
		bi, berr := strconv.Atoi(bv)
		if aerr == nil && berr == nil {
			if ai != bi {
				if ai < bi {
					return -1
				}
				return 1
			}
			continue
		}
		if c := strings.Compare(av, bv); c != 0 {
			return c
		}
	}
	return 0
}
