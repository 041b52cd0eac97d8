package marketplace

import (
	"strconv"
	"strings"
)

// Satisfies reports whether engine meets an extension's engine requirement.
//
// Supported forms:
//   - "^X.Y.Z": major and minor must be equal; patch is ignored.
//   - ">=X.Y.Z": engine must compare greater or equal.
//   - "X.Y.Z" (digits and dots only): exact string match.
//   - anything else: engine must contain the requirement as a substring.
func Satisfies(requirement, engine string) bool {
	switch {
	case strings.HasPrefix(requirement, "^"):
		req := strings.Split(strings.TrimPrefix(requirement, "^"), ".")
		eng := strings.Split(engine, ".")
		if len(req) < 2 || len(eng) < 2 {
			return false
		}
		return req[0] == eng[0] && req[1] == eng[1]
	case strings.HasPrefix(requirement, ">="):
		return CompareVersions(engine, strings.TrimSpace(strings.TrimPrefix(requirement, ">="))) >= 0
	case isDottedNumeric(requirement):
		return requirement == engine
	default:
		return strings.Contains(engine, requirement)
	}
}

// CompareVersions compares dotted numeric versions component by component.
// Non-numeric or missing components count as 0. Returns -1, 0 or 1.
func CompareVersions(a, b string) int {
	pa := strings.Split(a, ".")
	pb := strings.Split(b, ".")
	n := max(len(pa), len(pb))
	for i := range n {
		x, y := component(pa, i), component(pb, i)
		switch {
		case x > y:
			return 1
		case x < y:
			return -1
		}
	}
	return 0
}

// CompatibleVersions returns the versions whose engine requirement engine
// satisfies, in input order. Versions without a requirement are
// dropped, as are pre-releases unless allowPreRelease is set.
func CompatibleVersions(versions []Version, engine string, allowPreRelease bool) []Version {
	var out []Version
	for _, v := range versions {
		if !allowPreRelease && v.IsPreRelease() {
			continue
		}
		req, ok := v.EngineRequirement()
		if !ok || !Satisfies(req, engine) {
			continue
		}
		out = append(out, v)
	}
	return out
}

func component(parts []string, i int) uint64 {
	if i >= len(parts) {
		return 0
	}
	n, err := strconv.ParseUint(parts[i], 10, 64)
	if err != nil {
		return 0
	}
	return n
}

func isDottedNumeric(s string) bool {
	for _, r := range s {
		if (r < '0' || r > '9') && r != '.' {
			return false
		}
	}
	return true
}
