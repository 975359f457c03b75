package versions

import (
	"github.com/Masterminds/semver/v3"

	"github.com/stacklok/toolhive-catalog-server/internal/catalog"
)

// IsNewerVersion reports whether candidate is strictly greater than current.
// Both are compared as semantic versions when they parse, otherwise as
// strings. An empty candidate is never newer.
func IsNewerVersion(candidate, current string) bool {
	if candidate == "" {
		return false
	}

	candidateVer, errCandidate := semver.NewVersion(candidate)
	currentVer, errCurrent := semver.NewVersion(current)
	if errCandidate != nil || errCurrent != nil {
		return candidate > current
	}

	return candidateVer.GreaterThan(currentVer)
}

// NewerItems returns the keys of the items in current whose version is newer
// than the version of the same item in previous. Items missing from previous
// are not reported.
func NewerItems(previous, current []catalog.Item) []string {
	known := make(map[string]string, len(previous))
	for i := range previous {
		known[previous[i].Key()] = previous[i].Version
	}

	var newer []string
	for i := range current {
		old, ok := known[current[i].Key()]
		if ok && IsNewerVersion(current[i].Version, old) {
			newer = append(newer, current[i].Key())
		}
	}
	return newer
}
