package marketplace

import "github.com/goccy/go-json"

// FilterType selects what a query criterion matches on.
type FilterType int

// FilterTypeExtensionName matches the exact "publisher.name" identifier.
const FilterTypeExtensionName FilterType = 7

// QueryFlags selects which details the gallery includes in a query response.
// The wire format is an integer bitmask; it is only composed when the query
// is serialized.
type QueryFlags struct {
	IncludeVersions            bool
	IncludeFiles               bool
	IncludeCategoryAndTags     bool
	IncludeSharedAccounts      bool
	IncludeVersionProperties   bool
	ExcludeNonValidated        bool
	IncludeInstallationTargets bool
	IncludeAssetURI            bool
	IncludeStatistics          bool
	IncludeLatestVersionOnly   bool
	Unpublished                bool
	IncludeNameConflictInfo    bool
}

// LatestFlags asks for the newest version only, with its files and
// properties. Used when no engine constraint needs the version history.
func LatestFlags() QueryFlags {
	return QueryFlags{
		IncludeVersions:          true,
		IncludeFiles:             true,
		IncludeVersionProperties: true,
		IncludeAssetURI:          true,
		IncludeStatistics:        true,
		IncludeLatestVersionOnly: true,
	}
}

// AllVersionsFlags asks for every published version with its properties,
// which engine matching needs to search the history.
func AllVersionsFlags() QueryFlags {
	return QueryFlags{
		IncludeVersions:          true,
		IncludeFiles:             true,
		IncludeVersionProperties: true,
	}
}

// Bits returns the gallery bitmask.
func (f QueryFlags) Bits() int {
	var bits int
	set := func(on bool, bit int) {
		if on {
			bits |= bit
		}
	}
	set(f.IncludeVersions, 0x1)
	set(f.IncludeFiles, 0x2)
	set(f.IncludeCategoryAndTags, 0x4)
	set(f.IncludeSharedAccounts, 0x8)
	set(f.IncludeVersionProperties, 0x10)
	set(f.ExcludeNonValidated, 0x20)
	set(f.IncludeInstallationTargets, 0x40)
	set(f.IncludeAssetURI, 0x80)
	set(f.IncludeStatistics, 0x100)
	set(f.IncludeLatestVersionOnly, 0x200)
	set(f.Unpublished, 0x1000)
	set(f.IncludeNameConflictInfo, 0x8000)
	return bits
}

// MarshalJSON encodes the flags as the integer bitmask.
func (f QueryFlags) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.Bits())
}

// Query is the extensionquery request body.
type Query struct {
	Filters []QueryFilter `json:"filters"`
	Flags   QueryFlags    `json:"flags"`
}

// QueryFilter groups criteria that must all match.
type QueryFilter struct {
	Criteria []Criterion `json:"criteria"`
}

// Criterion is a single filter condition.
type Criterion struct {
	FilterType FilterType `json:"filterType"`
	Value      string     `json:"value"`
}
