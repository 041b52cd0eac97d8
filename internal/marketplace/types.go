package marketplace

// Property keys and asset types the gallery uses on versions.
const (
	PropertyEngine     = "Microsoft.VisualStudio.Code.Engine"
	PropertyPreRelease = "Microsoft.VisualStudio.Code.PreRelease"
	AssetTypeVSIX      = "Microsoft.VisualStudio.Services.VSIXPackage"
)

// QueryResponse is the extensionquery response envelope.
type QueryResponse struct {
	Results []QueryResult `json:"results"`
}

// QueryResult holds the extensions matched by one filter.
type QueryResult struct {
	Extensions     []Extension      `json:"extensions"`
	PagingToken    *string          `json:"pagingToken"`
	ResultMetadata []ResultMetadata `json:"resultMetadata"`
}

// ResultMetadata carries counts such as "ResultCount/TotalCount".
type ResultMetadata struct {
	MetadataType  string         `json:"metadataType"`
	MetadataItems []MetadataItem `json:"metadataItems"`
}

// MetadataItem is a single named count.
type MetadataItem struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Extension is one gallery entry.
type Extension struct {
	Publisher        Publisher `json:"publisher"`
	ExtensionID      string    `json:"extensionId"`
	ExtensionName    string    `json:"extensionName"`
	DisplayName      string    `json:"displayName"`
	Flags            string    `json:"flags"`
	LastUpdated      string    `json:"lastUpdated"`
	PublishedDate    string    `json:"publishedDate"`
	ReleaseDate      string    `json:"releaseDate"`
	ShortDescription string    `json:"shortDescription"`
	Versions         []Version `json:"versions"`
}

// Publisher identifies who published an extension.
type Publisher struct {
	PublisherID   string `json:"publisherId"`
	PublisherName string `json:"publisherName"`
	DisplayName   string `json:"displayName"`
	Flags         string `json:"flags"`
	Domain        string `json:"domain"`
}

// Version is one published version of an extension. The gallery lists
// versions newest first and that order is kept everywhere.
type Version struct {
	Version          string     `json:"version"`
	TargetPlatform   string     `json:"targetPlatform,omitempty"`
	Flags            string     `json:"flags"`
	LastUpdated      string     `json:"lastUpdated"`
	Files            []File     `json:"files"`
	Properties       []Property `json:"properties"`
	AssetURI         string     `json:"assetUri"`
	FallbackAssetURI string     `json:"fallbackAssetUri"`
}

// File is an asset attached to a version.
type File struct {
	AssetType string `json:"assetType"`
	Source    string `json:"source"`
}

// Property is a key/value pair attached to a version.
type Property struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Property returns the value for key and whether it was present.
func (v Version) Property(key string) (string, bool) {
	for _, p := range v.Properties {
		if p.Key == key {
			return p.Value, true
		}
	}
	return "", false
}

// EngineRequirement returns the declared VS Code engine range, e.g. "^1.75.0".
func (v Version) EngineRequirement() (string, bool) {
	return v.Property(PropertyEngine)
}

// PreRelease returns the raw pre-release property value.
func (v Version) PreRelease() (string, bool) {
	return v.Property(PropertyPreRelease)
}

// IsPreRelease reports whether the version is flagged as a pre-release.
// Only the literal value "true" counts.
func (v Version) IsPreRelease() bool {
	val, ok := v.PreRelease()
	return ok && val == "true"
}

// VSIXSource returns the source URL of the VSIX package asset, if listed.
func (v Version) VSIXSource() (string, bool) {
	for _, f := range v.Files {
		if f.AssetType == AssetTypeVSIX {
			return f.Source, true
		}
	}
	return "", false
}

// versions returns results[0].extensions[0].versions.
func (r *QueryResponse) versions() ([]Version, error) {
	if len(r.Results) == 0 || len(r.Results[0].Extensions) == 0 {
		return nil, ErrExtensionNotFound
	}
	v := r.Results[0].Extensions[0].Versions
	if len(v) == 0 {
		return nil, ErrNoVersionsAvailable
	}
	return v, nil
}
