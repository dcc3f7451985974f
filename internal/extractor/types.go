package extractor

// ElementKind identifies the kind of link-bearing element a reference
// was found in.
type ElementKind string

const (
	KindAnchor     ElementKind = "anchor"
	KindStylesheet ElementKind = "stylesheet"
	KindScript     ElementKind = "script"
	KindIframe     ElementKind = "iframe"
	KindImage      ElementKind = "image"
	KindMedia      ElementKind = "media"
)

// elementTarget maps an element kind to its goquery selector and the
// attribute carrying the URL.
type elementTarget struct {
	Kind     ElementKind
	Selector string
	Attr     string
}

// anchorTarget covers navigational links; resourceTargets cover
// embedded resources and are only scanned when Config.ScanResources is
// enabled.
var (
	anchorTarget = elementTarget{Kind: KindAnchor, Selector: "a[href]", Attr: "href"}

	resourceTargets = []elementTarget{
		{Kind: KindStylesheet, Selector: "link[rel='stylesheet'][href]", Attr: "href"},
		{Kind: KindScript, Selector: "script[src]", Attr: "src"},
		{Kind: KindIframe, Selector: "iframe[src]", Attr: "src"},
		{Kind: KindImage, Selector: "img[src]", Attr: "src"},
		{Kind: KindMedia, Selector: "audio[src], video[src], source[src]", Attr: "src"},
	}
)

// Link represents one outbound reference found in a page, with enough
// source metadata to point a human at the offending markup.
type Link struct {
	TargetURL      string      `json:"target_url"`      // Absolute URL after resolution against the page
	RawHref        string      `json:"raw_href"`        // Original reference text as written in the HTML
	Kind           ElementKind `json:"kind"`            // Element kind the reference came from
	Text           string      `json:"text,omitempty"`  // Link text, or alt/title text for resources
	IsInternal     bool        `json:"is_internal"`     // Same hostname as the site under audit
	FoundOn        string      `json:"found_on"`        // URL of the page the reference was found on
	Line           int         `json:"line"`            // Best-effort line number, 0 when unknown
	Snippet        string      `json:"snippet"`         // Truncated originating markup
	DuplicateCount int         `json:"duplicate_count"` // Times this target appeared on the page
}

// Config bounds what extraction scans and how much source context it
// captures.
type Config struct {
	ScanResources bool // Also scan stylesheet/script/iframe/image/media elements
	SnippetMaxLen int  // Maximum captured markup length
	TextMaxLen    int  // Maximum captured link text length
}

// DefaultConfig returns extraction settings used for production scans.
func DefaultConfig() *Config {
	return &Config{
		ScanResources: true,
		SnippetMaxLen: 200,
		TextMaxLen:    80,
	}
}
