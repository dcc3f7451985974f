package urlclean

// Config holds the cleaning tables applied to raw sitemap URLs. The
// tables are constructed once per run and passed down; nothing in this
// package reads the environment.
type Config struct {
	TrackingParams       []string // Query parameters stripped from every URL
	LocalePrefixes       []string // Path prefixes collapsed to the canonical page path, first match wins
	ExcludedExtensions   []string // File extensions that are never page URLs
	ExcludedPathPrefixes []string // Path prefixes excluded from scanning
}

// DefaultConfig returns the cleaning tables used for production scans.
func DefaultConfig() *Config {
	return &Config{
		TrackingParams: []string{
			"utm_source", "utm_medium", "utm_campaign", "utm_term", "utm_content",
			"gclid", "fbclid", "msclkid", "mc_cid", "mc_eid",
			"ref", "source", "lang", "locale", "hl",
		},
		// Full language-region combinations first so they win over the
		// bare language prefixes below them.
		LocalePrefixes: []string{
			"/en-us/", "/en-gb/", "/en-au/", "/en-ca/", "/en-nz/", "/en-ie/", "/en-in/", "/en-sg/",
			"/fr-fr/", "/fr-ca/", "/fr-be/", "/fr-ch/",
			"/de-de/", "/de-at/", "/de-ch/",
			"/es-es/", "/es-mx/", "/es-ar/", "/es-cl/", "/es-co/",
			"/pt-pt/", "/pt-br/",
			"/it-it/", "/it-ch/",
			"/nl-nl/", "/nl-be/",
			"/sv-se/", "/da-dk/", "/nb-no/", "/fi-fi/",
			"/pl-pl/", "/cs-cz/", "/hu-hu/", "/ro-ro/", "/el-gr/", "/tr-tr/",
			"/ru-ru/", "/uk-ua/",
			"/ja-jp/", "/ko-kr/", "/zh-cn/", "/zh-tw/", "/zh-hk/",
			"/ar-sa/", "/ar-ae/", "/he-il/", "/hi-in/", "/th-th/", "/vi-vn/", "/id-id/", "/ms-my/",
			"/en/", "/fr/", "/de/", "/es/", "/pt/", "/it/", "/nl/",
			"/sv/", "/da/", "/no/", "/fi/",
			"/pl/", "/cs/", "/hu/", "/ro/", "/el/", "/tr/", "/ru/", "/uk/",
			"/ja/", "/ko/", "/zh/", "/ar/", "/he/", "/hi/", "/th/", "/vi/", "/id/", "/ms/",
		},
		ExcludedExtensions: []string{
			".pdf", ".doc", ".docx", ".xls", ".xlsx", ".ppt", ".pptx", ".csv", ".txt", ".rtf",
			".jpg", ".jpeg", ".png", ".gif", ".svg", ".webp", ".ico", ".bmp", ".tiff", ".avif",
			".mp3", ".mp4", ".wav", ".ogg", ".webm", ".avi", ".mov", ".mkv",
			".zip", ".tar", ".gz", ".rar", ".7z", ".dmg", ".exe",
			".css", ".js", ".json", ".xml", ".woff", ".woff2", ".ttf", ".eot",
		},
		ExcludedPathPrefixes: []string{
			"/admin", "/wp-admin", "/wp-json",
			"/api", "/graphql",
			"/assets", "/static", "/media", "/uploads", "/files", "/cdn-cgi",
			"/cart", "/checkout", "/account",
		},
	}
}
