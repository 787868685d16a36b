package config

// WikiConfig holds per-wiki configuration for a single MediaWiki host.
// This allows customizing mirror behavior when the same tool mirrors
// several wikis from one configuration file.
type WikiConfig struct {
	// EntryPage overrides the page index.html redirects to.
	// If empty, the global EntryPage is used.
	EntryPage string `yaml:"entryPage,omitempty"`

	// Headers are custom HTTP headers to include in requests to this wiki.
	Headers map[string]string `yaml:"headers,omitempty"`

	// MaxPages overrides the global page cap for this wiki.
	// If zero, the global MaxPages is used.
	MaxPages int `yaml:"maxPages,omitempty"`

	// IgnorePatterns are resource URL path patterns to skip during
	// harvesting. Patterns are matched against the URL path using glob
	// syntax (e.g. "/images/thumb/*", "*.pdf").
	IgnorePatterns []string `yaml:"ignorePatterns,omitempty"`

	// FollowPatterns are resource URL path patterns to harvest.
	// If specified, only URLs matching these patterns are downloaded.
	FollowPatterns []string `yaml:"followPatterns,omitempty"`
}

// File represents the structure of the .wikimirror configuration file.
type File struct {
	// Wikis maps wiki hosts to their per-wiki configurations.
	// Keys should be the wiki host without the protocol
	// (e.g. "wiki.contextgarden.net").
	Wikis map[string]WikiConfig `yaml:"wikis,omitempty"`

	// Defaults contains default wiki configuration applied to all wikis
	// unless overridden in the wiki-specific configuration.
	Defaults WikiConfig `yaml:"defaults,omitempty"`
}

// GetWikiConfig returns the configuration for a specific wiki host.
// It merges the wiki-specific configuration with defaults.
func (cf *File) GetWikiConfig(host string) WikiConfig {
	// Start with defaults
	result := cf.Defaults

	// Override with wiki-specific configuration if present
	if wikiConfig, ok := cf.Wikis[host]; ok {
		if wikiConfig.EntryPage != "" {
			result.EntryPage = wikiConfig.EntryPage
		}
		if wikiConfig.MaxPages != 0 {
			result.MaxPages = wikiConfig.MaxPages
		}
		if len(wikiConfig.Headers) > 0 {
			if result.Headers == nil {
				result.Headers = make(map[string]string)
			}
			for k, v := range wikiConfig.Headers {
				result.Headers[k] = v
			}
		}
		if len(wikiConfig.IgnorePatterns) > 0 {
			result.IgnorePatterns = wikiConfig.IgnorePatterns
		}
		if len(wikiConfig.FollowPatterns) > 0 {
			result.FollowPatterns = wikiConfig.FollowPatterns
		}
	}

	return result
}
