package types

import "time"

// HTTPConfig holds shared HTTP settings used by components that make network requests.
type HTTPConfig struct {
	// Timeout bounds each request, including reading the response body.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "enex2onenote/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// OneNoteConfig holds settings for the Microsoft Graph OneNote client.
type OneNoteConfig struct {
	HTTPConfig `yaml:",inline"`

	// BaseURL is the Graph endpoint up to and including the API version
	// (default "https://graph.microsoft.com/v1.0").
	BaseURL string `json:"base_url" yaml:"base_url"`
}

// Layout selects how pages map onto sections.
type Layout string

const (
	// LayoutSectionPerNote creates one section per note, named by the
	// normalized note title, holding that note's page.
	LayoutSectionPerNote Layout = "section-per-note"

	// LayoutSingleSection puts every page into one section.
	LayoutSingleSection Layout = "single-section"
)

// Valid reports whether l is a known layout.
func (l Layout) Valid() bool {
	return l == LayoutSectionPerNote || l == LayoutSingleSection
}

// ImportConfig holds settings for one import run.
type ImportConfig struct {
	// Notebook overrides the notebook name (default: export file base name).
	Notebook string `json:"notebook,omitempty" yaml:"notebook,omitempty"`

	// Section names the section used by LayoutSingleSection
	// (default: export file base name).
	Section string `json:"section,omitempty" yaml:"section,omitempty"`

	// Layout selects the section layout (default section-per-note).
	Layout Layout `json:"layout" yaml:"layout"`

	// DryRun transforms the export and prints page requests without
	// calling the remote service.
	DryRun bool `json:"dry_run" yaml:"dry_run"`

	// TempDir is the parent directory for decoded attachment payloads
	// (default: the OS temp directory).
	TempDir string `json:"temp_dir,omitempty" yaml:"temp_dir,omitempty"`
}

// LedgerConfig holds settings for the local import ledger.
type LedgerConfig struct {
	// Path is the SQLite database file. Empty disables the ledger.
	Path string `json:"path" yaml:"path"`
}

// Config groups all settings read from the config file and environment.
type Config struct {
	AccessToken string        `json:"access_token,omitempty" yaml:"access_token,omitempty"`
	OneNote     OneNoteConfig `json:"onenote" yaml:"onenote"`
	Import      ImportConfig  `json:"import" yaml:"import"`
	Ledger      LedgerConfig  `json:"ledger" yaml:"ledger"`
}
