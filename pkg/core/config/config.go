// Package config holds the run configuration and credential bundle for the
// inventory feed. All portal-specific knobs (URLs, keyword lists, tab names)
// live here so the scraping heuristics stay free of ambient state and tests
// can substitute fixtures.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// Config is the full run configuration. Every field has a built-in default,
// so a config file only needs to override what differs.
type Config struct {
	Portal  PortalConfig  `yaml:"portal"`
	Extract ExtractConfig `yaml:"extract"`
	Sheet   SheetConfig   `yaml:"sheet"`
}

// PortalConfig describes the source portal: where to log in, where to find
// the report listing, and how to recognize a download link.
type PortalConfig struct {
	LoginURL   string `yaml:"login_url"`
	ListingURL string `yaml:"listing_url"`

	// Form field names for the login POST.
	UsernameField string `yaml:"username_field"`
	PasswordField string `yaml:"password_field"`
	TokenField    string `yaml:"token_field"`

	// Markers whose presence in the post-login body indicates an
	// authenticated session (checked case-insensitively).
	LoginMarkers []string `yaml:"login_markers"`

	// Regexp matched against candidate hrefs on the listing page.
	DownloadHrefPattern string `yaml:"download_href_pattern"`

	// JSON listing API fallback. DownloadURLTemplate synthesizes a download
	// URL from a report identifier via the {id} placeholder.
	ListingAPIURL       string `yaml:"listing_api_url"`
	DownloadURLTemplate string `yaml:"download_url_template"`

	// Optional last-resort strategy: probe dated URLs walking back from
	// today. Disabled unless DatedURLTemplate (with a {date} placeholder,
	// YYYYMMDD) is set.
	DatedURLTemplate string `yaml:"dated_url_template"`
	DatedProbeDays   int    `yaml:"dated_probe_days"`

	TimeoutSeconds int `yaml:"timeout_seconds"`
}

// ExtractConfig drives the workbook extraction heuristics.
type ExtractConfig struct {
	// The target row is the first whose leading cell contains any of these.
	CommodityKeywords []string `yaml:"commodity_keywords"`

	// The header row is the first whose joined text contains at least one
	// stock indicator AND one movement indicator.
	StockIndicators    []string `yaml:"stock_indicators"`
	MovementIndicators []string `yaml:"movement_indicators"`

	// Header-text synonyms per semantic field, tried in order.
	FieldSynonyms FieldSynonyms `yaml:"field_synonyms"`

	// Column order (after the commodity label cell) assumed when no header
	// row is recognized. Values are semantic field names.
	PositionalOrder []string `yaml:"positional_order"`

	// How many leading rows to scan for the report date.
	DateScanRows int `yaml:"date_scan_rows"`
}

// FieldSynonyms lists, per semantic field, the substrings searched for in
// lowercased header text. First matching synonym, first matching column wins.
type FieldSynonyms struct {
	OnWarrant         []string `yaml:"on_warrant"`
	CancelledWarrants []string `yaml:"cancelled_warrants"`
	TotalLiveWarrants []string `yaml:"total_live_warrants"`
	DeliveredIn       []string `yaml:"delivered_in"`
	DeliveredOut      []string `yaml:"delivered_out"`
	NetChange         []string `yaml:"net_change"`
}

// SheetConfig identifies the destination spreadsheet and its tabs.
type SheetConfig struct {
	SpreadsheetName string `yaml:"spreadsheet_name"`
	DetailTab       string `yaml:"detail_tab"`
	DashboardTab    string `yaml:"dashboard_tab"`
}

// Default returns the built-in configuration for the copper warehouse feed.
func Default() Config {
	return Config{
		Portal: PortalConfig{
			LoginURL:            "https://portal.example.com/account/login",
			ListingURL:          "https://portal.example.com/reports/warehouse-stocks",
			UsernameField:       "username",
			PasswordField:       "password",
			TokenField:          "__RequestVerificationToken",
			LoginMarkers:        []string{"sign out", "my account", "log out"},
			DownloadHrefPattern: `(?i)(/download|\.xlsx?($|\?))`,
			ListingAPIURL:       "https://portal.example.com/api/reports/latest",
			DownloadURLTemplate: "https://portal.example.com/reports/download/{id}",
			DatedProbeDays:      7,
			TimeoutSeconds:      30,
		},
		Extract: ExtractConfig{
			CommodityKeywords:  []string{"copper"},
			StockIndicators:    []string{"on warrant", "on-warrant", "opening"},
			MovementIndicators: []string{"deliver", "cancel"},
			FieldSynonyms: FieldSynonyms{
				OnWarrant:         []string{"on warrant", "on-warrant", "opening stock", "registered"},
				CancelledWarrants: []string{"cancelled warrant", "canceled warrant", "cancelled", "canceled"},
				TotalLiveWarrants: []string{"total live", "total"},
				DeliveredIn:       []string{"delivered in", "delivery in", "received"},
				DeliveredOut:      []string{"delivered out", "delivery out", "withdrawn"},
				NetChange:         []string{"net change", "change"},
			},
			PositionalOrder: []string{
				"delivered_in", "delivered_out", "net_change",
				"on_warrant", "cancelled_warrants", "total_live_warrants",
			},
			DateScanRows: 10,
		},
		Sheet: SheetConfig{
			SpreadsheetName: "3-exchange-inventory-tracker",
			DetailTab:       "Warehouse",
			DashboardTab:    "Dashboard",
		},
	}
}

// Load returns the default configuration overlaid with the YAML file at
// path. An empty path returns the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return cfg, nil
}
