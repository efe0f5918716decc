// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Column names added by the merge stage.
const (
	SourceLabelColumn = "city_name"
	FetchTimeColumn   = "input_time"
)

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "realprice/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`

	// MaxRetries bounds retries on throttled or unavailable responses (default 5).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`
}

// FetchConfig holds settings for retrieving and merging per-city feeds.
type FetchConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// BaseURL is prefixed to every source fragment.
	BaseURL string `json:"base_url" yaml:"base_url" mapstructure:"base_url"`

	// Sources lists feeds in iteration order. Viper cannot keep mapping
	// order, so this field is filled from the config file by a YAML walk.
	Sources []Source `json:"sources" yaml:"-" mapstructure:"-"`

	// Delay is the pause between consecutive source requests (default 1s).
	Delay time.Duration `json:"delay" yaml:"delay" mapstructure:"delay"`

	// Concurrency bounds parallel source requests (default 1, sequential).
	Concurrency int `json:"concurrency" yaml:"concurrency" mapstructure:"concurrency"`
}

// DatePeriod maps a free-text period column to the column receiving the
// 7-digit ROC start date extracted from it.
type DatePeriod struct {
	Input  string `json:"input" yaml:"input" mapstructure:"input"`
	Output string `json:"output" yaml:"output" mapstructure:"output"`
}

// NormalizeConfig names the columns each normalization stage reads and
// writes. An empty input column disables the stage.
type NormalizeConfig struct {
	// AddressColumn holds the project address used to derive the region.
	AddressColumn string `json:"address_column" yaml:"address_column" mapstructure:"address_column"`
	RegionColumn  string `json:"region_column" yaml:"region_column" mapstructure:"region_column"`

	// IDSourceColumn holds free text listing filing identifiers.
	IDSourceColumn string `json:"id_source_column" yaml:"id_source_column" mapstructure:"id_source_column"`
	IDsColumn      string `json:"ids_column" yaml:"ids_column" mapstructure:"ids_column"`

	// IDColumn and IDListColumn feed the owner lookup.
	IDColumn      string `json:"id_column" yaml:"id_column" mapstructure:"id_column"`
	IDListColumn  string `json:"id_list_column" yaml:"id_list_column" mapstructure:"id_list_column"`
	OwnerColumn   string `json:"owner_column" yaml:"owner_column" mapstructure:"owner_column"`
	OutcomeColumn string `json:"outcome_column" yaml:"outcome_column" mapstructure:"outcome_column"`

	// SalePeriods are extracted to 7-digit ROC strings before date conversion.
	SalePeriods []DatePeriod `json:"sale_periods" yaml:"sale_periods" mapstructure:"sale_periods"`

	ROCColumns       []string `json:"roc_columns" yaml:"roc_columns" mapstructure:"roc_columns"`
	GregorianColumns []string `json:"gregorian_columns" yaml:"gregorian_columns" mapstructure:"gregorian_columns"`
	ROCSlashColumns  []string `json:"roc_slash_columns" yaml:"roc_slash_columns" mapstructure:"roc_slash_columns"`
}

// DefaultNormalizeConfig returns the column layout of the pre-sale project feed.
func DefaultNormalizeConfig() NormalizeConfig {
	return NormalizeConfig{
		AddressColumn:  "坐落街道",
		RegionColumn:   "行政區",
		IDSourceColumn: "備查編號清單",
		IDsColumn:      "備查編號",
		IDColumn:       "編號",
		IDListColumn:   "編號列表",
		OwnerColumn:    "建設公司",
		SalePeriods: []DatePeriod{
			{Input: "自售期間", Output: "自售起始日"},
			{Input: "代銷期間", Output: "代銷起始日"},
		},
		ROCColumns: []string{"自售起始日", "代銷起始日"},
	}
}

// StoreConfig holds settings for the snapshot store.
type StoreConfig struct {
	// Path is the SQLite database file (default data/realprice.db).
	Path string `json:"path" yaml:"path" mapstructure:"path"`
}

// PipelineConfig groups all stage configurations for the pipeline.
type PipelineConfig struct {
	Fetch     FetchConfig     `json:"fetch" yaml:"fetch" mapstructure:"fetch"`
	Normalize NormalizeConfig `json:"normalize" yaml:"normalize" mapstructure:"normalize"`
	Store     StoreConfig     `json:"store" yaml:"store" mapstructure:"store"`
}
