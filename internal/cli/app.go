package cli

import (
	"fmt"
	"strings"

	"github.com/adscale/bq-bootstrap/internal/cli/hooks"
	"github.com/adscale/bq-bootstrap/pkg/settings"
)

// Report granularity keywords accepted by the report_level option.
const (
	ReportLevelConversion = "conversion"
	ReportLevelKeyword    = "keyword"
	ReportLevelCampaign   = "campaign"
)

// columnTargets pairs each historical column option with the canonical
// column name it maps to, in output order. The interactive path folds the
// map together via post-set hooks; the pre-supplied path rebuilds it from
// the same table.
var columnTargets = []struct {
	Key       string
	Canonical string
}{
	{"account_column_name", "account_name"},
	{"campaign_column_name", "campaign"},
	{"conversion_count_column_name", "conversion_count"},
	{"revenue_column_name", "revenue"},
	{"device_segment_column_name", "device_segment"},
	{"date_column_name", "date"},
	{"adgroup_column_name", "ad_group"},
	{"match_type_column_name", "match_type"},
	{"keyword_column_name", "keyword"},
}

// NewAppSettings declares the application's settings blocks. Declaration
// order matters: the project option's hook provides the storage client the
// bucket option consumes, the column hooks accumulate the map the
// processing block consumes.
func NewAppSettings(h *hooks.Hooks) (*settings.Settings, error) {
	hasHistorical := func(s *settings.Settings) bool {
		return s.Bool("has_historical_data")
	}
	hasRevenue := func(s *settings.Settings) bool {
		return s.Bool("has_revenue_column")
	}
	hasDeviceSegment := func(s *settings.Settings) bool {
		return s.Bool("has_device_segment")
	}
	belowCampaign := func(s *settings.Settings) bool {
		return !strings.EqualFold(s.String("report_level"), ReportLevelCampaign)
	}

	general := &settings.Block{
		Label: "General Settings",
		Options: []*settings.Option{
			{
				// Flag-only: never prompted. When the merged storage CSV from
				// an earlier run still exists it is reused unless this is set.
				Key:        "overwrite_storage_csv",
				Help:       "Overwrite the merged storage CSV if it already exists",
				Kind:       settings.KindBool,
				Default:    false,
				Optional:   true,
				SkipPrompt: true,
			},
			{
				Key:   "gcp_project_name",
				Help:  "GCP Project Name",
				After: h.SetClients,
			},
			{
				Key:     "raw_dataset",
				Help:    "Dataset where raw data will be stored",
				Default: "raw",
			},
			{
				Key:     "view_dataset",
				Help:    "Dataset where view data will be generated and stored",
				Default: "views",
			},
			{
				Key:     "location",
				Help:    "Cloud region for data storage (US or EU)",
				Default: "US",
			},
			{
				Key:  "agency_id",
				Help: "SA360 Agency ID",
				Kind: settings.KindInt,
			},
			{
				Key:  "advertiser_id",
				Help: "SA360 Advertiser ID",
				Kind: settings.KindInt,
			},
			{
				// A "no" answer leaves the cell unset, which predicates read
				// as false, so the option cannot be required.
				Key:      "has_historical_data",
				Help:     "Include historical conversion data?",
				Kind:     settings.KindBool,
				Optional: true,
			},
			{
				Key:       "storage_bucket",
				Help:      "Storage bucket for historical data",
				Condition: hasHistorical,
				Decorate:  h.BucketOptions,
				After:     h.SelectBucket,
			},
			{
				Key:       "file_path",
				Help:      "Path to the historical data (file, directory, or archive)",
				Condition: hasHistorical,
			},
			{
				Key:       "first_date_conversions",
				Help:      "First date of conversions to import",
				Condition: hasHistorical,
				After:     h.ConvertToDate,
			},
		},
	}

	gathering := &settings.Block{
		Label:     "Data Gathering for Historical Data",
		Condition: hasHistorical,
		Options: []*settings.Option{
			{
				Key:      "has_revenue_column",
				Help:     "Does the historical data include a revenue column?",
				Kind:     settings.KindBool,
				Default:  true,
				Optional: true,
			},
			{
				Key:      "has_device_segment",
				Help:     "Is the historical data segmented by device?",
				Kind:     settings.KindBool,
				Default:  true,
				Optional: true,
			},
			{
				Key:      "report_level",
				Help:     "Report level of the historical data",
				Default:  ReportLevelKeyword,
				Validate: validateReportLevel,
			},
		},
	}

	columns := &settings.Block{
		Label:     "Historical Data Columns",
		Condition: hasHistorical,
		Options: []*settings.Option{
			{
				Key:     "account_column_name",
				Help:    "Column name for the account",
				Default: "account_name",
				After:   h.MapColumn("account_name"),
			},
			{
				Key:     "campaign_column_name",
				Help:    "Column name for the campaign",
				Default: "campaign_name",
				After:   h.MapColumn("campaign"),
			},
			{
				Key:     "conversion_count_column_name",
				Help:    "Column name for the conversion count",
				Default: "conversions",
				After:   h.MapColumn("conversion_count"),
			},
			{
				Key:       "revenue_column_name",
				Help:      "Column name for revenue",
				Default:   "revenue",
				Optional:  true,
				Condition: hasRevenue,
				After:     h.MapColumn("revenue"),
			},
			{
				Key:       "device_segment_column_name",
				Help:      "Column name for the device segment",
				Default:   "device_segment",
				Condition: hasDeviceSegment,
				After:     h.MapColumn("device_segment"),
			},
			{
				Key:     "date_column_name",
				Help:    "Column name for the conversion date",
				Default: "date",
				After:   h.MapColumn("date"),
			},
			{
				Key:       "adgroup_column_name",
				Help:      "Column name for the ad group",
				Default:   "ad_group",
				Condition: belowCampaign,
				After:     h.MapColumn("ad_group"),
			},
			{
				Key:       "match_type_column_name",
				Help:      "Column name for the match type",
				Default:   "match_type",
				Condition: belowCampaign,
				After:     h.MapColumn("match_type"),
			},
			{
				Key:       "keyword_column_name",
				Help:      "Column name for the keyword",
				Default:   "keyword",
				Condition: belowCampaign,
				After:     h.MapColumn("keyword"),
			},
		},
	}

	processing := &settings.Block{
		Label:     "Historical Data Processing",
		Condition: hasHistorical,
		Options: []*settings.Option{
			{
				Key:      "process_files",
				Help:     "Normalize the historical data files now?",
				Kind:     settings.KindBool,
				Default:  true,
				Optional: true,
				After:    h.ProcessHistoricalFiles,
			},
		},
	}

	return settings.New(general, gathering, columns, processing)
}

func validateReportLevel(o *settings.Option) error {
	switch strings.ToLower(o.String()) {
	case ReportLevelConversion, ReportLevelKeyword, ReportLevelCampaign:
		return nil
	}
	return fmt.Errorf("%w: report level must be one of %s, %s, %s",
		settings.ErrValidation, ReportLevelConversion, ReportLevelKeyword, ReportLevelCampaign)
}
