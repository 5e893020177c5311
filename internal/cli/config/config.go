// Package config layers the bootstrap configuration sources: declared
// defaults, an optional YAML config file, BQBOOT_* environment variables,
// and command-line flags, in ascending precedence. The result is the map of
// pre-supplied raw values the resolution engine consumes.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	EnvPrefix         = "BQBOOT"
	DefaultConfigName = "bq-bootstrap"
)

// Config is the loaded CLI configuration.
type Config struct {
	// Verbose enables debug logging.
	Verbose bool
	// NonInteractive disables prompting; unanswered required options fail.
	NonInteractive bool
	// ConfigFilePath records the config file actually read, if any.
	ConfigFilePath string
	// Supplied maps option keys to raw values found in flags, the config
	// file, or the environment. Absent keys resolve interactively.
	Supplied map[string]string
}

// FlagDef binds one settings key to its command-line flag.
type FlagDef struct {
	Key  string
	Flag string
	Help string
}

// FlagDefs enumerates every option reachable from the command line. Flag
// names are dashed; config and env keys reuse the underscored option key.
var FlagDefs = []FlagDef{
	{"overwrite_storage_csv", "overwrite-storage-csv", "overwrite the merged storage CSV instead of reusing it"},
	{"gcp_project_name", "gcp-project-name", "GCP project to bootstrap"},
	{"raw_dataset", "raw-dataset", "dataset for raw data"},
	{"view_dataset", "view-dataset", "dataset for generated views"},
	{"location", "location", "cloud region for data storage (US or EU)"},
	{"agency_id", "agency-id", "SA360 agency ID"},
	{"advertiser_id", "advertiser-id", "SA360 advertiser ID"},
	{"has_historical_data", "has-historical-data", "include historical conversion data"},
	{"storage_bucket", "storage-bucket", "storage bucket for historical data"},
	{"file_path", "file-path", "path to the historical data"},
	{"first_date_conversions", "first-date-conversions", "first date of conversions to import"},
	{"has_revenue_column", "has-revenue-column", "historical data includes a revenue column"},
	{"has_device_segment", "has-device-segment", "historical data is segmented by device"},
	{"report_level", "report-level", "report level (conversion, keyword, campaign)"},
	{"account_column_name", "account-column-name", "column name for the account"},
	{"campaign_column_name", "campaign-column-name", "column name for the campaign"},
	{"conversion_count_column_name", "conversion-count-column-name", "column name for the conversion count"},
	{"revenue_column_name", "revenue-column-name", "column name for revenue"},
	{"device_segment_column_name", "device-segment-column-name", "column name for the device segment"},
	{"date_column_name", "date-column-name", "column name for the conversion date"},
	{"adgroup_column_name", "adgroup-column-name", "column name for the ad group"},
	{"match_type_column_name", "match-type-column-name", "column name for the match type"},
	{"keyword_column_name", "keyword-column-name", "column name for the keyword"},
	{"process_files", "process-files", "normalize the historical data files"},
}

// RegisterFlags declares every option flag on fs. All option flags are
// strings; the resolution engine coerces them per the option kind.
func RegisterFlags(fs *pflag.FlagSet) {
	for _, def := range FlagDefs {
		fs.String(def.Flag, "", def.Help)
	}
}

// Load merges all configuration sources and returns the resulting Config
// plus the application logger.
func Load(cfgFile string, verbose, nonInteractive bool, flags *pflag.FlagSet) (Config, *slog.Logger, error) {
	cfg := Config{
		Verbose:        verbose,
		NonInteractive: nonInteractive,
		Supplied:       make(map[string]string),
	}

	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	v := viper.New()
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return cfg, logger, fmt.Errorf("resolving user home directory: %w", err)
		}
		v.SetConfigName(DefaultConfigName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(filepath.Join(home, ".config", DefaultConfigName))
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) && cfgFile == "" {
			logger.Debug("No configuration file found, using env/flags")
		} else {
			return cfg, logger, fmt.Errorf("reading config file: %w", err)
		}
	} else {
		cfg.ConfigFilePath = v.ConfigFileUsed()
		logger.Debug("Using configuration file", slog.String("path", cfg.ConfigFilePath))
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	for _, def := range FlagDefs {
		if flags == nil {
			break
		}
		flag := flags.Lookup(def.Flag)
		if flag == nil {
			logger.Debug("Flag lookup failed during binding", slog.String("flag", def.Flag))
			continue
		}
		if err := v.BindPFlag(def.Key, flag); err != nil {
			return cfg, logger, fmt.Errorf("binding flag --%s: %w", def.Flag, err)
		}
	}

	// Only deliberately supplied values go in the map: everything else
	// stays interactive or falls back to the declared option default.
	for _, def := range FlagDefs {
		switch {
		case flags != nil && flags.Changed(def.Flag):
			cfg.Supplied[def.Key] = v.GetString(def.Key)
		case v.InConfig(def.Key):
			cfg.Supplied[def.Key] = v.GetString(def.Key)
		default:
			if val, ok := os.LookupEnv(envKey(def.Key)); ok {
				cfg.Supplied[def.Key] = val
			}
		}
	}

	logger.Debug("Configuration loaded",
		slog.String("configFile", cfg.ConfigFilePath),
		slog.Int("suppliedKeys", len(cfg.Supplied)),
		slog.Bool("nonInteractive", cfg.NonInteractive),
	)
	return cfg, logger, nil
}

// envKey derives the environment variable name for an option key.
func envKey(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(strings.NewReplacer(".", "_", "-", "_").Replace(key))
}
