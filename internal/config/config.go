// Package config handles configuration loading for dataseb.
// It supports YAML config files with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config represents the complete application configuration.
type Config struct {
	HTTP      HTTPConfig      `mapstructure:"http"      yaml:"http"`
	INDEC     INDECConfig     `mapstructure:"indec"     yaml:"indec"`
	BCRA      BCRAConfig      `mapstructure:"bcra"      yaml:"bcra"`
	Bluelytic BluelyticConfig `mapstructure:"bluelytics" yaml:"bluelytics"`
	Workbook  WorkbookConfig  `mapstructure:"workbook"  yaml:"workbook"`
	Logging   LoggingConfig   `mapstructure:"logging"   yaml:"logging"`
}

// HTTPConfig holds shared HTTP client settings.
type HTTPConfig struct {
	TimeoutSec        int `mapstructure:"timeout_sec"        yaml:"timeout_sec"`
	CacheTTLSec       int `mapstructure:"cache_ttl_sec"      yaml:"cache_ttl_sec"`
	ConcurrentFetches int `mapstructure:"concurrent_fetches" yaml:"concurrent_fetches"`
}

// INDECConfig holds the national statistics institute source locations.
type INDECConfig struct {
	CPIDivisionsURL string `mapstructure:"cpi_divisions_url" yaml:"cpi_divisions_url"`
	CPIOpeningsURL  string `mapstructure:"cpi_openings_url"  yaml:"cpi_openings_url"`
	CPIWeightsPath  string `mapstructure:"cpi_weights_path"  yaml:"cpi_weights_path"`
	EMAEMonthlyURL  string `mapstructure:"emae_monthly_url"  yaml:"emae_monthly_url"`
	EMAESectorURL   string `mapstructure:"emae_sector_url"   yaml:"emae_sector_url"`
	SupplyDemandURL string `mapstructure:"supply_demand_url" yaml:"supply_demand_url"`
	CalendarFeedURL string `mapstructure:"calendar_feed_url" yaml:"calendar_feed_url"`
	FTPIndexURL     string `mapstructure:"ftp_index_url"     yaml:"ftp_index_url"`
}

// BCRAConfig holds the central bank source locations.
type BCRAConfig struct {
	APIBaseURL      string   `mapstructure:"api_base_url"      yaml:"api_base_url"`
	PageLimit       int      `mapstructure:"page_limit"        yaml:"page_limit"`
	SeriesURL       string   `mapstructure:"series_url"        yaml:"series_url"`
	OperationsURL   string   `mapstructure:"operations_url"    yaml:"operations_url"`
	ExchangeRateURL string   `mapstructure:"exchange_rate_url" yaml:"exchange_rate_url"`
	BalanceURLs     []string `mapstructure:"balance_urls"      yaml:"balance_urls"`
}

// BluelyticConfig holds the parallel exchange rate source location.
type BluelyticConfig struct {
	EvolutionURL string `mapstructure:"evolution_url" yaml:"evolution_url"`
}

// WorkbookConfig holds local spreadsheet locations.
type WorkbookConfig struct {
	SplicedCPIPath string `mapstructure:"spliced_cpi_path" yaml:"spliced_cpi_path"`
	USCPIPath      string `mapstructure:"us_cpi_path"      yaml:"us_cpi_path"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `mapstructure:"format" yaml:"format"` // "text" or "json"
}

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config/config.yaml (project root)
//  2. ~/.dataseb/config.yaml (home directory)
//  3. /etc/dataseb/config.yaml (system)
//
// Environment variables override config file values.
// Format: DATASEB_<SECTION>_<KEY>, e.g., DATASEB_BCRA_API_BASE_URL
func Load() (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Config file settings
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".dataseb"))
	v.AddConfigPath("/etc/dataseb")

	// Environment variable settings
	v.SetEnvPrefix("DATASEB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (not required to exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found, use defaults + env vars.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &cfg, nil
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetEnvPrefix("DATASEB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	return &cfg, nil
}

// setDefaults sets sensible defaults for all config values.
func setDefaults(v *viper.Viper) {
	// HTTP defaults
	v.SetDefault("http.timeout_sec", 60)
	v.SetDefault("http.cache_ttl_sec", 300) // 5 minutes
	v.SetDefault("http.concurrent_fetches", 4)

	// INDEC defaults
	v.SetDefault("indec.cpi_divisions_url", "https://www.indec.gob.ar/ftp/cuadros/economia/serie_ipc_divisiones.csv")
	v.SetDefault("indec.cpi_openings_url", "https://www.indec.gob.ar/ftp/cuadros/economia/serie_ipc_aperturas.csv")
	v.SetDefault("indec.cpi_weights_path", "data/ponderadores_ipc.xlsx")
	v.SetDefault("indec.emae_monthly_url", "https://www.indec.gob.ar/ftp/cuadros/economia/sh_emae_mensual_base2004.xls")
	v.SetDefault("indec.emae_sector_url", "https://www.indec.gob.ar/ftp/cuadros/economia/sh_emae_actividad_base2004.xls")
	v.SetDefault("indec.supply_demand_url", "https://www.indec.gob.ar/ftp/cuadros/economia/sh_oferta_demanda_12_24.xls")
	v.SetDefault("indec.calendar_feed_url", "https://www.indec.gob.ar/indec/web/Calendario-Rss")
	v.SetDefault("indec.ftp_index_url", "https://www.indec.gob.ar/ftp/cuadros/economia/")

	// BCRA defaults
	v.SetDefault("bcra.api_base_url", "https://api.bcra.gob.ar/estadisticas/v3.0/monetarias")
	v.SetDefault("bcra.page_limit", 3000)
	v.SetDefault("bcra.series_url", "https://www.bcra.gob.ar/Pdfs/PublicacionesEstadisticas/series.xlsm")
	v.SetDefault("bcra.operations_url", "https://www.bcra.gob.ar/Pdfs/PublicacionesEstadisticas/Data_operaciones.xlsx")
	v.SetDefault("bcra.exchange_rate_url", "https://www.bcra.gob.ar/Pdfs/PublicacionesEstadisticas/com3500.xls")
	v.SetDefault("bcra.balance_urls", []string{
		"https://www.bcra.gob.ar/Pdfs/PublicacionesEstadisticas/din1_ser.txt",
		"https://www.bcra.gob.ar/Pdfs/PublicacionesEstadisticas/din2_ser.txt",
		"https://www.bcra.gob.ar/Pdfs/PublicacionesEstadisticas/din3_ser.txt",
		"https://www.bcra.gob.ar/Pdfs/PublicacionesEstadisticas/din4_ser.txt",
	})

	// Bluelytics defaults
	v.SetDefault("bluelytics.evolution_url", "https://api.bluelytics.com.ar/v2/evolution.json")

	// Workbook defaults
	v.SetDefault("workbook.spliced_cpi_path", "data/IPC2000.xlsx")
	v.SetDefault("workbook.us_cpi_path", "data/CPI1913.xlsx")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
