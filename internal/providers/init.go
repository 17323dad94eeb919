// Package providers initializes and registers all concrete data providers
// with the global provider registry.
package providers

import (
	"github.com/andesdata/dataseb/internal/config"
	"github.com/andesdata/dataseb/internal/provider"
	"github.com/andesdata/dataseb/internal/providers/bcra"
	"github.com/andesdata/dataseb/internal/providers/bluelytics"
	"github.com/andesdata/dataseb/internal/providers/indec"
	"github.com/andesdata/dataseb/internal/providers/workbook"
)

// RegisterAll creates and registers all available providers with the
// global registry.
func RegisterAll(cfg *config.Config) error {
	return RegisterAllTo(provider.Global(), cfg)
}

// RegisterAllTo registers all available providers to the given registry.
func RegisterAllTo(reg *provider.Registry, cfg *config.Config) error {
	if err := reg.Register(indec.New(cfg.INDEC)); err != nil {
		return err
	}
	if err := reg.Register(bcra.New(cfg.BCRA)); err != nil {
		return err
	}
	if err := reg.Register(bluelytics.New(cfg.Bluelytic)); err != nil {
		return err
	}
	// Local spreadsheets are optional; register the provider only when
	// both paths are configured.
	if cfg.Workbook.SplicedCPIPath != "" && cfg.Workbook.USCPIPath != "" {
		if err := reg.Register(workbook.New(cfg.Workbook)); err != nil {
			return err
		}
	}
	return nil
}
