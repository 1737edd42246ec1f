package overlay

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/speedata/svgoverlay/raster"
)

// Config holds the settings of a conversion. It can be read from a TOML file:
//
//	marker = "removeImgs"
//	format = "image/png"
//	scale = 2.0
//	quality = 90
//	concurrency = 4
//	loglevel = "info"
type Config struct {
	Marker      string  `toml:"marker"`
	Format      string  `toml:"format"`
	Scale       float64 `toml:"scale"`
	Quality     int     `toml:"quality"`
	Concurrency int     `toml:"concurrency"`
	LogLevel    string  `toml:"loglevel"`
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		Marker:   DefaultMarkerClass,
		Format:   raster.FormatPNG,
		Scale:    1,
		Quality:  90,
		LogLevel: "warn",
	}
}

// LoadConfig reads a TOML file on top of DefaultConfig. Unknown keys are an
// error.
func LoadConfig(filename string) (Config, error) {
	cfg := DefaultConfig()
	md, err := toml.DecodeFile(filename, &cfg)
	if err != nil {
		return cfg, err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return cfg, fmt.Errorf("%s: unknown keys %s", filename, strings.Join(keys, ", "))
	}
	return cfg, nil
}

// Encoder returns the raster encoder for the configuration.
func (cfg Config) Encoder() *raster.SVGEncoder {
	return &raster.SVGEncoder{
		Format:  cfg.Format,
		Scale:   cfg.Scale,
		Quality: cfg.Quality,
	}
}

// Options returns the Toggle options for the configuration.
func (cfg Config) Options() []Option {
	opts := []Option{WithConcurrency(cfg.Concurrency)}
	if cfg.Marker != "" {
		opts = append(opts, WithMarkerClass(cfg.Marker))
	}
	return opts
}
