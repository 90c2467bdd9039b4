package shower

import (
	"fmt"
	"os"
)

// Writer persists events and static subarray metadata to a concrete backend
// (TileDB or JSON), selected and configured by DataWriterConfig. Subarray,
// SimulationConfig, AtmosphereModel, and Metaparam are one-shot writes,
// called at most once per output, before any WriteEvent call; each is a
// no-op when its DataWriterConfig flag is unset.
type Writer interface {
	WriteSubarray(sub *SubarrayDescription) error
	WriteSimulationConfig(cfg SimulationConfig) error
	WriteAtmosphereModel(atm AtmosphereProfile) error
	WriteMetaparam(meta map[string]string) error
	WriteEvent(event *ArrayEvent) error
	Close() error
}

// NewWriter opens the backend named by cfg.OutputType at uri, refusing to
// overwrite an existing output unless cfg.Overwrite is set.
func NewWriter(uri string, cfg DataWriterConfig) (Writer, error) {
	if !cfg.Overwrite {
		if _, err := os.Stat(uri); err == nil {
			return nil, ErrOutputExists
		}
	}

	switch cfg.OutputType {
	case "tiledb":
		return newTileDBWriter(uri, cfg)
	case "json":
		return newJSONWriter(uri, cfg)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownOutputType, cfg.OutputType)
	}
}
