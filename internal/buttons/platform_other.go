//go:build !linux

package buttons

import "fmt"

func openPlatform(cfg Config, logger Logger) (Source, error) {
	return nil, fmt.Errorf("%w: %s", ErrUnsupported, cfg.Kind)
}
