//go:build linux

package buttons

func openPlatform(cfg Config, logger Logger) (Source, error) {
	switch cfg.Kind {
	case KindGPIOD:
		return &GPIODSource{Chip: cfg.Chip, Line: cfg.Line, Logger: logger}, nil
	case KindRPIO:
		return &RPIOSource{Pin: cfg.Line, PollInterval: cfg.PollInterval, Logger: logger}, nil
	case KindEvdev:
		return &EvdevSource{Glob: cfg.Device, KeyCode: cfg.KeyCode, Logger: logger}, nil
	}
	return nil, ErrUnknownSource
}
