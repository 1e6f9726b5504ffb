//go:build !unix

package buttons

import "fmt"

func newSignalSource(logger Logger) (Source, error) {
	return nil, fmt.Errorf("%w: %s", ErrUnsupported, KindSignal)
}
