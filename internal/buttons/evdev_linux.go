//go:build linux

package buttons

import (
	"context"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sys/unix"

	"github.com/rook-computer/buttonwatch/internal/buttons/irq"
)

const evKey = 0x01

// EvdevSource treats key-down records of KeyCode on any matching input
// device as edges. Reading a record consumes it from the kernel queue.
type EvdevSource struct {
	Glob    string
	KeyCode int
	Logger  Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func (s *EvdevSource) Name() string { return KindEvdev }

func (s *EvdevSource) Start(ctx context.Context, h *irq.Handler) error {
	paths, err := filepath.Glob(s.Glob)
	if err != nil {
		return fmt.Errorf("evdev glob %q: %w", s.Glob, err)
	}
	if len(paths) == 0 {
		return fmt.Errorf("evdev: no devices match %q", s.Glob)
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	opened := 0
	for _, path := range paths {
		fd, err := unix.Open(path, unix.O_RDONLY|unix.O_NONBLOCK, 0)
		if err != nil {
			if s.Logger != nil {
				s.Logger.Errorf("buttons", "evdev open %s: %v", path, err)
			}
			continue
		}
		opened++
		s.wg.Add(1)
		go s.watch(runCtx, os.NewFile(uintptr(fd), path), fd, h)
	}
	if opened == 0 {
		cancel()
		return fmt.Errorf("evdev: none of %d device(s) could be opened", len(paths))
	}
	if s.Logger != nil {
		s.Logger.Infof("buttons", "evdev watching %d device(s) for key %d", opened, s.KeyCode)
	}
	return nil
}

func (s *EvdevSource) Stop() error {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
	return nil
}

func (s *EvdevSource) watch(ctx context.Context, f *os.File, fd int, h *irq.Handler) {
	defer s.wg.Done()
	defer f.Close()

	tvSize := binary.Size(unix.Timeval{})
	buf := make([]byte, 4096)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		pollFds := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLIN}}
		if _, err := unix.Poll(pollFds, 250); err != nil {
			if err == unix.EINTR {
				continue
			}
			// Device might have gone away.
			return
		}
		if pollFds[0].Revents&unix.POLLIN == 0 {
			continue
		}

		n, err := unix.Read(fd, buf)
		if err != nil {
			if err == unix.EAGAIN || err == unix.EINTR {
				continue
			}
			return
		}
		for i := countKeyDowns(buf[:n], tvSize, s.KeyCode); i > 0; i-- {
			h.Fire()
		}
	}
}

// countKeyDowns parses input_event records (timeval, u16 type, u16 code,
// s32 value) and counts key-down events for keyCode.
func countKeyDowns(data []byte, tvSize, keyCode int) int {
	eventSize := tvSize + 2 + 2 + 4
	count := 0
	for off := 0; off+eventSize <= len(data); off += eventSize {
		rec := data[off : off+eventSize]
		typ := binary.LittleEndian.Uint16(rec[tvSize : tvSize+2])
		code := binary.LittleEndian.Uint16(rec[tvSize+2 : tvSize+4])
		value := int32(binary.LittleEndian.Uint32(rec[tvSize+4 : tvSize+8]))
		if typ == evKey && int(code) == keyCode && value == 1 {
			count++
		}
	}
	return count
}
