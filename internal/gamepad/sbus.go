package gamepad

import (
	"fmt"
	"sync"

	"go.bug.st/serial"

	"github.com/gait-works/gaitctl/internal/monitoring"
)

// SBUS framing constants. An SBUS receiver emits 25-byte frames at ~70 Hz
// on an inverted 100000-baud 8E2 UART (the inversion is handled by the
// receiver cable or UART hardware, not here).
const (
	sbusFrameSize  = 25
	sbusHeader     = 0x0F
	sbusFooter     = 0x00
	sbusChannels   = 16
	sbusFlagsIndex = 23

	sbusFlagFrameLost = 1 << 2
	sbusFlagFailsafe  = 1 << 3

	// Nominal channel range is 172..1811 with 992 centre; normalise with
	// half-travel 820 to land in [-1, 1].
	sbusCentre     = 992
	sbusHalfTravel = 820
)

// SBus reads an RC receiver on a serial port and exposes its channels as
// axes. Channel values update from a background goroutine; Connected
// follows the receiver's failsafe flag, so it reports false as soon as the
// transmitter link drops.
type SBus struct {
	port serial.Port

	mu        sync.RWMutex
	channels  [sbusChannels]float64
	connected bool

	stop chan struct{}
	done chan struct{}
}

// OpenSBus opens an SBUS receiver on the named serial port and starts
// reading frames.
func OpenSBus(portName string) (*SBus, error) {
	mode := &serial.Mode{
		BaudRate: 100000,
		DataBits: 8,
		Parity:   serial.EvenParity,
		StopBits: serial.TwoStopBits,
	}
	port, err := serial.Open(portName, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open SBUS port %s: %w", portName, err)
	}

	s := &SBus{
		port: port,
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	go s.readLoop()
	return s, nil
}

// Axis returns the latest normalised value for a channel, in [-1, 1].
// Out-of-range indices read as centred.
func (s *SBus) Axis(index int) float64 {
	if index < 0 || index >= sbusChannels {
		return 0
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.channels[index]
}

// Connected reports whether the receiver has a live transmitter link.
func (s *SBus) Connected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connected
}

// Close stops the reader and closes the port.
func (s *SBus) Close() error {
	close(s.stop)
	err := s.port.Close()
	<-s.done
	return err
}

// readLoop accumulates serial bytes, aligns on frame boundaries and decodes
// each complete frame.
func (s *SBus) readLoop() {
	defer close(s.done)

	buf := make([]byte, 0, 2*sbusFrameSize)
	chunk := make([]byte, 64)
	for {
		select {
		case <-s.stop:
			return
		default:
		}

		n, err := s.port.Read(chunk)
		if err != nil {
			select {
			case <-s.stop:
				// closed by Close
			default:
				monitoring.Logf("sbus: read failed: %v", err)
				s.mu.Lock()
				s.connected = false
				s.mu.Unlock()
			}
			return
		}
		buf = append(buf, chunk[:n]...)

		for len(buf) >= sbusFrameSize {
			if buf[0] != sbusHeader {
				buf = buf[1:]
				continue
			}
			frame := buf[:sbusFrameSize]
			if frame[sbusFrameSize-1] != sbusFooter {
				// misaligned; resync from the next byte
				buf = buf[1:]
				continue
			}
			s.decodeFrame(frame)
			buf = buf[sbusFrameSize:]
		}
	}
}

// decodeFrame unpacks the 16 packed 11-bit channels and the link flags.
func (s *SBus) decodeFrame(frame []byte) {
	var raw [sbusChannels]uint16
	var bits uint32
	bitCount, ch := 0, 0
	for _, b := range frame[1:sbusFlagsIndex] {
		bits |= uint32(b) << bitCount
		bitCount += 8
		for bitCount >= 11 && ch < sbusChannels {
			raw[ch] = uint16(bits & 0x7FF)
			bits >>= 11
			bitCount -= 11
			ch++
		}
	}

	flags := frame[sbusFlagsIndex]
	live := flags&(sbusFlagFailsafe|sbusFlagFrameLost) == 0

	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = live
	for i, v := range raw {
		s.channels[i] = clamp((float64(v)-sbusCentre)/sbusHalfTravel, -1, 1)
	}
}
