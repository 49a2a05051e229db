package gamepad

import (
	"math"
	"testing"
)

// packFrame builds a wire frame from 16 raw 11-bit channel values.
func packFrame(channels [sbusChannels]uint16, flags byte) []byte {
	frame := make([]byte, sbusFrameSize)
	frame[0] = sbusHeader
	frame[sbusFlagsIndex] = flags
	frame[sbusFrameSize-1] = sbusFooter

	var bits uint32
	bitCount, out := 0, 1
	for _, ch := range channels {
		bits |= uint32(ch&0x7FF) << bitCount
		bitCount += 11
		for bitCount >= 8 {
			frame[out] = byte(bits)
			bits >>= 8
			bitCount -= 8
			out++
		}
	}
	return frame
}

func centredChannels() [sbusChannels]uint16 {
	var ch [sbusChannels]uint16
	for i := range ch {
		ch[i] = sbusCentre
	}
	return ch
}

func TestDecodeFrameNormalisesChannels(t *testing.T) {
	ch := centredChannels()
	ch[0] = sbusCentre + sbusHalfTravel // full deflection
	ch[1] = sbusCentre - sbusHalfTravel
	ch[2] = sbusCentre + sbusHalfTravel/2
	ch[15] = 0x7FF // saturated channel clamps to +1

	s := &SBus{}
	s.decodeFrame(packFrame(ch, 0))

	if !s.Connected() {
		t.Error("clean frame should report a live link")
	}
	cases := map[int]float64{0: 1, 1: -1, 2: 0.5, 3: 0, 15: 1}
	for index, want := range cases {
		if got := s.Axis(index); math.Abs(got-want) > 1e-9 {
			t.Errorf("Axis(%d) = %v, want %v", index, got, want)
		}
	}
}

func TestDecodeFrameFailsafeDropsLink(t *testing.T) {
	s := &SBus{}
	s.decodeFrame(packFrame(centredChannels(), 0))
	if !s.Connected() {
		t.Fatal("link should be live before failsafe")
	}

	s.decodeFrame(packFrame(centredChannels(), sbusFlagFailsafe))
	if s.Connected() {
		t.Error("failsafe flag should drop the link")
	}

	s.decodeFrame(packFrame(centredChannels(), sbusFlagFrameLost))
	if s.Connected() {
		t.Error("frame-lost flag should drop the link")
	}
}

func TestDecodeFramePackingRoundTrips(t *testing.T) {
	var ch [sbusChannels]uint16
	for i := range ch {
		ch[i] = uint16(172 + i*100)
	}

	s := &SBus{}
	s.decodeFrame(packFrame(ch, 0))
	for i, raw := range ch {
		want := clamp((float64(raw)-sbusCentre)/sbusHalfTravel, -1, 1)
		if got := s.Axis(i); math.Abs(got-want) > 1e-12 {
			t.Errorf("Axis(%d) = %v, want %v from raw %d", i, got, want, raw)
		}
	}
}

func TestAxisOutOfRangeReadsCentred(t *testing.T) {
	s := &SBus{}
	if s.Axis(-1) != 0 || s.Axis(sbusChannels) != 0 {
		t.Error("out-of-range axis indices should read as centred")
	}
}
