package adc

import "testing"

func TestEncodeRequest(t *testing.T) {
	cases := []struct {
		ch   int
		want [3]byte
	}{
		{0, [3]byte{0x06, 0x00, 0x00}},
		{1, [3]byte{0x06, 0x40, 0x00}},
		{3, [3]byte{0x06, 0xC0, 0x00}},
		{4, [3]byte{0x07, 0x00, 0x00}},
		{7, [3]byte{0x07, 0xC0, 0x00}},
	}
	for _, tc := range cases {
		if got := encodeRequest(tc.ch); got != tc.want {
			t.Errorf("encodeRequest(%d) = % x, want % x", tc.ch, got, tc.want)
		}
	}
}

func TestDecodeResponse(t *testing.T) {
	cases := []struct {
		rx   [3]byte
		want int
	}{
		{[3]byte{0xFF, 0x00, 0x00}, 0},
		{[3]byte{0x00, 0x0F, 0xFF}, MaxValue},
		{[3]byte{0x00, 0xF1, 0xF4}, 500}, // high nibble of byte 1 is don't-care
	}
	for _, tc := range cases {
		if got := decodeResponse(tc.rx); got != tc.want {
			t.Errorf("decodeResponse(% x) = %d, want %d", tc.rx, got, tc.want)
		}
	}
}

func TestMock_ReplaysThenHolds(t *testing.T) {
	m := NewMock(10, 900, 20)
	want := []int{10, 900, 20, 20, 20}
	for i, w := range want {
		v, err := m.Read(0)
		if err != nil {
			t.Fatalf("Read: %v", err)
		}
		if v != w {
			t.Errorf("read %d = %d, want %d", i, v, w)
		}
	}
}

func TestMock_EmptyReadsZero(t *testing.T) {
	r, err := NewReader(true, MCP3208Config{})
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	v, _ := r.Read(0)
	if v != 0 {
		t.Errorf("empty mock read = %d, want 0", v)
	}
}
