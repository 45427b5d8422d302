package gpio

import "testing"

func TestMockDriver_ReadsLow(t *testing.T) {
	d, err := NewDriver(true)
	if err != nil {
		t.Fatalf("NewDriver(mock): %v", err)
	}
	defer d.Close()

	if err := d.SetupPin(13, InputPullDown); err != nil {
		t.Fatalf("SetupPin: %v", err)
	}
	lvl, err := d.ReadPin(13)
	if err != nil {
		t.Fatalf("ReadPin: %v", err)
	}
	if lvl != Low {
		t.Errorf("mock read = %v, want Low", lvl)
	}
	if err := d.WritePin(26, High); err != nil {
		t.Errorf("WritePin: %v", err)
	}
}

func TestPinMode_String(t *testing.T) {
	cases := map[PinMode]string{
		Input:         "input",
		Output:        "output",
		InputPullDown: "input+pulldown",
		PinMode(42):   "unknown",
	}
	for mode, want := range cases {
		if got := mode.String(); got != want {
			t.Errorf("PinMode(%d).String() = %q, want %q", int(mode), got, want)
		}
	}
}
