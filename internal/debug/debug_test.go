package debug

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

// withOutput redirects output for the duration of a test.
func withOutput(t *testing.T, lvl int) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	Init(lvl)
	t.Cleanup(func() {
		Init(LevelOff)
		SetOutput(&bytes.Buffer{})
	})
	return &buf
}

func TestInit_Off(t *testing.T) {
	buf := withOutput(t, LevelOff)
	Info("hidden")
	Error(errors.New("hidden"))
	if buf.Len() != 0 {
		t.Errorf("level off should print nothing, got %q", buf.String())
	}
	if IsEnabled(LevelInfo) {
		t.Error("IsEnabled(info) should be false at level off")
	}
}

func TestLevels(t *testing.T) {
	cases := []struct {
		name  string
		level int
		emit  func()
		want  string
	}{
		{"info", LevelInfo, func() { Transition("Busqueda", "Chill", "key A") }, "Mode: Busqueda -> Chill (key A)"},
		{"code", LevelInfo, func() { Code("1234") }, `Code confirmed: "1234"`},
		{"key", LevelLive, func() { Key("keypad", "#") }, "Key # from keypad"},
		{"angles", LevelVerbose, func() { Angles(3, 2, 60) }, "tick=3 pan=2 tilt=60"},
		{"gpio", LevelTrace, func() { GPIO("write", 5, 1) }, "[GPIO] write pin=5 value=1"},
		{"i2c", LevelTrace, func() { I2C("pca9685", "SetPwm", "ch1") }, "[I2C] pca9685 SetPwm ch1"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			buf := withOutput(t, tc.level)
			tc.emit()
			if !strings.Contains(buf.String(), tc.want) {
				t.Errorf("output = %q, want it to contain %q", buf.String(), tc.want)
			}
			if !strings.Contains(buf.String(), "[MattosCam] ") {
				t.Errorf("output = %q, want prefix", buf.String())
			}
		})
	}
}

func TestLevels_BelowThresholdSilent(t *testing.T) {
	buf := withOutput(t, LevelInfo)
	Key("keypad", "1")
	Angles(1, 0, 60)
	GPIO("read", 12, 0)
	if buf.Len() != 0 {
		t.Errorf("info level should hide live/verbose/trace, got %q", buf.String())
	}
	if Level() != LevelInfo {
		t.Errorf("Level() = %d, want %d", Level(), LevelInfo)
	}
	if !IsEnabled(LevelInfo) || IsEnabled(LevelLive) {
		t.Error("IsEnabled should match the configured level")
	}
}
