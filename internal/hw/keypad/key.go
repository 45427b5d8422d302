package keypad

import "fmt"

// Key is one of the sixteen keys of the 4x4 membrane keypad.
// The zero value KeyNone means "no key".
type Key uint8

const (
	KeyNone Key = iota
	Key0
	Key1
	Key2
	Key3
	Key4
	Key5
	Key6
	Key7
	Key8
	Key9
	KeyA
	KeyB
	KeyC
	KeyD
	KeyStar
	KeyHash
)

var keyChars = [...]string{
	KeyNone: "",
	Key0:    "0",
	Key1:    "1",
	Key2:    "2",
	Key3:    "3",
	Key4:    "4",
	Key5:    "5",
	Key6:    "6",
	Key7:    "7",
	Key8:    "8",
	Key9:    "9",
	KeyA:    "A",
	KeyB:    "B",
	KeyC:    "C",
	KeyD:    "D",
	KeyStar: "*",
	KeyHash: "#",
}

// Layout is the physical key matrix, row-major. Scanning follows this
// order, so when several keys are held the top-left one wins.
var Layout = [4][4]Key{
	{Key1, Key2, Key3, KeyA},
	{Key4, Key5, Key6, KeyB},
	{Key7, Key8, Key9, KeyC},
	{KeyStar, Key0, KeyHash, KeyD},
}

func (k Key) String() string {
	if int(k) < len(keyChars) {
		return keyChars[k]
	}
	return fmt.Sprintf("Key(%d)", uint8(k))
}

// IsDigit reports whether k is one of 0-9.
func (k Key) IsDigit() bool {
	return k >= Key0 && k <= Key9
}

// Digit returns the ASCII digit for a digit key, 0 otherwise.
func (k Key) Digit() byte {
	if !k.IsDigit() {
		return 0
	}
	return '0' + byte(k-Key0)
}

// ParseKey converts a single keypad character into a Key.
func ParseKey(s string) (Key, error) {
	for k, c := range keyChars {
		if k != int(KeyNone) && c == s {
			return Key(k), nil
		}
	}
	return KeyNone, fmt.Errorf("unknown key %q", s)
}
