package statemachine

// MaxCodeLen is the number of digits an entry code can hold.
const MaxCodeLen = 4

// EntryCode is the digit buffer typed on the keypad.
type EntryCode struct {
	digits [MaxCodeLen]byte
	n      int
}

// Append adds d if there is room. It reports whether the code changed.
func (c *EntryCode) Append(d byte) bool {
	if c.n >= MaxCodeLen || d < '0' || d > '9' {
		return false
	}
	c.digits[c.n] = d
	c.n++
	return true
}

// Backspace drops the last digit. It reports whether the code changed.
func (c *EntryCode) Backspace() bool {
	if c.n == 0 {
		return false
	}
	c.n--
	return true
}

// Take returns the code and clears it.
func (c *EntryCode) Take() string {
	s := c.String()
	c.n = 0
	return s
}

func (c *EntryCode) Len() int { return c.n }

func (c *EntryCode) String() string {
	return string(c.digits[:c.n])
}
