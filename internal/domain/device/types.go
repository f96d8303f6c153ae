package device

// LedType identifies a button LED by its color.
type LedType int

const (
	LedRed LedType = iota
	LedBlue
	LedYellow
	LedGreen
)

// LedCount is the number of buttons and LEDs on the rail.
const LedCount = 4

// String returns the string representation of the LED type.
func (l LedType) String() string {
	switch l {
	case LedRed:
		return "red"
	case LedBlue:
		return "blue"
	case LedYellow:
		return "yellow"
	case LedGreen:
		return "green"
	default:
		return "unknown"
	}
}

// LedState is the on/off state of an LED.
type LedState int

const (
	LedOff LedState = iota
	LedOn
)

// String returns the string representation of the LED state.
func (s LedState) String() string {
	switch s {
	case LedOff:
		return "off"
	case LedOn:
		return "on"
	default:
		return "unknown"
	}
}

// CountdownLeds returns the LED pattern for a countdown value.
// The pattern cycles every LedCount+1 seconds: all LEDs are lit at 0 and
// one more LED goes dark, left to right, for each remaining second.
func CountdownLeds(counter int) [LedCount]LedState {
	var leds [LedCount]LedState
	step := counter % (LedCount + 1)
	if step < 0 {
		step += LedCount + 1
	}
	for i := range leds {
		leds[i] = LedOn
	}
	if step == 0 {
		return leds
	}
	// step LedCount darkens the first LED, step 1 darkens all of them.
	for i := 0; i <= LedCount-step; i++ {
		leds[i] = LedOff
	}
	return leds
}
