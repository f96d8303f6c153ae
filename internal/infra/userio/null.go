package userio

func init() {
	Register("null", func(map[string]any) (Source, error) { return nullSource{}, nil })
}

// nullSource has no buttons and no LEDs.
type nullSource struct{}

func (nullSource) Poll() (Presses, error) { return Presses{}, nil }
func (nullSource) WriteLeds(Leds) error   { return nil }
func (nullSource) Close() error           { return nil }
