package ui

import (
	"errors"

	"github.com/eiannone/keyboard"
)

// Key is a single keypress read without waiting for Enter.
type Key struct {
	Rune  rune
	Enter bool
	Esc   bool
}

// ErrNoKeyboard means stdin is not a terminal the keyboard package can open.
var ErrNoKeyboard = errors.New("keyboard not available")

// readKey is swapped out in tests.
var readKey = keyboard.GetSingleKey

// WaitKey blocks for one keypress.
func WaitKey() (Key, error) {
	char, key, err := readKey()
	if err != nil {
		return Key{}, errors.Join(ErrNoKeyboard, err)
	}
	switch key {
	case keyboard.KeyEnter:
		return Key{Enter: true}, nil
	case keyboard.KeyEsc, keyboard.KeyCtrlC:
		return Key{Esc: true}, nil
	case keyboard.KeySpace:
		return Key{Rune: ' '}, nil
	}
	return Key{Rune: char}, nil
}

// Again asks whether to run another session: Enter, y or r continue; Esc, q,
// n or Ctrl+C stop. Without a keyboard it reports false.
func Again() bool {
	for {
		k, err := WaitKey()
		if err != nil {
			return false
		}
		switch {
		case k.Enter, k.Rune == 'y', k.Rune == 'Y', k.Rune == 'r', k.Rune == 'R':
			return true
		case k.Esc, k.Rune == 'q', k.Rune == 'Q', k.Rune == 'n', k.Rune == 'N':
			return false
		}
	}
}
