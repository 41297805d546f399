package desktop

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidCombo is returned for key combinations that cannot be dispatched.
var ErrInvalidCombo = errors.New("invalid key combination")

// modifierNames maps accepted spellings onto the names robotgo expects.
var modifierNames = map[string]string{
	"ctrl":    "ctrl",
	"control": "ctrl",
	"cmd":     "cmd",
	"command": "cmd",
	"win":     "cmd",
	"windows": "cmd",
	"super":   "cmd",
	"meta":    "cmd",
	"alt":     "alt",
	"option":  "alt",
	"opt":     "alt",
	"shift":   "shift",
}

var keyAliases = map[string]string{
	"escape":     "esc",
	"return":     "enter",
	"spacebar":   "space",
	"del":        "delete",
	"pgup":       "pageup",
	"page_up":    "pageup",
	"pgdn":       "pagedown",
	"page_down":  "pagedown",
	"arrowleft":  "left",
	"arrowright": "right",
	"arrowup":    "up",
	"arrowdown":  "down",
	"bksp":       "backspace",
	"ins":        "insert",
}

// IsModifier reports whether name is one of the accepted modifier spellings.
func IsModifier(name string) bool {
	_, ok := modifierNames[strings.ToLower(strings.TrimSpace(name))]
	return ok
}

// IsChord reports whether combo names a chorded combination rather than a
// single key. A lone "+" is a key.
func IsChord(combo string) bool {
	combo = strings.TrimSpace(combo)
	return combo != "+" && strings.Contains(combo, "+")
}

// ParseCombo splits a combination such as "ctrl+shift+s" into the final key
// and its modifiers, normalised to backend names. "ctrl++" presses plus.
func ParseCombo(combo string) (key string, modifiers []string, err error) {
	combo = strings.TrimSpace(combo)
	if combo == "" {
		return "", nil, fmt.Errorf("%w: empty", ErrInvalidCombo)
	}
	if !IsChord(combo) {
		return normaliseKey(combo), nil, nil
	}

	var parts []string
	if strings.HasSuffix(combo, "++") {
		parts = append(strings.Split(strings.TrimSuffix(combo, "++"), "+"), "+")
	} else {
		parts = strings.Split(combo, "+")
	}

	for i, raw := range parts {
		part := strings.TrimSpace(raw)
		if part == "" {
			return "", nil, fmt.Errorf("%w: '%s'", ErrInvalidCombo, combo)
		}
		if i == len(parts)-1 {
			key = normaliseKey(part)
			break
		}
		mod, ok := modifierNames[strings.ToLower(part)]
		if !ok {
			return "", nil, fmt.Errorf("%w: '%s' is not a modifier in '%s'", ErrInvalidCombo, part, combo)
		}
		modifiers = append(modifiers, mod)
	}
	return key, modifiers, nil
}

func normaliseKey(key string) string {
	if len(key) == 1 {
		return key
	}
	lower := strings.ToLower(key)
	if alias, ok := keyAliases[lower]; ok {
		return alias
	}
	if mod, ok := modifierNames[lower]; ok {
		return mod
	}
	return lower
}
