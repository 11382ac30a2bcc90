package subaru

import "fmt"

// VisualAlert is the HUD advisory requested by the control stack.
type VisualAlert int

const (
	AlertNone VisualAlert = iota
	AlertFCW
	AlertSteerRequired
	AlertBrakePressed
	AlertWrongGear
	AlertSeatbeltUnbuckled
	AlertSpeedTooHigh
	AlertLDW
)

var visualAlertNames = [...]string{
	AlertNone:              "none",
	AlertFCW:               "fcw",
	AlertSteerRequired:     "steerRequired",
	AlertBrakePressed:      "brakePressed",
	AlertWrongGear:         "wrongGear",
	AlertSeatbeltUnbuckled: "seatbeltUnbuckled",
	AlertSpeedTooHigh:      "speedTooHigh",
	AlertLDW:               "ldw",
}

func (a VisualAlert) String() string {
	if a >= 0 && int(a) < len(visualAlertNames) {
		return visualAlertNames[a]
	}
	return fmt.Sprintf("VisualAlert(%d)", int(a))
}

// ParseVisualAlert accepts the names returned by String. Empty means none.
func ParseVisualAlert(s string) (VisualAlert, error) {
	if s == "" {
		return AlertNone, nil
	}
	for i, n := range visualAlertNames {
		if n == s {
			return VisualAlert(i), nil
		}
	}
	return AlertNone, fmt.Errorf("unknown visual alert %q", s)
}
