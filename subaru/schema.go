package subaru

import (
	"errors"
	"fmt"

	"subaru-lkas-can/utils"
)

// SignalFrame is a signal name to value mapping, as produced by the decoder
// for an observed frame or consumed by the packer for an outgoing one.
type SignalFrame = utils.SignalFrame

// ErrMissingSignal reports an observed snapshot that lacks a schema signal.
var ErrMissingSignal = errors.New("missing signal")

type field struct {
	name string
	v    *int
}

func names(fs []field) []string {
	out := make([]string, len(fs))
	for i, f := range fs {
		out[i] = f.name
	}
	return out
}

// unpack copies every schema signal out of snap into the record behind fs.
func unpack(msg string, snap SignalFrame, fs []field) error {
	for _, f := range fs {
		v, ok := snap[f.name]
		if !ok {
			return fmt.Errorf("%s: %w %q", msg, ErrMissingSignal, f.name)
		}
		*f.v = v
	}
	return nil
}

func pack(fs []field) SignalFrame {
	out := make(SignalFrame, len(fs))
	for _, f := range fs {
		out[f.name] = *f.v
	}
	return out
}

// ESDistance is the ES_Distance cruise status view that is re-transmitted.
type ESDistance struct {
	Counter           int
	Signal1           int
	CruiseFault       int
	CruiseThrottle    int
	Signal2           int
	CarFollow         int
	Signal3           int
	CruiseSoftDisable int
	Signal7           int
	CruiseBrakeActive int
	DistanceSwap      int
	CruiseEPB         int
	Signal4           int
	CloseDistance     int
	Signal5           int
	CruiseCancel      int
	CruiseSet         int
	CruiseResume      int
	Signal6           int
}

func (m *ESDistance) fields() []field {
	return []field{
		{"COUNTER", &m.Counter},
		{"Signal1", &m.Signal1},
		{"Cruise_Fault", &m.CruiseFault},
		{"Cruise_Throttle", &m.CruiseThrottle},
		{"Signal2", &m.Signal2},
		{"Car_Follow", &m.CarFollow},
		{"Signal3", &m.Signal3},
		{"Cruise_Soft_Disable", &m.CruiseSoftDisable},
		{"Signal7", &m.Signal7},
		{"Cruise_Brake_Active", &m.CruiseBrakeActive},
		{"Distance_Swap", &m.DistanceSwap},
		{"Cruise_EPB", &m.CruiseEPB},
		{"Signal4", &m.Signal4},
		{"Close_Distance", &m.CloseDistance},
		{"Signal5", &m.Signal5},
		{"Cruise_Cancel", &m.CruiseCancel},
		{"Cruise_Set", &m.CruiseSet},
		{"Cruise_Resume", &m.CruiseResume},
		{"Signal6", &m.Signal6},
	}
}

// ParseESDistance reads the ES_Distance schema out of an observed snapshot.
func ParseESDistance(snap SignalFrame) (ESDistance, error) {
	var m ESDistance
	err := unpack(msgESDistance, snap, m.fields())
	return m, err
}

// Signals returns the record as a frame holding exactly the ES_Distance schema.
func (m ESDistance) Signals() SignalFrame { return pack(m.fields()) }

// ESLKASState is the ES_LKAS_State dash view: LKAS alerts and lane line indicators.
type ESLKASState struct {
	Counter                int
	AlertMsg               int
	Signal1                int
	Active                 int
	DashState              int
	Signal2                int
	BackwardSpeedLimitMenu int
	LeftLineEnable         int
	LeftLineLightBlink     int
	RightLineEnable        int
	RightLineLightBlink    int
	LeftLineVisible        int
	RightLineVisible       int
	Alert                  int
	Signal3                int
}

func (m *ESLKASState) fields() []field {
	return []field{
		{"COUNTER", &m.Counter},
		{"LKAS_Alert_Msg", &m.AlertMsg},
		{"Signal1", &m.Signal1},
		{"LKAS_ACTIVE", &m.Active},
		{"LKAS_Dash_State", &m.DashState},
		{"Signal2", &m.Signal2},
		{"Backward_Speed_Limit_Menu", &m.BackwardSpeedLimitMenu},
		{"LKAS_Left_Line_Enable", &m.LeftLineEnable},
		{"LKAS_Left_Line_Light_Blink", &m.LeftLineLightBlink},
		{"LKAS_Right_Line_Enable", &m.RightLineEnable},
		{"LKAS_Right_Line_Light_Blink", &m.RightLineLightBlink},
		{"LKAS_Left_Line_Visible", &m.LeftLineVisible},
		{"LKAS_Right_Line_Visible", &m.RightLineVisible},
		{"LKAS_Alert", &m.Alert},
		{"Signal3", &m.Signal3},
	}
}

// ParseESLKASState reads the ES_LKAS_State schema out of an observed snapshot.
func ParseESLKASState(snap SignalFrame) (ESLKASState, error) {
	var m ESLKASState
	err := unpack(msgESLKASState, snap, m.fields())
	return m, err
}

// Signals returns the record as a frame holding exactly the ES_LKAS_State schema.
func (m ESLKASState) Signals() SignalFrame { return pack(m.fields()) }

// ESDashStatus is the ES_DashStatus cruise and EyeSight dash view.
type ESDashStatus struct {
	Counter            int
	PCBOff             int
	LDWOff             int
	Signal1            int
	CruiseStateMsg     int
	LKASStateMsg       int
	Signal2            int
	CruiseSoftDisable  int
	EyeSightStatusMsg  int
	Signal3            int
	CruiseDistance     int
	Signal4            int
	ConventionalCruise int
	Signal5            int
	CruiseDisengaged   int
	CruiseActivated    int
	Signal6            int
	CruiseSetSpeed     int
	CruiseFault        int
	CruiseOn           int
	DisplayOwnCar      int
	BrakeLights        int
	CarFollow          int
	Signal7            int
	FarDistance        int
	CruiseState        int
}

func (m *ESDashStatus) fields() []field {
	return []field{
		{"COUNTER", &m.Counter},
		{"PCB_Off", &m.PCBOff},
		{"LDW_Off", &m.LDWOff},
		{"Signal1", &m.Signal1},
		{"Cruise_State_Msg", &m.CruiseStateMsg},
		{"LKAS_State_Msg", &m.LKASStateMsg},
		{"Signal2", &m.Signal2},
		{"Cruise_Soft_Disable", &m.CruiseSoftDisable},
		{"EyeSight_Status_Msg", &m.EyeSightStatusMsg},
		{"Signal3", &m.Signal3},
		{"Cruise_Distance", &m.CruiseDistance},
		{"Signal4", &m.Signal4},
		{"Conventional_Cruise", &m.ConventionalCruise},
		{"Signal5", &m.Signal5},
		{"Cruise_Disengaged", &m.CruiseDisengaged},
		{"Cruise_Activated", &m.CruiseActivated},
		{"Signal6", &m.Signal6},
		{"Cruise_Set_Speed", &m.CruiseSetSpeed},
		{"Cruise_Fault", &m.CruiseFault},
		{"Cruise_On", &m.CruiseOn},
		{"Display_Own_Car", &m.DisplayOwnCar},
		{"Brake_Lights", &m.BrakeLights},
		{"Car_Follow", &m.CarFollow},
		{"Signal7", &m.Signal7},
		{"Far_Distance", &m.FarDistance},
		{"Cruise_State", &m.CruiseState},
	}
}

// ParseESDashStatus reads the ES_DashStatus schema out of an observed snapshot.
func ParseESDashStatus(snap SignalFrame) (ESDashStatus, error) {
	var m ESDashStatus
	err := unpack(msgESDashStatus, snap, m.fields())
	return m, err
}

// Signals returns the record as a frame holding exactly the ES_DashStatus schema.
func (m ESDashStatus) Signals() SignalFrame { return pack(m.fields()) }

// InfotainmentStatus is the LKAS part of INFOTAINMENT_STATUS.
type InfotainmentStatus struct {
	LKASState int
	BlueLines int
	Signal1   int
	Signal2   int
}

func (m *InfotainmentStatus) fields() []field {
	return []field{
		{"LKAS_State_Infotainment", &m.LKASState},
		{"LKAS_Blue_Lines", &m.BlueLines},
		{"Signal1", &m.Signal1},
		{"Signal2", &m.Signal2},
	}
}

// ParseInfotainmentStatus reads the INFOTAINMENT_STATUS schema out of an observed snapshot.
func ParseInfotainmentStatus(snap SignalFrame) (InfotainmentStatus, error) {
	var m InfotainmentStatus
	err := unpack(msgInfotainmentStatus, snap, m.fields())
	return m, err
}

// Signals returns the record as a frame holding exactly the INFOTAINMENT_STATUS schema.
func (m InfotainmentStatus) Signals() SignalFrame { return pack(m.fields()) }

// Ordered schema signal names per message.
var (
	ESDistanceSignals         = names((&ESDistance{}).fields())
	ESLKASStateSignals        = names((&ESLKASState{}).fields())
	ESDashStatusSignals       = names((&ESDashStatus{}).fields())
	InfotainmentStatusSignals = names((&InfotainmentStatus{}).fields())
)
