// Package subaru builds the EyeSight/LKAS CAN frames sent to Subaru vehicles.
// Builders pass most signals of the vehicle's own status frames through and
// override the few that carry actuation or would raise stock alerts.
package subaru

import "subaru-lkas-can/utils"

const (
	msgESLKAS             = "ES_LKAS"
	msgESLKASState        = "ES_LKAS_State"
	msgESDistance         = "ES_Distance"
	msgESDashStatus       = "ES_DashStatus"
	msgInfotainmentStatus = "INFOTAINMENT_STATUS"
)

// LKAS_Alert_Msg codes.
const (
	lkasAlertMsgNone             = 0
	lkasAlertMsgKeepHandsOnWheel = 1
	lkasAlertMsgKeepHandsOff     = 7 // 2020+
)

// LKAS_Alert codes.
const (
	lkasAlertNone               = 0
	lkasAlertRightLaneDeparture = 11
	lkasAlertLeftLaneDeparture  = 12
	lkasAlertDisengageChime     = 27
	lkasAlertKeepHandsChime     = 28 // 2020+
	lkasAlertKeepHandsOffChime  = 30 // 2020+
)

const (
	lkasDashStateOff     = 0
	lkasDashStateEnabled = 2 // green indicator

	dashLKASStateMsgNone     = 0
	dashLKASStateMsgDisabled = 2
	dashLKASStateMsgHandsOff = 3

	infotainmentNone             = 0
	infotainmentObstacleDetected = 2
	infotainmentKeepHandsOnWheel = 3
	infotainmentKeepHandsOff     = 4
)

const counterModulo = 0x10

// Packer encodes named signal values into a frame for a bus.
type Packer interface {
	MakeCANMsg(name string, bus int, values SignalFrame) (utils.EncodedFrame, error)
}

// LKASStateInput carries the per-cycle control state shown on the dash.
type LKASStateInput struct {
	Enabled         bool
	VisualAlert     VisualAlert
	LeftLine        bool
	RightLine       bool
	LeftLaneDepart  bool
	RightLaneDepart bool
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// CreateSteeringControl requests applySteer from the lane keep actuator.
func CreateSteeringControl(p Packer, applySteer int) (utils.EncodedFrame, error) {
	return p.MakeCANMsg(msgESLKAS, 0, steeringControlValues(applySteer))
}

func steeringControlValues(applySteer int) SignalFrame {
	return SignalFrame{
		"LKAS_Output":  applySteer,
		"LKAS_Request": boolToInt(applySteer != 0),
		"SET_1":        1,
	}
}

// CreateSteeringStatus encodes an ES_LKAS_State frame made of signal defaults.
func CreateSteeringStatus(p Packer) (utils.EncodedFrame, error) {
	return p.MakeCANMsg(msgESLKASState, 0, SignalFrame{})
}

// CreateESDistance re-sends the observed ES_Distance on bus with the next
// rolling counter, optionally requesting a cruise cancel.
func CreateESDistance(p Packer, observed SignalFrame, bus int, pcmCancel bool) (utils.EncodedFrame, error) {
	obs, err := ParseESDistance(observed)
	if err != nil {
		return utils.EncodedFrame{}, err
	}
	return p.MakeCANMsg(msgESDistance, bus, esDistanceValues(obs, pcmCancel).Signals())
}

func esDistanceValues(obs ESDistance, pcmCancel bool) ESDistance {
	out := obs
	out.Counter = (obs.Counter + 1) % counterModulo
	if pcmCancel {
		out.CruiseCancel = 1
	}
	return out
}

// CreateESLKASState re-sends the observed ES_LKAS_State with stock alerts
// filtered and the lane line and enabled indicators driven by in.
func CreateESLKASState(p Packer, observed SignalFrame, in LKASStateInput) (utils.EncodedFrame, error) {
	obs, err := ParseESLKASState(observed)
	if err != nil {
		return utils.EncodedFrame{}, err
	}
	return p.MakeCANMsg(msgESLKASState, 0, lkasStateValues(obs, in).Signals())
}

func lkasStateValues(obs ESLKASState, in LKASStateInput) ESLKASState {
	out := obs

	// Each filter tests the observed values, not a previous filter's output.
	if obs.AlertMsg == lkasAlertMsgKeepHandsOnWheel {
		out.AlertMsg = lkasAlertMsgNone
	}
	if obs.Alert == lkasAlertDisengageChime {
		out.Alert = lkasAlertNone
	}
	if obs.Alert == lkasAlertKeepHandsChime && obs.AlertMsg == lkasAlertMsgKeepHandsOff {
		out.Alert = lkasAlertNone
	}
	if obs.Alert == lkasAlertKeepHandsOffChime {
		out.Alert = lkasAlertNone
	}
	if obs.AlertMsg == lkasAlertMsgKeepHandsOff {
		out.AlertMsg = lkasAlertMsgNone
	}

	switch in.VisualAlert {
	case AlertSteerRequired:
		out.AlertMsg = lkasAlertMsgKeepHandsOnWheel
	case AlertLDW:
		// Leave stock alerts such as FCW alone.
		if out.Alert != lkasAlertNone {
			break
		}
		if in.LeftLaneDepart {
			out.Alert = lkasAlertLeftLaneDeparture
		} else if in.RightLaneDepart {
			out.Alert = lkasAlertRightLaneDeparture
		}
	}

	out.Active = 1
	if in.Enabled {
		out.DashState = lkasDashStateEnabled
	} else {
		out.DashState = lkasDashStateOff
	}
	out.LeftLineVisible = boolToInt(in.LeftLine)
	out.RightLineVisible = boolToInt(in.RightLine)
	return out
}

// CreateESDashStatus re-sends the observed ES_DashStatus without the stock
// "LKAS disabled" and "keep hands on wheel OFF" messages.
func CreateESDashStatus(p Packer, observed SignalFrame) (utils.EncodedFrame, error) {
	obs, err := ParseESDashStatus(observed)
	if err != nil {
		return utils.EncodedFrame{}, err
	}
	return p.MakeCANMsg(msgESDashStatus, 0, dashStatusValues(obs).Signals())
}

func dashStatusValues(obs ESDashStatus) ESDashStatus {
	out := obs
	switch obs.LKASStateMsg {
	case dashLKASStateMsgDisabled, dashLKASStateMsgHandsOff:
		out.LKASStateMsg = dashLKASStateMsgNone
	}
	return out
}

// CreateInfotainmentStatus re-sends the observed INFOTAINMENT_STATUS with the
// stock LKAS messages filtered and alert mapped onto the infotainment display.
func CreateInfotainmentStatus(p Packer, observed SignalFrame, alert VisualAlert) (utils.EncodedFrame, error) {
	obs, err := ParseInfotainmentStatus(observed)
	if err != nil {
		return utils.EncodedFrame{}, err
	}
	return p.MakeCANMsg(msgInfotainmentStatus, 0, infotainmentValues(obs, alert).Signals())
}

func infotainmentValues(obs InfotainmentStatus, alert VisualAlert) InfotainmentStatus {
	out := obs
	switch obs.LKASState {
	case infotainmentKeepHandsOnWheel, infotainmentKeepHandsOff:
		out.LKASState = infotainmentNone
	}

	switch alert {
	case AlertSteerRequired:
		out.LKASState = infotainmentKeepHandsOnWheel
	case AlertFCW:
		out.LKASState = infotainmentObstacleDetected
	}
	return out
}
