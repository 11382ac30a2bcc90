package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"subaru-lkas-can/subaru"
	"subaru-lkas-can/utils"
)

const (
	PlatformGlobal    = "global"
	PlatformPreglobal = "preglobal"
)

// Scenario is a sequence of control cycles to turn into frames.
type Scenario struct {
	Meta     ScenarioMeta `yaml:"meta"`
	Defaults StepDefaults `yaml:"defaults"`
	Steps    []Step       `yaml:"steps"`
}

// StepDefaults are stock snapshots shared by steps that do not observe their
// own. Commanded values have no defaults: every step states its own.
type StepDefaults struct {
	Observed Observed `yaml:"observed"`
}

type ScenarioMeta struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Platform    string `yaml:"platform"` // "global" (default) or "preglobal"
}

// Step holds the control stack output and latest observed stock frames for one cycle.
type Step struct {
	Comment         string `yaml:"comment,omitempty"`
	ApplySteer      int    `yaml:"apply_steer"`
	Enabled         bool   `yaml:"enabled"`
	VisualAlert     string `yaml:"visual_alert,omitempty"`
	LeftLine        bool   `yaml:"left_line"`
	RightLine       bool   `yaml:"right_line"`
	LeftLaneDepart  bool   `yaml:"left_lane_depart"`
	RightLaneDepart bool   `yaml:"right_lane_depart"`
	PCMCancel       bool   `yaml:"pcm_cancel"`
	CruiseButton    int    `yaml:"cruise_button"`
	DistanceBus     int    `yaml:"es_distance_bus"`

	Observed Observed `yaml:"observed"`
}

// Observed are stock frame snapshots. A nil snapshot means the frame has not
// been seen and its pass-through message is not built.
type Observed struct {
	ESDistance         utils.SignalFrame `yaml:"es_distance,omitempty"`
	ESLKASState        utils.SignalFrame `yaml:"es_lkas_state,omitempty"`
	ESDashStatus       utils.SignalFrame `yaml:"es_dashstatus,omitempty"`
	InfotainmentStatus utils.SignalFrame `yaml:"infotainment_status,omitempty"`
}

func (o Observed) withDefaults(d Observed) Observed {
	if o.ESDistance == nil {
		o.ESDistance = d.ESDistance
	}
	if o.ESLKASState == nil {
		o.ESLKASState = d.ESLKASState
	}
	if o.ESDashStatus == nil {
		o.ESDashStatus = d.ESDashStatus
	}
	if o.InfotainmentStatus == nil {
		o.InfotainmentStatus = d.InfotainmentStatus
	}
	return o
}

// LKASInput converts the step into the dash state builder input.
func (s Step) LKASInput() (subaru.LKASStateInput, error) {
	alert, err := subaru.ParseVisualAlert(s.VisualAlert)
	if err != nil {
		return subaru.LKASStateInput{}, err
	}
	return subaru.LKASStateInput{
		Enabled:         s.Enabled,
		VisualAlert:     alert,
		LeftLine:        s.LeftLine,
		RightLine:       s.RightLine,
		LeftLaneDepart:  s.LeftLaneDepart,
		RightLaneDepart: s.RightLaneDepart,
	}, nil
}

func LoadScenario(path string) (Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Scenario{}, fmt.Errorf("read file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario decodes YAML (or JSON) scenario source and validates it.
// Unknown keys are rejected.
func ParseScenario(data []byte) (Scenario, error) {
	var scen Scenario
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&scen); err != nil && !errors.Is(err, io.EOF) {
		return Scenario{}, fmt.Errorf("unmarshal: %w", err)
	}

	if scen.Meta.Platform == "" {
		scen.Meta.Platform = PlatformGlobal
	}
	if err := validPlatform(scen.Meta.Platform); err != nil {
		return Scenario{}, err
	}
	if len(scen.Steps) == 0 {
		return Scenario{}, fmt.Errorf("scenario has no steps")
	}
	for i, st := range scen.Steps {
		if _, err := st.LKASInput(); err != nil {
			return Scenario{}, fmt.Errorf("step %d: %w", i, err)
		}
		if st.DistanceBus < 0 {
			return Scenario{}, fmt.Errorf("step %d: invalid es_distance_bus %d", i, st.DistanceBus)
		}
	}

	return scen, nil
}

// EvalStep returns step i with observed snapshots filled from the defaults.
func EvalStep(scen *Scenario, i int) Step {
	st := scen.Steps[i]
	st.Observed = st.Observed.withDefaults(scen.Defaults.Observed)
	return st
}

func validPlatform(p string) error {
	switch p {
	case PlatformGlobal, PlatformPreglobal:
		return nil
	default:
		return fmt.Errorf("unknown platform %q (want %s or %s)", p, PlatformGlobal, PlatformPreglobal)
	}
}
