package main

import (
	"context"
	"fmt"
	"os"

	"subaru-lkas-can/metrics"
	"subaru-lkas-can/subaru"
	"subaru-lkas-can/utils"
)

type RunnerConfig struct {
	Interface    string // empty writes frames to stdout
	MapPath      string
	ScenarioPath string
	Platform     string // overrides the scenario platform when set
}

type Runner struct {
	cfg      RunnerConfig
	log      *utils.Logger
	packer   subaru.Packer
	scen     Scenario
	writer   utils.CANWriter
	platform string

	// nextDistance is the ES_Distance snapshot carried into steps that do
	// not observe their own: the last one sent, counter included.
	nextDistance utils.SignalFrame
}

func NewRunner(ctx context.Context, cfg RunnerConfig, log *utils.Logger) (*Runner, error) {
	cmap, err := utils.LoadCANMapFile(cfg.MapPath)
	if err != nil {
		return nil, fmt.Errorf("load can map: %w", err)
	}

	scen, err := LoadScenario(cfg.ScenarioPath)
	if err != nil {
		return nil, fmt.Errorf("load scenario: %w", err)
	}
	if cfg.Platform != "" {
		if err := validPlatform(cfg.Platform); err != nil {
			return nil, err
		}
		scen.Meta.Platform = cfg.Platform
	}
	if scen.Meta.Platform == PlatformPreglobal {
		if err := subaru.CheckPreglobalMap(cmap); err != nil {
			return nil, fmt.Errorf("can map %s: %w", cfg.MapPath, err)
		}
	}

	var writer utils.CANWriter
	if cfg.Interface == "" {
		writer = utils.NewDumpWriter(os.Stdout)
	} else {
		writer, err = utils.NewSocketCANWriter(ctx, cfg.Interface)
		if err != nil {
			return nil, err
		}
	}

	return newRunner(cfg, log, cmap, scen, writer), nil
}

func newRunner(cfg RunnerConfig, log *utils.Logger, p subaru.Packer, scen Scenario, w utils.CANWriter) *Runner {
	return &Runner{
		cfg:      cfg,
		log:      log,
		packer:   p,
		scen:     scen,
		writer:   w,
		platform: scen.Meta.Platform,
	}
}

func (r *Runner) Close() {
	if r.writer != nil {
		_ = r.writer.Close()
	}
}

func (r *Runner) Run(ctx context.Context) error {
	r.log.Info("Starting: scenario=%s platform=%s steps=%d iface=%q",
		r.scen.Meta.Name, r.platform, len(r.scen.Steps), r.cfg.Interface)

	var sent uint64
	for i := range r.scen.Steps {
		if err := ctx.Err(); err != nil {
			r.log.Warn("Context canceled; stopping at step %d", i)
			r.log.Info("Completed. frames_sent=%d", sent)
			return err
		}

		st := r.evalStep(i)
		if st.Comment != "" {
			r.log.Debug("Step %d: %s", i, st.Comment)
		}
		for _, f := range r.BuildStep(i, st) {
			if err := r.writer.WriteFrame(ctx, f); err != nil {
				metrics.IncTxError()
				r.log.Critical("Transmit failed at step %d id=0x%X: %v", i, f.ID, err)
				return err
			}
			metrics.IncTx()
			sent++
			if r.log.Enabled(utils.TRACE) {
				r.log.Trace("TX step=%d bus=%d id=0x%X len=%d data=% X", i, f.Bus, f.ID, f.Length, f.Payload())
			}
		}
	}

	r.log.Info("Completed. frames_sent=%d", sent)
	return nil
}

// evalStep is EvalStep with the rolling counter kept alive: a step without
// its own ES_Distance snapshot continues from the previously sent one.
func (r *Runner) evalStep(i int) Step {
	st := EvalStep(&r.scen, i)
	if r.scen.Steps[i].Observed.ESDistance == nil && r.nextDistance != nil {
		st.Observed.ESDistance = r.nextDistance
	}
	return st
}

func advanceCounter(snap utils.SignalFrame) utils.SignalFrame {
	next := make(utils.SignalFrame, len(snap))
	for k, v := range snap {
		next[k] = v
	}
	next["COUNTER"] = (snap["COUNTER"] + 1) % 16
	return next
}

type build struct {
	msg string
	fn  func() (utils.EncodedFrame, error)
}

// BuildStep builds every frame of the configured platform for one step. A
// message that fails to build is logged and skipped; the rest are returned.
func (r *Runner) BuildStep(i int, st Step) []utils.EncodedFrame {
	var builds []build
	if r.platform == PlatformPreglobal {
		builds = r.preglobalBuilds(st)
	} else {
		builds = r.globalBuilds(st)
	}

	frames := make([]utils.EncodedFrame, 0, len(builds))
	for _, b := range builds {
		f, err := b.fn()
		if err != nil {
			metrics.IncBuildError(b.msg)
			r.log.Error("Build %s failed at step %d: %v", b.msg, i, err)
			continue
		}
		metrics.IncBuilt(b.msg)
		frames = append(frames, f)
	}
	return frames
}

func (r *Runner) globalBuilds(st Step) []build {
	p := r.packer
	obs := st.Observed
	input, inputErr := st.LKASInput()

	builds := []build{{"ES_LKAS", func() (utils.EncodedFrame, error) {
		return subaru.CreateSteeringControl(p, st.ApplySteer)
	}}}
	if obs.ESDistance != nil {
		builds = append(builds, build{"ES_Distance", func() (utils.EncodedFrame, error) {
			f, err := subaru.CreateESDistance(p, obs.ESDistance, st.DistanceBus, st.PCMCancel)
			if err == nil {
				r.nextDistance = advanceCounter(obs.ESDistance)
			}
			return f, err
		}})
	}
	if obs.ESLKASState != nil {
		builds = append(builds, build{"ES_LKAS_State", func() (utils.EncodedFrame, error) {
			if inputErr != nil {
				return utils.EncodedFrame{}, inputErr
			}
			return subaru.CreateESLKASState(p, obs.ESLKASState, input)
		}})
	}
	if obs.ESDashStatus != nil {
		builds = append(builds, build{"ES_DashStatus", func() (utils.EncodedFrame, error) {
			return subaru.CreateESDashStatus(p, obs.ESDashStatus)
		}})
	}
	if obs.InfotainmentStatus != nil {
		builds = append(builds, build{"INFOTAINMENT_STATUS", func() (utils.EncodedFrame, error) {
			if inputErr != nil {
				return utils.EncodedFrame{}, inputErr
			}
			return subaru.CreateInfotainmentStatus(p, obs.InfotainmentStatus, input.VisualAlert)
		}})
	}
	return builds
}

func (r *Runner) preglobalBuilds(st Step) []build {
	p := r.packer
	builds := []build{{"ES_LKAS", func() (utils.EncodedFrame, error) {
		return subaru.CreatePreglobalSteeringControl(p, st.ApplySteer)
	}}}
	if st.Observed.ESDistance != nil {
		builds = append(builds, build{"ES_Distance", func() (utils.EncodedFrame, error) {
			return subaru.CreatePreglobalESDistance(p, st.CruiseButton, st.Observed.ESDistance)
		}})
	}
	return builds
}
