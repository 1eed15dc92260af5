package automation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/invscat/internal/config"
	"github.com/san-kum/invscat/internal/experiment"
	"github.com/san-kum/invscat/internal/storage"
)

var ErrEmptyScenario = errors.New("automation: scenario has no steps")

// Scenario is a scripted sequence of reconstruction runs.
type Scenario struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Steps       []Step `yaml:"steps"`
}

// Step starts from a preset (or the defaults) and applies a partial
// configuration on top of it.
type Step struct {
	Name   string    `yaml:"name"`
	Preset string    `yaml:"preset"`
	Config yaml.Node `yaml:"config"`
	Save   bool      `yaml:"save"`
}

// StepResult is the outcome of one step. RunID is empty unless the step
// was saved.
type StepResult struct {
	Name   string
	Config *config.Config
	Result *experiment.Result
	RunID  string
}

// LoadScenario loads a scenario from a YAML file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseScenario(data)
}

// ParseScenario decodes a scenario and resolves every step up front, so a
// bad step fails before anything runs.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, err
	}
	if len(scenario.Steps) == 0 {
		return nil, ErrEmptyScenario
	}
	for i, step := range scenario.Steps {
		if _, err := step.Resolve(); err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i+1, step.Name, err)
		}
	}
	return &scenario, nil
}

// Resolve builds the validated configuration of the step.
func (s *Step) Resolve() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if s.Preset != "" {
		cfg = config.FindPreset(s.Preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s", s.Preset)
		}
	}
	if s.Config.Kind != 0 {
		if err := s.Config.Decode(cfg); err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// RunScenario executes all steps in order. Steps marked save are written to
// st, which may be nil when no step saves.
func RunScenario(ctx context.Context, scenario *Scenario, opts experiment.Options, st *storage.Store) ([]StepResult, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	results := make([]StepResult, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		logger.Info("scenario step", "scenario", scenario.Name, "step", i+1, "of", len(scenario.Steps), "name", step.Name)

		cfg, err := step.Resolve()
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}

		exp := experiment.New(cfg, opts)
		if err := exp.Setup(ctx); err != nil {
			return results, fmt.Errorf("step %d setup: %w", i+1, err)
		}
		res, err := exp.Run(ctx)
		if err != nil {
			return results, fmt.Errorf("step %d run: %w", i+1, err)
		}

		out := StepResult{Name: step.Name, Config: cfg, Result: res}
		if step.Save {
			if st == nil {
				return results, fmt.Errorf("step %d: save requested without a store", i+1)
			}
			meta, data := res.Record(cfg)
			if out.RunID, err = st.Save(meta, data); err != nil {
				return results, fmt.Errorf("step %d save: %w", i+1, err)
			}
		}
		results = append(results, out)
	}

	return results, nil
}
