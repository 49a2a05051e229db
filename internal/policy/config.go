package policy

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the values extracted from a policy's training configuration:
// position-control gains and neutral joint offsets keyed by joint name, the
// action scaling coefficient, and the standing height the policy was trained
// at.
type Config struct {
	Stiffness      map[string]float64
	Damping        map[string]float64
	NeutralOffsets map[string]float64
	ActionScale    float64
	StandingHeight float64
}

// envConfig mirrors the slice of the training environment export we read.
// The same schema is accepted as JSON (the exported env_cfg.json) or YAML
// (the raw env.yaml, provided any non-scalar python tags were stripped).
type envConfig struct {
	Scene struct {
		Robot struct {
			Actuators map[string]struct {
				JointNamesExpr []string `json:"joint_names_expr" yaml:"joint_names_expr"`
				Stiffness      float64  `json:"stiffness" yaml:"stiffness"`
				Damping        float64  `json:"damping" yaml:"damping"`
			} `json:"actuators" yaml:"actuators"`
			InitState struct {
				JointPos map[string]float64 `json:"joint_pos" yaml:"joint_pos"`
				Pos      []float64          `json:"pos" yaml:"pos"`
			} `json:"init_state" yaml:"init_state"`
		} `json:"robot" yaml:"robot"`
	} `json:"scene" yaml:"scene"`
	Actions struct {
		JointPos struct {
			Scale float64 `json:"scale" yaml:"scale"`
		} `json:"joint_pos" yaml:"joint_pos"`
	} `json:"actions" yaml:"actions"`
}

// LoadConfig reads a training configuration file (.json, .yaml or .yml) and
// resolves its name-pattern keyed gains and offsets against JointOrder. Any
// joint left unmatched by every pattern is a load-time error: a policy with
// incomplete gains must never reach the robot.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read training config: %w", err)
	}

	var env envConfig
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		err = json.Unmarshal(data, &env)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &env)
	default:
		return nil, fmt.Errorf("unsupported training config extension %q", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse training config %s: %w", path, err)
	}

	cfg := &Config{
		Stiffness:      make(map[string]float64, len(JointOrder)),
		Damping:        make(map[string]float64, len(JointOrder)),
		NeutralOffsets: make(map[string]float64, len(JointOrder)),
		ActionScale:    env.Actions.JointPos.Scale,
	}

	for group, act := range env.Scene.Robot.Actuators {
		if len(act.JointNamesExpr) == 0 {
			return nil, fmt.Errorf("actuator group %q has no joint_names_expr", group)
		}
		re, err := compileJointPattern(act.JointNamesExpr[0])
		if err != nil {
			return nil, fmt.Errorf("actuator group %q: %w", group, err)
		}
		setMatching(cfg.Stiffness, re, act.Stiffness)
		setMatching(cfg.Damping, re, act.Damping)
	}

	for expr, offset := range env.Scene.Robot.InitState.JointPos {
		re, err := compileJointPattern(expr)
		if err != nil {
			return nil, fmt.Errorf("init_state joint_pos: %w", err)
		}
		setMatching(cfg.NeutralOffsets, re, offset)
	}

	if pos := env.Scene.Robot.InitState.Pos; len(pos) == 3 {
		cfg.StandingHeight = pos[2]
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// compileJointPattern compiles a training-config joint name pattern. The
// training format matches patterns from the start of the name, so anchor
// accordingly.
func compileJointPattern(expr string) (*regexp.Regexp, error) {
	re, err := regexp.Compile("^(?:" + expr + ")")
	if err != nil {
		return nil, fmt.Errorf("bad joint name pattern %q: %w", expr, err)
	}
	return re, nil
}

// setMatching assigns value to every joint in JointOrder the pattern matches.
func setMatching(dst map[string]float64, re *regexp.Regexp, value float64) {
	for _, name := range JointOrder {
		if re.MatchString(name) {
			dst[name] = value
		}
	}
}

// Validate checks that every joint has gains and a neutral offset and that
// the scalars are sane.
func (c *Config) Validate() error {
	for _, name := range JointOrder {
		if _, ok := c.Stiffness[name]; !ok {
			return fmt.Errorf("no stiffness pattern matched joint %q", name)
		}
		if _, ok := c.Damping[name]; !ok {
			return fmt.Errorf("no damping pattern matched joint %q", name)
		}
		if _, ok := c.NeutralOffsets[name]; !ok {
			return fmt.Errorf("no neutral offset pattern matched joint %q", name)
		}
	}
	if c.ActionScale <= 0 {
		return fmt.Errorf("action scale must be positive, got %v", c.ActionScale)
	}
	return nil
}

// DetectConfigFile locates the single training configuration file in a
// policy directory.
func DetectConfigFile(dir string) (string, error) {
	return detectSingle(dir, []string{".json", ".yaml", ".yml"}, "training config")
}

// DetectPolicyFile locates the single .onnx policy file in a policy
// directory.
func DetectPolicyFile(dir string) (string, error) {
	return detectSingle(dir, []string{".onnx"}, "policy")
}

func detectSingle(dir string, exts []string, what string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("failed to list policy directory: %w", err)
	}
	var matches []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		for _, want := range exts {
			if ext == want {
				matches = append(matches, filepath.Join(dir, e.Name()))
			}
		}
	}
	if len(matches) != 1 {
		return "", fmt.Errorf("expected exactly one %s file in %s, found %d", what, dir, len(matches))
	}
	return matches[0], nil
}
