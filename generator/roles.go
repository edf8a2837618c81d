package generator

import (
	"bytes"
	"embed"
	"fmt"
	"os"
	"text/template"

	"gopkg.in/yaml.v3"
)

//go:embed defaults/agents.yaml defaults/tasks.yaml
var defaultConfigs embed.FS

// AgentConfig is one entry of agents.yaml.
type AgentConfig struct {
	Role      string `yaml:"role"`
	Goal      string `yaml:"goal"`
	Backstory string `yaml:"backstory"`
}

// TaskConfig is one entry of tasks.yaml. Description and ExpectedOutput are
// text/template sources rendered with a TaskInput.
type TaskConfig struct {
	Description    string `yaml:"description"`
	ExpectedOutput string `yaml:"expected_output"`
	Agent          string `yaml:"agent"`
}

// RoleConfigs holds the parsed agents.yaml and tasks.yaml.
type RoleConfigs struct {
	Agents map[string]AgentConfig
	Tasks  map[string]TaskConfig
}

// LoadRoleConfigs reads the agent and task definitions. An empty path falls
// back to the definitions embedded in the binary.
func LoadRoleConfigs(agentsPath, tasksPath string) (RoleConfigs, error) {
	var rc RoleConfigs
	if err := loadYAML(agentsPath, "defaults/agents.yaml", &rc.Agents); err != nil {
		return RoleConfigs{}, fmt.Errorf("agents config: %w", err)
	}
	if err := loadYAML(tasksPath, "defaults/tasks.yaml", &rc.Tasks); err != nil {
		return RoleConfigs{}, fmt.Errorf("tasks config: %w", err)
	}
	return rc, nil
}

func loadYAML(path, fallback string, out any) error {
	var (
		data []byte
		err  error
	)
	if path != "" {
		data, err = os.ReadFile(path)
	} else {
		data, err = defaultConfigs.ReadFile(fallback)
	}
	if err != nil {
		return err
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("parse %s: %w", displayPath(path, fallback), err)
	}
	return nil
}

func displayPath(path, fallback string) string {
	if path != "" {
		return path
	}
	return "embedded " + fallback
}

func parseTemplate(name, src string) (*template.Template, error) {
	return template.New(name).Option("missingkey=error").Parse(src)
}

func render(tmpl *template.Template, in TaskInput) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, in); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Validate checks the definitions against the role registry without
// contacting a model.
func (rc RoleConfigs) Validate() error {
	_, err := NewCrew(MockLLM{}, rc)
	return err
}
