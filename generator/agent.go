package generator

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"text/template"

	"go.uber.org/zap"
)

// Agent is an LLM-backed role of the publishing house.
type Agent struct {
	Name  string
	Tools []string

	role      *template.Template
	goal      *template.Template
	backstory *template.Template
	llm       LLMClient
}

func (a *Agent) hasTool(tool string) bool {
	return slices.Contains(a.Tools, tool)
}

type task struct {
	name           string
	agent          string
	description    *template.Template
	expectedOutput *template.Template
}

// Crew owns the agents and tasks of one workflow and runs tasks on request.
type Crew struct {
	agents map[string]*Agent
	tasks  map[string]*task
	search Searcher
	logger *zap.Logger
}

// CrewOption customises NewCrew.
type CrewOption func(*Crew)

// WithSearcher enables the web search tool for roles that carry it.
func WithSearcher(s Searcher) CrewOption {
	return func(c *Crew) { c.search = s }
}

// WithLogger sets the crew's logger.
func WithLogger(l *zap.Logger) CrewOption {
	return func(c *Crew) { c.logger = l }
}

// NewCrew builds the crew from the role registry and the parsed YAML. Every
// registered task must be defined, and every referenced role must be both
// registered and described in agents.yaml.
func NewCrew(llm LLMClient, rc RoleConfigs, opts ...CrewOption) (*Crew, error) {
	if llm == nil {
		return nil, errors.New("llm client is required")
	}
	c := &Crew{
		agents: make(map[string]*Agent),
		tasks:  make(map[string]*task),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}

	for name, cfg := range rc.Agents {
		tools, ok := roleTable[name]
		if !ok {
			return nil, fmt.Errorf("agent %q is not a registered role", name)
		}
		a := &Agent{Name: name, Tools: tools, llm: llm}
		var err error
		if a.role, err = parseTemplate(name+".role", cfg.Role); err != nil {
			return nil, fmt.Errorf("agent %q role: %w", name, err)
		}
		if a.goal, err = parseTemplate(name+".goal", cfg.Goal); err != nil {
			return nil, fmt.Errorf("agent %q goal: %w", name, err)
		}
		if a.backstory, err = parseTemplate(name+".backstory", cfg.Backstory); err != nil {
			return nil, fmt.Errorf("agent %q backstory: %w", name, err)
		}
		c.agents[name] = a
	}

	for name := range rc.Tasks {
		if _, ok := taskTable[name]; !ok {
			return nil, fmt.Errorf("task %q: %w", name, ErrUnknownTask)
		}
	}
	for _, name := range Tasks() {
		cfg, ok := rc.Tasks[name]
		if !ok {
			return nil, fmt.Errorf("task %q is not defined in tasks config", name)
		}
		role := cfg.Agent
		if role == "" {
			role = taskTable[name]
		}
		if _, ok := c.agents[role]; !ok {
			return nil, fmt.Errorf("task %q: agent %q is not defined in agents config", name, role)
		}
		t := &task{name: name, agent: role}
		var err error
		if t.description, err = parseTemplate(name+".description", cfg.Description); err != nil {
			return nil, fmt.Errorf("task %q description: %w", name, err)
		}
		if t.expectedOutput, err = parseTemplate(name+".expected_output", cfg.ExpectedOutput); err != nil {
			return nil, fmt.Errorf("task %q expected_output: %w", name, err)
		}
		c.tasks[name] = t
	}
	return c, nil
}

// Run executes one task: it renders the prompt for the task's agent, calls
// the model and cleans up the answer.
func (c *Crew) Run(ctx context.Context, taskName string, in TaskInput, docs ...ContextDoc) (string, error) {
	t, ok := c.tasks[taskName]
	if !ok {
		return "", fmt.Errorf("%q: %w", taskName, ErrUnknownTask)
	}
	agent := c.agents[t.agent]

	if agent.hasTool(ToolWebSearch) && c.search != nil {
		results, err := c.search.Search(ctx, in.Topic)
		if err != nil {
			c.logger.Warn("web search failed, continuing without results",
				zap.String("task", taskName), zap.Error(err))
		} else if len(results) > 0 {
			docs = append([]ContextDoc{{Title: "Web search results", Body: FormatResults(results)}}, docs...)
		}
	}

	prompt, err := buildPrompt(agent, t, in, docs)
	if err != nil {
		return "", err
	}
	c.logger.Debug("invoking agent",
		zap.String("task", taskName), zap.String("agent", agent.Name),
		zap.Int("prompt_chars", len(prompt.System)+len(prompt.User)))

	raw, err := agent.llm.Complete(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("agent %s: %w", agent.Name, err)
	}
	return PostProcess(raw)
}
