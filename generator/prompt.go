package generator

import (
	"fmt"
	"strings"
)

// Prompt is the message set sent to the LLM.
type Prompt struct {
	// Task names the workflow task the prompt was rendered for.
	Task    string
	System  string
	User    string
	History []Message
}

// Message is one prior turn of the conversation.
type Message struct {
	Role    string
	Content string
}

// buildPrompt renders the persona of agent and the instructions of t with in
// and the context documents.
func buildPrompt(agent *Agent, t *task, in TaskInput, docs []ContextDoc) (Prompt, error) {
	description, err := render(t.description, in)
	if err != nil {
		return Prompt{}, fmt.Errorf("render %s description: %w", t.name, err)
	}
	expected, err := render(t.expectedOutput, in)
	if err != nil {
		return Prompt{}, fmt.Errorf("render %s expected_output: %w", t.name, err)
	}

	role, err := render(agent.role, in)
	if err != nil {
		return Prompt{}, fmt.Errorf("render %s role: %w", agent.Name, err)
	}
	goal, err := render(agent.goal, in)
	if err != nil {
		return Prompt{}, fmt.Errorf("render %s goal: %w", agent.Name, err)
	}
	backstory, err := render(agent.backstory, in)
	if err != nil {
		return Prompt{}, fmt.Errorf("render %s backstory: %w", agent.Name, err)
	}

	var sys strings.Builder
	sys.WriteString(fmt.Sprintf("You are %s.\n", strings.TrimSpace(role)))
	if g := strings.TrimSpace(goal); g != "" {
		sys.WriteString(fmt.Sprintf("Your goal: %s\n", g))
	}
	if bs := strings.TrimSpace(backstory); bs != "" {
		sys.WriteString("\n")
		sys.WriteString(bs)
		sys.WriteString("\n")
	}
	sys.WriteString("\nAnswer with the requested content only, in Markdown, without commentary about yourself.")

	var user strings.Builder
	for _, d := range docs {
		body := strings.TrimSpace(d.Body)
		if body == "" {
			continue
		}
		user.WriteString(fmt.Sprintf("=== %s ===\n%s\n\n", d.Title, body))
	}
	user.WriteString(strings.TrimSpace(description))
	if e := strings.TrimSpace(expected); e != "" {
		user.WriteString("\n\nExpected output:\n")
		user.WriteString(e)
	}

	var history []Message
	if in.PreviousDraft != "" {
		history = append(history, Message{Role: "assistant", Content: in.PreviousDraft})
	}

	return Prompt{
		Task:    t.name,
		System:  sys.String(),
		User:    user.String(),
		History: history,
	}, nil
}
