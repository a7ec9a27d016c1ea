package domain

import (
	"fmt"
	"strings"
)

// Tool identifies one of the supported AI command-line tools.
type Tool string

const (
	ToolClaude Tool = "claude"
	ToolCodex  Tool = "codex"
	ToolGemini Tool = "gemini"
)

// Tools lists the supported tools in display order.
func Tools() []Tool {
	return []Tool{ToolClaude, ToolCodex, ToolGemini}
}

// ParseTool converts user input into a Tool.
func ParseTool(s string) (Tool, error) {
	switch t := Tool(strings.ToLower(strings.TrimSpace(s))); t {
	case ToolClaude, ToolCodex, ToolGemini:
		return t, nil
	default:
		return "", fmt.Errorf("%w: %q (expected claude, codex or gemini)", ErrUnknownTool, s)
	}
}

// DisplayName returns the product name shown to users.
func (t Tool) DisplayName() string {
	switch t {
	case ToolClaude:
		return "Claude Code"
	case ToolCodex:
		return "Codex"
	case ToolGemini:
		return "Gemini CLI"
	default:
		return string(t)
	}
}

func (t Tool) String() string {
	return string(t)
}
