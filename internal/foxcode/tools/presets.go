package tools

import "github.com/example/foxcode/internal/foxcode/domain"

// Preset is a named base URL offered when adding or editing a profile.
type Preset struct {
	Label string
	URL   string
}

// Presets returns the suggested base URLs for tool.
func Presets(tool domain.Tool) []Preset {
	switch tool {
	case domain.ToolClaude:
		return []Preset{
			{Label: "Official", URL: "https://code.newcli.com/claude"},
			{Label: "Super", URL: "https://code.newcli.com/claude/super"},
			{Label: "Ultra", URL: "https://code.newcli.com/claude/ultra"},
			{Label: "AWS", URL: "https://code.newcli.com/claude/aws"},
			{Label: "AWS (thinking)", URL: "https://code.newcli.com/claude/droid"},
		}
	case domain.ToolCodex:
		return []Preset{
			{Label: "Official", URL: "https://code.newcli.com/codex/v1"},
		}
	case domain.ToolGemini:
		return []Preset{
			{Label: "Official", URL: "https://code.newcli.com/gemini"},
		}
	default:
		return nil
	}
}
