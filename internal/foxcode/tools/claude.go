package tools

import (
	"github.com/tidwall/gjson"

	"github.com/example/foxcode/internal/foxcode/domain"
	"github.com/example/foxcode/internal/foxcode/fileformat"
)

type claudeHandler struct {
	writer
	settings File
	config   File
}

func (h *claudeHandler) Tool() domain.Tool { return domain.ToolClaude }

func (h *claudeHandler) Files() []File { return []File{h.settings, h.config} }

// ApplyConfig sets env.ANTHROPIC_BASE_URL, env.ANTHROPIC_AUTH_TOKEN and
// env.CLAUDE_CODE_DISABLE_NONESSENTIAL_TRAFFIC in settings.json and makes sure
// config.json exists.
func (h *claudeHandler) ApplyConfig(url, apiKey string) error {
	settings, existed, err := h.load(h.settings, claudeSettingsTemplate)
	if err != nil {
		return applyError(h.Tool(), err)
	}

	env, ok, err := fileformat.Object(settings, "env")
	if err != nil {
		return applyError(h.Tool(), &domain.FileError{Path: h.settings.Path, Op: "merge", Err: err})
	}
	if !ok {
		env = map[string]any{}
		settings["env"] = env
	}
	env["ANTHROPIC_BASE_URL"] = url
	env["ANTHROPIC_AUTH_TOKEN"] = apiKey
	env["CLAUDE_CODE_DISABLE_NONESSENTIAL_TRAFFIC"] = 1

	if err := h.store(h.settings, existed, settings); err != nil {
		return applyError(h.Tool(), err)
	}
	if err := h.ensure(h.config, claudeConfigTemplate); err != nil {
		return applyError(h.Tool(), err)
	}
	return nil
}

func (h *claudeHandler) Inspect() (Live, error) {
	live := Live{Tool: h.Tool()}
	data, found, err := h.files.ReadRaw(h.settings.Path)
	if err != nil || !found {
		return live, err
	}
	live.Present = true
	if !gjson.ValidBytes(data) {
		return live, &domain.FileError{Path: h.settings.Path, Op: "parse", Err: domain.ErrUnexpectedShape}
	}
	env := gjson.GetBytes(data, "env")
	live.BaseURL = env.Get("ANTHROPIC_BASE_URL").String()
	live.APIKey = env.Get("ANTHROPIC_AUTH_TOKEN").String()
	return live, nil
}
