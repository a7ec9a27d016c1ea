package tools

import (
	"github.com/example/foxcode/internal/foxcode/domain"
	"github.com/example/foxcode/internal/foxcode/fileformat"
)

type geminiHandler struct {
	writer
	env      File
	settings File
}

func (h *geminiHandler) Tool() domain.Tool { return domain.ToolGemini }

func (h *geminiHandler) Files() []File { return []File{h.env, h.settings} }

// ApplyConfig sets GOOGLE_GEMINI_BASE_URL and GEMINI_API_KEY in .env. An
// existing GEMINI_MODEL is kept. settings.json is only written when missing.
func (h *geminiHandler) ApplyConfig(url, apiKey string) error {
	env, existed, err := h.load(h.env, geminiEnvTemplate)
	if err != nil {
		return applyError(h.Tool(), err)
	}
	env["GOOGLE_GEMINI_BASE_URL"] = url
	env["GEMINI_API_KEY"] = apiKey
	if fileformat.EnvString(env, "GEMINI_MODEL") == "" {
		env["GEMINI_MODEL"] = defaultGeminiModel
	}

	if err := h.store(h.env, existed, env); err != nil {
		return applyError(h.Tool(), err)
	}
	if err := h.ensure(h.settings, geminiSettingsTemplate); err != nil {
		return applyError(h.Tool(), err)
	}
	return nil
}

func (h *geminiHandler) Inspect() (Live, error) {
	live := Live{Tool: h.Tool()}
	env, found, err := h.files.Read(h.env.Path, h.env.Format)
	if err != nil || !found {
		return live, err
	}
	live.Present = true
	live.BaseURL = fileformat.EnvString(env, "GOOGLE_GEMINI_BASE_URL")
	live.APIKey = fileformat.EnvString(env, "GEMINI_API_KEY")
	return live, nil
}
