package tools

import (
	"github.com/tidwall/gjson"

	"github.com/example/foxcode/internal/foxcode/domain"
	"github.com/example/foxcode/internal/foxcode/fileformat"
)

type codexHandler struct {
	writer
	config File
	auth   File
}

func (h *codexHandler) Tool() domain.Tool { return domain.ToolCodex }

func (h *codexHandler) Files() []File { return []File{h.config, h.auth} }

// ApplyConfig points model_providers.fox.base_url at url in config.toml and
// replaces auth.json with the key.
func (h *codexHandler) ApplyConfig(url, apiKey string) error {
	config, existed, err := h.load(h.config, codexConfigTemplate)
	if err != nil {
		return applyError(h.Tool(), err)
	}

	provider, err := h.provider(config)
	if err != nil {
		return applyError(h.Tool(), err)
	}
	provider["base_url"] = url

	if err := h.store(h.config, existed, config); err != nil {
		return applyError(h.Tool(), err)
	}

	authExists, err := h.files.Exists(h.auth.Path)
	if err != nil {
		return applyError(h.Tool(), err)
	}
	auth := codexAuthTemplate()
	auth["OPENAI_API_KEY"] = apiKey
	if err := h.store(h.auth, authExists, auth); err != nil {
		return applyError(h.Tool(), err)
	}
	return nil
}

// provider returns config's model_providers.fox table, creating the missing levels.
func (h *codexHandler) provider(config fileformat.Document) (map[string]any, error) {
	providers, ok, err := fileformat.Object(config, "model_providers")
	if err != nil {
		return nil, &domain.FileError{Path: h.config.Path, Op: "merge", Err: err}
	}
	if !ok {
		providers = map[string]any{}
		config["model_providers"] = providers
	}
	fox, ok, err := fileformat.Object(providers, providerKey)
	if err != nil {
		return nil, &domain.FileError{Path: h.config.Path, Op: "merge", Err: err}
	}
	if !ok {
		fox = codexProviderTemplate()
		providers[providerKey] = fox
	}
	return fox, nil
}

func (h *codexHandler) Inspect() (Live, error) {
	live := Live{Tool: h.Tool()}
	config, found, err := h.files.Read(h.config.Path, h.config.Format)
	if err != nil || !found {
		return live, err
	}
	live.Present = true
	if providers, ok, _ := fileformat.Object(config, "model_providers"); ok {
		if fox, ok, _ := fileformat.Object(providers, providerKey); ok {
			live.BaseURL = stringValue(fox, "base_url")
		}
	}

	auth, found, err := h.files.ReadRaw(h.auth.Path)
	if err != nil || !found {
		return live, err
	}
	live.APIKey = gjson.GetBytes(auth, "OPENAI_API_KEY").String()
	return live, nil
}
