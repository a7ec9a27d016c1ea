package tools

import "github.com/example/foxcode/internal/foxcode/fileformat"

// Default documents written when a tool's config file is absent.
// Each call returns a fresh document that callers may mutate.

const (
	providerKey        = "fox"
	defaultGeminiModel = "gemini-3-pro-preview"
)

func claudeSettingsTemplate() fileformat.Document {
	return fileformat.Document{
		"env": map[string]any{
			"ANTHROPIC_AUTH_TOKEN":                     "",
			"ANTHROPIC_BASE_URL":                       "",
			"CLAUDE_CODE_DISABLE_NONESSENTIAL_TRAFFIC": 1,
		},
		"permissions": map[string]any{
			"allow": []any{},
			"deny":  []any{},
		},
	}
}

func claudeConfigTemplate() fileformat.Document {
	return fileformat.Document{"primaryApiKey": providerKey}
}

func codexProviderTemplate() map[string]any {
	return map[string]any{
		"name":                 providerKey,
		"base_url":             "",
		"wire_api":             "responses",
		"requires_openai_auth": true,
	}
}

func codexConfigTemplate() fileformat.Document {
	return fileformat.Document{
		"model_provider":           providerKey,
		"model":                    "gpt-5",
		"model_reasoning_effort":   "high",
		"disable_response_storage": true,
		"model_providers": map[string]any{
			providerKey: codexProviderTemplate(),
		},
	}
}

func codexAuthTemplate() fileformat.Document {
	return fileformat.Document{"OPENAI_API_KEY": ""}
}

func geminiEnvTemplate() fileformat.Document {
	return fileformat.Document{
		"GOOGLE_GEMINI_BASE_URL": "",
		"GEMINI_API_KEY":         "",
		"GEMINI_MODEL":           defaultGeminiModel,
	}
}

func geminiSettingsTemplate() fileformat.Document {
	return fileformat.Document{
		"ide": map[string]any{"enabled": true},
		"security": map[string]any{
			"auth": map[string]any{"selectedType": "gemini-api-key"},
		},
	}
}
