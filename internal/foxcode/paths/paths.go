package paths

import (
	"path/filepath"

	"github.com/example/foxcode/internal/foxcode/domain"
)

// Directory and file name constants for the tool configs foxcode manages.
const (
	ClaudeDirName = ".claude"
	CodexDirName  = ".codex"
	GeminiDirName = ".gemini"

	ClaudeSettingsFileName = "settings.json"
	ClaudeConfigFileName   = "config.json"
	CodexConfigFileName    = "config.toml"
	CodexAuthFileName      = "auth.json"
	GeminiEnvFileName      = ".env"
	GeminiSettingsFileName = "settings.json"

	FoxcodeDirName = ".foxcode"
	BackupDirName  = "backups"
	StoreFileName  = "config.json"
)

// PathBuilder provides methods to construct foxcode paths relative to a home directory.
type PathBuilder struct {
	homeDir   string
	configDir string
}

// New creates a new PathBuilder. configDir holds the profile store.
func New(homeDir, configDir string) *PathBuilder {
	return &PathBuilder{homeDir: homeDir, configDir: configDir}
}

// HomeDir returns the home directory tool configs live under.
func (p *PathBuilder) HomeDir() string {
	return p.homeDir
}

// ConfigDir returns the directory holding the profile store.
func (p *PathBuilder) ConfigDir() string {
	return p.configDir
}

// StorePath returns the profile store file.
func (p *PathBuilder) StorePath() string {
	return filepath.Join(p.configDir, StoreFileName)
}

// BackupDir returns the directory where backups are stored.
func (p *PathBuilder) BackupDir() string {
	return filepath.Join(p.homeDir, FoxcodeDirName, BackupDirName)
}

// ToolDir returns the configuration directory of the given tool.
func (p *PathBuilder) ToolDir(tool domain.Tool) string {
	switch tool {
	case domain.ToolClaude:
		return filepath.Join(p.homeDir, ClaudeDirName)
	case domain.ToolCodex:
		return filepath.Join(p.homeDir, CodexDirName)
	case domain.ToolGemini:
		return filepath.Join(p.homeDir, GeminiDirName)
	default:
		return ""
	}
}

// ClaudeSettingsPath returns ~/.claude/settings.json.
func (p *PathBuilder) ClaudeSettingsPath() string {
	return filepath.Join(p.ToolDir(domain.ToolClaude), ClaudeSettingsFileName)
}

// ClaudeConfigPath returns ~/.claude/config.json.
func (p *PathBuilder) ClaudeConfigPath() string {
	return filepath.Join(p.ToolDir(domain.ToolClaude), ClaudeConfigFileName)
}

// CodexConfigPath returns ~/.codex/config.toml.
func (p *PathBuilder) CodexConfigPath() string {
	return filepath.Join(p.ToolDir(domain.ToolCodex), CodexConfigFileName)
}

// CodexAuthPath returns ~/.codex/auth.json.
func (p *PathBuilder) CodexAuthPath() string {
	return filepath.Join(p.ToolDir(domain.ToolCodex), CodexAuthFileName)
}

// GeminiEnvPath returns ~/.gemini/.env.
func (p *PathBuilder) GeminiEnvPath() string {
	return filepath.Join(p.ToolDir(domain.ToolGemini), GeminiEnvFileName)
}

// GeminiSettingsPath returns ~/.gemini/settings.json.
func (p *PathBuilder) GeminiSettingsPath() string {
	return filepath.Join(p.ToolDir(domain.ToolGemini), GeminiSettingsFileName)
}

// RestoreTarget maps a backup's tool directory and file name back to the original location.
func (p *PathBuilder) RestoreTarget(toolDir, fileName string) string {
	return filepath.Join(p.homeDir, toolDir, fileName)
}
