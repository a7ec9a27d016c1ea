package cli

// Prompter abstracts the interactive prompts so commands can be driven from tests.
type Prompter interface {
	Select(label string, items []string, defaultValue string) (int, string, error)
	Prompt(label string) (string, error)
	// Secret reads a value without echoing it.
	Secret(label string) (string, error)
	Confirm(label string, defaultYes bool) (bool, error)
}
