package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/example/foxcode/internal/foxcode"
	"github.com/example/foxcode/internal/foxcode/domain"
	"github.com/example/foxcode/internal/foxcode/profile"
	"github.com/example/foxcode/internal/foxcode/tools"
	"github.com/example/foxcode/internal/foxcode/validator"
)

var errNoProfiles = errors.New("no profiles yet, run 'foxcode add' to create one")

const (
	customURLLabel = "Custom URL"
	keepURLPrefix  = "Keep current: "
)

// NewRootCommand constructs the root Cobra command for foxcode.
func NewRootCommand(mgr *foxcode.Manager, prompter Prompter, stdout, stderr io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "foxcode",
		Short:         "Switch API profiles for Claude Code, Codex and Gemini CLI",
		Long:          "foxcode stores named URL and API key profiles and writes them into the config files of Claude Code, Codex and Gemini CLI.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	cmd.AddCommand(newAddCommand(mgr, prompter, stdout))
	cmd.AddCommand(newListCommand(mgr, stdout))
	cmd.AddCommand(newUseCommand(mgr, prompter, stdout))
	cmd.AddCommand(newEditCommand(mgr, prompter, stdout))
	cmd.AddCommand(newRemoveCommand(mgr, prompter, stdout))
	cmd.AddCommand(newCurrentCommand(mgr, stdout))
	cmd.AddCommand(newStatusCommand(mgr, stdout))
	cmd.AddCommand(newBackupCommand(mgr, prompter, stdout))

	return cmd
}

func newAddCommand(mgr *foxcode.Manager, prompter Prompter, stdout io.Writer) *cobra.Command {
	var toolFlag, nameFlag, urlFlag, keyFlag string
	var apply, noApply bool

	cmd := &cobra.Command{
		Use:     "add",
		Aliases: []string{"i"},
		Short:   "Add a new profile",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tool, err := resolveTool(prompter, toolFlag)
			if err != nil {
				return err
			}

			name, err := resolveNewName(cmd, mgr, prompter, nameFlag)
			if err != nil {
				return err
			}

			url := urlFlag
			if url == "" {
				if url, err = selectURL(cmd, prompter, tool, ""); err != nil {
					return err
				}
			}

			key := keyFlag
			if key == "" {
				if key, err = promptAPIKey(cmd, prompter); err != nil {
					return err
				}
			}

			p, err := mgr.CreateProfile(foxcode.ProfileInput{Name: name, Tool: tool, URL: url, APIKey: key})
			if err != nil {
				return err
			}
			printSuccess(stdout, "Saved profile %s for %s", bold(p.Name), p.Tool.DisplayName())

			applyNow, err := decideApply(prompter, apply, noApply)
			if err != nil {
				return err
			}
			if !applyNow {
				printInfo(stdout, "Run 'foxcode use %s' to switch to it later.", p.Name)
				return nil
			}
			if _, err := mgr.UseProfile(p.Name); err != nil {
				return err
			}
			printSuccess(stdout, "%s now uses profile %s", p.Tool.DisplayName(), bold(p.Name))
			return nil
		},
	}

	cmd.Flags().StringVar(&toolFlag, "tool", "", "Tool the profile is for (claude, codex, gemini)")
	cmd.Flags().StringVar(&nameFlag, "name", "", "Profile name")
	cmd.Flags().StringVar(&urlFlag, "url", "", "API base URL")
	cmd.Flags().StringVar(&keyFlag, "key", "", "API key")
	cmd.Flags().BoolVar(&apply, "apply", false, "Apply the profile right away")
	cmd.Flags().BoolVar(&noApply, "no-apply", false, "Only save the profile")
	cmd.MarkFlagsMutuallyExclusive("apply", "no-apply")

	return cmd
}

func newListCommand(mgr *foxcode.Manager, stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List saved profiles",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := mgr.ListEntries()
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintln(stdout, "No profiles saved. Run 'foxcode add' to create one.")
				return nil
			}

			tw := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, " \tNAME\tTOOL\tURL\tAPI KEY\t")
			for _, entry := range entries {
				qualifier := ""
				if len(entry.Qualifiers) > 0 {
					qualifier = "(" + strings.Join(entry.Qualifiers, ", ") + ")"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
					entry.Prefix, entry.Name, entry.Tool.DisplayName(), entry.URL, entry.MaskedKey, qualifier)
			}
			return tw.Flush()
		},
	}
}

func newUseCommand(mgr *foxcode.Manager, prompter Prompter, stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:     "use [name]",
		Aliases: []string{"sw"},
		Short:   "Apply a profile to its tool's config files",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) > 0 {
				name = args[0]
			} else {
				selected, err := selectProfile(mgr, prompter, "Select profile to activate")
				if err != nil {
					return err
				}
				name = selected
			}

			p, err := mgr.UseProfile(name)
			if err != nil {
				return err
			}
			printSuccess(stdout, "%s now uses profile %s (%s)", p.Tool.DisplayName(), bold(p.Name), p.URL)
			return nil
		},
	}
}

func newEditCommand(mgr *foxcode.Manager, prompter Prompter, stdout io.Writer) *cobra.Command {
	var urlFlag, keyFlag string
	var apply, noApply bool

	cmd := &cobra.Command{
		Use:   "edit [name]",
		Short: "Change the URL or API key of a profile",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) > 0 {
				name = args[0]
			} else {
				selected, err := selectProfile(mgr, prompter, "Select profile to edit")
				if err != nil {
					return err
				}
				name = selected
			}

			existing, err := mgr.Profile(name)
			if err != nil {
				return err
			}

			url, key := urlFlag, keyFlag
			if url == "" && key == "" {
				fmt.Fprintf(stdout, "Editing %s (%s)\n", bold(existing.Name), existing.Tool.DisplayName())
				printInfo(stdout, "URL:     %s", existing.URL)
				printInfo(stdout, "API key: %s", validator.MaskAPIKey(existing.APIKey))

				fields := []string{"URL", "API key", "Both"}
				_, field, err := prompter.Select("Field to change", fields, fields[0])
				if err != nil {
					return err
				}
				if field == "URL" || field == "Both" {
					if url, err = selectURL(cmd, prompter, existing.Tool, existing.URL); err != nil {
						return err
					}
				}
				if field == "API key" || field == "Both" {
					if key, err = promptAPIKey(cmd, prompter); err != nil {
						return err
					}
				}
			}

			updated, changed, err := mgr.UpdateProfile(existing.Name, url, key)
			if err != nil {
				return err
			}
			if !changed {
				fmt.Fprintln(stdout, "No changes.")
				return nil
			}
			printSuccess(stdout, "Updated profile %s", bold(updated.Name))
			if updated.URL != existing.URL {
				printInfo(stdout, "URL:     %s -> %s", faint(existing.URL), updated.URL)
			}
			if updated.APIKey != existing.APIKey {
				printInfo(stdout, "API key: updated")
			}

			applyNow, err := decideApply(prompter, apply, noApply)
			if err != nil {
				return err
			}
			if !applyNow {
				return nil
			}
			if _, err := mgr.UseProfile(updated.Name); err != nil {
				return err
			}
			printSuccess(stdout, "%s now uses profile %s", updated.Tool.DisplayName(), bold(updated.Name))
			return nil
		},
	}

	cmd.Flags().StringVar(&urlFlag, "url", "", "New API base URL")
	cmd.Flags().StringVar(&keyFlag, "key", "", "New API key")
	cmd.Flags().BoolVar(&apply, "apply", false, "Apply the profile after saving")
	cmd.Flags().BoolVar(&noApply, "no-apply", false, "Only save the changes")
	cmd.MarkFlagsMutuallyExclusive("apply", "no-apply")

	return cmd
}

func newRemoveCommand(mgr *foxcode.Manager, prompter Prompter, stdout io.Writer) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:     "remove [name]",
		Aliases: []string{"rm"},
		Short:   "Delete a profile",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) > 0 {
				name = args[0]
			} else {
				selected, err := selectProfile(mgr, prompter, "Select profile to remove")
				if err != nil {
					return err
				}
				name = selected
			}

			p, err := mgr.Profile(name)
			if err != nil {
				return err
			}
			if !yes {
				confirm, err := prompter.Confirm(fmt.Sprintf("Remove profile %s (%s)? (y/N)", p.Name, p.Tool.DisplayName()), false)
				if err != nil {
					return err
				}
				if !confirm {
					fmt.Fprintln(stdout, "Aborted.")
					return nil
				}
			}

			removed, wasCurrent, err := mgr.RemoveProfile(p.Name)
			if err != nil {
				return err
			}
			printSuccess(stdout, "Removed profile %s", bold(removed.Name))
			if wasCurrent {
				printWarn(stdout, "%s has no current profile now; its config files were left as they are.", removed.Tool.DisplayName())
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not prompt for confirmation")
	return cmd
}

func newCurrentCommand(mgr *foxcode.Manager, stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "current",
		Short: "Show the current profile of each tool",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := mgr.Current()
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
			for _, entry := range entries {
				switch {
				case entry.Name == "":
					fmt.Fprintf(tw, "%s\t%s\t\t\n", entry.Tool.DisplayName(), faint("(none)"))
				case entry.Profile == nil:
					fmt.Fprintf(tw, "%s\t%s\t%s\t\n", entry.Tool.DisplayName(), entry.Name, yellow("(missing!)"))
				default:
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", entry.Tool.DisplayName(), entry.Name, entry.Profile.URL, validator.MaskAPIKey(entry.Profile.APIKey))
				}
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(stdout, "\nProfiles are stored in %s\n", mgr.StorePath())
			return nil
		},
	}
}

func newStatusCommand(mgr *foxcode.Manager, stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:     "status",
		Aliases: []string{"st"},
		Short:   "Show an overview of every tool",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			statuses, err := mgr.Status()
			if err != nil {
				return err
			}

			total, active := 0, 0
			for _, s := range statuses {
				total += s.ProfileCount
				if s.Profile != nil {
					active++
					fmt.Fprintf(stdout, "%s %s  %s\n", successMark, bold(s.Tool.DisplayName()), green("configured"))
					printInfo(stdout, "Profile:  %s", s.Profile.Name)
					printInfo(stdout, "URL:      %s", s.Profile.URL)
				} else {
					fmt.Fprintf(stdout, "%s %s  %s\n", faintMark, bold(s.Tool.DisplayName()), faint("not configured"))
				}
				printInfo(stdout, "Config:   %s", s.ToolDir)
				printInfo(stdout, "Profiles: %d", s.ProfileCount)
				if line := syncLine(s); line != "" {
					printInfo(stdout, "Files:    %s", line)
				}
				fmt.Fprintln(stdout)
			}

			fmt.Fprintf(stdout, "%d profile(s), %d tool(s) active\n", total, active)
			if total == 0 {
				fmt.Fprintln(stdout, "Run 'foxcode add' to create a profile.")
			}
			return nil
		},
	}
}

func syncLine(s foxcode.ToolStatus) string {
	switch {
	case s.InspectErr != nil:
		return yellow("unreadable: " + s.InspectErr.Error())
	case s.Profile == nil:
		return ""
	case !s.Live.Present:
		return yellow("missing")
	case s.InSync():
		return green("in sync")
	default:
		return yellow("changed since the profile was applied")
	}
}

func resolveTool(prompter Prompter, flagValue string) (domain.Tool, error) {
	if flagValue != "" {
		return domain.ParseTool(flagValue)
	}
	all := domain.Tools()
	items := make([]string, len(all))
	for i, tool := range all {
		items[i] = tool.DisplayName()
	}
	idx, _, err := prompter.Select("Select tool", items, items[0])
	if err != nil {
		return "", err
	}
	if idx < 0 || idx >= len(all) {
		return "", fmt.Errorf("invalid selection %d", idx)
	}
	return all[idx], nil
}

// resolveNewName validates a name given as a flag, or keeps prompting until
// the user enters a valid name that is not taken.
func resolveNewName(cmd *cobra.Command, mgr *foxcode.Manager, prompter Prompter, flagValue string) (string, error) {
	if flagValue != "" {
		return mgr.CheckNewName(flagValue)
	}
	for {
		value, err := prompter.Prompt("Profile name")
		if err != nil {
			return "", err
		}
		name, err := mgr.CheckNewName(value)
		if err != nil {
			if domain.IsValidation(err) || errors.Is(err, domain.ErrProfileExists) {
				fmt.Fprintf(cmd.ErrOrStderr(), "Error: %s\n", err.Error())
				continue
			}
			return "", err
		}
		return name, nil
	}
}

// selectURL offers the tool's presets plus a custom entry. When current is set
// a "keep" entry is listed first and choosing it returns "".
func selectURL(cmd *cobra.Command, prompter Prompter, tool domain.Tool, current string) (string, error) {
	values := map[string]string{}
	var items []string
	defaultItem := ""
	if current != "" {
		defaultItem = keepURLPrefix + current
		items = append(items, defaultItem)
		values[defaultItem] = ""
	}
	for _, preset := range tools.Presets(tool) {
		item := fmt.Sprintf("%s (%s)", preset.Label, preset.URL)
		items = append(items, item)
		values[item] = preset.URL
	}
	items = append(items, customURLLabel)

	_, choice, err := prompter.Select("Select API URL", reorderWithDefault(items, defaultItem), defaultItem)
	if err != nil {
		return "", err
	}
	if choice != customURLLabel {
		url, ok := values[choice]
		if !ok {
			return "", fmt.Errorf("invalid selection %q", choice)
		}
		return url, nil
	}

	for {
		value, err := prompter.Prompt("API URL")
		if err != nil {
			return "", err
		}
		url := validator.NormalizeURL(strings.TrimSpace(value))
		if err := validator.ValidateURL(url); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error: %s\n", err.Error())
			continue
		}
		return url, nil
	}
}

func promptAPIKey(cmd *cobra.Command, prompter Prompter) (string, error) {
	for {
		value, err := prompter.Secret("API key")
		if err != nil {
			return "", err
		}
		key := strings.TrimSpace(value)
		if err := validator.ValidateAPIKey(key); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error: %s\n", err.Error())
			continue
		}
		return key, nil
	}
}

func decideApply(prompter Prompter, apply, noApply bool) (bool, error) {
	switch {
	case apply:
		return true, nil
	case noApply:
		return false, nil
	default:
		return prompter.Confirm("Apply this profile now?", true)
	}
}

func selectProfile(mgr *foxcode.Manager, prompter Prompter, label string) (string, error) {
	profiles, err := mgr.Profiles()
	if err != nil {
		return "", err
	}
	if len(profiles) == 0 {
		return "", errNoProfiles
	}
	items := make([]string, len(profiles))
	for i, p := range profiles {
		items[i] = profileLabel(p)
	}
	idx, _, err := prompter.Select(label, items, "")
	if err != nil {
		return "", err
	}
	if idx < 0 || idx >= len(profiles) {
		return "", fmt.Errorf("invalid selection %d", idx)
	}
	return profiles[idx].Name, nil
}

func profileLabel(p profile.Profile) string {
	return fmt.Sprintf("[%s] %s - %s", p.Tool.DisplayName(), p.Name, p.URL)
}

// reorderWithDefault moves the default value to the front of the list.
// If defaultValue is empty or not found, or already first, returns items unchanged.
func reorderWithDefault(items []string, defaultValue string) []string {
	if defaultValue == "" {
		return items
	}

	// Find the index of the default value
	idx := -1
	for i, item := range items {
		if item == defaultValue {
			idx = i
			break
		}
	}

	// If not found or already at position 0, return unchanged
	if idx <= 0 {
		return items
	}

	// Build reordered list: [defaultValue, items before idx, items after idx]
	reordered := make([]string, 0, len(items))
	reordered = append(reordered, defaultValue)
	reordered = append(reordered, items[:idx]...)
	reordered = append(reordered, items[idx+1:]...)

	return reordered
}
