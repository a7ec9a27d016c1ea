package cli

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/foxcode/internal/foxcode"
	"github.com/example/foxcode/internal/foxcode/backup"
)

var errNoBackups = errors.New("no backups found")

const cancelLabel = "Cancel"

func newBackupCommand(mgr *foxcode.Manager, prompter Prompter, stdout io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Manage backups of tool config files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			actions := []string{"list", "restore", "delete", "clean", "prune", cancelLabel}
			_, action, err := prompter.Select("Backup action", actions, actions[0])
			if err != nil {
				return err
			}
			switch action {
			case "list":
				return runBackupList(mgr, stdout)
			case "restore":
				return runBackupRestore(mgr, prompter, stdout, "", false)
			case "delete":
				return runBackupDelete(mgr, prompter, stdout, "", false)
			case "clean":
				return runBackupClean(mgr, prompter, stdout, foxcode.DefaultKeepBackups, false)
			case "prune":
				return runBackupPrune(mgr, prompter, stdout, "", false)
			default:
				return nil
			}
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List backups, newest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBackupList(mgr, stdout)
		},
	})

	var restoreYes bool
	restore := &cobra.Command{
		Use:   "restore [backup]",
		Short: "Copy a backup back to where it came from",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBackupRestore(mgr, prompter, stdout, firstArg(args), restoreYes)
		},
	}
	restore.Flags().BoolVarP(&restoreYes, "yes", "y", false, "Do not prompt for confirmation")
	cmd.AddCommand(restore)

	var deleteYes bool
	del := &cobra.Command{
		Use:     "delete [backup]",
		Aliases: []string{"rm"},
		Short:   "Delete one backup",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBackupDelete(mgr, prompter, stdout, firstArg(args), deleteYes)
		},
	}
	del.Flags().BoolVarP(&deleteYes, "yes", "y", false, "Do not prompt for confirmation")
	cmd.AddCommand(del)

	var keep int
	var cleanYes bool
	clean := &cobra.Command{
		Use:   "clean",
		Short: "Keep only the most recent backups",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBackupClean(mgr, prompter, stdout, keep, cleanYes)
		},
	}
	clean.Flags().IntVar(&keep, "keep", foxcode.DefaultKeepBackups, "Number of backups to keep")
	clean.Flags().BoolVarP(&cleanYes, "yes", "y", false, "Do not prompt for confirmation")
	cmd.AddCommand(clean)

	var olderThan string
	var pruneYes bool
	prune := &cobra.Command{
		Use:   "prune",
		Short: "Remove backups older than a retention interval",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBackupPrune(mgr, prompter, stdout, olderThan, pruneYes)
		},
	}
	prune.Flags().StringVar(&olderThan, "older-than", "", "Delete backups older than the specified duration (e.g. 30d, 12h, 1d12h)")
	prune.Flags().BoolVarP(&pruneYes, "yes", "y", false, "Do not prompt for confirmation")
	cmd.AddCommand(prune)

	return cmd
}

func runBackupList(mgr *foxcode.Manager, stdout io.Writer) error {
	entries, err := mgr.ListBackups()
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintf(stdout, "No backups in %s\n", mgr.BackupDir())
		return nil
	}

	tw := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tFILE\tCREATED\tSIZE")
	for _, entry := range entries {
		file := "?"
		if entry.Record != nil {
			file = entry.Record.ToolDir + "/" + entry.Record.FileName
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", entry.Name, file, entry.ModTime.Local().Format(time.DateTime), entry.Size)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "\n%d backup(s) in %s\n", len(entries), mgr.BackupDir())
	return nil
}

func runBackupRestore(mgr *foxcode.Manager, prompter Prompter, stdout io.Writer, name string, yes bool) error {
	if name == "" {
		selected, err := selectBackup(mgr, prompter, "Select backup to restore")
		if err != nil {
			return err
		}
		name = selected
	}

	target, err := mgr.RestoreTarget(name)
	if err != nil {
		return err
	}
	if !yes {
		confirm, err := prompter.Confirm(fmt.Sprintf("Overwrite %s with this backup? (y/N)", target), false)
		if err != nil {
			return err
		}
		if !confirm {
			fmt.Fprintln(stdout, "Restore cancelled.")
			return nil
		}
	}

	target, chained, err := mgr.RestoreBackup(name)
	if err != nil {
		return err
	}
	printSuccess(stdout, "Restored %s", target)
	if chained != "" {
		printInfo(stdout, "Previous content saved as %s", chained)
	}
	return nil
}

func runBackupDelete(mgr *foxcode.Manager, prompter Prompter, stdout io.Writer, name string, yes bool) error {
	if name == "" {
		selected, err := selectBackup(mgr, prompter, "Select backup to delete")
		if err != nil {
			return err
		}
		name = selected
	}

	if !yes {
		confirm, err := prompter.Confirm(fmt.Sprintf("Delete backup %s? (y/N)", name), false)
		if err != nil {
			return err
		}
		if !confirm {
			fmt.Fprintln(stdout, "Delete cancelled.")
			return nil
		}
	}

	if err := mgr.DeleteBackup(name); err != nil {
		return err
	}
	printSuccess(stdout, "Deleted backup %s", name)
	return nil
}

func runBackupClean(mgr *foxcode.Manager, prompter Prompter, stdout io.Writer, keep int, yes bool) error {
	if keep < 0 {
		return fmt.Errorf("--keep cannot be negative: %d", keep)
	}
	if !yes {
		confirm, err := prompter.Confirm(fmt.Sprintf("Delete all but the %d most recent backups? (y/N)", keep), false)
		if err != nil {
			return err
		}
		if !confirm {
			fmt.Fprintln(stdout, "Clean cancelled.")
			return nil
		}
	}

	count, err := mgr.CleanBackups(keep)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Deleted %d backup(s).\n", count)
	return nil
}

func runBackupPrune(mgr *foxcode.Manager, prompter Prompter, stdout io.Writer, olderThan string, yes bool) error {
	if olderThan == "" {
		options := []string{"30d", "90d", "180d", cancelLabel}
		_, choice, err := prompter.Select("Prune backups older than", options, "30d")
		if err != nil {
			return err
		}
		if choice == cancelLabel {
			fmt.Fprintln(stdout, "Prune cancelled.")
			return nil
		}
		olderThan = choice
	}

	duration, err := foxcode.ParseRetentionInterval(olderThan)
	if err != nil {
		return err
	}

	if !yes {
		confirm, err := prompter.Confirm(fmt.Sprintf("Delete backups older than %s? (y/N)", duration), false)
		if err != nil {
			return err
		}
		if !confirm {
			fmt.Fprintln(stdout, "Prune cancelled.")
			return nil
		}
	}

	count, err := mgr.PruneBackups(duration)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Deleted %d backup(s).\n", count)
	return nil
}

func selectBackup(mgr *foxcode.Manager, prompter Prompter, label string) (string, error) {
	entries, err := mgr.ListBackups()
	if err != nil {
		return "", err
	}
	if len(entries) == 0 {
		return "", errNoBackups
	}
	items := make([]string, len(entries))
	for i, entry := range entries {
		items[i] = backupLabel(entry)
	}
	idx, _, err := prompter.Select(label, items, "")
	if err != nil {
		return "", err
	}
	if idx < 0 || idx >= len(entries) {
		return "", fmt.Errorf("invalid selection %d", idx)
	}
	return entries[idx].Name, nil
}

func backupLabel(entry backup.Entry) string {
	if entry.Record == nil {
		return entry.Name
	}
	return fmt.Sprintf("%s/%s  %s", entry.Record.ToolDir, entry.Record.FileName, entry.ModTime.Local().Format(time.DateTime))
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
