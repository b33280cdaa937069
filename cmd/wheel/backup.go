package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dukerupert/chorewheel/internal/backup"
)

func snapshotsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshots",
		Short: "List database snapshots written by the server, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")
			snaps, err := backup.List(dir)
			if err != nil {
				return err
			}
			return printSnapshots(cmd.OutOrStdout(), snaps)
		},
	}
	cmd.Flags().String("dir", os.Getenv("CHOREWHEEL_BACKUP_DIR"), "Backup directory")
	return cmd
}

func restoreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "restore <snapshot> <new-db-path>",
		Short: "Write the database inside a snapshot to a new file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			pass, _ := cmd.Flags().GetString("passphrase")
			if pass == "" {
				pass = os.Getenv("CHOREWHEEL_BACKUP_PASSPHRASE")
			}
			if err := backup.Restore(args[0], args[1], pass); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "restored %s to %s\n", args[0], args[1])
			return nil
		},
	}
	cmd.Flags().String("passphrase", "", "Passphrase for encrypted snapshots (default $CHOREWHEEL_BACKUP_PASSPHRASE)")
	return cmd
}

func printSnapshots(out io.Writer, snaps []backup.Snapshot) error {
	if len(snaps) == 0 {
		_, err := fmt.Fprintln(out, "no snapshots")
		return err
	}
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TAKEN\tENCRYPTED\tBYTES\tFILE")
	for _, s := range snaps {
		fmt.Fprintf(tw, "%s\t%t\t%d\t%s\n", s.TakenAt.Format("2006-01-02 15:04:05Z"), s.Encrypted, s.Size, s.Path)
	}
	return tw.Flush()
}
