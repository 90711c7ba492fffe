package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"est8.games/internal/persistence/gamelog"
	"est8.games/internal/sim/session"
)

func replayCmd() *cobra.Command {
	var gamePath string
	cmd := &cobra.Command{
		Use:   "replay [table-log-dir]",
		Short: "Re-apply a table's act log and verify digests and final scores",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(cmd.OutOrStdout(), args[0], gamePath)
		},
	}
	cmd.Flags().StringVar(&gamePath, "game", "", "game definition yaml the table was played with (default: built-in)")
	return cmd
}

func runReplay(out io.Writer, dir, gamePath string) error {
	def, err := loadGame(gamePath)
	if err != nil {
		return err
	}
	entries, err := gamelog.ReadEntries(dir)
	if err != nil {
		return err
	}
	t, err := session.Replay(def, entries)
	if err != nil {
		return fmt.Errorf("replay: %w", err)
	}

	rejected := 0
	for _, e := range entries {
		if e.Kind == session.EntryAct && e.Code != "" {
			rejected++
		}
	}
	fmt.Fprintf(out, "replay ok: table=%s entries=%d rejected=%d round=%d over=%v digest=%s\n",
		t.ID(), len(entries), rejected, t.Round(), t.Over(), t.Digest())
	if t.Over() {
		for i, st := range t.Standings() {
			fmt.Fprintf(out, "%d. %s (%s) %d\n", i+1, st.PlayerID, st.Name, st.Score)
		}
	}
	return nil
}
