package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"est8.games/internal/sim/defs"
)

// loadGame reads a definition file, or returns the built-in one for an empty path.
func loadGame(path string) (*defs.GameDefinition, error) {
	if strings.TrimSpace(path) == "" {
		return defs.Default(), nil
	}
	return defs.Load(path)
}

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [game.yaml]",
		Short: "Validate a game definition and print its digest",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			return runValidate(cmd.OutOrStdout(), path)
		},
	}
}

func runValidate(w io.Writer, path string) error {
	g, err := loadGame(path)
	if err != nil {
		return err
	}
	n := g.Neighbourhood
	sizes := make([]string, 0, len(n.Streets))
	for _, s := range n.Streets {
		sizes = append(sizes, strconv.Itoa(s.NumHouses))
	}
	fmt.Fprintf(w, "ok digest=%s\n", g.Digest())
	fmt.Fprintf(w, "streets=%s cards=%d drawn_at_once=%d hold_back=%d roundabouts=%d\n",
		strings.Join(sizes, ","), g.Deck.DeckSize(), g.CardsDrawnAtOnce, g.DeckHoldBack, g.MaxRoundabouts())
	return nil
}

func envString(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
