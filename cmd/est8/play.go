package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"est8.games/internal/sim/session"
)

func playCmd() *cobra.Command {
	var (
		gamePath string
		seed     int64
	)
	cmd := &cobra.Command{
		Use:   "play [player-name...]",
		Short: "Play a local hot-seat game on the terminal",
		Args:  cobra.RangeArgs(1, 5),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlay(cmd.InOrStdin(), cmd.OutOrStdout(), gamePath, seed, args)
		},
	}
	cmd.Flags().StringVar(&gamePath, "game", "", "game definition yaml (default: built-in)")
	cmd.Flags().Int64Var(&seed, "seed", 1, "deck seed")
	return cmd
}

const playHelp = `commands:
  build <choice> <street> <plot>   place the number of pair <choice>
  fence <street> <index>           fence follow-up
  invest <estate-size>             investment follow-up
  bis <street> <plot>              bis follow-up
  roundabout <street> <plot>       free roundabout
  skip                             forgo the pending follow-up
  refuse                           take a permit refusal
  show | help | quit`

func runPlay(in io.Reader, out io.Writer, gamePath string, seed int64, names []string) error {
	def, err := loadGame(gamePath)
	if err != nil {
		return err
	}
	t := session.NewTable(def, session.TableConfig{ID: "local", Seed: seed, MaxPlayers: len(names)})
	for _, n := range names {
		if _, err := t.Join(n); err != nil {
			return err
		}
	}
	if err := t.Start(); err != nil {
		return err
	}
	fmt.Fprintln(out, playHelp)
	printPlans(out, t)
	printRound(out, t)

	sc := bufio.NewScanner(in)
	for !t.Over() {
		seat := nextSeat(t)
		if seat == nil {
			break
		}
		prompt := string(seat.Phase)
		if seat.Phase == session.PhaseEffect {
			prompt = seat.Pending.String()
		}
		fmt.Fprintf(out, "%s [%s]> ", seat.Name, prompt)
		if !sc.Scan() {
			fmt.Fprintln(out)
			break
		}
		line := strings.TrimSpace(sc.Text())
		switch line {
		case "":
			continue
		case "quit", "exit":
			printStandings(out, t)
			return nil
		case "help":
			fmt.Fprintln(out, playHelp)
			continue
		case "show":
			printPlayer(out, seat)
			continue
		}
		act, err := parseAct(line)
		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
			continue
		}
		res, err := t.Apply(seat.ID, act)
		if err != nil {
			fmt.Fprintf(out, "rejected %s: %v\n", session.Code(err), err)
			continue
		}
		if res.Placed != nil {
			fmt.Fprintf(out, "placed %q\n", res.Placed.String())
		}
		printPlayer(out, seat)
		if res.RoundStarted && !t.Over() {
			printRound(out, t)
		}
	}
	if err := sc.Err(); err != nil {
		return err
	}
	printStandings(out, t)
	return nil
}

// nextSeat is the first seat that still owes an act this round.
func nextSeat(t *session.Table) *session.Seat {
	for _, s := range t.Seats() {
		if !s.Left && s.Phase != session.PhaseDone {
			return s
		}
	}
	return nil
}

func parseAct(line string) (session.Act, error) {
	fields := strings.Fields(line)
	kind := session.ActKind(strings.ToUpper(fields[0]))
	nums := make([]int, 0, len(fields)-1)
	for _, f := range fields[1:] {
		n, err := strconv.Atoi(f)
		if err != nil {
			return session.Act{}, fmt.Errorf("bad number %q", f)
		}
		nums = append(nums, n)
	}
	want := map[session.ActKind]int{
		session.ActBuild:      3,
		session.ActFence:      2,
		session.ActInvest:     1,
		session.ActBis:        2,
		session.ActRoundabout: 2,
		session.ActSkip:       0,
		session.ActRefuse:     0,
	}
	n, ok := want[kind]
	if !ok {
		return session.Act{}, fmt.Errorf("unknown command %q (try help)", fields[0])
	}
	if len(nums) != n {
		return session.Act{}, fmt.Errorf("%s takes %d numbers", strings.ToLower(string(kind)), n)
	}
	a := session.Act{Kind: kind}
	switch kind {
	case session.ActBuild:
		a.Choice, a.Street, a.Plot = nums[0], nums[1], nums[2]
	case session.ActFence:
		a.Street, a.Index = nums[0], nums[1]
	case session.ActInvest:
		a.Estate = nums[0]
	case session.ActBis, session.ActRoundabout:
		a.Street, a.Plot = nums[0], nums[1]
	}
	return a, nil
}

func printPlans(out io.Writer, t *session.Table) {
	plans := t.Plans()
	fmt.Fprint(out, "city plans:")
	for i, p := range plans {
		fmt.Fprintf(out, " %d:%d/%d", i+1, p.Points[0], p.Points[1])
	}
	fmt.Fprintln(out)
}

func printRound(out io.Writer, t *session.Table) {
	fmt.Fprintf(out, "== round %d ==\n", t.Round())
	for i, p := range t.Pairs() {
		fmt.Fprintf(out, "  %d: %2d %s\n", i, p.NumberCard.Number, p.ActionCard.Action)
	}
}

func printPlayer(out io.Writer, s *session.Seat) {
	hood := s.Player.Neighbourhood()
	for i := 0; i < hood.NumStreets(); i++ {
		fmt.Fprintf(out, "  %d %s\n", i, hood.Street(i).String())
	}
	c := s.Player.Counters()
	fmt.Fprintf(out, "  bis=%d pools=%d roundabouts=%d temps=%d refusals=%d\n",
		c.Biss, c.Pools, c.Roundabouts, c.TempAgencies, c.PermitRefusals)
	inv := s.Player.Investments()
	levels := make([]string, 0, len(inv))
	for _, size := range s.Player.InvestmentSizes() {
		levels = append(levels, fmt.Sprintf("%d:%d", size, inv[size]))
	}
	fmt.Fprintf(out, "  invest %s\n", strings.Join(levels, " "))
}

func printStandings(out io.Writer, t *session.Table) {
	fmt.Fprintln(out, "== standings ==")
	for i, st := range t.Standings() {
		fmt.Fprintf(out, "%d. %s %d\n", i+1, st.Name, st.Score)
	}
}
