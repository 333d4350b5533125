package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/hashfront/autoplay/config"
	"github.com/hashfront/autoplay/executor"
	"github.com/hashfront/autoplay/manager"
	"github.com/hashfront/autoplay/planner"
	"github.com/hashfront/autoplay/sim"
	"github.com/hashfront/autoplay/strategy"
	"github.com/hashfront/autoplay/torii"
	"github.com/hashfront/autoplay/web"
)

var configPath string

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	rootCmd := &cobra.Command{
		Use:   "autoplay",
		Short: "Hashfront autonomous self-play bot",
		Long: `Runs up to a configured number of concurrent self-play games on the
Hashfront contracts, keeps an open lobby game for human challengers, and
plays one side of any game a human joins.`,
		RunE: runLoop,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file")
	rootCmd.Flags().Bool("once", false, "single tick then exit")
	rootCmd.Flags().Int("games", 0, "override max concurrent games")
	rootCmd.Flags().Int("map", 0, "override fallback map id")
	rootCmd.Flags().Duration("interval", 0, "override tick interval")

	planCmd := &cobra.Command{
		Use:   "plan",
		Short: "Plan one turn for a live game and print it",
		RunE:  runPlan,
	}
	planCmd.Flags().Int("game", 0, "game id (required)")
	planCmd.Flags().Int("player", 0, "player to plan for (default: current)")
	planCmd.MarkFlagRequired("game")

	simCmd := &cobra.Command{
		Use:   "sim",
		Short: "Run offline preset matchups and print a balance report",
		RunE:  runSim,
	}
	simCmd.Flags().Int("games", 20, "games per matchup")
	simCmd.Flags().Int64("seed", 42, "base RNG seed")
	simCmd.Flags().String("map", "", "map directory (default: built-in skirmish)")
	simCmd.Flags().StringSlice("strategies", nil, "presets to test (default: all)")

	rootCmd.AddCommand(planCmd, simCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	if configPath == "" {
		return config.Default(), nil
	}
	return config.Load(configPath)
}

func newPlanner(cfg *config.Config) (*planner.Planner, error) {
	catalog := strategy.DefaultCatalog()
	if cfg.StrategyFile != "" {
		loaded, err := strategy.LoadCatalog(cfg.StrategyFile)
		if err != nil {
			return nil, err
		}
		catalog = loaded
	}
	selector, err := strategy.NewSelector(catalog)
	if err != nil {
		return nil, err
	}
	return planner.New(selector, cfg.Adaptive), nil
}

func runLoop(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if n, _ := cmd.Flags().GetInt("games"); n > 0 {
		cfg.MaxGames = n
	}
	if id, _ := cmd.Flags().GetInt("map"); id > 0 {
		cfg.MapID = id
	}
	if d, _ := cmd.Flags().GetDuration("interval"); d > 0 {
		cfg.TickInterval = config.Duration(d)
	}

	plan, err := newPlanner(cfg)
	if err != nil {
		return err
	}
	client := torii.NewClient(cfg.ToriiURL, torii.NewTerrainCache())
	exec := executor.New(cfg.Contract, cfg.WorkDir)
	exec.TxWait = cfg.TxWait.Std()
	mgr := manager.New(cfg, client, exec, plan)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if once, _ := cmd.Flags().GetBool("once"); once {
		slog.Info("single tick")
		mgr.Tick(ctx)
		return nil
	}

	if cfg.MonitorAddr != "" {
		monitor := web.NewMonitor(mgr, 5*time.Second)
		go func() {
			if err := monitor.Run(ctx, cfg.MonitorAddr); err != nil {
				slog.Error("monitor stopped", "error", err)
			}
		}()
	}

	slog.Info("continuous mode", "maxGames", cfg.MaxGames, "interval", cfg.TickInterval.Std())
	mgr.Run(ctx)
	slog.Info("shutting down")
	return nil
}

func runPlan(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	gameID, _ := cmd.Flags().GetInt("game")

	client := torii.NewClient(cfg.ToriiURL, torii.NewTerrainCache())
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	gs, err := client.GameState(ctx, gameID)
	if err != nil {
		return err
	}
	player, _ := cmd.Flags().GetInt("player")
	if player == 0 {
		player = gs.Info.CurrentPlayer
	}

	plan, err := newPlanner(cfg)
	if err != nil {
		return err
	}
	actions := plan.PlanTurn(gs, player)

	fmt.Printf("Game %d round %d, planning for P%d (%d actions):\n",
		gameID, gs.Info.Round, player, len(actions))
	for i, a := range actions {
		switch act := a.(type) {
		case planner.Move:
			dest := act.Path[len(act.Path)-1]
			fmt.Printf("  %2d. unit %d moves to (%d,%d) in %d steps\n", i+1, act.UnitID, dest.X, dest.Y, len(act.Path))
		case planner.Attack:
			fmt.Printf("  %2d. unit %d attacks unit %d\n", i+1, act.UnitID, act.TargetID)
		case planner.Capture:
			fmt.Printf("  %2d. unit %d captures\n", i+1, act.UnitID)
		case planner.Wait:
			fmt.Printf("  %2d. unit %d waits\n", i+1, act.UnitID)
		case planner.EndTurn:
			fmt.Printf("  %2d. end turn\n", i+1)
		}
	}
	return nil
}

func runSim(cmd *cobra.Command, args []string) error {
	games, _ := cmd.Flags().GetInt("games")
	seed, _ := cmd.Flags().GetInt64("seed")
	mapDir, _ := cmd.Flags().GetString("map")
	names, _ := cmd.Flags().GetStringSlice("strategies")

	scenario := sim.Skirmish()
	if mapDir != "" {
		loaded, err := sim.LoadMap(mapDir)
		if err != nil {
			return err
		}
		scenario = loaded
	}

	catalog := strategy.DefaultCatalog()
	presets := catalog.Presets()
	if len(names) > 0 {
		presets = presets[:0]
		for _, name := range names {
			p, ok := catalog.Get(name)
			if !ok {
				return fmt.Errorf("unknown preset %q", name)
			}
			presets = append(presets, p)
		}
	}

	titleColor := color.New(color.FgCyan, color.Bold)
	titleColor.Printf("\nHashfront balance report: map %s, %d games/matchup, seed %d\n\n",
		scenario.Name, games, seed)

	stats, err := sim.RunMatchups(scenario, presets, games, seed)
	if err != nil {
		return err
	}

	table := tablewriter.NewTable(os.Stdout,
		tablewriter.WithHeader([]string{"Matchup", "P1 Win%", "Avg Rounds", "P1 Kills", "P2 Kills", "HQ Cap", "Elim", "Timeout"}),
	)
	for _, s := range stats {
		table.Append([]string{
			fmt.Sprintf("%s vs %s", s.P1, s.P2),
			fmt.Sprintf("%.1f%%", s.P1WinRate()),
			fmt.Sprintf("%.1f", s.AvgRounds),
			fmt.Sprintf("%.2f", s.AvgP1Kills),
			fmt.Sprintf("%.2f", s.AvgP2Kills),
			fmt.Sprintf("%d", s.HQCaptures),
			fmt.Sprintf("%d", s.Eliminations),
			fmt.Sprintf("%d", s.Timeouts),
		})
	}
	table.Render()

	successColor := color.New(color.FgGreen, color.Bold)
	successColor.Printf("\n%d matchups complete\n", len(stats))
	return nil
}
