package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/samber/lo"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"prosumer-sim/internal/analysis"
	"prosumer-sim/internal/logging"
	"prosumer-sim/internal/scenario"
	"prosumer-sim/internal/simulation"
	"prosumer-sim/internal/strategy"
)

func configFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "config",
		Aliases:  []string{"c"},
		EnvVars:  []string{"CONFIG_PATH"},
		Usage:    "path to the scenario YAML",
		Required: true,
	}
}

func main() {
	app := &cli.App{
		Name:  "prosumer-sim",
		Usage: "simulate a prosumer trading energy day-ahead",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				EnvVars: []string{"LOG_LEVEL"},
				Value:   "info",
			},
		},
		Before: func(c *cli.Context) error {
			logger, err := logging.New(c.String("log-level"))
			if err != nil {
				return err
			}
			zap.ReplaceGlobals(logger)
			return nil
		},
		After: func(*cli.Context) error {
			_ = zap.L().Sync()
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "run one episode with the configured agent",
				Action: cmdRun,
				Flags: []cli.Flag{
					configFlag(),
					&cli.Uint64Flag{Name: "seed", Usage: "override simulation.seed"},
					&cli.StringFlag{Name: "out", Value: "results", Usage: "directory for history.json and ledger.csv"},
					&cli.StringFlag{Name: "db", EnvVars: []string{"DATABASE_PATH"}, Usage: "optional sqlite file to store the run in"},
					&cli.StringFlag{Name: "name", Usage: "run name stored with the summary"},
				},
			},
			{
				Name:   "evaluate",
				Usage:  "run the configured agent over several seeds and rank the episodes",
				Action: cmdEvaluate,
				Flags: []cli.Flag{
					configFlag(),
					&cli.IntFlag{Name: "runs", Value: 8, Usage: "number of episodes"},
					&cli.Uint64Flag{Name: "first-seed", Value: 1, Usage: "seed of the first episode; the rest count up"},
					&cli.IntFlag{Name: "concurrency", Value: 4},
				},
			},
			{
				Name:   "summary",
				Usage:  "print per-step statistics of a saved history",
				Action: cmdSummary,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "history", Value: "results/history.json"},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func cmdRun(c *cli.Context) error {
	sc, err := scenario.Load(c.String("config"))
	if err != nil {
		return err
	}
	seed := sc.Config.Simulation.Seed
	if c.IsSet("seed") {
		seed = c.Uint64("seed")
	}
	env, err := sc.NewEnv(zap.L())
	if err != nil {
		return err
	}
	agent, err := sc.NewAgent(seed)
	if err != nil {
		return err
	}

	sum, err := simulation.RunEpisode(c.Context, env, agent, seed)
	if err != nil {
		return err
	}
	sum.Name = c.String("name")

	out := c.String("out")
	if err := os.MkdirAll(out, 0o755); err != nil {
		return err
	}
	histPath := filepath.Join(out, "history.json")
	if err := env.History().Save(histPath); err != nil {
		return err
	}
	ledgerPath := filepath.Join(out, "ledger.csv")
	if err := simulation.WriteLedgerCSV(ledgerPath, env.History().Ticks(), env.InitialRelCharge()); err != nil {
		return err
	}
	fmt.Printf("Wrote %d ticks to %s and %s\n", env.History().Len(), histPath, ledgerPath)

	if db := c.String("db"); db != "" {
		store, err := simulation.OpenStore(db)
		if err != nil {
			return err
		}
		defer store.Close()
		id, err := store.SaveRun(c.Context, sum, env.History())
		if err != nil {
			return err
		}
		fmt.Printf("Stored run %s in %s\n", id, db)
	}

	fmt.Printf("agent=%s seed=%d steps=%d\n", sum.Agent, sum.Seed, sum.Steps)
	fmt.Printf("Total reward=%.2f Final balance=%.2f (%+.2f)\n", sum.TotalReward, sum.FinalBalance, sum.BalanceChange)
	fmt.Printf("Unscheduled bought=%.4f MWh sold=%.4f MWh\n", sum.UnscheduledBoughtMWh, sum.UnscheduledSoldMWh)
	return nil
}

func cmdEvaluate(c *cli.Context) error {
	sc, err := scenario.Load(c.String("config"))
	if err != nil {
		return err
	}
	n := c.Int("runs")
	if n <= 0 {
		return fmt.Errorf("--runs must be > 0")
	}
	first := c.Uint64("first-seed")
	jobs := lo.Times(n, func(i int) simulation.Job {
		seed := first + uint64(i)
		return simulation.Job{
			Name:     fmt.Sprintf("seed-%d", seed),
			Seed:     seed,
			NewEnv:   func() (*simulation.Env, error) { return sc.NewEnv(zap.L()) },
			NewAgent: func() (strategy.Agent, error) { return sc.NewAgent(seed) },
		}
	})

	ranked, err := simulation.Evaluate(c.Context, jobs, c.Int("concurrency"))
	if err != nil {
		return err
	}
	printRanking(ranked)
	for agent, mean := range analysis.MeanReward(ranked) {
		fmt.Printf("mean reward %s: %.2f\n", agent, mean)
	}
	return nil
}

func printRanking(runs []analysis.RunSummary) {
	fmt.Printf("%-4s %-12s %-10s %-12s %-12s %-12s %-12s\n", "rank", "run", "agent", "reward", "balance", "potential", "price-diff")
	for i, r := range runs {
		fmt.Printf(
			"%-4d %-12s %-10s %-12.2f %-12.2f %-12.2f %-12.2f\n",
			i+1,
			r.Name,
			r.Agent,
			r.TotalReward,
			r.FinalBalance,
			r.PotentialProfit,
			r.PriceDiffProfit,
		)
	}
}

func cmdSummary(c *cli.Context) error {
	h, err := simulation.LoadHistory(c.String("history"), nil)
	if err != nil {
		return err
	}
	fmt.Printf("%d ticks, %d steps\n", h.Len(), len(h.Steps()))
	fmt.Printf("%-20s %-12s %-12s %-12s %-12s\n", "step", "balance_diff", "potential", "price_diff", "reward")
	for _, s := range h.Steps() {
		fmt.Printf("%-20s %-12.2f %-12s %-12s %-12s\n",
			s.Time.Format("2006-01-02 15:04"),
			s.BalanceDiff,
			fmtOpt(s.PotentialProfit),
			fmtOpt(s.PriceDiffProfit),
			fmtOpt(s.Reward),
		)
	}
	if n := h.Len(); n > 0 {
		last, _ := h.At(n - 1)
		fmt.Printf("final balance=%.2f battery=%.3f\n", last.WalletBalance, last.Battery)
	}

	meta := h.Meta()
	st := analysis.ComputePriceStats(h.TradedPrices(), meta.BatteryCapacity, meta.BatteryEfficiency)
	fmt.Printf("prices: min=%.2f max=%.2f mean=%.2f std=%.2f p95-p05=%.2f oracle=%.2f\n",
		st.Min, st.Max, st.Mean, st.Std, st.SpreadP95P05, st.OracleProfit)
	return nil
}

func fmtOpt(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f", *v)
}
