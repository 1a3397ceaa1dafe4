package main

import (
	"flag"
	"fmt"

	"go.uber.org/zap"

	"prosumer-sim/internal/scenario"
	"prosumer-sim/internal/simulation"
	"prosumer-sim/internal/strategy"
)

// Demo:
// - Load a scenario (prices, weather, battery, agent)
// - Step the environment for a few days with the configured agent
// - Print what happened hour by hour on the last simulated day
func main() {
	cfgPath := flag.String("config", "examples/config.yaml", "Path to YAML config")
	days := flag.Int("days", 3, "Number of days (steps) to simulate")
	outCSV := flag.String("out", "", "Optional path to write ledger CSV (e.g. results/ledger.csv)")
	flag.Parse()

	sc, err := scenario.Load(*cfgPath)
	if err != nil {
		panic(err)
	}
	env, err := sc.NewEnv(zap.NewNop())
	if err != nil {
		panic(err)
	}
	agent, err := sc.NewAgent(sc.Config.Simulation.Seed)
	if err != nil {
		panic(err)
	}

	seed := sc.Config.Simulation.Seed
	obs, err := env.Reset(&seed)
	if err != nil {
		panic(err)
	}
	eng := env.Engine()
	fmt.Printf("Agent=%s  observation=%d values  first decision at %s\n",
		agent.Name(), len(obs), eng.Clock().CurTime().Format("2006-01-02 15:04"))
	fmt.Printf("Starting balance=%.2f battery=%.3f\n\n", eng.Prosumer().Wallet.Balance.Float(), env.InitialRelCharge())

	for step := 0; step < *days && !env.Done(); step++ {
		res, err := env.Step(agent.Act(strategy.Context{
			Step:        step,
			Time:        eng.Clock().CurTime(),
			Observation: obs,
			RelCharge:   eng.Prosumer().Battery.RelCharge(),
		}))
		if err != nil {
			panic(err)
		}
		obs = res.Observation
		fmt.Printf("step %d  %s  balance_diff=%9.2f  reward=%9.2f  done=%v\n",
			step+1, res.Info.Time.Format("2006-01-02 15:04"), res.Info.BalanceDiff, res.Reward, res.Terminated)
	}

	ticks := env.History().Ticks()
	fmt.Println()
	for _, r := range ticks[max(len(ticks)-24, 0):] {
		fmt.Printf("%s price=%7.2f  prod=%.4f  cons=%.4f  battery=%.3f  balance=%9.2f\n",
			r.Time.Format("2006-01-02 15:04"),
			r.Price,
			r.Produced,
			r.Consumed,
			r.Battery,
			r.WalletBalance,
		)
	}

	if *outCSV != "" {
		if err := simulation.WriteLedgerCSV(*outCSV, ticks, env.InitialRelCharge()); err != nil {
			panic(err)
		}
		fmt.Printf("\nWrote CSV: %s\n", *outCSV)
	}

	sum := simulation.Summarize(env)
	fmt.Printf("\nDone. Steps=%d  Total reward=%.2f  Final balance=%.2f\n", sum.Steps, sum.TotalReward, sum.FinalBalance)
}
