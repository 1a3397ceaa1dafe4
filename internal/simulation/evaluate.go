package simulation

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"prosumer-sim/internal/analysis"
	"prosumer-sim/internal/strategy"
)

// Job is one episode of an evaluation. Envs and agents hold mutable state, so
// each job builds its own.
type Job struct {
	Name     string
	Seed     uint64
	NewEnv   func() (*Env, error)
	NewAgent func() (strategy.Agent, error)
}

// Evaluate runs jobs concurrently, at most limit at a time (limit <= 0 means
// no limit), and returns their summaries ranked by total reward. The first
// failing job cancels the rest.
func Evaluate(ctx context.Context, jobs []Job, limit int) ([]analysis.RunSummary, error) {
	out := make([]analysis.RunSummary, len(jobs))
	eg, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		eg.SetLimit(limit)
	}
	for i, job := range jobs {
		eg.Go(func() error {
			env, err := job.NewEnv()
			if err != nil {
				return fmt.Errorf("job %q: %w", job.Name, err)
			}
			agent, err := job.NewAgent()
			if err != nil {
				return fmt.Errorf("job %q: %w", job.Name, err)
			}
			sum, err := RunEpisode(ctx, env, agent, job.Seed)
			if err != nil {
				return fmt.Errorf("job %q: %w", job.Name, err)
			}
			sum.Name = job.Name
			out[i] = sum
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return analysis.RankRuns(out), nil
}
