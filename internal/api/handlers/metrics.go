package handlers

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are the simulation counters exported on /metrics.
type Metrics struct {
	Sessions      prometheus.Gauge
	Steps         prometheus.Counter
	Episodes      prometheus.Counter
	EpisodeReward prometheus.Histogram
	Evaluations   prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Sessions: f.NewGauge(prometheus.GaugeOpts{
			Name: "prosumer_sessions",
			Help: "Live environment sessions.",
		}),
		Steps: f.NewCounter(prometheus.CounterOpts{
			Name: "prosumer_env_steps_total",
			Help: "Environment steps taken across all sessions.",
		}),
		Episodes: f.NewCounter(prometheus.CounterOpts{
			Name: "prosumer_episodes_total",
			Help: "Episodes run to completion, in sessions and evaluations.",
		}),
		EpisodeReward: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "prosumer_episode_reward",
			Help:    "Total reward of finished episodes.",
			Buckets: prometheus.LinearBuckets(-5000, 1000, 11),
		}),
		Evaluations: f.NewCounter(prometheus.CounterOpts{
			Name: "prosumer_evaluations_total",
			Help: "Evaluation requests served.",
		}),
	}
}
