// Package metrics bridges engine lifecycle hooks to Prometheus collectors.
package metrics

import (
	"context"

	"github.com/ferrobraz/parley/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors for the progression engine.
type Metrics struct {
	Reveals      *prometheus.CounterVec
	Selections   *prometheus.CounterVec
	GateBlocks   *prometheus.CounterVec
	Rewards      *prometheus.CounterVec
	RewardErrors prometheus.Counter
}

// New creates the collectors and registers them with the registerer.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Reveals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "parley_reveals_total",
			Help: "Total number of messages revealed to users",
		}, []string{"partner"}),
		Selections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "parley_selections_total",
			Help: "Total number of branch options selected",
		}, []string{"partner"}),
		GateBlocks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "parley_gate_blocks_total",
			Help: "Total number of traversals stopped by a closed gate",
		}, []string{"partner"}),
		Rewards: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "parley_rewards_total",
			Help: "Total number of reward dispatches",
		}, []string{"partner"}),
		RewardErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "parley_reward_errors_total",
			Help: "Total number of failed reward dispatches",
		}),
	}
	reg.MustRegister(m.Reveals, m.Selections, m.GateBlocks, m.Rewards, m.RewardErrors)
	return m
}

// Hooks returns lifecycle hooks that feed the collectors.
func (m *Metrics) Hooks() domain.Hooks {
	return domain.Hooks{
		OnReveal: func(ctx context.Context, e *domain.RevealEvent) {
			m.Reveals.WithLabelValues(e.Key.PartnerID).Inc()
		},
		OnSelect: func(ctx context.Context, e *domain.SelectEvent) {
			m.Selections.WithLabelValues(e.Key.PartnerID).Inc()
		},
		OnGateBlocked: func(ctx context.Context, e *domain.GateEvent) {
			m.GateBlocks.WithLabelValues(e.Key.PartnerID).Inc()
		},
		OnReward: func(ctx context.Context, e *domain.RewardEvent) {
			m.Rewards.WithLabelValues(e.Key.PartnerID).Inc()
			if e.IsError {
				m.RewardErrors.Inc()
			}
		},
	}
}
