// Package metrics exposes engine activity as Prometheus counters, wired in
// through the engine's lifecycle hooks.
package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/IlyaEmelin/chatbot-promotion/pkg/domain"
)

// Metrics holds the survey counters.
type Metrics struct {
	questionsEntered *prometheus.CounterVec
	reasks           *prometheus.CounterVec
	projections      *prometheus.CounterVec
	reverts          *prometheus.CounterVec
}

// New registers the survey counters on the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		questionsEntered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "promo",
			Subsystem: "survey",
			Name:      "questions_entered_total",
			Help:      "Questions entered, by question ID.",
		}, []string{"question"}),
		reasks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "promo",
			Subsystem: "survey",
			Name:      "reasks_total",
			Help:      "Answers refused and re-asked, by question ID.",
		}, []string{"question"}),
		projections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "promo",
			Subsystem: "survey",
			Name:      "projections_total",
			Help:      "External profile projection attempts, by outcome.",
		}, []string{"outcome"}),
		reverts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "promo",
			Subsystem: "survey",
			Name:      "reverts_total",
			Help:      "Undo attempts, by outcome.",
		}, []string{"outcome"}),
	}
	reg.MustRegister(m.questionsEntered, m.reasks, m.projections, m.reverts)
	return m
}

// Hooks returns lifecycle hooks feeding the counters. Compose with other
// hooks via domain.LifecycleHooks fields if needed.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnQuestionEnter: func(_ context.Context, ev *domain.SurveyEvent) {
			m.questionsEntered.WithLabelValues(ev.QuestionID).Inc()
		},
		OnReask: func(_ context.Context, ev *domain.SurveyEvent) {
			m.reasks.WithLabelValues(ev.QuestionID).Inc()
		},
		OnProjection: func(_ context.Context, ev *domain.ProjectionEvent) {
			outcome := "committed"
			if ev.Blocked {
				outcome = "blocked"
			}
			m.projections.WithLabelValues(outcome).Inc()
		},
		OnRevert: func(_ context.Context, ev *domain.RevertEvent) {
			outcome := "reverted"
			if !ev.OK {
				outcome = "ambiguous"
			}
			m.reverts.WithLabelValues(outcome).Inc()
		},
	}
}
