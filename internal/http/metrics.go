package http

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	loginAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "portal_login_attempts_total",
		Help: "Login attempts by outcome.",
	}, []string{"result"})

	gateDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "portal_gate_decisions_total",
		Help: "Portal access gate outcomes by surface and terminal state.",
	}, []string{"portal", "state"})

	yearSelections = promauto.NewCounter(prometheus.CounterOpts{
		Name: "portal_year_selections_total",
		Help: "Explicit academic year selections.",
	})
)
