// Package metrics holds the service's prometheus collectors. A nil *Metrics
// is valid and records nothing.
package metrics

import (
	"conference-webapp/errors"

	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	registrations *prometheus.CounterVec
	wishlist      *prometheus.CounterVec
	tasks         *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "conference_registrations_total",
			Help: "Registration and unregistration attempts by outcome.",
		}, []string{"op", "outcome"}),
		wishlist: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "conference_wishlist_additions_total",
			Help: "Wishlist additions by outcome.",
		}, []string{"outcome"}),
		tasks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "conference_tasks_total",
			Help: "Background tasks by name and outcome.",
		}, []string{"task", "outcome"}),
	}
	if reg != nil {
		reg.MustRegister(m.registrations, m.wishlist, m.tasks)
	}
	return m
}

// Outcome labels err by its kind; ok distinguishes true from false results.
func Outcome(ok bool, err error) string {
	if err == nil {
		if ok {
			return "ok"
		}
		return "false"
	}
	switch errors.KindOf(err) {
	case errors.KindConflict:
		return "conflict"
	case errors.KindNotFound:
		return "not_found"
	case errors.KindBadRequest:
		return "bad_request"
	case errors.KindContention:
		return "contention"
	case errors.KindUnauthenticated:
		return "unauthenticated"
	}
	return "error"
}

func (m *Metrics) Registration(op string, ok bool, err error) {
	if m == nil {
		return
	}
	m.registrations.WithLabelValues(op, Outcome(ok, err)).Inc()
}

func (m *Metrics) WishlistAddition(err error) {
	if m == nil {
		return
	}
	m.wishlist.WithLabelValues(Outcome(true, err)).Inc()
}

func (m *Metrics) Task(name string, err error) {
	if m == nil {
		return
	}
	m.tasks.WithLabelValues(name, Outcome(true, err)).Inc()
}
