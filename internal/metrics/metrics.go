// Package metrics exposes table session counters to prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collectors implements session.Metrics on its own registry.
type Collectors struct {
	reg *prometheus.Registry

	acts     *prometheus.CounterVec
	rounds   prometheus.Counter
	finished prometheus.Counter
	players  prometheus.Gauge
}

func New() *Collectors {
	reg := prometheus.NewRegistry()
	c := &Collectors{
		reg: reg,
		acts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "est8",
			Name:      "acts_total",
			Help:      "Player acts applied to tables, by act kind and result code.",
		}, []string{"kind", "code"}),
		rounds: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "est8",
			Name:      "rounds_total",
			Help:      "Rounds dealt across all tables.",
		}),
		finished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "est8",
			Name:      "games_finished_total",
			Help:      "Tables that reached game over.",
		}),
		players: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "est8",
			Name:      "players_connected",
			Help:      "Players currently seated.",
		}),
	}
	reg.MustRegister(
		c.acts, c.rounds, c.finished, c.players,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

func (c *Collectors) ObserveAct(kind, code string) {
	if code == "" {
		code = "OK"
	}
	c.acts.WithLabelValues(kind, code).Inc()
}

func (c *Collectors) ObserveRound()    { c.rounds.Inc() }
func (c *Collectors) ObserveGameOver() { c.finished.Inc() }
func (c *Collectors) SetPlayers(n int) { c.players.Set(float64(n)) }

// TrackQueue exports the depth of a background queue, sampled at scrape time.
func (c *Collectors) TrackQueue(queue string, depth func() int) {
	c.reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace:   "est8",
		Name:        "queue_depth",
		Help:        "Backlog of background writers.",
		ConstLabels: prometheus.Labels{"queue": queue},
	}, func() float64 { return float64(depth()) }))
}

func (c *Collectors) Registry() *prometheus.Registry { return c.reg }

func (c *Collectors) Handler() http.Handler {
	return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{Registry: c.reg})
}
