package http

import (
	"net/http"

	"github.com/ladderlink/ladderlink/internal/cache"
	"github.com/ladderlink/ladderlink/internal/config"
	"github.com/ladderlink/ladderlink/internal/league"
	"github.com/ladderlink/ladderlink/internal/metrics"
	"github.com/ladderlink/ladderlink/internal/notifier"
	"github.com/ladderlink/ladderlink/internal/processor"
	"github.com/ladderlink/ladderlink/internal/pubsub"
)

type Server struct {
	Store          league.Store
	Metrics        metrics.Metrics
	MetricsHandler http.Handler
	Counters       metrics.CounterStore
	Cache          cache.StandingsCache
	Cfg            config.Config
	Notifier       notifier.Notifier
	Processor      *processor.Processor
	PubSub         pubsub.PubSubClient
	Router         *http.ServeMux
}
