package http

import (
	"net/http"

	"github.com/ladderlink/ladderlink/internal/cache"
	"github.com/ladderlink/ladderlink/internal/config"
	"github.com/ladderlink/ladderlink/internal/http/handlers"
	"github.com/ladderlink/ladderlink/internal/league"
	"github.com/ladderlink/ladderlink/internal/metrics"
	"github.com/ladderlink/ladderlink/internal/notifier"
	"github.com/ladderlink/ladderlink/internal/processor"
	"github.com/ladderlink/ladderlink/internal/pubsub"
)

func NewServer(store league.Store, metricsSvc metrics.Metrics, metricsHandler http.Handler, counters metrics.CounterStore, standingsCache cache.StandingsCache, cfg config.Config, notifier notifier.Notifier, processor *processor.Processor, pubsub pubsub.PubSubClient) *Server {
	server := &Server{
		Store:          store,
		Metrics:        metricsSvc,
		MetricsHandler: metricsHandler,
		Counters:       counters,
		Cache:          standingsCache,
		Cfg:            cfg,
		Notifier:       notifier,
		Processor:      processor,
		PubSub:         pubsub,
		Router:         http.NewServeMux(),
	}

	server.routes()
	return server
}

func (s *Server) routes() {
	// All handlers are wrapped with middleware using the Chain helper.
	// e.g. Chain(s.MyHandler(), paramsMiddleware, authMiddleware)
	slackVerify := slackVerifyMiddleware(s.Cfg.Slack.SigningSecret)

	s.Router.Handle("/metrics", s.MetricsHandler)
	s.Router.Handle("GET /health", Chain(handlers.HealthCheckHandler(), paramsMiddleware))
	s.Router.Handle("GET /stats", Chain(handlers.StatsHandler(s.Counters), paramsMiddleware))
	s.Router.Handle("POST /leagues", Chain(handlers.CreateLeagueHandler(s.Store, s.Counters), paramsMiddleware))
	s.Router.Handle("GET /leagues", Chain(handlers.GetLeagueHandler(s.Store), paramsMiddleware))
	s.Router.Handle("POST /register", Chain(handlers.RegisterHandler(s.Store, s.Cache, s.Counters), paramsMiddleware))
	s.Router.Handle("GET /standings", Chain(handlers.StandingsHandler(s.Store, s.Cache), paramsMiddleware))
	s.Router.Handle("GET /matches", Chain(handlers.ListMatchesHandler(s.Store), paramsMiddleware))
	s.Router.Handle("POST /score/edit", Chain(handlers.ScoreEditHandler(), paramsMiddleware))
	s.Router.Handle("POST /matches/submit", Chain(handlers.SubmitMatchHandler(s.Processor), paramsMiddleware))
	s.Router.Handle("POST /process", Chain(handlers.ProcessMatchesHandler(s.Processor), paramsMiddleware))
	s.Router.Handle("POST /match-recorded", Chain(handlers.MatchRecordedHandler(s.Processor, s.PubSub), paramsMiddleware))
	s.Router.Handle("POST /slack/command/standings", Chain(handlers.StandingsCommandHandler(s.Store, s.Cache, s.Notifier), paramsMiddleware, slackVerify))
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Router.ServeHTTP(w, r)
}
