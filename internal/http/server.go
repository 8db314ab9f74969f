package http

import (
	"net/http"

	"github.com/mauv0809/tennis-ladder/internal/config"
	"github.com/mauv0809/tennis-ladder/internal/ladder"
	"github.com/mauv0809/tennis-ladder/internal/ledger"
	"github.com/mauv0809/tennis-ladder/internal/notification"
	"github.com/mauv0809/tennis-ladder/internal/notifier"
	"github.com/mauv0809/tennis-ladder/internal/player"
	"github.com/mauv0809/tennis-ladder/internal/processor"
)

func NewServer(
	engine ladder.Ladder,
	players player.Store,
	matches ledger.Ledger,
	notifications notification.Sink,
	metricsHandler http.Handler,
	cfg config.Config,
	notifier notifier.Notifier,
	processor *processor.Processor,
) *Server {
	server := &Server{
		Ladder:         engine,
		Players:        players,
		Matches:        matches,
		Notifications:  notifications,
		MetricsHandler: metricsHandler,
		Cfg:            cfg,
		Notifier:       notifier,
		Processor:      processor,
		Router:         http.NewServeMux(),
	}

	server.routes()
	return server
}

func (s *Server) routes() {
	// All handlers are wrapped with middleware using the Chain helper.
	api := func(h http.Handler) http.Handler {
		return Chain(h, requestIDMiddleware, paramsMiddleware)
	}

	s.Router.Handle("GET /metrics", s.MetricsHandler)
	s.Router.Handle("GET /health", api(s.HealthCheckHandler()))

	s.Router.Handle("GET /api/ladder/rankings", api(s.RankingsHandler()))
	s.Router.Handle("GET /api/ladder/challenges", api(s.ListChallengesHandler()))
	s.Router.Handle("POST /api/ladder/challenges", api(s.CreateChallengeHandler()))
	s.Router.Handle("GET /api/ladder/challenges/{id}", api(s.GetChallengeHandler()))
	s.Router.Handle("POST /api/ladder/challenges/{id}/accept", api(s.AcceptChallengeHandler()))
	s.Router.Handle("DELETE /api/ladder/challenges/{id}", api(s.CancelChallengeHandler()))
	s.Router.Handle("POST /api/ladder/challenges/{id}/result", api(s.SubmitResultHandler()))

	s.Router.Handle("GET /api/players", api(s.ListPlayersHandler()))
	s.Router.Handle("POST /api/players", api(s.UpsertPlayerHandler()))
	s.Router.Handle("GET /api/players/{id}", api(s.GetPlayerHandler()))
	s.Router.Handle("GET /api/players/{id}/matches", api(s.PlayerMatchesHandler()))
	s.Router.Handle("GET /api/players/{id}/notifications", api(s.PlayerNotificationsHandler()))

	s.Router.Handle("POST /pubsub/ladder-events", api(s.LadderEventsPushHandler()))
	s.Router.Handle("POST /slack/command/ladder", Chain(s.LadderCommandHandler(),
		requestIDMiddleware, paramsMiddleware, slackVerifier(s.Cfg.Slack.SigningSecret)))
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Router.ServeHTTP(w, r)
}
