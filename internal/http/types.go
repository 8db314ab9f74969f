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
	"github.com/mauv0809/tennis-ladder/internal/scoring"
)

type Server struct {
	Ladder         ladder.Ladder
	Players        player.Store
	Matches        ledger.Ledger
	Notifications  notification.Sink
	MetricsHandler http.Handler
	Cfg            config.Config
	Notifier       notifier.Notifier
	Processor      *processor.Processor
	Router         *http.ServeMux
}

type createChallengeRequest struct {
	ChallengerID int64             `json:"challenger_id"`
	DefenderID   int64             `json:"defender_id"`
	EventType    scoring.EventType `json:"event_type"`
}

type acceptChallengeRequest struct {
	UserID int64 `json:"user_id"`
}

type submitResultRequest struct {
	Score    string `json:"score"`
	WinnerID int64  `json:"winner_id"`
	Surface  string `json:"surface"`
}

type errorResponse struct {
	Error    string `json:"error"`
	Category string `json:"category"`
}

// pushMessage is the envelope of a Pub/Sub push delivery.
type pushMessage struct {
	Message struct {
		Data      string `json:"data"` // base64-encoded message payload
		MessageID string `json:"messageId"`
	} `json:"message"`
	Subscription string `json:"subscription"`
}
