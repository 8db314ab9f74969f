package http

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/tennis-ladder/internal/ladder"
	"github.com/mauv0809/tennis-ladder/internal/player"
	"github.com/mauv0809/tennis-ladder/internal/processor"
	"github.com/mauv0809/tennis-ladder/internal/pubsub"
	"github.com/slack-go/slack"
)

const (
	defaultMatchLimit = 20
	maxMatchLimit     = 100
)

func (s *Server) HealthCheckHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log.Debug("Received health check request")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "OK!")
	}
}

func (s *Server) RankingsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rankingType := ladder.RankingType(r.URL.Query().Get("type"))
		if rankingType == "" {
			rankingType = ladder.RankingClubElo
		}
		entries, err := s.Ladder.GetRankings(r.Context(), rankingType)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, entries)
	}
}

func (s *Server) ListChallengesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var userID *int64
		if raw := r.URL.Query().Get("user_id"); raw != "" {
			id, err := parseID(raw)
			if err != nil {
				writeError(w, r, err)
				return
			}
			userID = &id
		}
		challenges, err := s.Ladder.ListChallenges(r.Context(), userID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, challenges)
	}
}

func (s *Server) CreateChallengeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createChallengeRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		c, err := s.Ladder.CreateChallenge(r.Context(), req.ChallengerID, req.DefenderID, req.EventType)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, c)
	}
}

func (s *Server) GetChallengeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseID(r.PathValue("id"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		c, err := s.Ladder.GetChallenge(r.Context(), id)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, c)
	}
}

func (s *Server) AcceptChallengeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseID(r.PathValue("id"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		var req acceptChallengeRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		c, err := s.Ladder.AcceptChallenge(r.Context(), id, req.UserID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, c)
	}
}

func (s *Server) CancelChallengeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseID(r.PathValue("id"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		if err := s.Ladder.CancelChallenge(r.Context(), id); err != nil {
			writeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) SubmitResultHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseID(r.PathValue("id"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		var req submitResultRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		c, err := s.Ladder.SubmitResult(r.Context(), id, req.Score, req.WinnerID, req.Surface)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, c)
	}
}

func (s *Server) ListPlayersHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter := player.Filter{
			Role:   player.Role(r.URL.Query().Get("role")),
			Ranked: r.URL.Query().Get("ranked") == "true",
		}
		if filter.Role != "" && !filter.Role.Valid() {
			writeError(w, r, fmt.Errorf("%w: unknown role %q", ladder.ErrValidation, filter.Role))
			return
		}
		players, err := s.Players.ListPlayers(r.Context(), filter)
		if err != nil {
			writeError(w, r, fmt.Errorf("%w: list players: %w", ladder.ErrPersistence, err))
			return
		}
		writeJSON(w, http.StatusOK, players)
	}
}

func (s *Server) UpsertPlayerHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var p player.Player
		if err := decodeBody(r, &p); err != nil {
			writeError(w, r, err)
			return
		}
		p.Name = strings.TrimSpace(p.Name)
		switch {
		case p.Name == "":
			writeError(w, r, fmt.Errorf("%w: name is required", ladder.ErrValidation))
			return
		case p.Role != "" && !p.Role.Valid():
			writeError(w, r, fmt.Errorf("%w: unknown role %q", ladder.ErrValidation, p.Role))
			return
		case p.ID < 0 || p.XP < 0:
			writeError(w, r, fmt.Errorf("%w: id and xp must not be negative", ladder.ErrValidation))
			return
		}

		id, err := s.Players.UpsertPlayer(r.Context(), &p)
		if err != nil {
			writeError(w, r, fmt.Errorf("%w: upsert player: %w", ladder.ErrPersistence, err))
			return
		}
		// Respond with the stored row; an edit never changes xp or rating.
		stored, err := s.Players.GetPlayer(r.Context(), id)
		if err != nil {
			writeError(w, r, playerError(err))
			return
		}
		writeJSON(w, http.StatusOK, stored)
	}
}

func (s *Server) GetPlayerHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := s.playerFromPath(w, r)
		if !ok {
			return
		}
		p, err := s.Players.GetPlayer(r.Context(), id)
		if err != nil {
			writeError(w, r, playerError(err))
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}

func (s *Server) PlayerMatchesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := s.playerFromPath(w, r)
		if !ok {
			return
		}
		limit := defaultMatchLimit
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 {
				writeError(w, r, fmt.Errorf("%w: limit must be a positive integer", ladder.ErrValidation))
				return
			}
			limit = min(n, maxMatchLimit)
		}
		matches, err := s.Matches.Recent(r.Context(), id, limit)
		if err != nil {
			writeError(w, r, fmt.Errorf("%w: load matches: %w", ladder.ErrPersistence, err))
			return
		}
		writeJSON(w, http.StatusOK, matches)
	}
}

func (s *Server) PlayerNotificationsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := s.playerFromPath(w, r)
		if !ok {
			return
		}
		unreadOnly := r.URL.Query().Get("unread") == "true"
		notifications, err := s.Notifications.ListForUser(r.Context(), id, unreadOnly)
		if err != nil {
			writeError(w, r, fmt.Errorf("%w: load notifications: %w", ladder.ErrPersistence, err))
			return
		}
		writeJSON(w, http.StatusOK, notifications)
	}
}

// LadderEventsPushHandler consumes Pub/Sub push deliveries. A non-2xx reply
// makes Pub/Sub redeliver, so only announcement failures return 500.
func (s *Server) LadderEventsPushHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bodyBytes, err := io.ReadAll(r.Body)
		if err != nil {
			log.Error("Failed to read request body", "error", err)
			http.Error(w, "Failed to read request body", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		var msg pushMessage
		if err := json.Unmarshal(bodyBytes, &msg); err != nil {
			log.Error("Failed to decode Pub/Sub message", "error", err)
			http.Error(w, "Invalid Pub/Sub message format", http.StatusBadRequest)
			return
		}

		// Decode base64 to raw MessagePack bytes
		rawData, err := base64.StdEncoding.DecodeString(msg.Message.Data)
		if err != nil {
			log.Error("Failed to decode base64 data", "error", err)
			http.Error(w, "Invalid base64 data", http.StatusBadRequest)
			return
		}
		ev, err := pubsub.DecodeEvent(rawData)
		if err != nil {
			http.Error(w, "Invalid event payload", http.StatusBadRequest)
			return
		}

		switch err := s.Processor.HandleEvent(ev, isDryRunFromContext(r)); {
		case errors.Is(err, processor.ErrUnknownEvent):
			// Acknowledge so the message is not redelivered forever.
			log.Warn("Acknowledging unknown ladder event", "messageID", msg.Message.MessageID, "type", ev.Type)
		case err != nil:
			http.Error(w, "Failed to handle event", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// LadderCommandHandler answers the /ladder slash command with a rankings view.
// "rtt" selects the RTT ladder, anything else the club ladder.
func (s *Server) LadderCommandHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cmd, err := slack.SlashCommandParse(r)
		if err != nil {
			log.Error("Failed to parse slash command", "error", err)
			http.Error(w, "Invalid slash command", http.StatusBadRequest)
			return
		}

		rankingType := ladder.RankingClubElo
		switch strings.ToLower(strings.TrimSpace(cmd.Text)) {
		case "", "club":
		case "rtt":
			rankingType = ladder.RankingRTTRating
		default:
			respondWithSlackMsg(w, slack.Message{Msg: slack.Msg{
				ResponseType: slack.ResponseTypeEphemeral,
				Text:         "Usage: /ladder [club|rtt]",
			}})
			return
		}

		entries, err := s.Ladder.GetRankings(r.Context(), rankingType)
		if err != nil {
			log.Error("Failed to load rankings", "error", err)
			http.Error(w, "Failed to load rankings", http.StatusInternalServerError)
			return
		}

		msg, err := s.Notifier.FormatRankingsResponse(rankingType, entries)
		if err != nil {
			log.Error("Failed to format rankings", "error", err)
			http.Error(w, "Failed to format rankings", http.StatusInternalServerError)
			return
		}
		slackMsg, ok := msg.(slack.Message)
		if !ok {
			log.Error("Failed to cast message to slack.Message")
			http.Error(w, "Invalid message format for Slack", http.StatusInternalServerError)
			return
		}
		slackMsg.ResponseType = slack.ResponseTypeInChannel
		respondWithSlackMsg(w, slackMsg)
	}
}

func (s *Server) playerFromPath(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := parseID(r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return 0, false
	}
	return id, true
}

func playerError(err error) error {
	if errors.Is(err, player.ErrPlayerNotFound) {
		return ladder.ErrPlayerNotFound
	}
	return fmt.Errorf("%w: load player: %w", ladder.ErrPersistence, err)
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, ladder.ErrInvalidID
	}
	return id, nil
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: invalid request body: %v", ladder.ErrValidation, err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("Failed to encode response", "error", err)
	}
}

// writeError maps an error category to its HTTP status. Persistence details
// stay in the log.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	category := ladder.Category(err)
	status := http.StatusInternalServerError
	message := err.Error()
	switch category {
	case "validation":
		status = http.StatusBadRequest
	case "not_found":
		status = http.StatusNotFound
	case "authorization":
		status = http.StatusForbidden
	case "conflict":
		status = http.StatusConflict
	default:
		message = "internal server error"
		log.Error("Request failed", "error", err, "method", r.Method, "path", r.URL.Path, "requestID", requestIDFromContext(r))
	}
	writeJSON(w, status, errorResponse{Error: message, Category: category})
}

// respondWithSlackMsg is a helper to format and write a Slack message as an HTTP response.
func respondWithSlackMsg(w http.ResponseWriter, msg slack.Message) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(msg); err != nil {
		log.Error("Failed to encode slack message to JSON", "error", err)
	}
}
