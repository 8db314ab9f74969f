package slack

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/tennis-ladder/internal/ladder"
	"github.com/mauv0809/tennis-ladder/internal/metrics"
	"github.com/mauv0809/tennis-ladder/internal/notifier"
	"github.com/mauv0809/tennis-ladder/internal/pubsub"
	"github.com/mauv0809/tennis-ladder/internal/scoring"
	"github.com/slack-go/slack"
)

// slackClient is an interface that contains the methods from the slack.Client that we use.
// This allows for easy mocking in tests.
type slackClient interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

var _ notifier.Notifier = &Notifier{}

// Notifier posts ladder announcements to a Slack channel.
type Notifier struct {
	api       slackClient
	channelID string
	metrics   metrics.Metrics
}

// NewNotifier creates a new Notifier.
func NewNotifier(token, channelID string, metrics metrics.Metrics) *Notifier {
	return &Notifier{
		api:       slack.New(token),
		channelID: channelID,
		metrics:   metrics,
	}
}

// NewNotifierWithAPI creates a new Notifier with a specific slack.Client instance.
// Useful for tests that need to intercept API calls.
func NewNotifierWithAPI(api slackClient, channelID string, metrics metrics.Metrics) *Notifier {
	return &Notifier{
		api:       api,
		channelID: channelID,
		metrics:   metrics,
	}
}

func (s *Notifier) sendMessage(message slack.Message, dryRun bool) (string, string, error) {
	if dryRun {
		jsonMsg, _ := json.MarshalIndent(message, "", "  ")
		log.Info("[Dry Run] Would send Slack message", "channel", s.channelID, "message", string(jsonMsg))
		return "dry-run-channel", "dry-run-ts", nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	channelID, timestamp, err := s.api.PostMessageContext(
		ctx,
		s.channelID,
		slack.MsgOptionBlocks(message.Blocks.BlockSet...),
		slack.MsgOptionAsUser(true),
	)
	if err != nil {
		s.metrics.IncSlackNotifFailed()
		log.Error("Failed to send Slack message", "error", err, "channel", s.channelID)
		return "", "", fmt.Errorf("failed to post message: %w", err)
	}

	s.metrics.IncSlackNotifSent()
	log.Info("Successfully sent Slack message", "channel", channelID, "timestamp", timestamp)
	return channelID, timestamp, nil
}

func (s *Notifier) send(msg slack.Message, dryRun bool) error {
	_, _, err := s.sendMessage(msg, dryRun)
	return err
}

func (s *Notifier) SendChallengeCreated(ev *pubsub.LadderEvent, dryRun bool) error {
	return s.send(formatChallengeCreated(ev), dryRun)
}

func (s *Notifier) SendChallengeAccepted(ev *pubsub.LadderEvent, dryRun bool) error {
	return s.send(formatChallengeAccepted(ev), dryRun)
}

func (s *Notifier) SendChallengeCancelled(ev *pubsub.LadderEvent, dryRun bool) error {
	return s.send(formatChallengeClosed(ev, "❌ Challenge cancelled", "%s withdrew the challenge against %s."), dryRun)
}

func (s *Notifier) SendChallengeExpired(ev *pubsub.LadderEvent, dryRun bool) error {
	return s.send(formatChallengeClosed(ev, "⌛ Challenge expired", "%s's challenge against %s ran out of time."), dryRun)
}

func (s *Notifier) SendResultRecorded(ev *pubsub.LadderEvent, dryRun bool) error {
	return s.send(formatResultRecorded(ev), dryRun)
}

// FormatRankingsResponse formats a ladder view for a slash command response.
func (s *Notifier) FormatRankingsResponse(rankingType ladder.RankingType, entries []ladder.Entry) (any, error) {
	return formatRankings(rankingType, entries), nil
}

func plain(text string) *slack.TextBlockObject {
	return slack.NewTextBlockObject("plain_text", text, true, false)
}

func section(text string) *slack.SectionBlock {
	return slack.NewSectionBlock(slack.NewTextBlockObject("mrkdwn", text, false, false), nil, nil)
}

func eventLabel(t scoring.EventType) string {
	switch t {
	case scoring.EventCup:
		return "Cup"
	case scoring.EventMasters:
		return "Masters"
	default:
		return "Friendly"
	}
}

func formatChallengeCreated(ev *pubsub.LadderEvent) slack.Message {
	deadline := time.Unix(ev.Deadline, 0).UTC()
	return slack.NewBlockMessage(
		slack.NewHeaderBlock(plain("🎾 New ladder challenge! 🎾")),
		section(fmt.Sprintf("*%s* challenged *%s*", ev.ChallengerName, ev.DefenderName)),
		slack.NewContextBlock("",
			plain(fmt.Sprintf("%s match | answer by %s", eventLabel(ev.EventType), deadline.Format("Monday 02 Jan"))),
		),
	)
}

func formatChallengeAccepted(ev *pubsub.LadderEvent) slack.Message {
	return slack.NewBlockMessage(
		slack.NewHeaderBlock(plain("🤝 Challenge accepted")),
		section(fmt.Sprintf("*%s* accepted the challenge from *%s*. Game on!", ev.DefenderName, ev.ChallengerName)),
	)
}

func formatChallengeClosed(ev *pubsub.LadderEvent, header, body string) slack.Message {
	return slack.NewBlockMessage(
		slack.NewHeaderBlock(plain(header)),
		section(fmt.Sprintf(body, ev.ChallengerName, ev.DefenderName)),
	)
}

func formatResultRecorded(ev *pubsub.LadderEvent) slack.Message {
	winner, loser := ev.ChallengerName, ev.DefenderName
	if ev.WinnerID == ev.DefenderID {
		winner, loser = loser, winner
	}

	blocks := []slack.Block{
		slack.NewHeaderBlock(plain("🏆 Match result 🏆")),
		section(fmt.Sprintf("*%s* beat *%s* %s", winner, loser, ev.Score)),
	}
	if o := ev.Outcome; o != nil {
		text := fmt.Sprintf("%s %+d xp | %s %+d xp", winner, o.WinnerTotal(), loser, o.LoserTotal())
		if o.WinnerBonusDelta > 0 {
			text += fmt.Sprintf(" | bonus %+d for %s", o.WinnerBonusDelta, winner)
		}
		blocks = append(blocks, slack.NewContextBlock("", plain(text)))
	}
	return slack.NewBlockMessage(blocks...)
}

func formatRankings(rankingType ladder.RankingType, entries []ladder.Entry) slack.Message {
	title := "🏆 Club Elo Ladder 🏆"
	if rankingType == ladder.RankingRTTRating {
		title = "🏆 RTT Rating Ladder 🏆"
	}
	blocks := []slack.Block{slack.NewHeaderBlock(plain(title))}

	if len(entries) == 0 {
		blocks = append(blocks, slack.NewSectionBlock(plain("Nobody on this ladder yet. Go challenge someone!"), nil, nil))
		return slack.NewBlockMessage(blocks...)
	}

	for _, e := range entries {
		var medal string
		switch e.Rank {
		case 1:
			medal = "🥇 "
		case 2:
			medal = "🥈 "
		case 3:
			medal = "🥉 "
		}

		var stat string
		if rankingType == ladder.RankingRTTRating && e.RTTRank != nil {
			category := ""
			if e.RTTCategory != nil {
				category = " " + *e.RTTCategory
			}
			stat = fmt.Sprintf("RTT #%d%s | rating %d", *e.RTTRank, category, e.Rating)
		} else {
			stat = fmt.Sprintf("%d xp | rating %d", e.XP, e.Rating)
		}

		text := fmt.Sprintf("%d. %s%s\n> %s | Win %%: %d%% (%d/%d)", e.Rank, medal, e.Name, stat, e.WinRate, e.Wins, e.Matches)
		if e.Status == ladder.EntryDefending {
			text += " | 🛡️ defending"
		}
		blocks = append(blocks, slack.NewSectionBlock(plain(text), nil, nil))
	}
	return slack.NewBlockMessage(blocks...)
}
