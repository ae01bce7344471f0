package slack

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/ladderlink/ladderlink/internal/league"
	"github.com/ladderlink/ladderlink/internal/metrics"
	"github.com/ladderlink/ladderlink/internal/notifier"
	"github.com/ladderlink/ladderlink/internal/score"
	"github.com/slack-go/slack"
)

// slackClient is an interface that contains the methods from the slack.Client that we use.
// This allows for easy mocking in tests.
type slackClient interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

var _ notifier.Notifier = &Notifier{}

// Notifier handles sending notifications to Slack.
type Notifier struct {
	api       slackClient
	channelID string
	metrics   metrics.Metrics
}

// NewNotifier creates a new Notifier.
func NewNotifier(token, channelID string, metrics metrics.Metrics) *Notifier {
	api := slack.New(token)
	return &Notifier{
		api:       api,
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

func (s *Notifier) sendMessage(ctx context.Context, message slack.Message, dryRun bool) (string, string, error) {
	if dryRun {
		jsonMsg, _ := json.MarshalIndent(message, "", "  ")
		log.Info("[Dry Run] Would send Slack message", "channel", s.channelID, "message", string(jsonMsg))
		return "dry-run-ts", "dry-run-thread-ts", nil
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
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

func (s *Notifier) SendResultNotification(ctx context.Context, result notifier.ResultNotification, dryRun bool) error {
	msg := s.formatResultNotification(result)
	_, _, err := s.sendMessage(ctx, msg, dryRun)
	return err
}

func (s *Notifier) SendStandings(ctx context.Context, l *league.League, standings []league.Standing, dryRun bool) error {
	msg := s.formatStandings(l, standings)
	_, _, err := s.sendMessage(ctx, msg, dryRun)
	return err
}

// FormatStandingsResponse formats the ladder for a slash command response.
func (s *Notifier) FormatStandingsResponse(l *league.League, standings []league.Standing) (any, error) {
	return s.formatStandings(l, standings), nil
}

// FormatLeagueNotFoundResponse formats a league not found message for a slash command response.
func (s *Notifier) FormatLeagueNotFoundResponse(code string) (any, error) {
	text := fmt.Sprintf("Sorry, I couldn't find a league with the code '%s'.", code)
	return slack.NewBlockMessage(
		slack.NewSectionBlock(slack.NewTextBlockObject("plain_text", text, true, false), nil, nil),
	), nil
}

// formatResultNotification creates the Slack message for a rated match using Block Kit.
func (s *Notifier) formatResultNotification(result notifier.ResultNotification) slack.Message {
	blocks := make([]slack.Block, 0)

	headerText := slack.NewTextBlockObject("plain_text", "🎾 Match result 🎾", true, false)
	blocks = append(blocks, slack.NewHeaderBlock(headerText))

	summary := fmt.Sprintf("%s beat %s %s", result.Winner.Name, result.Loser.Name, formatScore(result.Match))
	blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject("plain_text", summary, true, false), nil, nil))

	fields := []*slack.TextBlockObject{
		slack.NewTextBlockObject("plain_text", formatRating(result.Winner), true, false),
		slack.NewTextBlockObject("plain_text", formatRating(result.Loser), true, false),
	}
	blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject("plain_text", "Ratings:", true, false), fields, nil))

	var contextText string
	if result.League != nil {
		contextText = result.League.Name + " · "
	}
	contextText += result.Match.PlayedAt.UTC().Format("Monday 02 Jan, 15:04")
	blocks = append(blocks, slack.NewContextBlock("", slack.NewTextBlockObject("plain_text", contextText, true, false)))

	return slack.NewBlockMessage(blocks...)
}

// formatStandings creates a Slack message to display the league ladder.
func (s *Notifier) formatStandings(l *league.League, standings []league.Standing) slack.Message {
	blocks := make([]slack.Block, 0)

	title := "🏆 Ladder 🏆"
	if l != nil {
		title = fmt.Sprintf("🏆 %s 🏆", l.Name)
	}
	blocks = append(blocks, slack.NewHeaderBlock(slack.NewTextBlockObject("plain_text", title, true, false)))

	if len(standings) == 0 {
		blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject("plain_text", "No players yet. Share the league code to get started!", true, false), nil, nil))
		return slack.NewBlockMessage(blocks...)
	}

	for _, st := range standings {
		var medal string
		switch st.Position {
		case 1:
			medal = "🥇"
		case 2:
			medal = "🥈"
		case 3:
			medal = "🥉"
		}

		m := st.Membership
		playerText := fmt.Sprintf("%d. %s %s\n> Rating: %d | W/L: %d/%d | Form: %s",
			st.Position,
			medal,
			m.PlayerName,
			m.Rating,
			m.Wins,
			m.Losses,
			formatForm(m.PlayerID, st.RecentMatches),
		)
		blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject("plain_text", playerText, true, false), nil, nil))
	}

	return slack.NewBlockMessage(blocks...)
}

// formatScore renders the sets from the winner's point of view, e.g. "6-4 6-7(5) 7-5".
func formatScore(m *league.MatchRecord) string {
	var sets []string
	for _, set := range m.Sets {
		if set.Player1 == 0 && set.Player2 == 0 {
			continue
		}
		w, l := set.Player1, set.Player2
		if m.Winner == score.Player2 {
			w, l = l, w
		}
		text := fmt.Sprintf("%d-%d", w, l)
		if set.TiebreakerLoserPoints != nil {
			text += fmt.Sprintf("(%d)", *set.TiebreakerLoserPoints)
		}
		sets = append(sets, text)
	}
	return strings.Join(sets, " ")
}

func formatRating(p notifier.PlayerResult) string {
	return fmt.Sprintf("%s: %d (%+d)", p.Name, p.Rating, p.Change)
}

func formatForm(playerID string, recent []league.MatchRecord) string {
	if len(recent) == 0 {
		return "-"
	}
	form := make([]string, 0, len(recent))
	for _, m := range recent {
		if m.WinnerID == playerID {
			form = append(form, "W")
		} else {
			form = append(form, "L")
		}
	}
	return strings.Join(form, " ")
}
