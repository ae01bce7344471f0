package pubsub

import (
	"time"

	"cloud.google.com/go/pubsub"
)

type client struct {
	client   *pubsub.Client
	teardown func()
}

// EventType represents the type of event/message sent via pubsub.
// It doubles as the topic name.
type EventType string

const (
	EventMatchRecorded EventType = "match-recorded"
)

// MatchRecordedEvent is published after a match has been saved and rated.
type MatchRecordedEvent struct {
	MatchID      string    `msgpack:"match_id"`
	LeagueID     string    `msgpack:"league_id"`
	WinnerID     string    `msgpack:"winner_id"`
	LoserID      string    `msgpack:"loser_id"`
	WinnerRating int       `msgpack:"winner_rating"`
	LoserRating  int       `msgpack:"loser_rating"`
	PlayedAt     time.Time `msgpack:"played_at"`
}

// PushRequest is the body Pub/Sub posts to a push subscription endpoint.
type PushRequest struct {
	Message struct {
		Data      []byte `json:"data"`
		MessageID string `json:"messageId"`
	} `json:"message"`
	Subscription string `json:"subscription"`
}
