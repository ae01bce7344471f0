package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/ladderlink/ladderlink/internal/database"
	"github.com/ladderlink/ladderlink/internal/league"
	"github.com/ladderlink/ladderlink/internal/metrics"
	"github.com/ladderlink/ladderlink/internal/rating"
	"github.com/ladderlink/ladderlink/internal/score"
)

const (
	leagueCode = "DEMO1"
	numMatches = 200
)

// Simplified config loading for the script
func loadConfig() map[string]string {
	err := godotenv.Load()
	if err != nil {
		log.Warn("No .env file found, reading from environment variables")
	}

	config := map[string]string{"DB_NAME": "ladder.db"}
	for _, key := range []string{"DB_NAME", "TURSO_PRIMARY_URL", "TURSO_AUTH_TOKEN"} {
		if value, ok := os.LookupEnv(key); ok {
			config[key] = value
		}
	}
	return config
}

var finishedSets = []score.SetScore{
	{Player1: 6, Player2: 0}, {Player1: 6, Player2: 1}, {Player1: 6, Player2: 2},
	{Player1: 6, Player2: 3}, {Player1: 6, Player2: 4}, {Player1: 7, Player2: 5},
	{Player1: 7, Player2: 6},
}

// randomSet returns a finished set won by side.
func randomSet(side score.Side) score.SetScore {
	s := finishedSets[rand.Intn(len(finishedSets))]
	if score.RequiresTiebreaker(s) {
		points := rand.Intn(6)
		if points == 0 {
			points = 5
		}
		s.TiebreakerLoserPoints = &points
	}
	if side == score.Player2 {
		s.Player1, s.Player2 = s.Player2, s.Player1
	}
	return s
}

// randomSheet builds a best-of-three score sheet won by winner.
func randomSheet(winner score.Side) [score.SetCount]score.SetScore {
	var sets [score.SetCount]score.SetScore
	if rand.Intn(2) == 0 {
		sets[0], sets[1] = randomSet(winner), randomSet(winner)
		return sets
	}
	loser := winner.Opponent()
	if rand.Intn(2) == 0 {
		sets[0], sets[1] = randomSet(loser), randomSet(winner)
	} else {
		sets[0], sets[1] = randomSet(winner), randomSet(loser)
	}
	sets[2] = randomSet(winner)
	return sets
}

func main() {
	log.Info("Starting database seeder...")
	cfg := loadConfig()
	ctx := context.Background()

	db, teardown, err := database.InitDB(cfg["DB_NAME"], cfg["TURSO_PRIMARY_URL"], cfg["TURSO_AUTH_TOKEN"])
	if err != nil {
		log.Fatalf("Failed to initialize database: %s", err)
	}
	defer teardown()

	store := league.New(db)
	engine := rating.NewEngine(store, metrics.NewService())

	l, err := store.GetLeagueByCode(ctx, leagueCode)
	if errors.Is(err, league.ErrLeagueNotFound) {
		l, err = store.CreateLeague(ctx, "Demo Ladder", "Seeded demo league", leagueCode)
	}
	if err != nil {
		log.Fatalf("Failed to prepare league %s: %s", leagueCode, err)
	}
	log.Info("Using league", "id", l.ID, "code", l.Code)

	names := []string{"Ana", "Ben", "Chloe", "Dev", "Elif", "Femi", "Gus", "Hana"}
	players := make([]*league.Membership, 0, len(names))
	for i, name := range names {
		email := fmt.Sprintf("seeder-%d@example.com", i+1)
		m, err := store.RegisterPlayer(ctx, name, email, leagueCode, rating.InitialRating)
		if errors.Is(err, league.ErrAlreadyMember) {
			log.Info("Player already registered", "name", name)
			continue
		}
		if err != nil {
			log.Fatalf("Failed to register %s: %s", name, err)
		}
		players = append(players, m)
	}
	if len(players) < 2 {
		log.Info("League already seeded, nothing to do.")
		return
	}
	log.Info("Registered players", "count", len(players))

	startTime := time.Now()
	for i := 0; i < numMatches; i++ {
		p1 := players[rand.Intn(len(players))]
		p2 := players[rand.Intn(len(players))]
		if p1.PlayerID == p2.PlayerID {
			continue
		}

		winner := score.Player1
		if rand.Intn(2) == 0 {
			winner = score.Player2
		}
		result, err := score.Submit(score.Evaluate(randomSheet(winner)), p2.PlayerID)
		if err != nil {
			log.Fatalf("Seeder produced an invalid score sheet: %s", err)
		}

		winnerID, loserID := p1.PlayerID, p2.PlayerID
		if result.Winner == score.Player2 {
			winnerID, loserID = loserID, winnerID
		}
		match := &league.MatchRecord{
			LeagueID:  l.ID,
			Player1ID: p1.PlayerID,
			Player2ID: p2.PlayerID,
			Sets:      result.Sets,
			Winner:    result.Winner,
			WinnerID:  winnerID,
			LoserID:   loserID,
			PlayedAt:  time.Now().Add(-time.Duration(numMatches-i) * time.Hour),
		}
		if _, err := engine.RateMatch(ctx, match); err != nil {
			log.Fatalf("Failed to record match: %s", err)
		}
		// Seeded results are never announced.
		if err := store.UpdateProcessingStatus(ctx, match.ID, league.StatusCompleted); err != nil {
			log.Fatalf("Failed to complete match %s: %s", match.ID, err)
		}
		if (i+1)%50 == 0 {
			log.Info("Inserted matches", "completed", i+1, "total", numMatches)
		}
	}

	log.Info("Successfully seeded league.", "code", leagueCode, "duration", time.Since(startTime))
}
