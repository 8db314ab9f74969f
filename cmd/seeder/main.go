package main

import (
	"context"
	"math/rand/v2"
	"os"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/mauv0809/tennis-ladder/internal/database"
	"github.com/mauv0809/tennis-ladder/internal/ladder"
	"github.com/mauv0809/tennis-ladder/internal/ledger"
	"github.com/mauv0809/tennis-ladder/internal/metrics"
	"github.com/mauv0809/tennis-ladder/internal/notification"
	"github.com/mauv0809/tennis-ladder/internal/player"
	"github.com/mauv0809/tennis-ladder/internal/scoring"
	"github.com/prometheus/client_golang/prometheus"
)

const defaultMatches = 40

var scores = []string{"6-4 6-4", "7-5 6-3", "6-2 3-6 7-6", "6-0 6-1", "4-6 6-4 10-8"}

var surfaces = []string{ledger.DefaultSurface, "clay", "grass", "indoor"}

// Simplified config loading for the script
func loadConfig() (dbName, primaryURL, authToken string, matches int) {
	err := godotenv.Load()
	if err != nil {
		log.Warn("No .env file found, reading from environment variables")
	}

	dbName = os.Getenv("DB_NAME")
	if dbName == "" {
		dbName = "ladder.db"
	}
	matches = defaultMatches
	if raw := os.Getenv("SEED_MATCHES"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			log.Fatalf("Error: SEED_MATCHES must be a non-negative integer, got %q", raw)
		}
		matches = n
	}
	return dbName, os.Getenv("TURSO_PRIMARY_URL"), os.Getenv("TURSO_AUTH_TOKEN"), matches
}

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }

func roster() []player.Player {
	return []player.Player{
		{Name: "Eva Horakova", City: "Praha", Role: player.RoleAmateur, Rating: 1120, XP: 100},
		{Name: "Tomas Novak", City: "Praha", Role: player.RoleAmateur, Rating: 1080, XP: 100},
		{Name: "Lucie Dvorak", City: "Brno", Role: player.RoleAmateur, Rating: 1010, XP: 100},
		{Name: "Jan Svoboda", City: "Brno", Role: player.RoleAmateur, Rating: 990, XP: 100},
		{Name: "Petra Cerna", City: "Ostrava", Role: player.RoleAmateur, Rating: 950, XP: 100},
		{Name: "Martin Kral", City: "Plzen", Role: player.RoleAmateur, Rating: 930, XP: 100},
		{Name: "Jiri Vesely", City: "Praha", Role: player.RoleRTTPro, Rating: 1620, XP: 400, RTTRank: intPtr(1), RTTCategory: strPtr("A")},
		{Name: "Karolina Mala", City: "Brno", Role: player.RoleRTTPro, Rating: 1580, XP: 380, RTTRank: intPtr(2), RTTCategory: strPtr("A")},
		{Name: "Ondrej Benes", City: "Olomouc", Role: player.RoleRTTPro, Rating: 1490, XP: 350, RTTRank: intPtr(1), RTTCategory: strPtr("B")},
		{Name: "Pavel Coach", City: "Praha", Role: player.RoleCoach, Rating: 1300, XP: 0},
	}
}

func main() {
	log.Info("Starting database seeder...")
	dbName, primaryURL, authToken, numMatches := loadConfig()

	db, teardown, err := database.InitDB(dbName, primaryURL, authToken)
	if err != nil {
		log.Fatalf("Failed to initialize database: %s", err)
	}
	defer teardown()

	ctx := context.Background()
	players := player.New(db)
	existing, err := players.ListPlayers(ctx, player.Filter{})
	if err != nil {
		log.Fatalf("Failed to list players: %s", err)
	}
	var ids []int64
	if len(existing) > 0 {
		log.Info("Players already present, reusing them", "count", len(existing))
		for _, p := range existing {
			ids = append(ids, p.ID)
		}
	} else {
		for _, p := range roster() {
			id, err := players.UpsertPlayer(ctx, &p)
			if err != nil {
				log.Fatalf("Failed to insert player %s: %s", p.Name, err)
			}
			ids = append(ids, id)
		}
		log.Info("Seeded players", "count", len(ids))
	}
	if len(ids) < 2 {
		log.Fatalf("Need at least two players to seed matches, have %d", len(ids))
	}

	// Events are not published while seeding.
	engine := ladder.New(db, players, ledger.New(db), notification.New(db), nil,
		metrics.NewService(prometheus.NewRegistry()), ladder.Options{})

	eventTypes := []scoring.EventType{scoring.EventFriendly, scoring.EventFriendly, scoring.EventCup, scoring.EventMasters}
	startTime := time.Now()
	played := 0
	for range numMatches {
		challenger := ids[rand.IntN(len(ids))]
		defender := ids[rand.IntN(len(ids))]
		if challenger == defender {
			continue
		}
		c, err := engine.CreateChallenge(ctx, challenger, defender, eventTypes[rand.IntN(len(eventTypes))])
		if err != nil {
			log.Warn("Skipping challenge", "error", err)
			continue
		}
		if _, err := engine.AcceptChallenge(ctx, c.ID, defender); err != nil {
			log.Fatalf("Failed to accept challenge %d: %s", c.ID, err)
		}
		winner := challenger
		if rand.IntN(2) == 0 {
			winner = defender
		}
		if _, err := engine.SubmitResult(ctx, c.ID, scores[rand.IntN(len(scores))], winner, surfaces[rand.IntN(len(surfaces))]); err != nil {
			log.Fatalf("Failed to record result for challenge %d: %s", c.ID, err)
		}
		played++
	}

	// Leave a couple of open challenges so the ladder shows defenders.
	for i := 0; i+1 < len(ids) && i < 4; i += 2 {
		if _, err := engine.CreateChallenge(ctx, ids[i], ids[i+1], scoring.EventFriendly); err != nil {
			log.Warn("Failed to create open challenge", "error", err)
		}
	}

	log.Info("Seeding complete", "matches", played, "duration", time.Since(startTime))
}
