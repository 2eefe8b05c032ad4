package utils

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// GameEvent is one row of the audit trail: game lifecycle changes, wins,
// bans, and frenzy activations. Running game state is deliberately kept in
// memory only; the trail exists so admins can reconstruct what happened.
type GameEvent struct {
	ID        int64
	GameID    int
	ChannelID string
	UserID    string
	Event     string
	Detail    string
	CreatedAt time.Time
}

// Event names stored in the audit trail.
const (
	EventGameStarted   = "game_started"
	EventGameEnded     = "game_ended"
	EventGameWon       = "game_won"
	EventUserBanned    = "user_banned"
	EventUserUnbanned  = "user_unbanned"
	EventFrenzyStarted = "frenzy_started"
)

var (
	// DB is the shared connection pool; nil when the bot runs without
	// audit persistence.
	DB            *pgxpool.Pool
	dbMutex       sync.Mutex
	dbInitialized bool
)

// SetupDatabase connects to DATABASE_URL and bootstraps the schema. An
// unset DATABASE_URL is not an error: the bot runs with the audit trail
// disabled.
func SetupDatabase() error {
	dbMutex.Lock()
	defer dbMutex.Unlock()

	if dbInitialized {
		return nil
	}

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		return nil
	}

	ctx := context.Background()

	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return fmt.Errorf("failed to parse database URL: %w", err)
	}

	// The audit trail is write-mostly and low volume; a small pool is
	// plenty.
	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnLifetime = 45 * time.Minute
	config.MaxConnIdleTime = 5 * time.Minute
	config.HealthCheckPeriod = 30 * time.Second
	config.ConnConfig.RuntimeParams = map[string]string{
		"application_name":  "msgdrop-bot",
		"timezone":          "UTC",
		"statement_timeout": "30s",
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return fmt.Errorf("failed to create connection pool: %w", err)
	}

	conn, err := pool.Acquire(ctx)
	if err != nil {
		pool.Close()
		return fmt.Errorf("failed to acquire connection: %w", err)
	}
	conn.Release()

	DB = pool
	dbInitialized = true

	if err := createGameEventsTable(); err != nil {
		return fmt.Errorf("failed to create game_events table: %w", err)
	}
	return nil
}

// CloseDatabase closes the connection pool.
func CloseDatabase() {
	dbMutex.Lock()
	defer dbMutex.Unlock()
	if DB != nil {
		DB.Close()
		DB = nil
		dbInitialized = false
	}
}

func createGameEventsTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := DB.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS game_events (
			id BIGSERIAL PRIMARY KEY,
			game_id INTEGER NOT NULL,
			channel_id TEXT NOT NULL,
			user_id TEXT NOT NULL DEFAULT '',
			event TEXT NOT NULL,
			detail TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_game_events_game_id ON game_events (game_id);
		CREATE INDEX IF NOT EXISTS idx_game_events_created_at ON game_events (created_at DESC);
	`)
	return err
}

// RecordGameEvent appends one row to the audit trail. A missing database or
// a failed insert is logged and otherwise ignored; the game itself never
// depends on the trail.
func RecordGameEvent(gameID int, channelID, userID, event, detail string) {
	if DB == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := DB.Exec(ctx,
		`INSERT INTO game_events (game_id, channel_id, user_id, event, detail) VALUES ($1, $2, $3, $4, $5)`,
		gameID, channelID, userID, event, detail)
	if err != nil {
		log.Printf("Failed to record game event %s for game %d: %v", event, gameID, err)
	}
}

// RecentGameEvents returns the newest audit rows, newest first.
func RecentGameEvents(ctx context.Context, limit int) ([]GameEvent, error) {
	if DB == nil {
		return nil, nil
	}

	rows, err := DB.Query(ctx,
		`SELECT id, game_id, channel_id, user_id, event, detail, created_at
		 FROM game_events ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query game events: %w", err)
	}
	defer rows.Close()

	var events []GameEvent
	for rows.Next() {
		var e GameEvent
		if err := rows.Scan(&e.ID, &e.GameID, &e.ChannelID, &e.UserID, &e.Event, &e.Detail, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan game event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
