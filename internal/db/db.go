package db

import (
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Connect initializes the database connection and runs migrations.
func Connect(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}

	if err := runMigrations(db); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return db, nil
}

func runMigrations(db *sqlx.DB) error {
	migrations := []string{
		// The UNIQUE constraint on the sorted participant pair is what makes
		// get-or-create safe under concurrent first-contact sends.
		`CREATE TABLE IF NOT EXISTS chats (
            id SERIAL PRIMARY KEY,
            participant_a INT NOT NULL,
            participant_b INT NOT NULL,
            last_message TEXT NOT NULL DEFAULT '',
            last_message_type TEXT NOT NULL DEFAULT 'text',
            read_a BOOLEAN NOT NULL DEFAULT TRUE,
            read_b BOOLEAN NOT NULL DEFAULT TRUE,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            CHECK (participant_a < participant_b),
            UNIQUE(participant_a, participant_b)
        );`,
		`CREATE TABLE IF NOT EXISTS messages (
            id SERIAL PRIMARY KEY,
            chat_id INT NOT NULL REFERENCES chats(id) ON DELETE CASCADE,
            sender_id INT NOT NULL,
            content TEXT NOT NULL,
            type TEXT NOT NULL DEFAULT 'text',
            ref_id TEXT,
            edited BOOLEAN NOT NULL DEFAULT FALSE,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );`,
		`CREATE INDEX IF NOT EXISTS idx_messages_chat_created ON messages (chat_id, created_at);`,
		`CREATE INDEX IF NOT EXISTS idx_chats_participant_a ON chats (participant_a, updated_at DESC);`,
		`CREATE INDEX IF NOT EXISTS idx_chats_participant_b ON chats (participant_b, updated_at DESC);`,
	}

	for _, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return err
		}
	}
	log.Println("database migrations applied")
	return nil
}
