package database

import (
	"context"
	"database/sql"
	"fmt"

	log "github.com/sirupsen/logrus"
)

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            BIGSERIAL PRIMARY KEY,
		kakao_id      VARCHAR(64) NOT NULL UNIQUE,
		nickname      VARCHAR(100),
		profile_image TEXT,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS event_log (
		id          BIGSERIAL PRIMARY KEY,
		event_id    VARCHAR(64) NOT NULL UNIQUE,
		session_id  VARCHAR(64) NOT NULL,
		user_id     VARCHAR(64),
		anon_id     VARCHAR(64),
		event_name  VARCHAR(50) NOT NULL,
		occurred_at TIMESTAMPTZ NOT NULL,
		extra_data  JSONB,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_event_log_name_time ON event_log (event_name, occurred_at)`,
	`CREATE INDEX IF NOT EXISTS idx_event_log_session ON event_log (session_id)`,
	`CREATE TABLE IF NOT EXISTS mood_record (
		id          BIGSERIAL PRIMARY KEY,
		user_id     VARCHAR(64),
		anon_id     VARCHAR(64),
		record_date DATE NOT NULL,
		recorded_at TIMESTAMPTZ NOT NULL,
		mood_emoji  VARCHAR(20) NOT NULL,
		intensity   SMALLINT NOT NULL CHECK (intensity BETWEEN 0 AND 10),
		mood_text   VARCHAR(500),
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_mood_record_user_date ON mood_record (user_id, record_date)`,
	`CREATE INDEX IF NOT EXISTS idx_mood_record_anon ON mood_record (anon_id)`,
	`CREATE TABLE IF NOT EXISTS mood_analysis (
		id            BIGSERIAL PRIMARY KEY,
		record_id     BIGINT NOT NULL REFERENCES mood_record (id) ON DELETE CASCADE,
		user_id       VARCHAR(64),
		analysis_text TEXT NOT NULL,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_mood_analysis_record ON mood_analysis (record_id)`,
	`CREATE TABLE IF NOT EXISTS weekly_report (
		id                BIGSERIAL PRIMARY KEY,
		user_id           BIGINT NOT NULL REFERENCES users (id) ON DELETE CASCADE,
		week_start        DATE NOT NULL,
		week_end          DATE NOT NULL,
		summary_text      TEXT,
		record_count      INT NOT NULL DEFAULT 0,
		avg_intensity     DOUBLE PRECISION,
		mood_distribution JSONB NOT NULL DEFAULT '[]',
		created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (user_id, week_start)
	)`,
}

const clickHouseEventLogDDL = `
	CREATE TABLE IF NOT EXISTS event_log (
		event_id    String,
		session_id  String,
		user_id     Nullable(String),
		anon_id     Nullable(String),
		event_name  LowCardinality(String),
		occurred_at DateTime64(3, 'UTC'),
		extra_data  String,
		inserted_at DateTime DEFAULT now()
	)
	ENGINE = ReplacingMergeTree(inserted_at)
	ORDER BY event_id
`

// ApplySchema creates the Postgres tables the API uses. Every statement is
// idempotent.
func ApplySchema(ctx context.Context, db *sql.DB) error {
	for i, stmt := range postgresSchema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement %d: %w", i+1, err)
		}
	}
	log.WithField("statements", len(postgresSchema)).Info("PostgreSQL schema applied")
	return nil
}
