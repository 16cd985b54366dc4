package postgres

// ══════════════════════════════════════════════════════════════════════════════
// EMBEDDED MIGRATIONS
// The reward schema is three tables deep: a score set per (course, user),
// five scores per set, an append-only change log per score. Foreign keys
// cascade so that deleting a set removes everything beneath it.
// ══════════════════════════════════════════════════════════════════════════════

// GetMigrations returns all embedded migrations.
func GetMigrations() []Migration {
	return []Migration{
		{
			Version: 1,
			Name:    "create_reward_score_sets",
			UpSQL:   migration001Up,
			DownSQL: migration001Down,
		},
		{
			Version: 2,
			Name:    "create_reward_scores",
			UpSQL:   migration002Up,
			DownSQL: migration002Down,
		},
		{
			Version: 3,
			Name:    "create_reward_score_log",
			UpSQL:   migration003Up,
			DownSQL: migration003Down,
		},
	}
}

const migration001Up = `
CREATE TABLE IF NOT EXISTS reward_score_sets (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	course_id UUID NOT NULL,
	user_id UUID NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	UNIQUE (course_id, user_id)
);

CREATE INDEX IF NOT EXISTS idx_score_sets_course ON reward_score_sets (course_id);
CREATE INDEX IF NOT EXISTS idx_score_sets_user ON reward_score_sets (user_id);
`

const migration001Down = `
DROP TABLE IF EXISTS reward_score_sets;
`

const migration002Up = `
CREATE TABLE IF NOT EXISTS reward_scores (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	set_id UUID NOT NULL REFERENCES reward_score_sets (id) ON DELETE CASCADE,
	kind TEXT NOT NULL CHECK (kind IN ('health', 'fitness', 'growth', 'strength', 'power')),
	value INTEGER NOT NULL,
	percentage DOUBLE PRECISION NOT NULL DEFAULT 0,
	UNIQUE (set_id, kind)
);

CREATE INDEX IF NOT EXISTS idx_scores_set ON reward_scores (set_id);
`

const migration002Down = `
DROP TABLE IF EXISTS reward_scores;
`

const migration003Up = `
CREATE TABLE IF NOT EXISTS reward_score_log (
	id BIGSERIAL PRIMARY KEY,
	score_id UUID NOT NULL REFERENCES reward_scores (id) ON DELETE CASCADE,
	logged_at TIMESTAMPTZ NOT NULL,
	difference INTEGER NOT NULL,
	old_value INTEGER NOT NULL,
	new_value INTEGER NOT NULL,
	reason TEXT NOT NULL,
	content_ids UUID[] NOT NULL DEFAULT '{}'
);

CREATE INDEX IF NOT EXISTS idx_score_log_score ON reward_score_log (score_id, logged_at DESC);
`

const migration003Down = `
DROP TABLE IF EXISTS reward_score_log;
`
