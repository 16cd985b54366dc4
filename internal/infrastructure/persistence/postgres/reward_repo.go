package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/learnpath-hub/reward-service/internal/domain/reward"
)

// ══════════════════════════════════════════════════════════════════════════════
// REWARD REPOSITORY
// Implements reward.Repository on top of the three-table schema. A score
// set's change logs are rewritten on save: the domain model owns the full
// log, so the stored rows are a mirror, not an independent journal.
// ══════════════════════════════════════════════════════════════════════════════

// RewardRepository is the PostgreSQL implementation of reward.Repository.
type RewardRepository struct {
	conn *Connection
}

// NewRewardRepository creates a new reward repository.
func NewRewardRepository(conn *Connection) *RewardRepository {
	return &RewardRepository{conn: conn}
}

var _ reward.Repository = (*RewardRepository)(nil)

// ─────────────────────────────────────────────────────────────────────────────
// Queries
// ─────────────────────────────────────────────────────────────────────────────

// Get loads the score set for the key. The second return value reports
// whether a set exists; a missing set is not an error.
func (r *RewardRepository) Get(ctx context.Context, key reward.ScoreKey) (*reward.RewardScoreSet, bool, error) {
	var setID uuid.UUID
	err := r.conn.QueryRow(ctx,
		`SELECT id FROM reward_score_sets WHERE course_id = $1 AND user_id = $2`,
		key.CourseID, key.UserID,
	).Scan(&setID)
	if err != nil {
		if IsNoRows(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("query score set: %w", err)
	}

	sets, err := r.loadSets(ctx, map[uuid.UUID]reward.ScoreKey{setID: key})
	if err != nil {
		return nil, false, err
	}
	return sets[0], true, nil
}

// FindAllByCourse loads every score set of a course.
func (r *RewardRepository) FindAllByCourse(ctx context.Context, courseID uuid.UUID) ([]*reward.RewardScoreSet, error) {
	return r.findSets(ctx,
		`SELECT id, course_id, user_id FROM reward_score_sets WHERE course_id = $1`,
		courseID)
}

// FindAll loads every persisted score set. Used by the nightly sweep.
func (r *RewardRepository) FindAll(ctx context.Context) ([]*reward.RewardScoreSet, error) {
	return r.findSets(ctx,
		`SELECT id, course_id, user_id FROM reward_score_sets`)
}

func (r *RewardRepository) findSets(ctx context.Context, query string, args ...interface{}) ([]*reward.RewardScoreSet, error) {
	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query score sets: %w", err)
	}
	defer rows.Close()

	keys := make(map[uuid.UUID]reward.ScoreKey)
	for rows.Next() {
		var setID, courseID, userID uuid.UUID
		if err := rows.Scan(&setID, &courseID, &userID); err != nil {
			return nil, fmt.Errorf("scan score set row: %w", err)
		}
		keys[setID] = reward.NewScoreKey(courseID, userID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate score sets: %w", err)
	}
	if len(keys) == 0 {
		return nil, nil
	}

	return r.loadSets(ctx, keys)
}

// loadSets hydrates full score sets (scores plus logs) for the given set ids.
func (r *RewardRepository) loadSets(ctx context.Context, keys map[uuid.UUID]reward.ScoreKey) ([]*reward.RewardScoreSet, error) {
	setIDs := make([]uuid.UUID, 0, len(keys))
	sets := make(map[uuid.UUID]*reward.RewardScoreSet, len(keys))
	for setID, key := range keys {
		setIDs = append(setIDs, setID)
		sets[setID] = &reward.RewardScoreSet{Key: key}
	}

	// scores, with score id kept for the log join
	scoreRows, err := r.conn.Query(ctx,
		`SELECT id, set_id, kind, value, percentage
		 FROM reward_scores WHERE set_id = ANY($1)`,
		setIDs)
	if err != nil {
		return nil, fmt.Errorf("query scores: %w", err)
	}
	defer scoreRows.Close()

	scores := make(map[uuid.UUID]*reward.RewardScore)
	for scoreRows.Next() {
		var scoreID, setID uuid.UUID
		var kind string
		score := &reward.RewardScore{}
		if err := scoreRows.Scan(&scoreID, &setID, &kind, &score.Value, &score.Percentage); err != nil {
			return nil, fmt.Errorf("scan score row: %w", err)
		}
		scores[scoreID] = score
		attachScore(sets[setID], reward.ScoreKind(kind), score)
	}
	if err := scoreRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scores: %w", err)
	}

	// logs, newest first to preserve the in-memory ordering
	logRows, err := r.conn.Query(ctx,
		`SELECT l.score_id, l.logged_at, l.difference, l.old_value, l.new_value, l.reason, l.content_ids
		 FROM reward_score_log l
		 JOIN reward_scores s ON s.id = l.score_id
		 WHERE s.set_id = ANY($1)
		 ORDER BY l.logged_at DESC, l.id DESC`,
		setIDs)
	if err != nil {
		return nil, fmt.Errorf("query score logs: %w", err)
	}
	defer logRows.Close()

	for logRows.Next() {
		var scoreID uuid.UUID
		var entry reward.ScoreLogEntry
		var reason string
		if err := logRows.Scan(&scoreID, &entry.Date, &entry.Difference, &entry.OldValue,
			&entry.NewValue, &reason, &entry.AssociatedContentIDs); err != nil {
			return nil, fmt.Errorf("scan score log row: %w", err)
		}
		entry.Reason = reward.ChangeReason(reason)
		if entry.AssociatedContentIDs == nil {
			entry.AssociatedContentIDs = []uuid.UUID{}
		}
		if score, ok := scores[scoreID]; ok {
			score.Log = append(score.Log, entry)
		}
	}
	if err := logRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate score logs: %w", err)
	}

	result := make([]*reward.RewardScoreSet, 0, len(sets))
	for _, set := range sets {
		fillMissingScores(set)
		result = append(result, set)
	}
	return result, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Mutations
// ─────────────────────────────────────────────────────────────────────────────

// Save upserts the score set with all five scores and their logs in one
// transaction.
func (r *RewardRepository) Save(ctx context.Context, set *reward.RewardScoreSet) error {
	if err := set.Validate(); err != nil {
		return fmt.Errorf("save score set: %w", err)
	}

	return r.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		var setID uuid.UUID
		err := tx.QueryRow(ctx,
			`INSERT INTO reward_score_sets (course_id, user_id)
			 VALUES ($1, $2)
			 ON CONFLICT (course_id, user_id) DO UPDATE SET updated_at = NOW()
			 RETURNING id`,
			set.Key.CourseID, set.Key.UserID,
		).Scan(&setID)
		if err != nil {
			return fmt.Errorf("upsert score set: %w", err)
		}

		for _, kind := range []reward.ScoreKind{
			reward.ScoreHealth,
			reward.ScoreFitness,
			reward.ScoreGrowth,
			reward.ScoreStrength,
			reward.ScorePower,
		} {
			if err := r.saveScore(ctx, tx, setID, kind, set.Score(kind)); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *RewardRepository) saveScore(ctx context.Context, tx pgx.Tx, setID uuid.UUID, kind reward.ScoreKind, score *reward.RewardScore) error {
	var scoreID uuid.UUID
	err := tx.QueryRow(ctx,
		`INSERT INTO reward_scores (set_id, kind, value, percentage)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (set_id, kind) DO UPDATE SET value = $3, percentage = $4
		 RETURNING id`,
		setID, string(kind), score.Value, score.Percentage,
	).Scan(&scoreID)
	if err != nil {
		return fmt.Errorf("upsert %s score: %w", kind, err)
	}

	if _, err := tx.Exec(ctx,
		`DELETE FROM reward_score_log WHERE score_id = $1`, scoreID); err != nil {
		return fmt.Errorf("clear %s score log: %w", kind, err)
	}

	// insert oldest first so that the id order matches the timeline
	for i := len(score.Log) - 1; i >= 0; i-- {
		entry := score.Log[i]
		contentIDs := entry.AssociatedContentIDs
		if contentIDs == nil {
			contentIDs = []uuid.UUID{}
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO reward_score_log
			 (score_id, logged_at, difference, old_value, new_value, reason, content_ids)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			scoreID, entry.Date, entry.Difference, entry.OldValue, entry.NewValue,
			string(entry.Reason), contentIDs,
		); err != nil {
			return fmt.Errorf("insert %s score log entry: %w", kind, err)
		}
	}
	return nil
}

// DeleteAllByCourse removes every score set of the course. The foreign keys
// cascade to scores and logs. Returns the number of sets deleted.
func (r *RewardRepository) DeleteAllByCourse(ctx context.Context, courseID uuid.UUID) (int, error) {
	tag, err := r.conn.Exec(ctx,
		`DELETE FROM reward_score_sets WHERE course_id = $1`, courseID)
	if err != nil {
		return 0, fmt.Errorf("delete score sets: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────────────────────────────────────

func attachScore(set *reward.RewardScoreSet, kind reward.ScoreKind, score *reward.RewardScore) {
	if set == nil {
		return
	}
	switch kind {
	case reward.ScoreHealth:
		set.Health = score
	case reward.ScoreFitness:
		set.Fitness = score
	case reward.ScoreGrowth:
		set.Growth = score
	case reward.ScoreStrength:
		set.Strength = score
	case reward.ScorePower:
		set.Power = score
	}
}

// fillMissingScores guards against rows written by an older schema where a
// kind could be absent. A missing relative score defaults to full, an
// absolute one to zero.
func fillMissingScores(set *reward.RewardScoreSet) {
	if set.Health == nil {
		set.Health = reward.NewRewardScore(reward.InitialRelativeScore)
	}
	if set.Fitness == nil {
		set.Fitness = reward.NewRewardScore(reward.InitialRelativeScore)
	}
	if set.Growth == nil {
		set.Growth = reward.NewRewardScore(reward.InitialAbsoluteScore)
	}
	if set.Strength == nil {
		set.Strength = reward.NewRewardScore(reward.InitialAbsoluteScore)
	}
	if set.Power == nil {
		set.Power = reward.NewRewardScore(reward.InitialAbsoluteScore)
	}
}
