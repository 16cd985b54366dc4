package content

import (
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/learnpath-hub/reward-service/internal/domain/reward"
)

// ══════════════════════════════════════════════════════════════════════════════
// MAPPER
// Converts wire DTOs to domain snapshots. Progress logs are normalized to
// newest-first regardless of the order the service sends them in, since the
// calculators read the latest attempt from index zero.
// ══════════════════════════════════════════════════════════════════════════════

// Mapper converts content service DTOs to domain types.
type Mapper struct{}

// NewMapper creates a new mapper.
func NewMapper() *Mapper {
	return &Mapper{}
}

// SnapshotsFromDTO converts a batch of content DTOs.
func (m *Mapper) SnapshotsFromDTO(dtos []contentDTO) ([]reward.ContentSnapshot, error) {
	snapshots := make([]reward.ContentSnapshot, 0, len(dtos))
	for _, dto := range dtos {
		snapshot, err := m.SnapshotFromDTO(dto)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, snapshot)
	}
	return snapshots, nil
}

// SnapshotFromDTO converts a single content DTO.
func (m *Mapper) SnapshotFromDTO(dto contentDTO) (reward.ContentSnapshot, error) {
	id, err := uuid.Parse(dto.ID)
	if err != nil {
		return reward.ContentSnapshot{}, fmt.Errorf("malformed content id %q: %w", dto.ID, err)
	}

	log := make([]reward.ProgressLogItem, 0, len(dto.ProgressLog))
	for _, item := range dto.ProgressLog {
		log = append(log, reward.ProgressLogItem{
			Timestamp:   item.Timestamp,
			Correctness: item.Correctness,
			Success:     item.Success,
			HintsUsed:   item.HintsUsed,
		})
	}
	sort.SliceStable(log, func(i, j int) bool {
		return log[i].Timestamp.After(log[j].Timestamp)
	})

	return reward.ContentSnapshot{
		ID:               id,
		RewardPoints:     dto.RewardPoints,
		SuggestedDueDate: dto.SuggestedDueDate,
		IsLearned:        dto.IsLearned,
		IsDueForReview:   dto.IsDueForReview,
		ProgressLog:      log,
	}, nil
}
