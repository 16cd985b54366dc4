package engine

import (
	"hash/fnv"
	"sync"

	"github.com/learnpath-hub/reward-service/internal/domain/reward"
)

// ══════════════════════════════════════════════════════════════════════════════
// PER-KEY LOCKING
// Updates for one (course,user) key span external calls between the read and
// the write, so a database transaction alone cannot serialize them. A sharded
// mutex keyed by the score key keeps concurrent updates for the same key from
// losing writes, while updates for different keys proceed in parallel.
// ══════════════════════════════════════════════════════════════════════════════

const lockShards = 64

// keyLock serializes access per score key using sharded mutexes.
type keyLock struct {
	shards [lockShards]sync.Mutex
}

func newKeyLock() *keyLock {
	return &keyLock{}
}

// Lock acquires the shard lock for the given key and returns the unlock
// function.
func (l *keyLock) Lock(key reward.ScoreKey) func() {
	shard := &l.shards[l.shardIndex(key)]
	shard.Lock()
	return shard.Unlock
}

func (l *keyLock) shardIndex(key reward.ScoreKey) uint32 {
	h := fnv.New32a()
	h.Write(key.CourseID[:])
	h.Write(key.UserID[:])
	return h.Sum32() % lockShards
}
