package service

import (
	"hash/fnv"
	"sync"
)

const numEntityShards = 64

// entityShards serializes mutations of one entity from read through emit, so
// committed writes and their events happen in the same order.
type entityShards struct {
	shards [numEntityShards]sync.Mutex
}

// lock holds the shard of key and returns its unlock.
func (e *entityShards) lock(key string) func() {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	mu := &e.shards[h.Sum32()%numEntityShards]
	mu.Lock()
	return mu.Unlock
}
