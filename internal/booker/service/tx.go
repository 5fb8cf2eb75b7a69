package service

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	dErrors "bookerregistry/pkg/domain-errors"
)

// numBookerShards spreads bookers over a fixed set of locks.
const numBookerShards = 128

const defaultTxTimeout = 5 * time.Second

// ShardedTx serialises units of work per booker for the in-memory stores.
// It cannot roll back: a failing fn leaves earlier writes in place.
type ShardedTx struct {
	shards  [numBookerShards]sync.Mutex
	timeout time.Duration
}

// NewShardedTx creates an in-memory StoreTx.
func NewShardedTx() *ShardedTx {
	return &ShardedTx{timeout: defaultTxTimeout}
}

func (t *ShardedTx) RunInTx(ctx context.Context, bookerRef string, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	shard := shardFor(bookerRef)
	t.shards[shard].Lock()
	defer t.shards[shard].Unlock()

	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	return fn(ctx)
}

func shardFor(bookerRef string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(bookerRef))
	return int(h.Sum32() % numBookerShards)
}
