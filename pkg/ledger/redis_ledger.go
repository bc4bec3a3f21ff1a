package ledger

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Mindburn-Labs/ucf/core/pkg/digest"
)

// redisAcceptScript performs the head compare-and-swap atomically in Redis.
// KEYS[1] = head key (e.g. "ucf:ledger:session-42:head")
// KEYS[2] = log key  (e.g. "ucf:ledger:session-42:log")
// ARGV[1] = entry prev digest (hex)
// ARGV[2] = entry digest (hex)
// ARGV[3] = zero digest (hex), the empty-stream head
// ARGV[4] = serialized entry record
const redisAcceptSrc = `
local head_key = KEYS[1]
local log_key = KEYS[2]
local prev = ARGV[1]
local next = ARGV[2]
local zero = ARGV[3]
local record = ARGV[4]

local head = redis.call("GET", head_key)
if not head then
    head = zero
end

if head ~= prev then
    return {0, head}
end

redis.call("SET", head_key, next)
local seq = redis.call("RPUSH", log_key, record)

return {1, seq}
`

var redisAcceptScript = redis.NewScript(redisAcceptSrc)

// RedisLedger implements Ledger using Redis.
type RedisLedger struct {
	client *redis.Client
	clock  func() time.Time
}

// NewRedisLedger creates a new ledger backed by Redis.
func NewRedisLedger(addr string, password string, db int) *RedisLedger {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &RedisLedger{client: rdb, clock: time.Now}
}

func headKey(stream string) string { return fmt.Sprintf("ucf:ledger:%s:head", stream) }
func logKey(stream string) string  { return fmt.Sprintf("ucf:ledger:%s:log", stream) }

func (r *RedisLedger) Head(ctx context.Context, stream string) ([32]byte, error) {
	stored, err := r.client.Get(ctx, headKey(stream)).Result()
	if err == redis.Nil {
		return digest.Zero, ErrStreamNotFound
	}
	if err != nil {
		return digest.Zero, fmt.Errorf("redis ledger error: %w", err)
	}
	return parseDigest(stored)
}

// Accept executes the Lua script to check and advance the stream head.
func (r *RedisLedger) Accept(ctx context.Context, e Entry) (uint64, error) {
	if err := checkEntry(e); err != nil {
		return 0, err
	}

	e.RecordedAt = r.clock()
	record, err := json.Marshal(toRecord(e))
	if err != nil {
		return 0, err
	}

	keys := []string{headKey(e.Stream), logKey(e.Stream)}
	res, err := redisAcceptScript.Run(ctx, r.client, keys,
		hex.EncodeToString(e.Prev[:]),
		hex.EncodeToString(e.Digest[:]),
		hex.EncodeToString(digest.Zero[:]),
		string(record),
	).Result()
	if err != nil {
		return 0, fmt.Errorf("redis ledger error: %w", err)
	}

	results, ok := res.([]interface{})
	if !ok || len(results) != 2 {
		return 0, fmt.Errorf("invalid response from lua script")
	}

	accepted, _ := results[0].(int64)
	if accepted != 1 {
		storedHead, _ := results[1].(string)
		head, err := parseDigest(storedHead)
		if err != nil {
			return 0, err
		}
		return 0, chainMismatch(e.Stream, e.Prev, head)
	}

	seq, _ := results[1].(int64)
	return uint64(seq), nil
}

func (r *RedisLedger) History(ctx context.Context, stream string) ([]Entry, error) {
	lines, err := r.client.LRange(ctx, logKey(stream), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis ledger error: %w", err)
	}
	if len(lines) == 0 {
		return nil, ErrStreamNotFound
	}

	result := make([]Entry, 0, len(lines))
	for i, line := range lines {
		var rec entryRecord
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			return nil, fmt.Errorf("log entry %d: %w", i+1, err)
		}
		e, err := fromRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("log entry %d: %w", i+1, err)
		}
		// The list is append-only; position fixes the sequence.
		e.Seq = uint64(i) + 1
		result = append(result, e)
	}
	return result, nil
}
