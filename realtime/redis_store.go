package realtime

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// RedisStore keeps each record as a plain Redis key next to a sequence
// counter and announces every write on a pub/sub channel of the same name
// carrying the sequence number and the full new value.
type RedisStore struct {
	client    *redis.Client
	keyPrefix string
	logger    *zap.Logger
}

func NewRedisStore(client *redis.Client, keyPrefix string, logger *zap.Logger) *RedisStore {
	return &RedisStore{
		client:    client,
		keyPrefix: keyPrefix,
		logger:    logger,
	}
}

func (s *RedisStore) key(path string) string {
	return s.keyPrefix + path
}

// Each write bumps the record's sequence counter, stores the value and
// publishes "<seq>:<value>" in one atomic step.
var (
	setScript = redis.NewScript(`
local seq = redis.call('INCR', KEYS[2])
redis.call('SET', KEYS[1], ARGV[1])
redis.call('PUBLISH', KEYS[1], tostring(seq) .. ':' .. ARGV[1])
return seq
`)
	deleteScript = redis.NewScript(`
local seq = redis.call('INCR', KEYS[2])
redis.call('DEL', KEYS[1])
redis.call('PUBLISH', KEYS[1], tostring(seq) .. ':')
return seq
`)
)

func (s *RedisStore) seqKey(path string) string {
	return s.key(path) + ":seq"
}

// Set writes the record and notifies subscribers.
func (s *RedisStore) Set(ctx context.Context, path string, value []byte) error {
	keys := []string{s.key(path), s.seqKey(path)}
	if err := setScript.Run(ctx, s.client, keys, value).Err(); err != nil {
		return fmt.Errorf("failed to set record %s: %w", path, err)
	}
	return nil
}

// Delete removes the record; subscribers receive an empty snapshot.
func (s *RedisStore) Delete(ctx context.Context, path string) error {
	keys := []string{s.key(path), s.seqKey(path)}
	if err := deleteScript.Run(ctx, s.client, keys).Err(); err != nil {
		return fmt.Errorf("failed to delete record %s: %w", path, err)
	}
	return nil
}

// Get reads the current value without subscribing. A missing record yields
// an empty snapshot.
func (s *RedisStore) Get(ctx context.Context, path string) (Snapshot, error) {
	value, err := s.client.Get(ctx, s.key(path)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Snapshot{Path: path}, nil
		}
		return Snapshot{}, fmt.Errorf("failed to read record %s: %w", path, err)
	}
	return Snapshot{Path: path, Value: value}, nil
}

// current reads the value and its sequence number together.
func (s *RedisStore) current(ctx context.Context, path string) (Snapshot, int64, error) {
	values, err := s.client.MGet(ctx, s.key(path), s.seqKey(path)).Result()
	if err != nil {
		return Snapshot{}, 0, fmt.Errorf("failed to read record %s: %w", path, err)
	}

	snap := Snapshot{Path: path}
	if v, ok := values[0].(string); ok {
		snap.Value = []byte(v)
	}
	var seq int64
	if v, ok := values[1].(string); ok {
		seq, _ = strconv.ParseInt(v, 10, 64)
	}
	return snap, seq, nil
}

// splitMessage separates the sequence prefix from a published payload.
// Messages without one are treated as unversioned.
func splitMessage(payload string) (int64, string, bool) {
	i := strings.IndexByte(payload, ':')
	if i <= 0 {
		return 0, payload, false
	}
	seq, err := strconv.ParseInt(payload[:i], 10, 64)
	if err != nil {
		return 0, payload, false
	}
	return seq, payload[i+1:], true
}

// Subscribe confirms the channel subscription, then delivers the current
// value followed by every later change, one at a time. Changes already
// covered by the current value are skipped, so delivery never goes back in
// time.
func (s *RedisStore) Subscribe(ctx context.Context, path string) (*Subscription, error) {
	key := s.key(path)

	pubsub := s.client.Subscribe(ctx, key)
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", path, err)
	}

	initial, lastSeq, err := s.current(ctx, path)
	if err != nil {
		pubsub.Close()
		return nil, err
	}

	subCtx, cancel := context.WithCancel(ctx)
	out := make(chan Snapshot)
	messages := pubsub.Channel()

	send := func(snap Snapshot) bool {
		select {
		case <-subCtx.Done():
			return false
		default:
		}
		select {
		case out <- snap:
			return true
		case <-subCtx.Done():
			return false
		}
	}

	go func() {
		defer close(out)
		defer pubsub.Close()

		if !send(initial) {
			return
		}
		for {
			select {
			case <-subCtx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					s.logger.Warn("Record subscription channel closed", zap.String("path", path))
					return
				}
				seq, value, versioned := splitMessage(msg.Payload)
				if versioned {
					if seq <= lastSeq {
						continue
					}
					lastSeq = seq
				}
				if !send(Snapshot{Path: path, Value: []byte(value)}) {
					return
				}
			}
		}
	}()

	s.logger.Debug("Record subscription established", zap.String("path", path))
	return NewSubscription(out, cancel), nil
}
