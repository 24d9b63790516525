package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/mlctf/internal/leaderboard"
	"github.com/mcoot/mlctf/internal/model"
)

const keyPrefix = "mlctf"

// rankingKey is the sorted set of ranking members. Every member scores 0 so
// redis orders them by member bytes, which rankMember makes match Rank.
func rankingKey() string {
	return fmt.Sprintf("%s:ranking", keyPrefix)
}

// rankMember encodes elapsed seconds, completion time and id as a fixed
// width string whose byte order is the leaderboard order
func rankMember(record *model.CompletionRecord) string {
	return fmt.Sprintf("%010d:%020d:%s", record.ElapsedSeconds, record.CompletedAt.UnixNano(), record.ID)
}

// memberID recovers the record id from a ranking member
func memberID(member string) string {
	parts := strings.SplitN(member, ":", 3)
	return parts[len(parts)-1]
}

// recordKey holds one completion record as JSON
func recordKey(id string) string {
	return fmt.Sprintf("%s:completion:%s", keyPrefix, id)
}

// Store is a Redis-backed leaderboard. Records never expire.
type Store struct {
	client *redis.Client
}

// New wraps an existing client. The caller owns the connection.
func New(client *redis.Client) *Store {
	return &Store{client: client}
}

// Ensure Store implements the interface
var _ leaderboard.Store = (*Store)(nil)

func (s *Store) Insert(ctx context.Context, record *model.CompletionRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return err
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, recordKey(record.ID), data, 0)
		pipe.ZAdd(ctx, rankingKey(), redis.Z{
			Score:  0,
			Member: rankMember(record),
		})
		return nil
	})
	return err
}

func (s *Store) Top(ctx context.Context, n int) ([]*model.CompletionRecord, error) {
	members, err := s.client.ZRange(ctx, rankingKey(), 0, int64(n-1)).Result()
	if err != nil {
		return nil, err
	}
	if len(members) == 0 {
		return []*model.CompletionRecord{}, nil
	}

	keys := make([]string, len(members))
	for i, member := range members {
		keys[i] = recordKey(memberID(member))
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	records := make([]*model.CompletionRecord, 0, len(values))
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			// record vanished after ranking was read
			continue
		}
		var rec model.CompletionRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return nil, errors.Join(leaderboard.ErrCorruptRecord, err)
		}
		records = append(records, &rec)
	}

	leaderboard.Rank(records)
	return records, nil
}
