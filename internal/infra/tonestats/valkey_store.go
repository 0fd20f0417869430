package tonestats

import (
	"context"
	"fmt"

	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/tone-analyzer/internal/domain/tone"
)

// ValkeyStore keeps dominant tone counters in a sorted set.
type ValkeyStore struct {
	client valkey.Client
	prefix string
}

// NewValkeyStore constructs a new store backed by Valkey.
func NewValkeyStore(client valkey.Client, prefix string) *ValkeyStore {
	if prefix == "" {
		prefix = "tone"
	}
	return &ValkeyStore{client: client, prefix: prefix}
}

// Increment implements tone.StatsStore.
func (s *ValkeyStore) Increment(ctx context.Context, categoryID, toneID string) error {
	if toneID == "" {
		return nil
	}
	cmd := s.client.B().Zincrby().Key(s.dominantKey()).Increment(1).Member(member(categoryID, toneID)).Build()
	return s.client.Do(ctx, cmd).Error()
}

// Top implements tone.StatsStore.
func (s *ValkeyStore) Top(ctx context.Context, limit int) ([]tone.TrendingTone, error) {
	if limit <= 0 {
		limit = 10
	}
	resp := s.client.Do(ctx, s.client.B().Zrevrange().Key(s.dominantKey()).Start(0).Stop(int64(limit-1)).Withscores().Build())
	arr, err := resp.ToArray()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return nil, nil
		}
		return nil, err
	}
	out := make([]tone.TrendingTone, 0, len(arr))
	for i := 0; i < len(arr); {
		var (
			name  string
			score float64
		)
		if tuple, tupleErr := arr[i].ToArray(); tupleErr == nil && len(tuple) == 2 {
			// RESP3 returns [member, score] per element
			if name, err = tuple[0].ToString(); err != nil {
				return nil, err
			}
			if score, err = tuple[1].ToFloat64(); err != nil {
				return nil, err
			}
			i++
		} else {
			// RESP2 returns a flat alternating array.
			if i+1 >= len(arr) {
				break
			}
			if name, err = arr[i].ToString(); err != nil {
				return nil, err
			}
			if score, err = arr[i+1].ToFloat64(); err != nil {
				return nil, err
			}
			i += 2
		}
		categoryID, toneID := splitMember(name)
		out = append(out, tone.TrendingTone{CategoryID: categoryID, ToneID: toneID, Count: int64(score)})
	}
	return out, nil
}

func (s *ValkeyStore) dominantKey() string {
	return fmt.Sprintf("%s:dominant", s.prefix)
}

var _ tone.StatsStore = (*ValkeyStore)(nil)
