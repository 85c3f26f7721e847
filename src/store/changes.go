package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ConfigStream carries one entry per saved guild config.
const ConfigStream = "guildpanel.config"

const streamMaxLen = 10000

// Changes publishes and follows config saves over a redis stream.
type Changes struct {
	rdb   *redis.Client
	block time.Duration
}

func NewChanges(rdb *redis.Client) *Changes {
	return &Changes{rdb: rdb, block: 5 * time.Second}
}

// Publish appends a change entry for guildID.
func (c *Changes) Publish(ctx context.Context, guildID string) error {
	return c.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: ConfigStream,
		MaxLen: streamMaxLen,
		Approx: true,
		Values: map[string]interface{}{
			"guild_id": guildID,
			"time":     time.Now().Unix(),
		},
	}).Err()
}

// Cursor returns the ID of the newest entry, so a reader only sees later ones.
func (c *Changes) Cursor(ctx context.Context) (string, error) {
	msgs, err := c.rdb.XRevRangeN(ctx, ConfigStream, "+", "-", 1).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return "", fmt.Errorf("config stream cursor: %w", err)
	}
	if len(msgs) == 0 {
		return "0-0", nil
	}
	return msgs[0].ID, nil
}

// Read waits for entries after cursor, calls fn for each guild and returns the new cursor.
func (c *Changes) Read(ctx context.Context, cursor string, fn func(guildID string)) (string, error) {
	res, err := c.rdb.XRead(ctx, &redis.XReadArgs{
		Streams: []string{ConfigStream, cursor},
		Count:   100,
		Block:   c.block,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return cursor, nil
	}
	if err != nil {
		return cursor, err
	}

	for _, s := range res {
		for _, m := range s.Messages {
			cursor = m.ID
			if guildID, ok := m.Values["guild_id"].(string); ok && guildID != "" {
				fn(guildID)
			}
		}
	}
	return cursor, nil
}

// Follow reads entries after cursor until ctx ends or a read fails, and
// returns the last cursor reached. An empty cursor starts after the newest
// entry. Passing the returned cursor back in resumes without gaps.
func (c *Changes) Follow(ctx context.Context, cursor string, fn func(guildID string)) (string, error) {
	if cursor == "" {
		start, err := c.Cursor(ctx)
		if err != nil {
			return "", err
		}
		cursor = start
	}
	for {
		next, err := c.Read(ctx, cursor, fn)
		cursor = next
		if ctx.Err() != nil {
			return cursor, ctx.Err()
		}
		if err != nil {
			return cursor, fmt.Errorf("config stream read: %w", err)
		}
	}
}
