// Package auth implements dashboard login: Discord OAuth2, redis-backed
// sessions and the signed token that points at a session.
package auth

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/blake2b"
)

var ErrSessionNotFound = errors.New("auth: session not found")

const sessionPrefix = "session:"

// SessionGuild is a guild the user belonged to at login.
type SessionGuild struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Icon        string `json:"icon"`
	Permissions int64  `json:"permissions"`
	Owner       bool   `json:"owner"`
}

// CanManage reports whether the user may change this guild's settings.
func (g SessionGuild) CanManage() bool {
	if g.Owner {
		return true
	}
	return g.Permissions&(discordgo.PermissionAdministrator|discordgo.PermissionManageGuild) != 0
}

type Session struct {
	ID        string         `json:"id"`
	UserID    string         `json:"userId"`
	Username  string         `json:"username"`
	Avatar    string         `json:"avatar"`
	CSRF      string         `json:"csrf"`
	Guilds    []SessionGuild `json:"guilds"`
	CreatedAt time.Time      `json:"createdAt"`
}

// Guild looks up guildID among the user's guilds.
func (s *Session) Guild(guildID string) (SessionGuild, bool) {
	for _, g := range s.Guilds {
		if g.ID == guildID {
			return g, true
		}
	}
	return SessionGuild{}, false
}

func (s *Session) ManageableGuilds() []SessionGuild {
	out := make([]SessionGuild, 0, len(s.Guilds))
	for _, g := range s.Guilds {
		if g.CanManage() {
			out = append(out, g)
		}
	}
	return out
}

// Sessions stores dashboard sessions in redis. Keys hold a hash of the
// session ID so a keyspace dump does not leak usable IDs.
type Sessions struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewSessions(rdb *redis.Client, ttl time.Duration) *Sessions {
	return &Sessions{rdb: rdb, ttl: ttl}
}

func (s *Sessions) TTL() time.Duration { return s.ttl }

// Create starts a session for a freshly authenticated identity.
func (s *Sessions) Create(ctx context.Context, id *Identity) (*Session, error) {
	sess := &Session{
		ID:        uuid.NewString(),
		UserID:    id.User.ID,
		Username:  id.User.Username,
		Avatar:    id.User.Avatar,
		CSRF:      uuid.NewString(),
		CreatedAt: time.Now().UTC(),
	}
	for _, g := range id.Guilds {
		sess.Guilds = append(sess.Guilds, SessionGuild{
			ID:          g.ID,
			Name:        g.Name,
			Icon:        g.Icon,
			Permissions: g.Permissions,
			Owner:       g.Owner,
		})
	}

	raw, err := json.Marshal(sess)
	if err != nil {
		return nil, err
	}
	if err := s.rdb.Set(ctx, sessionKey(sess.ID), raw, s.ttl).Err(); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}
	return sess, nil
}

func (s *Sessions) Get(ctx context.Context, id string) (*Session, error) {
	if id == "" {
		return nil, ErrSessionNotFound
	}
	raw, err := s.rdb.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	var sess Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &sess, nil
}

func (s *Sessions) Delete(ctx context.Context, id string) error {
	return s.rdb.Del(ctx, sessionKey(id)).Err()
}

func sessionKey(id string) string {
	sum := blake2b.Sum256([]byte(id))
	return sessionPrefix + hex.EncodeToString(sum[:])
}
