package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/oauth2"
)

var ErrInvalidState = errors.New("auth: invalid oauth state")

const (
	statePrefix = "oauth_state:"
	stateTTL    = 5 * time.Minute
)

var discordEndpoint = oauth2.Endpoint{
	AuthURL:   "https://discord.com/oauth2/authorize",
	TokenURL:  "https://discord.com/api/oauth2/token",
	AuthStyle: oauth2.AuthStyleInParams,
}

// Identity is what Discord tells us about a user after login.
type Identity struct {
	User   *discordgo.User
	Guilds []*discordgo.UserGuild
}

// IdentityFetcher loads the user and their guilds with an access token.
type IdentityFetcher func(ctx context.Context, tok *oauth2.Token) (*Identity, error)

type Discord struct {
	oauth *oauth2.Config
	rdb   *redis.Client
	fetch IdentityFetcher
}

func NewDiscord(clientID, clientSecret, redirectURL string, rdb *redis.Client) *Discord {
	return &Discord{
		oauth: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"identify", "guilds"},
			Endpoint:     discordEndpoint,
		},
		rdb:   rdb,
		fetch: fetchIdentity,
	}
}

// AuthCodeURL records a one-shot state nonce and returns the consent URL.
func (d *Discord) AuthCodeURL(ctx context.Context) (string, error) {
	state := uuid.NewString()
	if err := d.rdb.Set(ctx, statePrefix+state, "1", stateTTL).Err(); err != nil {
		return "", fmt.Errorf("store oauth state: %w", err)
	}
	return d.oauth.AuthCodeURL(state, oauth2.SetAuthURLParam("prompt", "none")), nil
}

// Complete consumes the state nonce, exchanges the code and loads the identity.
func (d *Discord) Complete(ctx context.Context, state, code string) (*Identity, error) {
	if state == "" || code == "" {
		return nil, ErrInvalidState
	}
	if _, err := d.rdb.GetDel(ctx, statePrefix+state).Result(); err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrInvalidState
		}
		return nil, fmt.Errorf("check oauth state: %w", err)
	}

	tok, err := d.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange code: %w", err)
	}
	return d.fetch(ctx, tok)
}

func fetchIdentity(ctx context.Context, tok *oauth2.Token) (*Identity, error) {
	s, err := discordgo.New("Bearer " + tok.AccessToken)
	if err != nil {
		return nil, err
	}

	user, err := s.User("@me", discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("fetch user: %w", err)
	}
	guilds, err := s.UserGuilds(200, "", "", false, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("fetch user guilds: %w", err)
	}
	return &Identity{User: user, Guilds: guilds}, nil
}
