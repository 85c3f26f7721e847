package guilds

import (
	"errors"
	"net/http"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSession struct {
	calls   int
	GuildFn func(guildID string) (*discordgo.Guild, error)
}

func (f *fakeSession) Guild(guildID string, _ ...discordgo.RequestOption) (*discordgo.Guild, error) {
	f.calls++
	if f.GuildFn != nil {
		return f.GuildFn(guildID)
	}
	return nil, errors.New("not stubbed")
}

func testGuild() *discordgo.Guild {
	return &discordgo.Guild{
		ID:   "100",
		Name: "Test Guild",
		Roles: []*discordgo.Role{
			{ID: "100", Name: "@everyone", Position: 0},
			{ID: "111", Name: "Member", Position: 1},
			{ID: "222", Name: "Moderator", Position: 5},
		},
	}
}

func TestResolver_FromState(t *testing.T) {
	state := discordgo.NewState()
	require.NoError(t, state.GuildAdd(testGuild()))
	sess := &fakeSession{}

	g, err := newResolver(sess, state).Guild("100")
	require.NoError(t, err)
	assert.Equal(t, 0, sess.calls)
	assert.Equal(t, "Test Guild", g.Name())

	role, err := g.Role("111")
	require.NoError(t, err)
	require.NotNil(t, role)
	assert.Equal(t, "Member", role.Name)

	role, err = g.Role("333")
	assert.NoError(t, err)
	assert.Nil(t, role)
}

func TestResolver_RESTFallback(t *testing.T) {
	sess := &fakeSession{GuildFn: func(guildID string) (*discordgo.Guild, error) {
		assert.Equal(t, "100", guildID)
		return testGuild(), nil
	}}

	g, err := newResolver(sess, discordgo.NewState()).Guild("100")
	require.NoError(t, err)
	assert.Equal(t, 1, sess.calls)
	assert.Equal(t, "100", g.ID())
}

func TestResolver_Unavailable(t *testing.T) {
	sess := &fakeSession{GuildFn: func(string) (*discordgo.Guild, error) {
		return nil, &discordgo.RESTError{Response: &http.Response{StatusCode: http.StatusForbidden}}
	}}

	_, err := newResolver(sess, nil).Guild("100")
	assert.ErrorIs(t, err, ErrGuildUnavailable)

	sess.GuildFn = func(string) (*discordgo.Guild, error) { return nil, errors.New("dial tcp: timeout") }
	_, err = newResolver(sess, nil).Guild("100")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrGuildUnavailable)
}

func TestLiveGuild_RoleInvalidID(t *testing.T) {
	g := snapshot(testGuild())

	role, err := g.Role("not-a-snowflake")
	assert.Error(t, err)
	assert.Nil(t, role)

	_, err = g.Role("")
	assert.Error(t, err)
}

func TestLiveGuild_RolesOrdered(t *testing.T) {
	roles := snapshot(testGuild()).Roles()

	require.Len(t, roles, 2)
	assert.Equal(t, "222", roles[0].ID)
	assert.Equal(t, "111", roles[1].ID)
}
