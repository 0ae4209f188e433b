package discord

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopHandler struct{}

func (nopHandler) HandleEvent(name string, payload interface{}) {}

func TestIsMissingPermissions(t *testing.T) {
	forbidden := &discordgo.RESTError{Response: &http.Response{StatusCode: http.StatusForbidden}}
	missingAccess := &discordgo.RESTError{
		Response: &http.Response{StatusCode: http.StatusBadRequest},
		Message:  &discordgo.APIErrorMessage{Code: discordgo.ErrCodeMissingAccess},
	}
	unknown := &discordgo.RESTError{
		Response: &http.Response{StatusCode: http.StatusNotFound},
		Message:  &discordgo.APIErrorMessage{Code: discordgo.ErrCodeUnknownChannel},
	}

	assert.True(t, IsMissingPermissions(forbidden))
	assert.True(t, IsMissingPermissions(missingAccess))
	assert.True(t, IsMissingPermissions(fmt.Errorf("wrapped: %w", missingAccess)))
	assert.False(t, IsMissingPermissions(unknown))
	assert.False(t, IsMissingPermissions(errors.New("connection reset")))
	assert.False(t, IsMissingPermissions(nil))
}

func TestDescribeTarget(t *testing.T) {
	assert.Equal(t, "globally", describeTarget(""))
	assert.Equal(t, "in guild 123", describeTarget("123"))
}

func TestEventSourceRequiresToken(t *testing.T) {
	_, err := NewEventSource("", "app", nopHandler{})
	assert.Error(t, err)

	_, err = NewRESTSession("")
	assert.Error(t, err)
}

func TestBotAddURL(t *testing.T) {
	src, err := NewEventSource("token", "1234", nopHandler{})
	require.NoError(t, err)
	assert.Equal(t, discordgo.IntentsGuilds, src.Session().Identify.Intents)

	u, err := src.BotAddURL()
	require.NoError(t, err)
	assert.Equal(t, "discord.com", u.Host)
	assert.Equal(t, "1234", u.Query().Get("client_id"))
	assert.Equal(t, botScope, u.Query().Get("scope"))
	assert.Equal(t, fmt.Sprintf("%d", permissions), u.Query().Get("permissions"))
}

func TestAdministrativeCallsNeedApplicationID(t *testing.T) {
	s, err := NewRESTSession("token")
	require.NoError(t, err)

	_, err = PublishCommands(s, "", "", nil)
	assert.Error(t, err)
	_, err = DeleteCommands(s, "", "g1")
	assert.Error(t, err)
}
