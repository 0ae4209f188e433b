package db

import (
	"testing"

	"github.com/callummance/kanade/guildmodels"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	rethink "gopkg.in/gorethink/gorethink.v3"
)

func TestMemoryUpsertInsertsOnce(t *testing.T) {
	mem := NewMemoryStore()
	first, err := mem.UpsertGuildSettings("g1")
	require.NoError(t, err)
	second, err := mem.UpsertGuildSettings("g1")
	require.NoError(t, err)

	assert.Equal(t, "g1", first.ID)
	assert.Equal(t, first.CreatedAt, second.CreatedAt)
	assert.NotSame(t, first, second, "callers get their own copy")
}

func TestMemoryBindings(t *testing.T) {
	mem := NewMemoryStore()
	_, err := mem.UpsertGuildSettings("g1")
	require.NoError(t, err)

	require.NoError(t, mem.SetPermissionBinding(guildmodels.PermissionBinding{GuildID: "g1", RoleID: "mod", Level: 5}))
	require.NoError(t, mem.SetPermissionBinding(guildmodels.PermissionBinding{GuildID: "g1", RoleID: "vip", Level: 3}))
	require.NoError(t, mem.SetPermissionBinding(guildmodels.PermissionBinding{GuildID: "g2", RoleID: "mod", Level: 9}))

	bindings, err := mem.ListPermissionBindings("g1")
	require.NoError(t, err)
	assert.Equal(t, []guildmodels.PermissionBinding{
		{GuildID: "g1", RoleID: "vip", Level: 3},
		{GuildID: "g1", RoleID: "mod", Level: 5},
	}, bindings)

	s, err := mem.UpsertGuildSettings("g1")
	require.NoError(t, err)
	assert.Len(t, s.Permissions, 2)

	//Setting an existing role overwrites its level
	require.NoError(t, mem.SetPermissionBinding(guildmodels.PermissionBinding{GuildID: "g1", RoleID: "mod", Level: 1}))
	bindings, err = mem.ListPermissionBindings("g1")
	require.NoError(t, err)
	assert.Equal(t, "mod", bindings[0].RoleID)
	assert.Equal(t, 1, bindings[0].Level)

	removed, err := mem.RemovePermissionBinding("g1", "mod")
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	removed, err = mem.RemovePermissionBinding("g1", "mod")
	require.NoError(t, err)
	assert.Equal(t, 0, removed)
}

func TestMemoryRejectsInvalidLevel(t *testing.T) {
	mem := NewMemoryStore()
	err := mem.SetPermissionBinding(guildmodels.PermissionBinding{GuildID: "g1", RoleID: "r", Level: 17})
	assert.ErrorIs(t, err, guildmodels.ErrInvalidPermissionLevel)

	bindings, err := mem.ListPermissionBindings("g1")
	require.NoError(t, err)
	assert.Empty(t, bindings)
}

func TestMemoryStoreMatchesConnection(t *testing.T) {
	conn, mock := mockConnection()
	mock.On(rethink.Table(permissionsTable).Insert(guildmodels.PermissionBinding{GuildID: "g1", RoleID: "mods", Level: 5}, rethink.InsertOpts{Conflict: "update"})).Return(map[string]interface{}{"inserted": 1}, nil).Once()
	mock.On(rethink.Table(settingsTable).Get("g1").Update(rethink.MockAnything())).Return(map[string]interface{}{"replaced": 1}, nil)
	expectUpsert(mock, "g1", map[string]interface{}{"unchanged": 1})
	mock.On(rethink.Table(settingsTable).Get("g1")).Return(map[string]interface{}{"id": "g1"}, nil).Once()
	expectBindings(mock, "g1", bindingRow("g1", "mods", 5))
	mock.On(rethink.Table(permissionsTable).Get([]string{"g1", "mods"}).Delete()).Return(map[string]interface{}{"deleted": 1}, nil).Once()

	mem := NewMemoryStore()
	_, err := mem.UpsertGuildSettings("g1")
	require.NoError(t, err)

	stores := map[string]interface {
		UpsertGuildSettings(string) (*guildmodels.GuildSettings, error)
		SetPermissionBinding(guildmodels.PermissionBinding) error
		RemovePermissionBinding(string, string) (int, error)
	}{"memory": mem, "rethinkdb": conn}

	results := make(map[string]*guildmodels.GuildSettings)
	removed := make(map[string]int)
	for name, store := range stores {
		require.NoError(t, store.SetPermissionBinding(guildmodels.PermissionBinding{GuildID: "g1", RoleID: "mods", Level: 5}), name)
		s, err := store.UpsertGuildSettings("g1")
		require.NoError(t, err, name)
		results[name] = s
		removed[name], err = store.RemovePermissionBinding("g1", "mods")
		require.NoError(t, err, name)
	}

	assert.Equal(t, results["rethinkdb"].ID, results["memory"].ID)
	assert.Equal(t, results["rethinkdb"].Permissions, results["memory"].Permissions)
	assert.Equal(t, removed["rethinkdb"], removed["memory"])
	mock.AssertExpectations(t)
}
