package db

import (
	"sort"
	"sync"
	"time"

	"github.com/callummance/kanade/guildmodels"
)

//MemoryStore is an in-process test double for Connection with the same upsert and binding semantics.
type MemoryStore struct {
	mtx      sync.Mutex
	settings map[string]guildmodels.GuildSettings
	bindings map[string]map[string]int
}

//NewMemoryStore returns an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		settings: make(map[string]guildmodels.GuildSettings),
		bindings: make(map[string]map[string]int),
	}
}

//UpsertGuildSettings returns the settings for a guild, inserting the defaults if they do not exist
func (mem *MemoryStore) UpsertGuildSettings(gid string) (*guildmodels.GuildSettings, error) {
	mem.mtx.Lock()
	defer mem.mtx.Unlock()

	s, ok := mem.settings[gid]
	if !ok {
		s = guildmodels.DefaultGuildSettings(gid)
		mem.settings[gid] = s
	}
	s.Permissions = mem.listLocked(gid)
	return &s, nil
}

//ListPermissionBindings returns every permission binding configured for a guild
func (mem *MemoryStore) ListPermissionBindings(gid string) ([]guildmodels.PermissionBinding, error) {
	mem.mtx.Lock()
	defer mem.mtx.Unlock()

	return mem.listLocked(gid), nil
}

func (mem *MemoryStore) listLocked(gid string) []guildmodels.PermissionBinding {
	roles := mem.bindings[gid]
	if len(roles) == 0 {
		return nil
	}
	res := make([]guildmodels.PermissionBinding, 0, len(roles))
	for roleID, level := range roles {
		res = append(res, guildmodels.PermissionBinding{
			GuildID: gid,
			RoleID:  roleID,
			Level:   level,
		})
	}
	sort.Slice(res, func(i, j int) bool {
		if res[i].Level != res[j].Level {
			return res[i].Level < res[j].Level
		}
		return res[i].RoleID < res[j].RoleID
	})
	return res
}

//SetPermissionBinding binds a role to a permission level in a guild
func (mem *MemoryStore) SetPermissionBinding(binding guildmodels.PermissionBinding) error {
	if err := guildmodels.ValidateLevel(binding.Level); err != nil {
		return err
	}
	mem.mtx.Lock()
	defer mem.mtx.Unlock()

	roles, ok := mem.bindings[binding.GuildID]
	if !ok {
		roles = make(map[string]int)
		mem.bindings[binding.GuildID] = roles
	}
	roles[binding.RoleID] = binding.Level
	mem.touchLocked(binding.GuildID)
	return nil
}

//RemovePermissionBinding removes the binding for a role in a guild, returning the number of deleted entries
func (mem *MemoryStore) RemovePermissionBinding(gid, roleID string) (int, error) {
	mem.mtx.Lock()
	defer mem.mtx.Unlock()

	roles := mem.bindings[gid]
	if _, ok := roles[roleID]; !ok {
		return 0, nil
	}
	delete(roles, roleID)
	mem.touchLocked(gid)
	return 1, nil
}

func (mem *MemoryStore) touchLocked(gid string) {
	if s, ok := mem.settings[gid]; ok {
		s.UpdatedAt = time.Now().UTC()
		mem.settings[gid] = s
	}
}
