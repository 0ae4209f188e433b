// Package permissions derives the numeric permission level of a principal.
//
// Levels 0-16 are configurable through per-guild role bindings. Level 16 is
// also granted to guild owners and 11 to members holding the Administrator
// capability. Level 20 sits outside the configurable range and is reserved for
// the single configured bot owner, so no guild binding can reach it.
package permissions

import "github.com/callummance/kanade/guildmodels"

const (
	//LevelNone is the level of a principal matching no rule
	LevelNone int = 0
	//LevelAdministrator is granted to members with the Administrator capability
	LevelAdministrator int = 11
	//LevelGuildOwner is granted to the owner of the guild
	LevelGuildOwner int = 16
	//LevelBotOwner is reserved for the configured bot owner
	LevelBotOwner int = 20
)

//Principal is the actor invoking a command
type Principal struct {
	ID              string
	RoleIDs         []string
	IsGuildOwner    bool
	IsAdministrator bool
	//GuildID is empty outside of a guild
	GuildID string
}

//HasRole returns true if the principal holds the given role
func (p Principal) HasRole(roleID string) bool {
	for _, r := range p.RoleIDs {
		if r == roleID {
			return true
		}
	}
	return false
}

//SettingsSource provides read access to cached guild settings
type SettingsSource interface {
	Get(guildID string) (*guildmodels.GuildSettings, bool)
}

//Resolver computes permission levels
type Resolver struct {
	ownerID  string
	settings SettingsSource
}

//NewResolver creates a resolver for the given bot owner. An empty ownerID matches nobody.
func NewResolver(ownerID string, settings SettingsSource) *Resolver {
	return &Resolver{
		ownerID:  ownerID,
		settings: settings,
	}
}

//Resolve returns the permission level of a principal.
//Rules are checked in order and the first match wins: bot owner, guild owner,
//administrator, then the highest role binding the principal holds.
func (r *Resolver) Resolve(p Principal) int {
	if r.ownerID != "" && p.ID == r.ownerID {
		return LevelBotOwner
	}
	if p.IsGuildOwner {
		return LevelGuildOwner
	}
	if p.IsAdministrator {
		return LevelAdministrator
	}
	if p.GuildID == "" || r.settings == nil {
		return LevelNone
	}
	settings, ok := r.settings.Get(p.GuildID)
	if !ok || !settings.HasBindings() {
		return LevelNone
	}
	highest := LevelNone
	for _, binding := range settings.Permissions {
		if binding.Level > highest && p.HasRole(binding.RoleID) {
			highest = binding.Level
		}
	}
	return highest
}
