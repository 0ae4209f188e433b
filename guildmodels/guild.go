package guildmodels

import "time"

//DefaultSettingsID is the id of the synthetic settings record used before any guild-specific record exists
const DefaultSettingsID string = "default"

//GuildSettings contains the persisted configuration for a discord guild managed by this bot
type GuildSettings struct {
	ID          string              `gorethink:"id"`
	Permissions []PermissionBinding `gorethink:"-"`
	CreatedAt   time.Time           `gorethink:"created_at"`
	UpdatedAt   time.Time           `gorethink:"updated_at"`
}

//DefaultGuildSettings returns an otherwise-empty settings struct with a given ID
func DefaultGuildSettings(gid string) GuildSettings {
	now := time.Now().UTC()
	return GuildSettings{
		ID:          gid,
		Permissions: nil,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

//HasBindings returns true if at least one permission binding is configured
func (s *GuildSettings) HasBindings() bool {
	return s != nil && len(s.Permissions) > 0
}
