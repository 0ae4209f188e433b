package bot

import (
	"github.com/bwmarrin/discordgo"
	"github.com/callummance/kanade/permissions"
	"github.com/sirupsen/logrus"
)

//GuildOwnerLookup finds the owner of a guild
type GuildOwnerLookup interface {
	GuildOwnerID(guildID string) (string, error)
}

//PrincipalFromInteraction builds the principal invoking an interaction. If the
//guild owner cannot be looked up the principal is treated as not being the owner.
func PrincipalFromInteraction(i *discordgo.Interaction, owners GuildOwnerLookup) permissions.Principal {
	var p permissions.Principal
	if i == nil {
		return p
	}
	if i.Member == nil {
		if i.User != nil {
			p.ID = i.User.ID
		}
		return p
	}
	if i.Member.User != nil {
		p.ID = i.Member.User.ID
	}
	p.GuildID = i.GuildID
	p.RoleIDs = append([]string(nil), i.Member.Roles...)
	p.IsAdministrator = i.Member.Permissions&discordgo.PermissionAdministrator != 0
	if owners != nil && p.GuildID != "" && p.ID != "" {
		ownerID, err := owners.GuildOwnerID(p.GuildID)
		if err != nil {
			logrus.Warnf("Failed to look up owner of guild %v when resolving permissions for user %v: %v", p.GuildID, p.ID, err)
		} else {
			p.IsGuildOwner = ownerID == p.ID
		}
	}
	return p
}
