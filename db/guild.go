package db

import (
	"fmt"
	"time"

	"github.com/callummance/kanade/guildmodels"
	"github.com/sirupsen/logrus"
	rethink "gopkg.in/gorethink/gorethink.v3"
)

const settingsTable string = "settings"
const permissionsTable string = "permissions"
const permissionsGuildIndex string = "guild_id"

//UpsertGuildSettings fetches the settings for a guild, atomically inserting the defaults first if they do not exist.
//The permission bindings of the guild are expanded into the result.
func (db *Connection) UpsertGuildSettings(gid string) (*guildmodels.GuildSettings, error) {
	_, err := insertIfAbsent(guildmodels.DefaultGuildSettings(gid)).RunWrite(db.exec)
	if err != nil {
		logrus.Errorf("Failed to upsert settings for guild %v because: %v.", gid, err)
		return nil, fmt.Errorf("failed to upsert settings for guild %v: %w", gid, err)
	}

	res, err := rethink.Table(settingsTable).Get(gid).Run(db.exec)
	if err != nil {
		logrus.Errorf("Failed to query database for guild %v because: %v.", gid, err)
		return nil, fmt.Errorf("failed to query database for guild %v: %w", gid, err)
	}
	defer res.Close()
	if res.IsNil() {
		return nil, fmt.Errorf("settings for guild %v were not found after upsert", gid)
	}
	var settings guildmodels.GuildSettings
	err = res.One(&settings)
	if err != nil {
		logrus.Errorf("Failed to read settings for guild %v from database because: %v.", gid, err)
		return nil, fmt.Errorf("failed to read settings for guild %v: %w", gid, err)
	}

	bindings, err := db.ListPermissionBindings(gid)
	if err != nil {
		return nil, err
	}
	settings.Permissions = bindings
	return &settings, nil
}

//insertIfAbsent writes defaults only when no settings record with the same id exists, leaving existing records untouched
func insertIfAbsent(defaults guildmodels.GuildSettings) rethink.Term {
	return rethink.Table(settingsTable).Get(defaults.ID).Replace(func(row rethink.Term) interface{} {
		return rethink.Branch(row.Eq(nil), defaults, row)
	})
}

//ListPermissionBindings returns every permission binding configured for a guild
func (db *Connection) ListPermissionBindings(gid string) ([]guildmodels.PermissionBinding, error) {
	res, err := rethink.Table(permissionsTable).GetAllByIndex(permissionsGuildIndex, gid).OrderBy("level").Run(db.exec)
	if err != nil {
		logrus.Warnf("Encountered error looking up permission bindings for guild %v: %v.", gid, err)
		return nil, err
	}
	defer res.Close()
	var bindings []guildmodels.PermissionBinding
	if res.IsNil() {
		return nil, nil
	}
	err = res.All(&bindings)
	if err != nil {
		logrus.Warnf("Encountered error reading permission bindings for guild %v: %v.", gid, err)
		return nil, err
	}
	return bindings, nil
}

//SetPermissionBinding binds a role to a permission level in a guild, replacing any previous level for that role
func (db *Connection) SetPermissionBinding(binding guildmodels.PermissionBinding) error {
	if err := guildmodels.ValidateLevel(binding.Level); err != nil {
		return err
	}
	resp, err := rethink.Table(permissionsTable).Insert(binding, rethink.InsertOpts{
		Conflict: "update",
	}).RunWrite(db.exec)
	if err != nil {
		logrus.Warnf("Encountered error inserting permission binding %v into database: %v.", binding, err)
		return err
	} else if resp.Errors > 0 {
		err := fmt.Errorf("%v", resp.FirstError)
		logrus.Warnf("Encountered error inserting permission binding %v into database: %v.", binding, err)
		return err
	}
	return db.touchGuildSettings(binding.GuildID)
}

//RemovePermissionBinding removes the binding for a role in a guild, returning the number of deleted entries
func (db *Connection) RemovePermissionBinding(gid, roleID string) (int, error) {
	resp, err := rethink.Table(permissionsTable).Get([]string{gid, roleID}).Delete().RunWrite(db.exec)
	if err != nil {
		logrus.Warnf("Encountered error removing permission binding for role %v in guild %v: %v", roleID, gid, err)
		return 0, err
	}
	if resp.Deleted > 0 {
		if err := db.touchGuildSettings(gid); err != nil {
			return resp.Deleted, err
		}
	}
	return resp.Deleted, nil
}

func (db *Connection) touchGuildSettings(gid string) error {
	_, err := rethink.Table(settingsTable).Get(gid).Update(map[string]interface{}{
		"updated_at": time.Now().UTC(),
	}).RunWrite(db.exec)
	if err != nil {
		logrus.Warnf("Failed to update timestamp on settings for guild %v: %v", gid, err)
	}
	return err
}
