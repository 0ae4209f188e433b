package guildmodels

import (
	"errors"
	"fmt"
)

const (
	//MinConfigurableLevel is the lowest level a binding or command may require
	MinConfigurableLevel int = 0
	//MaxConfigurableLevel is the highest level a binding or command may require
	MaxConfigurableLevel int = 16
)

//ErrInvalidPermissionLevel is returned when a level falls outside the configurable range
var ErrInvalidPermissionLevel = errors.New("permission level must be between 0-16")

//PermissionBinding grants every holder of a role a permission level within one guild
type PermissionBinding struct {
	GuildID string `gorethink:"id[0]"`
	RoleID  string `gorethink:"id[1]"`
	Level   int    `gorethink:"level"`
}

//ValidateLevel checks that a permission level is within [0,16]. Values are never clamped.
func ValidateLevel(level int) error {
	if level < MinConfigurableLevel || level > MaxConfigurableLevel {
		return fmt.Errorf("%w, got: %d", ErrInvalidPermissionLevel, level)
	}
	return nil
}
