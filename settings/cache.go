// Package settings keeps an in-process copy of every guild's persisted settings.
package settings

import (
	"fmt"
	"sync"

	"github.com/callummance/kanade/guildmodels"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

//Store is the backing store the cache loads from. UpsertGuildSettings inserts
//the default settings for a guild if none exist and returns the stored record
//with its permission bindings expanded.
type Store interface {
	UpsertGuildSettings(guildID string) (*guildmodels.GuildSettings, error)
}

//Cache maps guild IDs to their settings. Entries are loaded lazily and kept
//for the lifetime of the process unless explicitly refreshed.
type Cache struct {
	store Store

	mu      sync.RWMutex
	entries map[string]*guildmodels.GuildSettings
	//tickets orders fetches; stored holds the ticket of the fetch each entry came from
	tickets uint64
	stored  map[string]uint64

	loads singleflight.Group
}

//NewCache creates an empty cache backed by store
func NewCache(store Store) *Cache {
	return &Cache{
		store:   store,
		entries: make(map[string]*guildmodels.GuildSettings),
		stored:  make(map[string]uint64),
	}
}

//Preload loads the synthetic default settings record
func (c *Cache) Preload() error {
	_, err := c.EnsureLoaded(guildmodels.DefaultSettingsID)
	return err
}

//Get returns the cached settings for a guild without touching the store
func (c *Cache) Get(guildID string) (*guildmodels.GuildSettings, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.entries[guildID]
	return s, ok
}

//EnsureLoaded returns the settings for a guild, loading them from the store on
//first use. Concurrent first loads of the same guild share one store call.
func (c *Cache) EnsureLoaded(guildID string) (*guildmodels.GuildSettings, error) {
	if s, ok := c.Get(guildID); ok {
		return s, nil
	}
	v, err, _ := c.loads.Do(guildID, func() (interface{}, error) {
		if s, ok := c.Get(guildID); ok {
			return s, nil
		}
		s, err := c.fetch(guildID)
		if err != nil {
			return nil, err
		}
		logrus.Infof("Setting sync: Fetch Database -> Client (%v)", guildID)
		return s, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*guildmodels.GuildSettings), nil
}

//Refresh reloads the settings for a guild from the store, replacing any cached copy.
//Every call reads the store itself, so a refresh made after a write always observes it.
func (c *Cache) Refresh(guildID string) (*guildmodels.GuildSettings, error) {
	s, err := c.fetch(guildID)
	if err != nil {
		return nil, err
	}
	logrus.Debugf("Refreshed cached settings for guild %v", guildID)
	return s, nil
}

//fetch loads a guild from the store and caches it, unless a fetch which started
//later has already been stored. In that case the newer entry is returned instead.
func (c *Cache) fetch(guildID string) (*guildmodels.GuildSettings, error) {
	c.mu.Lock()
	c.tickets++
	ticket := c.tickets
	c.mu.Unlock()

	s, err := c.store.UpsertGuildSettings(guildID)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings for guild %v: %w", guildID, err)
	}
	if s == nil {
		return nil, fmt.Errorf("store returned no settings for guild %v", guildID)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if ticket < c.stored[guildID] {
		return c.entries[guildID], nil
	}
	c.entries[guildID] = s
	c.stored[guildID] = ticket
	return s, nil
}

//Len returns the number of cached guilds, including the default record
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
