// Package cache wraps an in-process TTL cache used for read-mostly views and
// short-lived verification codes.
package cache

import (
	"fmt"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Well-known keys
const (
	KeyAllEvents        = "all_events"
	KeyAllClubs         = "all_clubs"
	KeyAdminDashboard   = "admin_dashboard"
	KeySystemStatistics = "system_statistics"
)

// UserDashboardKey caches a user's dashboard
func UserDashboardKey(userID int64) string { return fmt.Sprintf("user_dashboard_%d", userID) }

// EventDetailsKey caches a single event's details
func EventDetailsKey(eventID int64) string { return fmt.Sprintf("event_details_%d", eventID) }

// UserNotificationsKey caches a user's notification summary
func UserNotificationsKey(userID int64) string {
	return fmt.Sprintf("user_notifications_%d", userID)
}

// Store is a TTL key-value cache safe for concurrent use
type Store struct {
	items      *gocache.Cache
	defaultTTL time.Duration
}

// New creates a store whose entries expire after defaultTTL unless Set says otherwise
func New(defaultTTL, cleanupInterval time.Duration) *Store {
	return &Store{
		items:      gocache.New(defaultTTL, cleanupInterval),
		defaultTTL: defaultTTL,
	}
}

// Get returns the cached value for key
func (s *Store) Get(key string) (interface{}, bool) {
	return s.items.Get(key)
}

// Set stores value under key. A zero ttl uses the store default.
func (s *Store) Set(key string, value interface{}, ttl time.Duration) {
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	s.items.Set(key, value, ttl)
}

// Delete removes the given keys
func (s *Store) Delete(keys ...string) {
	for _, k := range keys {
		s.items.Delete(k)
	}
}

// DeletePrefix removes every key starting with prefix
func (s *Store) DeletePrefix(prefix string) {
	for k := range s.items.Items() {
		if strings.HasPrefix(k, prefix) {
			s.items.Delete(k)
		}
	}
}

// Flush drops everything
func (s *Store) Flush() {
	s.items.Flush()
}

// GetOrLoad returns the cached T under key, calling load and caching its result on a miss
func GetOrLoad[T any](s *Store, key string, ttl time.Duration, load func() (T, error)) (T, error) {
	if v, ok := s.Get(key); ok {
		if typed, ok := v.(T); ok {
			return typed, nil
		}
	}

	v, err := load()
	if err != nil {
		var zero T
		return zero, err
	}
	s.Set(key, v, ttl)
	return v, nil
}
