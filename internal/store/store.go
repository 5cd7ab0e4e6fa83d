// Package store provides the profile-scoped key to JSON-document
// persistence layer backing every ClassNet collection.
package store

import (
	"context"
)

// Persisted collection keys. Each key maps to one whole JSON value; writes
// always replace the full value, there is no partial update.
const (
	KeyUser          = "user"
	KeyAllUsers      = "all_users"
	KeyPosts         = "posts"
	KeyTasks         = "tasks"
	KeyQuizzes       = "quizzes"
	KeyNotes         = "notes"
	KeyPulse         = "pulse"
	KeyChannels      = "channels"
	KeyMentors       = "mentors"
	KeyAnnouncements = "announcements"
	KeyStats         = "stats"

	// MessagesKeyPrefix namespaces per-channel message logs, e.g. "messages:gen".
	MessagesKeyPrefix = "messages:"
)

// Store is the Local Store contract.
//
// Load is read-through: it reports found=false when the key is absent so the
// caller can substitute its own default, and it never writes that default
// back. Save serializes the value and fully overwrites any prior content.
type Store interface {
	Load(ctx context.Context, key string, dest any) (bool, error)
	Save(ctx context.Context, key string, value any) error
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
	Close() error
}

func keyFor(profile, key string) string {
	return "classnet:" + profile + ":" + key
}
