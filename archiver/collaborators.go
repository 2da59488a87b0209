package archiver

import (
	"context"
	"time"

	"discord-archiver/models"
)

// ThreadService is the platform boundary the audit pipeline drives. The
// discordgo implementation lives in discord.go; tests substitute fakes.
type ThreadService interface {
	// ActiveThreads returns the guild's current active threads. Partial
	// results together with an error are valid: the caller records the
	// error as a fetch failure and audits what it got.
	ActiveThreads(ctx context.Context, guildID string) ([]models.ThreadSnapshot, error)

	// LastActivity resolves the newest message time of one thread. The bool
	// reports whether a time could be determined at all.
	LastActivity(ctx context.Context, threadID string) (time.Time, bool, error)

	// Archive archives one thread with an audit-log reason.
	Archive(ctx context.Context, threadID, reason string) error

	// Unarchive brings one archived thread back.
	Unarchive(ctx context.Context, threadID, reason string) error

	// KeepAlive refreshes a pinned thread's activity so the platform's own
	// auto-archive timer never claims it.
	KeepAlive(ctx context.Context, thread models.ThreadSnapshot) error
}

// Notifier delivers the run report to the guild's notification channel.
type Notifier interface {
	// Deliver posts the report and returns the message ID of the posted
	// report for the notice-ID store.
	Deliver(channelID string, rep Report) (string, error)

	// DeleteMessage removes a previously delivered report message.
	DeleteMessage(channelID, messageID string) error
}

// NoticeStore persists the message ID of the last delivered report, one
// record per config name, replaced each run.
type NoticeStore interface {
	Last(configName string) (string, error)
	Replace(configName, messageID string) error
}

// BumpStore persists when each pinned thread was last kept alive. A zero
// time means no record.
type BumpStore interface {
	Last(threadID string) (time.Time, error)
	Record(threadID string, at time.Time) error
}
