package models

// ArchiveFileConfig represents the structure of the archive_config.json file
// after it has been merged into viper.
type ArchiveFileConfig struct {
	Archive map[string]RuleSet `json:"archive" mapstructure:"archive"`
}

// RuleSet holds the archive rules for a single guild. A rule set is keyed by
// its config name and is immutable for the duration of an audit run; updates
// happen only through the config store between runs.
type RuleSet struct {
	Name                  string            `json:"name" mapstructure:"name"`
	GuildID               string            `json:"guild_id" mapstructure:"guild_id"`
	InactivityDays        int               `json:"inactivity_days" mapstructure:"inactivity_days"`
	ServerQuota           int               `json:"server_quota" mapstructure:"server_quota"`
	ExcludedChannelIDs    []string          `json:"excluded_channel_ids" mapstructure:"excluded_channel_ids"`
	NotificationChannelID string            `json:"notification_channel_id" mapstructure:"notification_channel_id"`
	PinnedModeration      *PinnedModeration `json:"pinned_moderation,omitempty" mapstructure:"pinned_moderation"`
}

// PinnedModeration configures message moderation inside pinned threads.
// Users in the exempt lists may post; messages from anyone else are removed.
type PinnedModeration struct {
	Enabled       bool     `json:"enabled" mapstructure:"enabled"`
	ExemptRoleIDs []string `json:"exempt_role_ids" mapstructure:"exempt_role_ids"`
	ExemptUserIDs []string `json:"exempt_user_ids" mapstructure:"exempt_user_ids"`
}

// QuotaEnabled reports whether the active-thread quota rule applies.
// A quota of zero or below disables the rule.
func (r RuleSet) QuotaEnabled() bool {
	return r.ServerQuota > 0
}

// InactivityEnabled reports whether the inactivity rule applies.
func (r RuleSet) InactivityEnabled() bool {
	return r.InactivityDays > 0
}

// ChannelExcluded reports whether threads of the given parent channel are
// protected from automatic archiving. Excluded channels still count toward
// the quota.
func (r RuleSet) ChannelExcluded(channelID string) bool {
	for _, id := range r.ExcludedChannelIDs {
		if id == channelID {
			return true
		}
	}
	return false
}

// CommandsConfig represents the "commands" section of config.yaml.
type CommandsConfig struct {
	Auth AuthConfig `mapstructure:"auth"`
}

// AuthConfig lists the IDs used for command permission checks.
type AuthConfig struct {
	Developers  []string `mapstructure:"developers"`
	AdminsRoles []string `mapstructure:"admins_roles"`
}
