package handlers

import (
	"discord-archiver/bot"
	"discord-archiver/models"
	"discord-archiver/utils"

	"github.com/bwmarrin/discordgo"
)

// MessageCreate moderates pinned threads: in guilds where pinned moderation
// is enabled, messages from users outside the exempt lists are removed so
// pinned threads stay announcement-only.
func MessageCreate(b *bot.Bot) func(s *discordgo.Session, m *discordgo.MessageCreate) {
	return func(s *discordgo.Session, m *discordgo.MessageCreate) {
		// Ignore bots and DMs.
		if m.Author == nil || m.Author.Bot || m.GuildID == "" {
			return
		}

		rules, ok := b.Store.ByGuild(m.GuildID)
		if !ok || rules.PinnedModeration == nil || !rules.PinnedModeration.Enabled {
			return
		}

		ch, err := channel(s, m.ChannelID)
		if err != nil || ch == nil {
			return
		}
		if !ch.IsThread() || ch.Flags&discordgo.ChannelFlagPinned == 0 {
			return
		}

		if exempt(rules.PinnedModeration, m) {
			return
		}

		if err := s.ChannelMessageDelete(m.ChannelID, m.ID); err != nil {
			if restErr, ok := err.(*discordgo.RESTError); ok && restErr.Response != nil {
				switch restErr.Response.StatusCode {
				case 404:
					// Already gone, nothing to do.
					return
				case 403:
					utils.Log.WithField("channel_id", m.ChannelID).Warn("missing Manage Messages permission for pinned moderation")
					return
				}
			}
			utils.Log.WithField("channel_id", m.ChannelID).WithError(err).Error("failed to delete message in pinned thread")
			return
		}
		utils.Log.WithField("thread_id", m.ChannelID).Debugf("removed message from %s in pinned thread", m.Author.ID)
	}
}

func exempt(mod *models.PinnedModeration, m *discordgo.MessageCreate) bool {
	for _, id := range mod.ExemptUserIDs {
		if m.Author.ID == id {
			return true
		}
	}
	if m.Member != nil {
		for _, roleID := range m.Member.Roles {
			for _, id := range mod.ExemptRoleIDs {
				if roleID == id {
					return true
				}
			}
		}
	}
	return false
}

// channel resolves a channel from the state cache, falling back to the API.
func channel(s *discordgo.Session, channelID string) (*discordgo.Channel, error) {
	if ch, err := s.State.Channel(channelID); err == nil {
		return ch, nil
	}
	return s.Channel(channelID)
}
