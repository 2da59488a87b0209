package handlers

import (
	"fmt"
	"time"

	"discord-archiver/bot"
	"discord-archiver/utils"

	"github.com/bwmarrin/discordgo"
	"github.com/spf13/viper"
)

// Register all handlers to the bot.
func Register(b *bot.Bot) {
	b.Session.AddHandler(InteractionCreate(b))
	b.Session.AddHandler(MessageCreate(b))

	// Log in and announce to the admin channel when connected.
	b.Session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		utils.InitLogger(s)
		utils.Log.Infof("Logged in as: %v#%v", s.State.User.Username, s.State.User.Discriminator)
		utils.Log.Infof("Managing %d guild configs.", len(b.Store.All()))

		if adminID := viper.GetString("bot.adminChannelId"); adminID != "" {
			startup := fmt.Sprintf("✅ **%s 已启动** (%s)", s.State.User.Username, time.Now().Format("2006-01-02 15:04:05"))
			if _, err := s.ChannelMessageSend(adminID, startup); err != nil {
				utils.Log.WithError(err).Warn("could not send startup notice to admin channel")
			}
		}
	})
}
