package command

import "github.com/bwmarrin/discordgo"

// AuditCommand defines the structure for the /archive-audit command.
type AuditCommand struct{}

// Definition returns the application command definition.
func (c *AuditCommand) Definition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        "archive-audit",
		Description: "Manually trigger an archive audit for a configured guild",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Name:        "config_name",
				Description: "The config name defined in archive_config.json",
				Type:        discordgo.ApplicationCommandOptionString,
				Required:    true,
			},
		},
	}
}

// RulesCommand defines the structure for the /archive-rules command.
type RulesCommand struct{}

// Definition returns the application command definition.
func (c *RulesCommand) Definition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        "archive-rules",
		Description: "Update archive rules for a configured guild",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Name:        "config_name",
				Description: "The config name defined in archive_config.json",
				Type:        discordgo.ApplicationCommandOptionString,
				Required:    true,
			},
			{
				Name:        "inactivity_days",
				Description: "Days of inactivity before a thread is archived (0 disables the rule)",
				Type:        discordgo.ApplicationCommandOptionInteger,
				Required:    true,
			},
			{
				Name:        "server_quota",
				Description: "Maximum active threads for the whole guild (0 disables the rule)",
				Type:        discordgo.ApplicationCommandOptionInteger,
				Required:    true,
			},
		},
	}
}

// ConfigCommand defines the structure for the /archive-config command.
type ConfigCommand struct{}

// Definition returns the application command definition.
func (c *ConfigCommand) Definition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        "archive-config",
		Description: "View the archive configuration of one or all guilds",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Name:        "config_name",
				Description: "The config name to view (omit to view all)",
				Type:        discordgo.ApplicationCommandOptionString,
				Required:    false,
			},
		},
	}
}

// PingCommand defines the structure for the /ping command.
type PingCommand struct{}

// Definition returns the application command definition.
func (c *PingCommand) Definition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        "ping",
		Description: "Responds with Pong!",
	}
}
