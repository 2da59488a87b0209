package handlers

import (
	"context"
	"errors"
	"fmt"

	"discord-archiver/archiver"
	"discord-archiver/bot"
	"discord-archiver/models"
	"discord-archiver/utils"

	"github.com/bwmarrin/discordgo"
)

func optionMap(i *discordgo.InteractionCreate) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	options := i.ApplicationCommandData().Options
	m := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(options))
	for _, opt := range options {
		m[opt.Name] = opt
	}
	return m
}

func respondEphemeral(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
}

func followupEphemeral(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	s.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{
		Content: content,
		Flags:   discordgo.MessageFlagsEphemeral,
	})
}

// HandleAudit handles the logic for the /archive-audit command.
func HandleAudit(b *bot.Bot, s *discordgo.Session, i *discordgo.InteractionCreate) {
	var configName string
	if opt, ok := optionMap(i)["config_name"]; ok {
		configName = opt.StringValue()
	}

	rules, ok := b.Store.Get(configName)
	if !ok {
		respondEphemeral(s, i, fmt.Sprintf("错误：未找到名为 '%s' 的服务器配置。", configName))
		return
	}

	// Respond to the interaction immediately; the audit runs in the
	// background and reports through the notification channel.
	respondEphemeral(s, i, fmt.Sprintf("正在开始对服务器配置 '%s' 进行手动归档检查...", configName))

	go func() {
		utils.Log.WithField("config", configName).Infof("manual audit triggered by %s", i.Member.User.ID)
		rep, err := b.Auditor.Audit(context.Background(), rules, archiver.TriggerManual)
		if errors.Is(err, archiver.ErrAuditInProgress) {
			followupEphemeral(s, i, "当前有其他归档操作正在进行中，请稍后再试。")
			return
		}
		if err != nil {
			followupEphemeral(s, i, fmt.Sprintf("❌ 手动归档检查失败: %v", err))
			return
		}
		followupEphemeral(s, i, fmt.Sprintf(
			"✅ 对 '%s' 的手动归档检查已完成：归档 %d，恢复 %d，失败 %d。详情请查看通知频道。",
			configName, rep.Archived, rep.Unarchived, rep.TotalFailed()))
	}()
}

// HandleRules handles the logic for the /archive-rules command.
func HandleRules(b *bot.Bot, s *discordgo.Session, i *discordgo.InteractionCreate) {
	opts := optionMap(i)

	var configName string
	var inactivityDays, serverQuota int
	if opt, ok := opts["config_name"]; ok {
		configName = opt.StringValue()
	}
	if opt, ok := opts["inactivity_days"]; ok {
		inactivityDays = int(opt.IntValue())
	}
	if opt, ok := opts["server_quota"]; ok {
		serverQuota = int(opt.IntValue())
	}

	if inactivityDays < 0 || serverQuota < 0 {
		respondEphemeral(s, i, "错误：天数和配额不能为负数。")
		return
	}

	err := b.Store.Update(configName, func(rs *models.RuleSet) {
		rs.InactivityDays = inactivityDays
		rs.ServerQuota = serverQuota
	})
	if err != nil {
		respondEphemeral(s, i, fmt.Sprintf("错误：更新配置失败: %v", err))
		return
	}

	utils.Log.WithField("config", configName).Infof("archive rules updated by %s", i.Member.User.ID)
	utils.Info("归档", "规则更新", fmt.Sprintf("配置 '%s' 的归档规则已被 <@%s> 更新：不活跃天数 %d，活跃帖配额 %d。",
		configName, i.Member.User.ID, inactivityDays, serverQuota))
	respondEphemeral(s, i, fmt.Sprintf(
		"归档规则已更新：**%s**\n- 不活跃归档天数: **%s**\n- 服务器最大活跃帖数: **%s**",
		configName, enabledStr(inactivityDays, "%d 天"), enabledStr(serverQuota, "%d")))
}

// HandleConfigView handles the logic for the /archive-config command.
func HandleConfigView(b *bot.Bot, s *discordgo.Session, i *discordgo.InteractionCreate) {
	var configName string
	if opt, ok := optionMap(i)["config_name"]; ok {
		configName = opt.StringValue()
	}

	var toShow []models.RuleSet
	if configName != "" {
		rules, ok := b.Store.Get(configName)
		if !ok {
			respondEphemeral(s, i, fmt.Sprintf("未找到名为 '%s' 的服务器配置。", configName))
			return
		}
		toShow = append(toShow, rules)
	} else {
		for _, rules := range b.Store.All() {
			toShow = append(toShow, rules)
		}
		if len(toShow) == 0 {
			respondEphemeral(s, i, "当前没有已加载的服务器配置。")
			return
		}
	}

	embeds := make([]*discordgo.MessageEmbed, 0, len(toShow))
	for _, rules := range toShow {
		embeds = append(embeds, ruleSetEmbed(rules))
	}

	s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: embeds,
			Flags:  discordgo.MessageFlagsEphemeral,
		},
	})
}

// HandlePing handles the logic for the /ping command.
func HandlePing(s *discordgo.Session, i *discordgo.InteractionCreate) {
	s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: "Pong!",
		},
	})
}

func ruleSetEmbed(rules models.RuleSet) *discordgo.MessageEmbed {
	pinnedMod := "未启用"
	if rules.PinnedModeration != nil && rules.PinnedModeration.Enabled {
		pinnedMod = fmt.Sprintf("已启用 (豁免身份组 %d / 豁免用户 %d)",
			len(rules.PinnedModeration.ExemptRoleIDs), len(rules.PinnedModeration.ExemptUserIDs))
	}
	return &discordgo.MessageEmbed{
		Title: fmt.Sprintf("配置: %s", rules.Name),
		Color: 0x0000ff,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "服务器ID", Value: rules.GuildID, Inline: false},
			{Name: "不活跃天数", Value: enabledStr(rules.InactivityDays, "%d 天"), Inline: true},
			{Name: "服务器最大活跃帖数", Value: enabledStr(rules.ServerQuota, "%d"), Inline: true},
			{Name: "排除频道数", Value: fmt.Sprintf("%d", len(rules.ExcludedChannelIDs)), Inline: true},
			{Name: "通知频道ID", Value: orUnset(rules.NotificationChannelID), Inline: false},
			{Name: "置顶帖管理", Value: pinnedMod, Inline: false},
		},
	}
}

func enabledStr(v int, format string) string {
	if v > 0 {
		return fmt.Sprintf(format, v)
	}
	return "未启用"
}

func orUnset(v string) string {
	if v == "" {
		return "未设置"
	}
	return v
}
