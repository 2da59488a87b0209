package archiver

import (
	"context"
	"fmt"
	"strings"
	"time"

	"discord-archiver/models"

	"github.com/bwmarrin/discordgo"
)

// DiscordThreadService implements ThreadService on a discordgo session.
type DiscordThreadService struct {
	s *discordgo.Session
}

// NewDiscordThreadService wraps the session.
func NewDiscordThreadService(s *discordgo.Session) *DiscordThreadService {
	return &DiscordThreadService{s: s}
}

// ActiveThreads lists the guild's active threads as snapshot entries. The
// last-message snowflake gives the activity time when present; threads
// without one stay marked unknown and are resolved per-thread later.
func (d *DiscordThreadService) ActiveThreads(ctx context.Context, guildID string) ([]models.ThreadSnapshot, error) {
	list, err := d.s.GuildThreadsActive(guildID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to list active threads for guild %s: %w", guildID, err)
	}

	snapshot := make([]models.ThreadSnapshot, 0, len(list.Threads))
	for _, t := range list.Threads {
		entry := models.ThreadSnapshot{
			ThreadID:  t.ID,
			ChannelID: t.ParentID,
			Name:      t.Name,
			Pinned:    t.Flags&discordgo.ChannelFlagPinned != 0,
		}
		if t.ThreadMetadata != nil {
			entry.Locked = t.ThreadMetadata.Locked
			entry.Archived = t.ThreadMetadata.Archived
		}
		if t.LastMessageID != "" {
			if at, err := discordgo.SnowflakeTimestamp(t.LastMessageID); err == nil {
				entry.LastActivity = at
				entry.ActivityKnown = true
			}
		}
		snapshot = append(snapshot, entry)
	}
	return snapshot, nil
}

// LastActivity fetches the newest messages of a thread and returns the
// timestamp of the first one found. A thread with a readable but empty
// history reports no known time without an error.
func (d *DiscordThreadService) LastActivity(ctx context.Context, threadID string) (time.Time, bool, error) {
	msgs, err := d.s.ChannelMessages(threadID, 5, "", "", "", discordgo.WithContext(ctx))
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to read history of thread %s: %w", threadID, err)
	}
	if len(msgs) == 0 {
		return time.Time{}, false, nil
	}
	return msgs[0].Timestamp, true, nil
}

// Archive archives the thread with the given audit-log reason.
func (d *DiscordThreadService) Archive(ctx context.Context, threadID, reason string) error {
	archived := true
	_, err := d.s.ChannelEditComplex(threadID, &discordgo.ChannelEdit{Archived: &archived},
		discordgo.WithContext(ctx), discordgo.WithAuditLogReason(reason))
	if err != nil {
		return fmt.Errorf("failed to archive thread %s: %w", threadID, err)
	}
	return nil
}

// Unarchive reactivates an archived thread.
func (d *DiscordThreadService) Unarchive(ctx context.Context, threadID, reason string) error {
	archived := false
	_, err := d.s.ChannelEditComplex(threadID, &discordgo.ChannelEdit{Archived: &archived},
		discordgo.WithContext(ctx), discordgo.WithAuditLogReason(reason))
	if err != nil {
		return fmt.Errorf("failed to unarchive thread %s: %w", threadID, err)
	}
	return nil
}

// KeepAlive refreshes a pinned thread's activity timer. Unlocked threads get
// a throwaway message that is deleted right away; locked threads cannot be
// posted to, so a lock re-edit refreshes them instead.
func (d *DiscordThreadService) KeepAlive(ctx context.Context, thread models.ThreadSnapshot) error {
	if thread.Locked {
		locked := true
		_, err := d.s.ChannelEditComplex(thread.ThreadID, &discordgo.ChannelEdit{Locked: &locked},
			discordgo.WithContext(ctx), discordgo.WithAuditLogReason("pinned thread keep-alive"))
		if err != nil {
			return fmt.Errorf("failed to refresh locked pinned thread %s: %w", thread.ThreadID, err)
		}
		return nil
	}

	msg, err := d.s.ChannelMessageSend(thread.ThreadID, "置顶帖保活，稍后删除", discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to bump pinned thread %s: %w", thread.ThreadID, err)
	}
	if err := d.s.ChannelMessageDelete(thread.ThreadID, msg.ID, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("failed to delete bump message in thread %s: %w", thread.ThreadID, err)
	}
	return nil
}

// DiscordNotifier implements Notifier by posting report embeds.
type DiscordNotifier struct {
	s *discordgo.Session
}

// NewDiscordNotifier wraps the session.
func NewDiscordNotifier(s *discordgo.Session) *DiscordNotifier {
	return &DiscordNotifier{s: s}
}

// Deliver renders the report as an embed and posts it.
func (n *DiscordNotifier) Deliver(channelID string, rep Report) (string, error) {
	msg, err := n.s.ChannelMessageSendEmbed(channelID, RenderReportEmbed(rep))
	if err != nil {
		return "", fmt.Errorf("failed to deliver report to channel %s: %w", channelID, err)
	}
	return msg.ID, nil
}

// DeleteMessage removes a previously posted report message.
func (n *DiscordNotifier) DeleteMessage(channelID, messageID string) error {
	return n.s.ChannelMessageDelete(channelID, messageID)
}

const (
	colorReportOK     = 0x00ff00 // green
	colorReportWarn   = 0xffa500 // orange, failures present
	colorReportNoop   = 0x0000ff // blue, nothing to do
	maxEmbedFieldRune = 1000
)

// RenderReportEmbed turns a report into the notification embed. Failure
// details are already capped by the builder; this only formats.
func RenderReportEmbed(rep Report) *discordgo.MessageEmbed {
	var b strings.Builder

	if rep.InactivityDays > 0 {
		fmt.Fprintf(&b, "> 不活跃 **%d** 天归档：**开启**\n", rep.InactivityDays)
	} else {
		b.WriteString("> 不活跃天数归档：**关闭**\n")
	}
	if rep.ServerQuota > 0 {
		fmt.Fprintf(&b, "> 服务器活跃帖目标: **%d**\n", rep.ServerQuota)
	} else {
		b.WriteString("> 服务器活跃帖目标: **未启用**\n")
	}
	fmt.Fprintf(&b, "> 当前服务器总活跃帖: **%d**\n", rep.ActiveCount)
	if rep.Deficit > 0 {
		fmt.Fprintf(&b, "> 服务器需归档数量: **%d**\n", rep.Deficit)
	} else {
		b.WriteString("> 服务器活跃帖数在目标内，无需配额归档。\n")
	}
	if rep.QuotaShortfall > 0 {
		fmt.Fprintf(&b, "> 候选帖不足，缺口: **%d**\n", rep.QuotaShortfall)
	}
	fmt.Fprintf(&b, "\n> 归档成功: **%d** (配额 %d / 不活跃 %d)\n", rep.Archived, rep.ArchivedQuota, rep.ArchivedInactive)
	fmt.Fprintf(&b, "> 取消归档(置顶恢复): **%d**\n", rep.Unarchived)
	fmt.Fprintf(&b, "> 失败总计: **%d** (归档 %d / 恢复 %d / 获取 %d)\n",
		rep.TotalFailed(), rep.ArchiveFailed, rep.UnarchiveFailed, rep.FetchErrors)
	if rep.Trigger == TriggerManual {
		b.WriteString("-# (手动触发)\n")
	}

	color := colorReportOK
	switch {
	case rep.TotalFailed() > 0:
		color = colorReportWarn
	case rep.Archived == 0 && rep.Unarchived == 0:
		color = colorReportNoop
	}

	embed := &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("归档报告: %s", rep.ConfigName),
		Description: b.String(),
		Color:       color,
		Author:      &discordgo.MessageEmbedAuthor{Name: rep.StartedAt.Format("2006-01-02 15:04:05 MST")},
		Footer:      &discordgo.MessageEmbedFooter{Text: fmt.Sprintf("日志索引: %s", rep.RunID)},
	}

	if len(rep.Failures) > 0 {
		var fb strings.Builder
		for i, f := range rep.Failures {
			line := fmt.Sprintf("- [%d] `%s` %s: %s\n", i+1, f.ThreadID, f.Status, f.Detail)
			if len([]rune(fb.String()))+len([]rune(line)) > maxEmbedFieldRune {
				break
			}
			fb.WriteString(line)
		}
		if rep.TruncatedFailures > 0 {
			fmt.Fprintf(&fb, "…另有 %d 条失败未列出\n", rep.TruncatedFailures)
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "失败详情",
			Value: fb.String(),
		})
	}

	return embed
}
