package bot

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"discord-archiver/archiver"
	"discord-archiver/utils"

	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
)

var c *cron.Cron

// guildPause is the breather between consecutive guild audits in one
// scheduled sweep, so back-to-back guilds don't hammer the API.
const guildPause = 10 * time.Second

// startScheduler starts the periodic audit job.
func startScheduler(b *Bot) {
	utils.Log.Info("Initializing audit scheduler...")
	c = cron.New()

	spec := viper.GetString("bot.auditCron")
	if spec == "" {
		spec = "@every 15m"
	}
	if _, err := c.AddFunc(spec, func() { runScheduledAudits(b) }); err != nil {
		utils.Log.Fatalf("Could not set up audit cron job: %v", err)
	}
	c.Start()
	utils.Log.Infof("Audit job scheduled (%s).", spec)

	// Perform an initial audit sweep on startup based on config.
	if viper.GetBool("bot.auditAtStartup") {
		go func() {
			utils.Log.Info("Performing initial audit sweep on startup...")
			runScheduledAudits(b)
		}()
	} else {
		utils.Log.Info("Skipping initial audit sweep as per configuration.")
	}
}

// runScheduledAudits walks every configured guild in name order and runs
// the identical pipeline the manual command uses.
func runScheduledAudits(b *Bot) {
	all := b.Store.All()
	names := make([]string, 0, len(all))
	for name := range all {
		names = append(names, name)
	}
	sort.Strings(names)

	for i, name := range names {
		rules := all[name]
		_, err := b.Auditor.Audit(context.Background(), rules, archiver.TriggerScheduled)
		if errors.Is(err, archiver.ErrAuditInProgress) {
			utils.Log.WithField("config", name).Warn("scheduled audit skipped, previous run still in progress")
			utils.Warn("归档", "定时检查", fmt.Sprintf("配置 '%s' 的上一次检查尚未结束，本轮已跳过。", name))
		} else if err != nil {
			utils.Log.WithField("config", name).WithError(err).Error("scheduled audit failed")
			utils.Error("归档", "定时检查", fmt.Sprintf("配置 '%s' 的定时检查失败: %v", name, err))
		}
		if i < len(names)-1 {
			time.Sleep(guildPause)
		}
	}
}

// stopScheduler stops the cron jobs.
func stopScheduler() {
	if c != nil {
		c.Stop()
		utils.Log.Info("Scheduler stopped.")
	}
}
