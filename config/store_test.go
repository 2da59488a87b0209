package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"discord-archiver/models"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func rawRuleSet(guildID string, days, quota int) map[string]interface{} {
	return map[string]interface{}{
		"guild_id":                guildID,
		"inactivity_days":         days,
		"server_quota":            quota,
		"notification_channel_id": "notify-1",
	}
}

func TestParseRuleSetsSkipsBadEntries(t *testing.T) {
	raw := map[string]interface{}{
		"main":     rawRuleSet("guild-1", 30, 100),
		"no-guild": map[string]interface{}{"inactivity_days": 7},
		"garbage":  "not a rule set",
	}

	rules, err := ParseRuleSets(raw, quietLogger())
	require.NoError(t, err)
	require.Len(t, rules, 1)

	rs := rules["main"]
	assert.Equal(t, "main", rs.Name, "name defaults to the config key")
	assert.Equal(t, "guild-1", rs.GuildID)
	assert.Equal(t, 30, rs.InactivityDays)
	assert.Equal(t, 100, rs.ServerQuota)
}

func TestParseRuleSetsAllBadIsAnError(t *testing.T) {
	raw := map[string]interface{}{
		"no-guild": map[string]interface{}{"inactivity_days": 7},
	}
	_, err := ParseRuleSets(raw, quietLogger())
	assert.Error(t, err)
}

func TestParseRuleSetsKeepsExplicitName(t *testing.T) {
	raw := map[string]interface{}{
		"key": map[string]interface{}{
			"name":     "显示名",
			"guild_id": "guild-1",
		},
	}
	rules, err := ParseRuleSets(raw, quietLogger())
	require.NoError(t, err)
	assert.Equal(t, "显示名", rules["key"].Name)
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	viper.Set("archive", map[string]interface{}{
		"main":  rawRuleSet("guild-1", 30, 100),
		"other": rawRuleSet("guild-2", 0, 50),
	})
	t.Cleanup(func() { viper.Set("archive", nil) })

	store, err := NewStore(filepath.Join(t.TempDir(), "archive_config.json"), quietLogger())
	require.NoError(t, err)
	return store
}

func TestStoreLookups(t *testing.T) {
	store := newTestStore(t)

	rs, ok := store.Get("main")
	require.True(t, ok)
	assert.Equal(t, "guild-1", rs.GuildID)

	_, ok = store.Get("missing")
	assert.False(t, ok)

	rs, ok = store.ByGuild("guild-2")
	require.True(t, ok)
	assert.Equal(t, "other", rs.Name)

	_, ok = store.ByGuild("guild-9")
	assert.False(t, ok)

	assert.Len(t, store.All(), 2)
}

func TestStoreUpdatePersists(t *testing.T) {
	store := newTestStore(t)

	err := store.Update("main", func(rs *models.RuleSet) {
		rs.InactivityDays = 14
		rs.ServerQuota = 80
	})
	require.NoError(t, err)

	rs, ok := store.Get("main")
	require.True(t, ok)
	assert.Equal(t, 14, rs.InactivityDays)
	assert.Equal(t, 80, rs.ServerQuota)

	data, err := os.ReadFile(store.path)
	require.NoError(t, err)
	var file models.ArchiveFileConfig
	require.NoError(t, json.Unmarshal(data, &file))
	assert.Equal(t, 14, file.Archive["main"].InactivityDays)
	assert.Equal(t, 50, file.Archive["other"].ServerQuota, "untouched rule sets survive the rewrite")
}

func TestStoreUpdateUnknownName(t *testing.T) {
	store := newTestStore(t)
	err := store.Update("missing", func(rs *models.RuleSet) { rs.ServerQuota = 1 })
	assert.Error(t, err)
}

func TestStoreReload(t *testing.T) {
	store := newTestStore(t)

	file := models.ArchiveFileConfig{Archive: map[string]models.RuleSet{
		"fresh": {Name: "fresh", GuildID: "guild-3", InactivityDays: 7},
	}}
	data, err := json.MarshalIndent(file, "", "    ")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(store.path, data, 0644))

	require.NoError(t, store.Reload())

	_, ok := store.Get("main")
	assert.False(t, ok, "old rule sets are swapped out wholesale")

	rs, ok := store.Get("fresh")
	require.True(t, ok)
	assert.Equal(t, "guild-3", rs.GuildID)
	assert.Equal(t, 7, rs.InactivityDays)
}

func TestStoreReloadMissingFile(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, os.RemoveAll(store.path))
	assert.Error(t, store.Reload())

	// The previous rule sets stay in place on a failed reload.
	_, ok := store.Get("main")
	assert.True(t, ok)
}
