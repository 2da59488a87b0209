package config

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"discord-archiver/models"

	"github.com/mitchellh/mapstructure"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Store holds the loaded rule sets and hands out copies. It is the single
// owner of rule-set state: audits receive a RuleSet value per run, and
// updates go through Update which also persists the file, so nothing reads
// ambient viper state mid-run.
type Store struct {
	mu    sync.RWMutex
	path  string
	rules map[string]models.RuleSet
	log   *logrus.Logger
}

// NewStore builds the store from viper's merged settings. path is where
// updates are persisted (the archive_config.json that LoadConfig merged).
func NewStore(path string, log *logrus.Logger) (*Store, error) {
	raw, ok := viper.Get("archive").(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("no archive section found in configuration")
	}

	rules, err := ParseRuleSets(raw, log)
	if err != nil {
		return nil, err
	}

	return &Store{path: path, rules: rules, log: log}, nil
}

// ParseRuleSets decodes the raw archive section into rule sets. Entries that
// cannot be decoded or lack a guild ID are skipped with a warning; a bad
// entry never takes the others down.
func ParseRuleSets(raw map[string]interface{}, log *logrus.Logger) (map[string]models.RuleSet, error) {
	rules := make(map[string]models.RuleSet, len(raw))
	for name, value := range raw {
		var rs models.RuleSet
		if err := mapstructure.Decode(value, &rs); err != nil {
			log.WithField("config", name).WithError(err).Warn("skipping undecodable rule set")
			continue
		}
		if rs.GuildID == "" {
			log.WithField("config", name).Warn("skipping rule set without guild_id")
			continue
		}
		if rs.Name == "" {
			rs.Name = name
		}
		rules[name] = rs
	}
	if len(rules) == 0 {
		return nil, fmt.Errorf("no usable rule sets in archive configuration")
	}
	return rules, nil
}

// Get returns the rule set for a config name.
func (s *Store) Get(name string) (models.RuleSet, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rs, ok := s.rules[name]
	return rs, ok
}

// ByGuild returns the rule set managing a guild, if any.
func (s *Store) ByGuild(guildID string) (models.RuleSet, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, rs := range s.rules {
		if rs.GuildID == guildID {
			return rs, true
		}
	}
	return models.RuleSet{}, false
}

// All returns a copy of every rule set keyed by config name.
func (s *Store) All() map[string]models.RuleSet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]models.RuleSet, len(s.rules))
	for name, rs := range s.rules {
		out[name] = rs
	}
	return out
}

// Update applies a mutation to one rule set and persists the whole archive
// config file. The mutation sees a copy; nothing is published on error.
func (s *Store) Update(name string, apply func(*models.RuleSet)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rs, ok := s.rules[name]
	if !ok {
		return fmt.Errorf("unknown config name: %s", name)
	}
	apply(&rs)

	next := make(map[string]models.RuleSet, len(s.rules))
	for k, v := range s.rules {
		next[k] = v
	}
	next[name] = rs

	if err := writeArchiveConfig(s.path, next); err != nil {
		return err
	}
	s.rules = next
	return nil
}

// Reload re-reads the archive config file from disk and swaps the rule sets
// wholesale. Running audits keep the RuleSet value they started with.
func (s *Store) Reload() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("failed to read archive config: %w", err)
	}
	var file models.ArchiveFileConfig
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse archive config: %w", err)
	}

	raw := make(map[string]interface{}, len(file.Archive))
	for name, rs := range file.Archive {
		raw[name] = rs
	}
	rules, err := ParseRuleSets(raw, s.log)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.rules = rules
	s.mu.Unlock()
	return nil
}

func writeArchiveConfig(path string, rules map[string]models.RuleSet) error {
	data, err := json.MarshalIndent(models.ArchiveFileConfig{Archive: rules}, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to encode archive config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write archive config: %w", err)
	}
	return nil
}
