package utils

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

const (
	ColorInfo  = 0x00ff00 // Green
	ColorWarn  = 0xffff00 // Yellow
	ColorError = 0xff0000 // Red
)

// Log is the process-wide logger.
var Log = logrus.New()

var (
	session   *discordgo.Session
	channelID string
)

// InitLog configures the logrus logger from config: bot.logLevel,
// bot.logFile. File output is appended next to stdout when configured.
func InitLog() {
	Log.SetOutput(os.Stdout)

	level, err := logrus.ParseLevel(strings.ToLower(viper.GetString("bot.logLevel")))
	if err != nil {
		level = logrus.InfoLevel
	}
	Log.SetLevel(level)
	Log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	if path := viper.GetString("bot.logFile"); path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			Log.WithError(err).Warn("could not open log file, logging to stdout only")
		} else {
			Log.SetOutput(io.MultiWriter(os.Stdout, f))
		}
	}
}

// InitLogger initializes the admin-channel logger with a Discord session.
func InitLogger(s *discordgo.Session) {
	session = s
	channelID = viper.GetString("bot.adminChannelId")
	if channelID == "" {
		Log.Warn("bot.adminChannelId is not set; logging to channel is disabled")
	}
}

// logToChannel sends a log embed to the admin channel, falling back to the
// process logger when no channel is available.
func logToChannel(level, module, operation, details string) {
	if session == nil || channelID == "" {
		Log.WithFields(logrus.Fields{"module": module, "operation": operation}).Info(details)
		return
	}

	var color int
	switch level {
	case "INFO":
		color = ColorInfo
	case "WARN":
		color = ColorWarn
	case "ERROR":
		color = ColorError
	default:
		color = ColorInfo
	}

	embed := &discordgo.MessageEmbed{
		Title:     fmt.Sprintf("Log Level: %s", level),
		Color:     color,
		Timestamp: time.Now().Format(time.RFC3339),
		Fields: []*discordgo.MessageEmbedField{
			{
				Name:   "模块",
				Value:  module,
				Inline: true,
			},
			{
				Name:   "操作",
				Value:  operation,
				Inline: true,
			},
			{
				Name:  "附加信息",
				Value: details,
			},
		},
	}

	if _, err := session.ChannelMessageSendEmbed(channelID, embed); err != nil {
		Log.WithError(err).Error("error sending log message to Discord")
	}
}

// Info logs an informational message to the admin channel.
func Info(module, operation, details string) {
	logToChannel("INFO", module, operation, details)
}

// Warn logs a warning message to the admin channel.
func Warn(module, operation, details string) {
	logToChannel("WARN", module, operation, details)
}

// Error logs an error message to the admin channel.
func Error(module, operation, details string) {
	logToChannel("ERROR", module, operation, details)
}
