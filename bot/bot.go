package bot

import (
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"discord-archiver/archiver"
	"discord-archiver/command"
	"discord-archiver/config"
	"discord-archiver/database"
	"discord-archiver/utils"

	"github.com/bwmarrin/discordgo"
	"github.com/spf13/viper"
)

// Bot encapsulates the bot's state: the Discord session, the rule-set store
// and the auditor the handlers and scheduler drive.
type Bot struct {
	Session *discordgo.Session
	Store   *config.Store
	Auditor *archiver.Auditor

	db *sql.DB
}

// NewBot creates and initializes a new Bot instance with all collaborators
// wired: config store, sqlite stores, thread service, notifier, auditor.
func NewBot() (*Bot, error) {
	config.LoadConfig()
	utils.InitLog()

	token := viper.GetString("BOT_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("no bot token provided")
	}

	dg, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("error creating Discord session: %w", err)
	}
	dg.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMessages | discordgo.IntentsGuildMembers

	dbPath := viper.GetString("bot.dbPath")
	if dbPath == "" {
		dbPath = "data/archiver.db"
	}
	db, err := database.InitDB(dbPath)
	if err != nil {
		return nil, fmt.Errorf("error initializing database: %w", err)
	}

	archivePath := viper.GetString("bot.archiveConfigPath")
	if archivePath == "" {
		archivePath = "config/archive_config.json"
	}
	store, err := config.NewStore(archivePath, utils.Log)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("error loading archive rules: %w", err)
	}

	pace := viper.GetDuration("bot.actionPace")
	if pace == 0 {
		pace = 2 * time.Second
	}

	auditor := archiver.NewAuditor(
		archiver.NewDiscordThreadService(dg),
		archiver.NewDiscordNotifier(dg),
		database.NewNoticeStore(db),
		database.NewBumpStore(db),
		pace,
		utils.Log,
	)

	return &Bot{
		Session: dg,
		Store:   store,
		Auditor: auditor,
		db:      db,
	}, nil
}

// Start opens the bot's session, registers handlers and slash commands and
// starts the audit scheduler.
func (b *Bot) Start(registerHandlers func(*Bot)) error {
	registerHandlers(b)

	if err := b.Session.Open(); err != nil {
		return fmt.Errorf("error opening connection: %w", err)
	}

	for _, def := range command.GetCommandDefinitions() {
		if _, err := b.Session.ApplicationCommandCreate(b.Session.State.User.ID, "", def); err != nil {
			utils.Log.WithError(err).Errorf("cannot create '%v' command", def.Name)
		}
	}

	startScheduler(b)

	fmt.Println("Bot is now running. Press CTRL-C to exit.")
	return nil
}

// Stop gracefully shuts the bot down.
func (b *Bot) Stop() {
	stopScheduler()
	if b.Session != nil {
		b.Session.Close()
	}
	if b.db != nil {
		b.db.Close()
	}
	fmt.Println("Bot stopped gracefully.")
}

// Run is the main entry point for the bot application.
func Run(registerHandlers func(*Bot)) {
	bot, err := NewBot()
	if err != nil {
		utils.Log.Fatalf("Error initializing bot: %v", err)
	}

	if err := bot.Start(registerHandlers); err != nil {
		utils.Log.Fatalf("Error starting bot: %v", err)
	}

	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-sc

	bot.Stop()
}
