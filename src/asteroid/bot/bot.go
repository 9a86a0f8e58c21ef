package bot

import (
	"context"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"github.com/asteroid-bot/asteroid/src/asteroid/components/award"
	"github.com/asteroid-bot/asteroid/src/asteroid/components/gateway"
	"github.com/asteroid-bot/asteroid/src/asteroid/components/importer"
	"github.com/asteroid-bot/asteroid/src/asteroid/data"
)

type Config struct {
	Token string
	DB    *gorm.DB
	Redis *redis.Client
}

type Bot struct {
	session     *discordgo.Session
	db          *gorm.DB
	rdb         *redis.Client
	configs     *data.GuildConfigs
	ledger      *data.Ledger
	mirrors     *data.Mirrors
	gateway     *gateway.Discord
	engine      *award.Engine
	importer    *importer.Importer
	rateLimiter *RateLimiter
	cron        *cron.Cron
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
}

func New(config Config) (*Bot, error) {
	dg, err := discordgo.New("Bot " + config.Token)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())

	bot := &Bot{
		session: dg,
		db:      config.DB,
		rdb:     config.Redis,
		ctx:     ctx,
		cancel:  cancel,
	}
	bot.initializeComponents()
	bot.registerHandlers()

	dg.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMessageReactions

	return bot, nil
}

func (b *Bot) initializeComponents() {
	b.configs = data.NewGuildConfigs(b.db)
	b.ledger = data.NewLedger(b.db)
	b.mirrors = data.NewMirrors(b.db)
	b.gateway = gateway.NewDiscord(b.session)
	b.engine = award.New(award.Config{
		Configs:  b.configs,
		Ledger:   b.ledger,
		Registry: b.mirrors,
		Gateway:  b.gateway,
		Redis:    b.rdb,
	})
	b.importer = importer.New(b.gateway, data.NewImportApplier(b.db))
	b.rateLimiter = NewRateLimiter(10 * time.Second)
}

func (b *Bot) registerHandlers() {
	b.session.AddHandler(b.handleReady)
	b.session.AddHandler(b.handleReactionAdd)
	b.session.AddHandler(b.handleReactionRemove)
	b.session.AddHandler(b.handleMessageDelete)
	b.session.AddHandler(b.handleMessageDeleteBulk)
	b.session.AddHandler(b.handleInteraction)
}

func (b *Bot) Start() error {
	if err := b.session.Open(); err != nil {
		return err
	}
	return b.startScheduler()
}

func (b *Bot) Stop() {
	b.cancel()
	b.wg.Wait()
	b.stopScheduler()
	b.session.Close()
}
