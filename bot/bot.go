package bot

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/jrsteele09/wilbur/internal/config"
	"github.com/jrsteele09/wilbur/reddit"
	"github.com/jrsteele09/wilbur/trello"
	"github.com/rs/zerolog/log"
)

const handlerTimeout = 30 * time.Second

// Config is the configuration the bot reads.
type Config interface {
	config.EnvConfig
	config.DiscordConfig
	IsRedditLinkingConfigured() bool
	IsRedditPostEnabled() bool
	GetRedditSubreddit() string
	GetRedditFlair() string
	GetTrelloChannel() string
}

// LinkServer starts Reddit linking flows. server.Server implements it.
type LinkServer interface {
	Start() error
	GenerateAuthURL(initiatorID string) (string, error)
}

// Submitter posts to Reddit. reddit.Client implements it.
type Submitter interface {
	Submit(ctx context.Context, s reddit.Submission) (*reddit.Result, error)
}

// CardCreator files feedback cards. trello.Client implements it.
type CardCreator interface {
	CreateCard(ctx context.Context, reporter string, r trello.Report) (*trello.Card, error)
}

// Bot is the Discord command surface: slash commands, the channel relay and
// command logging.
type Bot struct {
	cfg      Config
	session  session
	link     LinkServer
	reddit   Submitter
	trello   CardCreator
	commands map[string]commandHandler
	ctx      context.Context

	statusInterval time.Duration

	// mu guards the state learned from gateway events
	mu          sync.Mutex
	appID       string
	botName     string
	botAvatar   string
	commandIDs  map[string]map[string]string
	guilds      map[string]int
	statusIndex int
}

// Option defines a function signature for Bot's functional options.
type Option func(*Bot)

// WithSession injects a pre-configured session.
// If this option is not given, New creates a session from the bot token.
func WithSession(s *discordgo.Session) Option {
	return func(b *Bot) {
		b.session = s
	}
}

func withSession(s session) Option {
	return func(b *Bot) {
		b.session = s
	}
}

func WithLinkServer(link LinkServer) Option {
	return func(b *Bot) {
		b.link = link
	}
}

func WithRedditSubmitter(r Submitter) Option {
	return func(b *Bot) {
		b.reddit = r
	}
}

func WithTrello(t CardCreator) Option {
	return func(b *Bot) {
		b.trello = t
	}
}

func New(cfg Config, options ...Option) (*Bot, error) {
	b := &Bot{
		cfg:            cfg,
		ctx:            context.Background(),
		statusInterval: statusInterval,
		commandIDs:     make(map[string]map[string]string),
		guilds:         make(map[string]int),
	}
	for _, opt := range options {
		opt(b)
	}

	if b.session == nil {
		if cfg.GetBotToken() == "" {
			return nil, ErrEmptyToken
		}
		s, err := discordgo.New("Bot " + cfg.GetBotToken())
		if err != nil {
			return nil, fmt.Errorf("failed to create Discord session: %w", err)
		}
		s.Identify.Intents = discordgo.IntentsGuilds |
			discordgo.IntentsGuildMessages |
			discordgo.IntentMessageContent
		b.session = s
	}

	b.commands = b.commandHandlers()
	return b, nil
}

// Run connects to the gateway and blocks until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	b.ctx = ctx

	removers := []func(){
		b.session.AddHandler(func(_ *discordgo.Session, r *discordgo.Ready) { b.onReady(r) }),
		b.session.AddHandler(func(_ *discordgo.Session, i *discordgo.InteractionCreate) { b.onInteraction(i) }),
		b.session.AddHandler(func(_ *discordgo.Session, m *discordgo.MessageCreate) { b.onMessage(m) }),
		b.session.AddHandler(func(_ *discordgo.Session, g *discordgo.GuildCreate) { b.onGuildCreate(g) }),
		b.session.AddHandler(func(_ *discordgo.Session, g *discordgo.GuildDelete) { b.onGuildDelete(g) }),
	}
	defer func() {
		for _, remove := range removers {
			remove()
		}
	}()

	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to open Discord session: %w", err)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		b.rotateStatus(ctx, b.statusInterval)
	}()

	<-ctx.Done()
	wg.Wait()

	if err := b.session.Close(); err != nil {
		log.Err(err).Msg("Failed to close Discord session")
	}
	return nil
}

func (b *Bot) onReady(r *discordgo.Ready) {
	if r.User == nil {
		log.Error().Msg("Ready event without a user, slash commands not registered")
		return
	}

	b.mu.Lock()
	b.appID = r.User.ID
	b.botName = r.User.Username
	b.botAvatar = r.User.AvatarURL("")
	b.mu.Unlock()

	if err := b.registerCommands(r.User.ID); err != nil {
		log.Err(err).Msg("Failed to register slash commands")
	}
	b.nextStatus()

	log.Info().
		Str("user", r.User.Username).
		Int("guilds", len(r.Guilds)).
		Int("commands", len(b.commands)).
		Msg("Bot ready")
}

func (b *Bot) handlerContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(b.ctx, handlerTimeout)
}
