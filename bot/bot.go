package bot

import (
	"context"
	"net/http"
	"time"

	"github.com/hovsthvost89-eng/crypto-bot/config"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	tele "gopkg.in/telebot.v4"
)

// requestTimeout bounds the work behind a single chat command.
const requestTimeout = 45 * time.Second

type Bot struct {
	*tele.Bot
	commands *Commands
	menu     *tele.ReplyMarkup
}

// NewPoller picks the webhook when a public URL is configured, long polling otherwise.
func NewPoller(cfg config.BotConfig) tele.Poller {
	if cfg.WebhookURL != "" {
		return &tele.Webhook{
			Listen:   cfg.Listen,
			Endpoint: &tele.WebhookEndpoint{PublicURL: cfg.WebhookURL},
		}
	}
	return &tele.LongPoller{Timeout: 10 * time.Second}
}

func New(cfg config.BotConfig, commands *Commands, httpClient *http.Client) (*Bot, error) {
	return newBot(tele.Settings{
		Token:  cfg.Token,
		Poller: NewPoller(cfg),
		Client: httpClient,
	}, commands)
}

func newBot(settings tele.Settings, commands *Commands) (*Bot, error) {
	settings.OnError = func(err error, c tele.Context) {
		entry := logrus.WithError(err)
		if c != nil && c.Chat() != nil {
			entry = entry.WithField("chat", c.Chat().ID)
		}
		entry.Error("Failed to handle update")
	}
	tb, err := tele.NewBot(settings)
	if err != nil {
		return nil, errors.Wrap(err, "create telegram bot")
	}
	b := &Bot{Bot: tb, commands: commands, menu: &tele.ReplyMarkup{}}
	b.routes()
	return b, nil
}

func (b *Bot) routes() {
	var (
		btnCompact  = b.menu.Data("📈 Summary", "compact")
		btnTable    = b.menu.Data("📋 Table", "table")
		btnNewCoins = b.menu.Data("🆕 Small caps", "new_coins")
		btnMooners  = b.menu.Data("🚀 Mooners", "mooners")
		btnListings = b.menu.Data("🆕 New listings", "new_listings")
		btnHelp     = b.menu.Data("❓ Help", "help")
	)
	b.menu.Inline(
		b.menu.Row(btnCompact, btnTable),
		b.menu.Row(btnNewCoins, btnMooners),
		b.menu.Row(btnListings, btnHelp),
	)

	b.Use(logUpdates)

	help := func(c tele.Context) error { return b.reply(c, b.commands.Help()) }
	stats := func(c tele.Context) error { return b.replyLater(c, b.commands.Stats) }
	table := func(c tele.Context) error { return b.replyLater(c, b.commands.Table) }
	mooners := func(c tele.Context) error {
		args := c.Args()
		return b.replyLater(c, func(ctx context.Context) string { return b.commands.Mooners(ctx, args) })
	}
	newCoins := func(c tele.Context) error { return b.replyLater(c, b.commands.NewCoins) }
	listings := func(c tele.Context) error { return b.reply(c, b.commands.RecentListings()) }
	probe := func(c tele.Context) error {
		args := c.Args()
		return b.replyLater(c, func(ctx context.Context) string { return b.commands.Probe(ctx, args) })
	}

	b.Handle("/start", help)
	b.Handle("/help", help)
	b.Handle("/stats", stats)
	b.Handle("/table", table)
	b.Handle("/mooners", mooners)
	b.Handle("/newcoins", newCoins)
	b.Handle("/listings", listings)
	b.Handle("/test", probe)

	b.Handle(&btnCompact, answered(stats))
	b.Handle(&btnTable, answered(table))
	b.Handle(&btnNewCoins, answered(newCoins))
	b.Handle(&btnMooners, answered(func(c tele.Context) error {
		return b.replyLater(c, func(ctx context.Context) string { return b.commands.Mooners(ctx, nil) })
	}))
	b.Handle(&btnListings, answered(listings))
	b.Handle(&btnHelp, answered(help))
}

// answered acknowledges a button press so the client stops its spinner.
func answered(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		if err := c.Respond(); err != nil {
			logrus.WithError(err).Debug("Failed to answer callback")
		}
		return next(c)
	}
}

func logUpdates(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		fields := logrus.Fields{"text": c.Text()}
		if c.Sender() != nil {
			fields["user"] = c.Sender().Username
		}
		if cb := c.Callback(); cb != nil {
			fields["button"] = cb.Unique
		}
		logrus.WithFields(fields).Debug("Handling update")
		return next(c)
	}
}

func (b *Bot) reply(c tele.Context, text string) error {
	return c.Send(text, &tele.SendOptions{ParseMode: tele.ModeMarkdown, ReplyMarkup: b.menu})
}

// replyLater shows a loading message right away and edits the result into it.
func (b *Bot) replyLater(c tele.Context, render func(context.Context) string) error {
	loading, err := b.Send(c.Recipient(), b.commands.Loading(), tele.ModeMarkdown)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	text := render(ctx)
	_, err = b.Edit(loading, text, &tele.SendOptions{ParseMode: tele.ModeMarkdown, ReplyMarkup: b.menu})
	return err
}

// Run serves updates until ctx is done.
func (b *Bot) Run(ctx context.Context) {
	if _, ok := b.Poller.(*tele.LongPoller); ok {
		// a leftover webhook makes getUpdates fail
		if err := b.RemoveWebhook(); err != nil {
			logrus.WithError(err).Warn("Failed to remove webhook")
		}
	}
	go func() {
		<-ctx.Done()
		b.Stop()
	}()
	logrus.Infof("Starting Telegram bot @%s", b.Me.Username)
	b.Start()
}
