package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/wilbur/auth"
	"github.com/jrsteele09/wilbur/bot"
	"github.com/jrsteele09/wilbur/internal/config"
	"github.com/jrsteele09/wilbur/reddit"
	"github.com/jrsteele09/wilbur/server"
	"github.com/jrsteele09/wilbur/server/authflowrepo"
	"github.com/jrsteele09/wilbur/token"
	"github.com/jrsteele09/wilbur/trello"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const shutdownTimeout = 5 * time.Second

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("Error running bot")
	}
	log.Info().Msg("Bot stopped")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("Recovered from panic")
			returnError = errors.New("panic recovered")
		}
	}()

	c, err := config.New()
	if err != nil {
		return err
	}
	setupLogger(c)
	displayAppname(c.GetAppName())
	log.Info().Str("version", c.GetVersion()).Str("env", c.GetEnv()).Msg("Starting")

	store := token.NewStore(token.Pair{
		AccessToken:  c.GetRedditAccessToken(),
		RefreshToken: c.GetRedditRefreshToken(),
	})
	httpClient := auth.NewHTTPClient(c)
	oauthClient := auth.NewClient(c, store, auth.WithHTTPClient(httpClient))

	flows := authflowrepo.NewInMemoryRepo(c.GetFlowTTL(), c.GetStateTokenLength())
	callbackServer, err := server.New(c, flows, oauthClient)
	if err != nil {
		return err
	}

	options := []bot.Option{
		bot.WithLinkServer(callbackServer),
		bot.WithRedditSubmitter(reddit.NewClient(c.GetRedditAPIBaseURL(), oauthClient, httpClient)),
	}
	if c.IsTrelloConfigured() {
		options = append(options, bot.WithTrello(trello.NewClient(c, httpClient)))
	}

	b, err := bot.New(c, options...)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runErr := b.Run(ctx)
	returnError = errors.Join(runErr, shutdown(callbackServer))
	return returnError
}

func setupLogger(c config.EnvConfig) {
	zerolog.TimeFieldFormat = time.RFC3339
	if c.IsDev() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		return
	}
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}

func shutdown(s *server.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.Stop(ctx); err != nil {
		return fmt.Errorf("server.Stop: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
