/* main.go
 * The "main" method for running the league service. Starts the Discord bot and the HTTP api, both backed by the same
 * api.API
 * Usage: go run . -test=false -addr=":8080"
 */

package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hdc-league/api/api"
	"hdc-league/bot"
	"hdc-league/config"
	"hdc-league/logger"
	"hdc-league/web"

	"golang.org/x/sync/errgroup"
)

func main() {
	//Flags
	testPtr := flag.String("test", "false", "Use main or test bot: takes true or false as argument")
	addrPtr := flag.String("addr", "", "HTTP listen address, overrides LISTEN_ADDR")
	botPtr := flag.String("bot", "true", "Run the Discord bot: takes true or false as argument")
	webPtr := flag.String("web", "true", "Run the HTTP api: takes true or false as argument")
	flag.Parse()

	log := logger.New(os.Getenv("LOG_LEVEL"))

	opts, err := parseRunOptions(*testPtr, *botPtr, *webPtr)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid flags")
	}

	cfg, err := config.Load(log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	log = logger.New(cfg.LogLevel)
	if *addrPtr != "" {
		cfg.ListenAddr = *addrPtr
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	apiPtr, err := api.NewAPI(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize API")
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := apiPtr.Close(closeCtx); err != nil {
			log.Error().Err(err).Msg("failed to close store")
		}
	}()

	g, gctx := errgroup.WithContext(ctx)

	if opts.runBot {
		token, err := discordToken(cfg, opts.test)
		if err != nil {
			log.Fatal().Err(err).Msg("cannot start bot")
		}
		b, err := bot.NewBot(token, apiPtr, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create bot")
		}
		g.Go(func() error { return b.Run(gctx) })
	}

	if opts.runWeb {
		g.Go(func() error {
			return web.Start(gctx, web.Config{
				Addr:        cfg.ListenAddr,
				API:         apiPtr,
				CORSOrigins: cfg.CORSOrigins,
				Logger:      log,
			})
		})
	}

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("service stopped with error")
		return
	}
	log.Info().Msg("service stopped")
}
