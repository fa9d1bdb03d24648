package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	identityhttpapi "github.com/opencircle/auth-server/identity/httpapi"
	"github.com/opencircle/auth-server/internal/config"
	"github.com/opencircle/auth-server/server"
	"github.com/opencircle/auth-server/session"
	"github.com/opencircle/auth-server/token"
	refreshhttpapi "github.com/opencircle/auth-server/token/refresh/httpapi"
)

func main() {
	for {
		if err := run(); err != nil {
			log.Fatal().Err(err).Msg("error running server")
			time.Sleep(1 * time.Second)
		} else {
			break
		}
	}
	log.Info().Msg("server stopped")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("recovered from panic")
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	c := config.New()
	logger := newLogger(c.GetEnv())
	displayAppname(c.GetAppName())

	signer, err := token.NewSigner(c.GetJWTAlgorithm(), c.GetJWTSecret())
	if err != nil {
		return fmt.Errorf("token.NewSigner: %w", err)
	}
	codec := token.NewCodec(signer)

	repos := session.Repos{
		Identities: identityhttpapi.New(c.GetUsersAPIURL()),
		Tokens:     refreshhttpapi.New(c.GetTokensAPIURL()),
	}
	sessionService, err := session.New(repos, codec, c, logger)
	if err != nil {
		return fmt.Errorf("session.New: %w", err)
	}

	handler, err := server.New(c, sessionService, logger)
	if err != nil {
		return fmt.Errorf("server.New: %w", err)
	}

	httpServer := &http.Server{Addr: c.GetPort(), Handler: handler}
	go listenAndServe(httpServer, logger)
	waitForStopSignal()
	returnError = shutdown(httpServer)
	return returnError
}

func listenAndServe(server *http.Server, logger zerolog.Logger) {
	logger.Info().Str("addr", server.Addr).Msg("server listening")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("server.ListenAndServe")
	}
}

func waitForStopSignal() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func newLogger(env string) zerolog.Logger {
	if env == "DEV" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
