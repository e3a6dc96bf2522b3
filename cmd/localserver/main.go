// The localserver command runs the SMS sender pipeline behind a local HTTP
// harness instead of the function runtime, so captured event documents can
// be replayed with curl during development.
package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/kms"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/lox24/cognito-sms-bridge/cmd/flags"
	"github.com/lox24/cognito-sms-bridge/config"
	"github.com/lox24/cognito-sms-bridge/crypt"
	"github.com/lox24/cognito-sms-bridge/handler"
	"github.com/lox24/cognito-sms-bridge/httpserver"
	"github.com/lox24/cognito-sms-bridge/lox24"
)

func main() {
	app := &cli.App{
		Name:  "localserver",
		Usage: "Serve the SMS sender pipeline over local HTTP",
		Flags: flags.CommonFlags,
		Action: func(cCtx *cli.Context) error {
			if envFile := cCtx.String(flags.EnvFileFlag.Name); envFile != "" {
				if err := godotenv.Load(envFile); err != nil {
					return fmt.Errorf("failed to load env file %s: %w", envFile, err)
				}
			} else {
				// Best effort, matching the usual local layout.
				godotenv.Load()
			}

			logger := flags.SetupLogger(cCtx)

			cfg, err := config.Load(cCtx.Context)
			if err != nil {
				logger.Error("Failed to load configuration", "err", err)
				return err
			}

			sess, err := session.NewSession()
			if err != nil {
				logger.Error("Failed to create AWS session", "err", err)
				return err
			}

			decryptor, err := crypt.NewDecryptor(kms.New(sess), cfg.KeyID, []string{cfg.KeyARN}, logger)
			if err != nil {
				logger.Error("Failed to create decryptor", "err", err)
				return err
			}

			gateway := lox24.New(cfg.GatewayHost, cfg.AuthToken, logger)
			h := handler.NewHandler(cfg, decryptor, gateway, logger)

			srv, err := httpserver.New(flags.ConfigureServer(cCtx, logger), h)
			if err != nil {
				logger.Error("Failed to create server", "err", err)
				return err
			}

			srv.RunInBackground()

			exit := make(chan os.Signal, 1)
			signal.Notify(exit, os.Interrupt, syscall.SIGTERM)

			logger.Info("Server is running, press Ctrl+C to stop")
			<-exit
			logger.Info("Shutdown signal received")

			srv.Shutdown()
			logger.Info("Server shutdown complete")

			return nil
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
