// The bridge command is the deployed SMS sender function. It wires the
// decryption client and the LOX24 gateway client into the event handler and
// hands the handler to the function runtime.
package main

import (
	"context"
	"log"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/kms"

	"github.com/lox24/cognito-sms-bridge/common"
	"github.com/lox24/cognito-sms-bridge/config"
	"github.com/lox24/cognito-sms-bridge/crypt"
	"github.com/lox24/cognito-sms-bridge/handler"
	"github.com/lox24/cognito-sms-bridge/lox24"
)

func main() {
	cfg, err := config.Load(context.Background())
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := common.SetupLogger(&common.LoggingOpts{
		Debug:   cfg.LogDebug,
		JSON:    true,
		Service: common.PackageName,
		Version: common.Version,
	})

	// The runtime provides region and credentials through the environment.
	sess, err := session.NewSession()
	if err != nil {
		log.Fatalf("Failed to create AWS session: %v", err)
	}

	decryptor, err := crypt.NewDecryptor(kms.New(sess), cfg.KeyID, []string{cfg.KeyARN}, logger)
	if err != nil {
		log.Fatalf("Failed to create decryptor: %v", err)
	}

	gateway := lox24.New(cfg.GatewayHost, cfg.AuthToken, logger)
	h := handler.NewHandler(cfg, decryptor, gateway, logger)

	logger.Info("SMS sender function starting")
	lambda.Start(h.Handle)
}
