// The provision command sets up the cloud side of the SMS sender: the
// execution role, its decrypt-and-log policy, and the function deployment.
package main

import (
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/lox24/cognito-sms-bridge/cmd/flags"
	"github.com/lox24/cognito-sms-bridge/config"
	"github.com/lox24/cognito-sms-bridge/provision"
)

var regionFlag = &cli.StringFlag{
	Name:    "region",
	Usage:   "region to provision in",
	EnvVars: []string{"AWS_REGION", "AWS_DEFAULT_REGION"},
}

var roleNameFlag = &cli.StringFlag{
	Name:  "role-name",
	Value: "cognito-sms-bridge-role",
	Usage: "name of the function's execution role",
}

var policyNameFlag = &cli.StringFlag{
	Name:  "policy-name",
	Value: "cognito-sms-bridge-decrypt",
	Usage: "name of the inline policy attached to the execution role",
}

var functionNameFlag = &cli.StringFlag{
	Name:  "function-name",
	Value: "cognito-sms-bridge",
	Usage: "name of the deployed function",
}

var keyIDFlag = &cli.StringFlag{
	Name:     "key-id",
	Required: true,
	Usage:    "key ID, ARN or alias of the key the identity platform encrypts codes with",
}

var roleARNFlag = &cli.StringFlag{
	Name:     "role-arn",
	Required: true,
	Usage:    "ARN of the execution role, as printed by the role command",
}

var binaryFlag = &cli.StringFlag{
	Name:     "binary",
	Required: true,
	Usage:    "path to the bridge binary built with GOOS=linux GOARCH=arm64",
}

var logFlags = []cli.Flag{
	flags.LogJsonFlag,
	flags.LogDebugFlag,
	flags.LogUidFlag,
	flags.LogServiceFlag,
}

func main() {
	app := &cli.App{
		Name:  "provision",
		Usage: "Provision the SMS sender function and its execution role",
		Commands: []*cli.Command{
			{
				Name:   "role",
				Usage:  "Create the execution role if it does not exist and print its ARN",
				Flags:  append([]cli.Flag{regionFlag, roleNameFlag}, logFlags...),
				Action: runRole,
			},
			{
				Name:   "policy",
				Usage:  "Attach the decrypt-and-log policy to the execution role",
				Flags:  append([]cli.Flag{regionFlag, roleNameFlag, policyNameFlag, functionNameFlag, keyIDFlag}, logFlags...),
				Action: runPolicy,
			},
			{
				Name:   "deploy",
				Usage:  "Package the binary and create or update the function",
				Flags:  append([]cli.Flag{regionFlag, functionNameFlag, roleARNFlag, binaryFlag, flags.EnvFileFlag}, logFlags...),
				Action: runDeploy,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newSession(region string) (*session.Session, error) {
	if region == "" {
		return session.NewSession()
	}
	return session.NewSession(&aws.Config{Region: aws.String(region)})
}

func runRole(cCtx *cli.Context) error {
	logger := flags.SetupLogger(cCtx)

	sess, err := newSession(cCtx.String(regionFlag.Name))
	if err != nil {
		return fmt.Errorf("failed to create AWS session: %w", err)
	}

	p := provision.New(sess, logger)

	arn, err := p.EnsureRole(cCtx.Context, cCtx.String(roleNameFlag.Name))
	if err != nil {
		return err
	}

	fmt.Println(arn)
	return nil
}

func runPolicy(cCtx *cli.Context) error {
	logger := flags.SetupLogger(cCtx)

	sess, err := newSession(cCtx.String(regionFlag.Name))
	if err != nil {
		return fmt.Errorf("failed to create AWS session: %w", err)
	}

	region := aws.StringValue(sess.Config.Region)
	if region == "" {
		return errors.New("region must be set via --region or AWS_REGION")
	}

	p := provision.New(sess, logger)

	account, err := p.AccountID(cCtx.Context)
	if err != nil {
		return err
	}

	keyARN, err := p.ValidateKey(cCtx.Context, cCtx.String(keyIDFlag.Name))
	if err != nil {
		return err
	}

	doc, err := provision.RenderDecryptPolicy(provision.PolicyParams{
		AccountID:    account,
		Region:       region,
		KeyARN:       keyARN,
		FunctionName: cCtx.String(functionNameFlag.Name),
	})
	if err != nil {
		return err
	}

	return p.AttachPolicy(cCtx.Context, cCtx.String(roleNameFlag.Name), cCtx.String(policyNameFlag.Name), doc)
}

func runDeploy(cCtx *cli.Context) error {
	logger := flags.SetupLogger(cCtx)

	if envFile := cCtx.String(flags.EnvFileFlag.Name); envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return fmt.Errorf("failed to load env file %s: %w", envFile, err)
		}
	}

	// The function environment is rendered from the same configuration the
	// sender itself reads, so a deploy fails fast on incomplete settings.
	cfg, err := config.Load(cCtx.Context)
	if err != nil {
		return err
	}

	sess, err := newSession(cCtx.String(regionFlag.Name))
	if err != nil {
		return fmt.Errorf("failed to create AWS session: %w", err)
	}

	archive, err := provision.PackageFunction(cCtx.String(binaryFlag.Name))
	if err != nil {
		return err
	}

	p := provision.New(sess, logger)

	arn, err := p.DeployFunction(cCtx.Context, provision.DeployParams{
		FunctionName: cCtx.String(functionNameFlag.Name),
		RoleARN:      cCtx.String(roleARNFlag.Name),
		ZipFile:      archive,
		Environment:  cfg.EnvironmentMap(),
	})
	if err != nil {
		return err
	}

	fmt.Println(arn)
	return nil
}
