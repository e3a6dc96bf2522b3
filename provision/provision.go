package provision

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"text/template"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/iam"
	"github.com/aws/aws-sdk-go/service/iam/iamiface"
	"github.com/aws/aws-sdk-go/service/kms"
	"github.com/aws/aws-sdk-go/service/kms/kmsiface"
	"github.com/aws/aws-sdk-go/service/lambda"
	"github.com/aws/aws-sdk-go/service/lambda/lambdaiface"
	"github.com/aws/aws-sdk-go/service/sts"
	"github.com/aws/aws-sdk-go/service/sts/stsiface"
)

// lambdaTrustPolicy lets the function service assume the execution role.
const lambdaTrustPolicy = `{
  "Version": "2012-10-17",
  "Statement": [
    {
      "Effect": "Allow",
      "Principal": {"Service": "lambda.amazonaws.com"},
      "Action": "sts:AssumeRole"
    }
  ]
}`

// decryptPolicy grants the execution role exactly what the sender needs:
// kms:Decrypt on the configured key and log delivery for its own log group.
var decryptPolicy = template.Must(template.New("decrypt-policy").Parse(`{
  "Version": "2012-10-17",
  "Statement": [
    {
      "Effect": "Allow",
      "Action": "kms:Decrypt",
      "Resource": "{{.KeyARN}}"
    },
    {
      "Effect": "Allow",
      "Action": "logs:CreateLogGroup",
      "Resource": "arn:aws:logs:{{.Region}}:{{.AccountID}}:*"
    },
    {
      "Effect": "Allow",
      "Action": ["logs:CreateLogStream", "logs:PutLogEvents"],
      "Resource": "arn:aws:logs:{{.Region}}:{{.AccountID}}:log-group:/aws/lambda/{{.FunctionName}}:*"
    }
  ]
}`))

// PolicyParams carries the identifiers interpolated into the execution role's
// inline policy document.
type PolicyParams struct {
	AccountID    string
	Region       string
	KeyARN       string
	FunctionName string
}

// DeployParams describes one function deployment. Environment becomes the
// function's environment variables and should carry the gateway and key
// settings the sender reads at startup.
type DeployParams struct {
	FunctionName string
	RoleARN      string
	ZipFile      []byte
	Environment  map[string]string
}

// Provisioner drives the cloud-side setup of the SMS sender: execution role,
// permissions, key validation, and the function deployment itself.
type Provisioner struct {
	iam    iamiface.IAMAPI
	sts    stsiface.STSAPI
	lambda lambdaiface.LambdaAPI
	kms    kmsiface.KMSAPI
	log    *slog.Logger

	updatePoll time.Duration
}

// New creates a Provisioner with service clients derived from the session.
func New(sess *session.Session, log *slog.Logger) *Provisioner {
	return NewWithClients(iam.New(sess), sts.New(sess), lambda.New(sess), kms.New(sess), log)
}

// NewWithClients creates a Provisioner from explicit service clients.
func NewWithClients(iamClient iamiface.IAMAPI, stsClient stsiface.STSAPI, lambdaClient lambdaiface.LambdaAPI, kmsClient kmsiface.KMSAPI, log *slog.Logger) *Provisioner {
	return &Provisioner{
		iam:        iamClient,
		sts:        stsClient,
		lambda:     lambdaClient,
		kms:        kmsClient,
		log:        log,
		updatePoll: 2 * time.Second,
	}
}

// AccountID resolves the account the configured credentials operate in.
func (p *Provisioner) AccountID(ctx context.Context) (string, error) {
	out, err := p.sts.GetCallerIdentityWithContext(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return "", fmt.Errorf("failed to resolve caller identity: %w", err)
	}
	return aws.StringValue(out.Account), nil
}

// EnsureRole returns the ARN of the named execution role, creating it with
// the function service trust policy when it does not exist yet.
func (p *Provisioner) EnsureRole(ctx context.Context, roleName string) (string, error) {
	out, err := p.iam.GetRoleWithContext(ctx, &iam.GetRoleInput{RoleName: aws.String(roleName)})
	if err == nil {
		p.log.Info("Execution role already exists", slog.String("roleName", roleName))
		return aws.StringValue(out.Role.Arn), nil
	}

	var aerr awserr.Error
	if !errors.As(err, &aerr) || aerr.Code() != iam.ErrCodeNoSuchEntityException {
		return "", fmt.Errorf("failed to look up role %s: %w", roleName, err)
	}

	created, err := p.iam.CreateRoleWithContext(ctx, &iam.CreateRoleInput{
		RoleName:                 aws.String(roleName),
		AssumeRolePolicyDocument: aws.String(lambdaTrustPolicy),
		Description:              aws.String("Execution role for the LOX24 SMS sender function"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to create role %s: %w", roleName, err)
	}

	// A freshly created role can take a few seconds before the function
	// service is able to assume it.
	p.log.Info("Created execution role",
		slog.String("roleName", roleName),
		slog.String("roleArn", aws.StringValue(created.Role.Arn)))
	return aws.StringValue(created.Role.Arn), nil
}

// AttachPolicy puts an inline policy document on the execution role.
func (p *Provisioner) AttachPolicy(ctx context.Context, roleName, policyName, policyDocument string) error {
	_, err := p.iam.PutRolePolicyWithContext(ctx, &iam.PutRolePolicyInput{
		RoleName:       aws.String(roleName),
		PolicyName:     aws.String(policyName),
		PolicyDocument: aws.String(policyDocument),
	})
	if err != nil {
		return fmt.Errorf("failed to attach policy %s to role %s: %w", policyName, roleName, err)
	}

	p.log.Info("Attached inline policy",
		slog.String("roleName", roleName),
		slog.String("policyName", policyName))
	return nil
}

// ValidateKey checks that the key the identity platform encrypts codes with
// exists and is enabled, and returns its ARN for the policy and the sender's
// allow-list. Key creation stays with whoever owns the user pool setup.
func (p *Provisioner) ValidateKey(ctx context.Context, keyID string) (string, error) {
	out, err := p.kms.DescribeKeyWithContext(ctx, &kms.DescribeKeyInput{KeyId: aws.String(keyID)})
	if err != nil {
		return "", fmt.Errorf("failed to describe key %s: %w", keyID, err)
	}

	meta := out.KeyMetadata
	if meta == nil {
		return "", fmt.Errorf("key %s has no metadata", keyID)
	}
	if !aws.BoolValue(meta.Enabled) {
		return "", fmt.Errorf("key %s is not enabled (state %s)", keyID, aws.StringValue(meta.KeyState))
	}

	return aws.StringValue(meta.Arn), nil
}

// RenderDecryptPolicy produces the inline policy document for the execution
// role. All parameters are required.
func RenderDecryptPolicy(params PolicyParams) (string, error) {
	if params.AccountID == "" || params.Region == "" || params.KeyARN == "" || params.FunctionName == "" {
		return "", errors.New("policy parameters must all be set")
	}

	var buf bytes.Buffer
	if err := decryptPolicy.Execute(&buf, params); err != nil {
		return "", fmt.Errorf("failed to render policy document: %w", err)
	}
	return buf.String(), nil
}

// PackageFunction zips a linux binary into the deployment archive. The entry
// is named bootstrap and marked executable, as the provided runtime requires.
func PackageFunction(binaryPath string) ([]byte, error) {
	binary, err := os.ReadFile(binaryPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read function binary: %w", err)
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	header := &zip.FileHeader{
		Name:   "bootstrap",
		Method: zip.Deflate,
	}
	header.SetMode(0o755)

	w, err := zw.CreateHeader(header)
	if err != nil {
		return nil, fmt.Errorf("failed to create archive entry: %w", err)
	}
	if _, err := w.Write(binary); err != nil {
		return nil, fmt.Errorf("failed to write function binary to archive: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize archive: %w", err)
	}

	return buf.Bytes(), nil
}

// DeployFunction creates the function, or updates its code and configuration
// when it already exists. Returns the function ARN.
func (p *Provisioner) DeployFunction(ctx context.Context, params DeployParams) (string, error) {
	start := time.Now()
	env := &lambda.Environment{Variables: aws.StringMap(params.Environment)}

	created, err := p.lambda.CreateFunctionWithContext(ctx, &lambda.CreateFunctionInput{
		FunctionName:  aws.String(params.FunctionName),
		Role:          aws.String(params.RoleARN),
		Runtime:       aws.String(lambda.RuntimeProvidedAl2023),
		Handler:       aws.String("bootstrap"),
		Architectures: []*string{aws.String(lambda.ArchitectureArm64)},
		Code:          &lambda.FunctionCode{ZipFile: params.ZipFile},
		Environment:   env,
		Timeout:       aws.Int64(30),
		MemorySize:    aws.Int64(128),
		Description:   aws.String("Relays identity platform SMS events to the LOX24 gateway"),
	})
	if err == nil {
		p.log.Info("Created function",
			slog.String("functionName", params.FunctionName),
			slog.Duration("duration", time.Since(start)))
		return aws.StringValue(created.FunctionArn), nil
	}

	var aerr awserr.Error
	if !errors.As(err, &aerr) || aerr.Code() != lambda.ErrCodeResourceConflictException {
		return "", fmt.Errorf("failed to create function %s: %w", params.FunctionName, err)
	}

	p.log.Info("Function already exists, updating", slog.String("functionName", params.FunctionName))

	updated, err := p.lambda.UpdateFunctionCodeWithContext(ctx, &lambda.UpdateFunctionCodeInput{
		FunctionName: aws.String(params.FunctionName),
		ZipFile:      params.ZipFile,
	})
	if err != nil {
		return "", fmt.Errorf("failed to update function code for %s: %w", params.FunctionName, err)
	}

	if err := p.waitForUpdate(ctx, params.FunctionName); err != nil {
		return "", err
	}

	if _, err := p.lambda.UpdateFunctionConfigurationWithContext(ctx, &lambda.UpdateFunctionConfigurationInput{
		FunctionName: aws.String(params.FunctionName),
		Role:         aws.String(params.RoleARN),
		Environment:  env,
	}); err != nil {
		return "", fmt.Errorf("failed to update function configuration for %s: %w", params.FunctionName, err)
	}

	p.log.Info("Updated function",
		slog.String("functionName", params.FunctionName),
		slog.Duration("duration", time.Since(start)))
	return aws.StringValue(updated.FunctionArn), nil
}

// waitForUpdate blocks until the function leaves the InProgress update state.
// Configuration changes are rejected while a code update is still applying.
func (p *Provisioner) waitForUpdate(ctx context.Context, functionName string) error {
	for {
		out, err := p.lambda.GetFunctionConfigurationWithContext(ctx, &lambda.GetFunctionConfigurationInput{
			FunctionName: aws.String(functionName),
		})
		if err != nil {
			return fmt.Errorf("failed to poll function state for %s: %w", functionName, err)
		}

		status := aws.StringValue(out.LastUpdateStatus)
		if status == lambda.LastUpdateStatusFailed {
			return fmt.Errorf("update of function %s failed: %s", functionName, aws.StringValue(out.LastUpdateStatusReason))
		}
		if status != lambda.LastUpdateStatusInProgress {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.updatePoll):
		}
	}
}
