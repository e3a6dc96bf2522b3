package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/aws/aws-lambda-go/lambdacontext"

	"github.com/lox24/cognito-sms-bridge/cognito"
	"github.com/lox24/cognito-sms-bridge/config"
	"github.com/lox24/cognito-sms-bridge/lox24"
	"github.com/lox24/cognito-sms-bridge/mask"
	"github.com/lox24/cognito-sms-bridge/message"
)

// Client metadata keys honored as per-call overrides.
const (
	// MetadataSenderID overrides the configured sender for one message.
	MetadataSenderID = "sender_id"

	// MetadataVoiceLang requests voice delivery in the given language.
	MetadataVoiceLang = "voice_lang"
)

// SuccessBody is the fixed acknowledgment body returned to Cognito when
// the gateway accepted the message.
const SuccessBody = `{"success":true,"message":"SMS sent successfully via LOX24"}`

var (
	// ErrInvalidEventShape rejects events whose request type is not the
	// custom SMS sender contract. No decryption or dispatch happens.
	ErrInvalidEventShape = errors.New("unexpected request type")

	// ErrMissingRecipient rejects events for users without a phone
	// number attribute.
	ErrMissingRecipient = errors.New("user has no phone number attribute")
)

// Decryptor unwraps the encrypted verification code.
type Decryptor interface {
	Decrypt(ctx context.Context, ciphertextB64 string) (string, error)
}

// Gateway dispatches one SMS.
type Gateway interface {
	Send(ctx context.Context, msg lox24.Message) (*lox24.Result, error)
}

// Handler runs one trigger event through validate, decrypt, compose and
// dispatch. Every error is propagated to the platform unchanged; Cognito
// owns retries and user-facing failure flows.
type Handler struct {
	cfg       *config.Config
	decryptor Decryptor
	gateway   Gateway
	log       *slog.Logger
}

// NewHandler creates a request handler with the given dependencies.
//
// Parameters:
//   - cfg: Immutable process configuration
//   - decryptor: Unwraps Cognito's encrypted codes
//   - gateway: Dispatches the composed message
//   - log: Structured logger for operational insights
//
// Returns a configured Handler instance.
func NewHandler(cfg *config.Config, decryptor Decryptor, gateway Gateway, log *slog.Logger) *Handler {
	return &Handler{
		cfg:       cfg,
		decryptor: decryptor,
		gateway:   gateway,
		log:       log,
	}
}

// Handle processes one custom SMS sender event and returns the fixed
// success acknowledgment, or an error the platform treats as trigger
// failure. Plaintext codes and full phone numbers never reach the logs.
func (h *Handler) Handle(ctx context.Context, event cognito.Event) (cognito.Response, error) {
	log := h.log
	if lc, ok := lambdacontext.FromContext(ctx); ok {
		log = log.With(slog.String("requestID", lc.AwsRequestID))
	}
	log = log.With(
		slog.String("triggerSource", event.TriggerSource),
		slog.String("userName", event.UserName),
		slog.String("userPoolID", event.UserPoolID),
	)

	log.Info("Received SMS sender event")

	if event.Request.Type != cognito.RequestTypeCustomSMSSender {
		log.Error("Rejecting event with unexpected request type",
			slog.String("requestType", event.Request.Type))
		return cognito.Response{}, fmt.Errorf("%w: %q", ErrInvalidEventShape, event.Request.Type)
	}

	// Recipient absence is fatal regardless of code presence, so check
	// it before spending a KMS call.
	phone := event.PhoneNumber()
	if phone == "" {
		log.Error("Rejecting event without a recipient phone number")
		return cognito.Response{}, ErrMissingRecipient
	}

	var code string
	if event.Request.Code != "" {
		var err error
		code, err = h.decryptor.Decrypt(ctx, event.Request.Code)
		if err != nil {
			log.Error("Failed to decrypt verification code", "err", err)
			return cognito.Response{}, err
		}
		log.Debug("Decrypted verification code")
	} else {
		log.Debug("Event carries no ciphertext, composing without a code")
	}

	text := message.Compose(event.TriggerSource, code, event.Request.UserAttributes)

	msg := lox24.Message{
		Phone:       phone,
		Text:        text,
		SenderID:    h.cfg.SenderID,
		ServiceCode: h.cfg.ServiceCode,
	}
	if sender := event.Request.ClientMetadata[MetadataSenderID]; sender != "" {
		msg.SenderID = sender
	}
	if lang := event.Request.ClientMetadata[MetadataVoiceLang]; lang != "" {
		msg.VoiceLang = lang
	}

	log.Debug("Dispatching SMS",
		slog.String("phone", mask.Phone(phone)),
		slog.String("text", mask.Code(text)),
		slog.String("senderID", msg.SenderID))

	result, err := h.gateway.Send(ctx, msg)
	if err != nil {
		log.Error("Failed to dispatch SMS",
			"err", err,
			slog.String("phone", mask.Phone(phone)))
		return cognito.Response{}, err
	}

	log.Info("SMS dispatched",
		slog.Int("gatewayStatus", result.StatusCode),
		slog.String("phone", mask.Phone(phone)))

	return cognito.Response{StatusCode: http.StatusOK, Body: SuccessBody}, nil
}
