package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/lox24/cognito-sms-bridge/cognito"
	"github.com/lox24/cognito-sms-bridge/config"
	"github.com/lox24/cognito-sms-bridge/crypt"
	"github.com/lox24/cognito-sms-bridge/lox24"
)

const testCiphertext = "QVlBRGVFSjJaWEp6YVc5dQ=="

type mockDecryptor struct {
	mock.Mock
}

func (m *mockDecryptor) Decrypt(ctx context.Context, ciphertextB64 string) (string, error) {
	args := m.Called(ctx, ciphertextB64)
	return args.String(0), args.Error(1)
}

type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) Send(ctx context.Context, msg lox24.Message) (*lox24.Result, error) {
	args := m.Called(ctx, msg)
	if res := args.Get(0); res != nil {
		return res.(*lox24.Result), args.Error(1)
	}
	return nil, args.Error(1)
}

func testConfig() *config.Config {
	return &config.Config{
		AuthToken:   "token",
		SenderID:    "ACME",
		KeyID:       "alias/cognito-sms",
		KeyARN:      "arn:aws:kms:eu-central-1:123456789012:key/abcd-1234",
		GatewayHost: "api.lox24.eu",
		ServiceCode: "direct",
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func signUpEvent() cognito.Event {
	return cognito.Event{
		Version:       "1",
		TriggerSource: cognito.TriggerSignUp,
		Region:        "eu-central-1",
		UserPoolID:    "eu-central-1_EXAMPLE",
		UserName:      "jane.doe",
		Request: cognito.Request{
			Type: cognito.RequestTypeCustomSMSSender,
			Code: testCiphertext,
			UserAttributes: map[string]string{
				"sub":                        "12345678-1234-1234-1234-123456789012",
				cognito.AttributePhoneNumber: "+4917612345678",
			},
		},
	}
}

func TestHandleSignUpSuccess(t *testing.T) {
	decryptor := new(mockDecryptor)
	gateway := new(mockGateway)

	decryptor.On("Decrypt", mock.Anything, testCiphertext).Return("123456", nil)
	gateway.On("Send", mock.Anything, mock.MatchedBy(func(msg lox24.Message) bool {
		return msg.Phone == "+4917612345678" &&
			strings.Contains(msg.Text, "123456") &&
			msg.SenderID == "ACME" &&
			msg.ServiceCode == "direct"
	})).Return(&lox24.Result{StatusCode: http.StatusCreated, Payload: map[string]any{"uuid": "11d9b12c"}}, nil)

	h := NewHandler(testConfig(), decryptor, gateway, testLogger())

	resp, err := h.Handle(context.Background(), signUpEvent())
	require.NoError(t, err)
	assert.Equal(t, cognito.Response{StatusCode: http.StatusOK, Body: SuccessBody}, resp)

	decryptor.AssertExpectations(t)
	gateway.AssertExpectations(t)
}

func TestHandleRejectsUnexpectedRequestType(t *testing.T) {
	decryptor := new(mockDecryptor)
	gateway := new(mockGateway)

	event := signUpEvent()
	event.Request.Type = "customEmailSenderRequestV1"

	h := NewHandler(testConfig(), decryptor, gateway, testLogger())

	_, err := h.Handle(context.Background(), event)
	assert.ErrorIs(t, err, ErrInvalidEventShape)

	decryptor.AssertNotCalled(t, "Decrypt", mock.Anything, mock.Anything)
	gateway.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestHandleRejectsMissingRecipient(t *testing.T) {
	decryptor := new(mockDecryptor)
	gateway := new(mockGateway)

	event := signUpEvent()
	delete(event.Request.UserAttributes, cognito.AttributePhoneNumber)

	h := NewHandler(testConfig(), decryptor, gateway, testLogger())

	_, err := h.Handle(context.Background(), event)
	assert.ErrorIs(t, err, ErrMissingRecipient)

	decryptor.AssertNotCalled(t, "Decrypt", mock.Anything, mock.Anything)
	gateway.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestHandleDecryptionFailureSkipsDispatch(t *testing.T) {
	decryptor := new(mockDecryptor)
	gateway := new(mockGateway)

	decryptor.On("Decrypt", mock.Anything, testCiphertext).Return("", crypt.ErrDecryptionFailed)

	h := NewHandler(testConfig(), decryptor, gateway, testLogger())

	_, err := h.Handle(context.Background(), signUpEvent())
	assert.ErrorIs(t, err, crypt.ErrDecryptionFailed)

	gateway.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
	decryptor.AssertExpectations(t)
}

func TestHandleGatewayFailurePropagates(t *testing.T) {
	decryptor := new(mockDecryptor)
	gateway := new(mockGateway)

	decryptor.On("Decrypt", mock.Anything, testCiphertext).Return("123456", nil)
	gateway.On("Send", mock.Anything, mock.Anything).
		Return(nil, &lox24.GatewayError{StatusCode: http.StatusUnauthorized, Message: "invalid or inactive API token"})

	h := NewHandler(testConfig(), decryptor, gateway, testLogger())

	_, err := h.Handle(context.Background(), signUpEvent())
	require.Error(t, err)

	var gwErr *lox24.GatewayError
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, http.StatusUnauthorized, gwErr.StatusCode)
}

func TestHandleMetadataOverrides(t *testing.T) {
	decryptor := new(mockDecryptor)
	gateway := new(mockGateway)

	decryptor.On("Decrypt", mock.Anything, testCiphertext).Return("123456", nil)
	gateway.On("Send", mock.Anything, mock.MatchedBy(func(msg lox24.Message) bool {
		return msg.SenderID == "OTHERBRAND" && msg.VoiceLang == "de"
	})).Return(&lox24.Result{StatusCode: http.StatusCreated}, nil)

	event := signUpEvent()
	event.Request.ClientMetadata = map[string]string{
		MetadataSenderID:  "OTHERBRAND",
		MetadataVoiceLang: "de",
	}

	h := NewHandler(testConfig(), decryptor, gateway, testLogger())

	_, err := h.Handle(context.Background(), event)
	require.NoError(t, err)

	gateway.AssertExpectations(t)
}

func TestHandleEventWithoutCode(t *testing.T) {
	decryptor := new(mockDecryptor)
	gateway := new(mockGateway)

	gateway.On("Send", mock.Anything, mock.MatchedBy(func(msg lox24.Message) bool {
		return msg.Phone == "+4917612345678" && msg.Text != ""
	})).Return(&lox24.Result{StatusCode: http.StatusCreated}, nil)

	event := signUpEvent()
	event.Request.Code = ""

	h := NewHandler(testConfig(), decryptor, gateway, testLogger())

	resp, err := h.Handle(context.Background(), event)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	decryptor.AssertNotCalled(t, "Decrypt", mock.Anything, mock.Anything)
	gateway.AssertExpectations(t)
}
