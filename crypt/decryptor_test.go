package crypt

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/kms"
	"github.com/aws/aws-sdk-go/service/kms/kmsiface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	testKeyID  = "alias/cognito-sms"
	testKeyARN = "arn:aws:kms:eu-central-1:123456789012:key/abcd-1234"
	otherARN   = "arn:aws:kms:eu-central-1:123456789012:key/ffff-9999"
)

type mockKMS struct {
	mock.Mock
	kmsiface.KMSAPI
}

func (m *mockKMS) DecryptWithContext(ctx aws.Context, in *kms.DecryptInput, opts ...request.Option) (*kms.DecryptOutput, error) {
	args := m.Called(ctx, in)
	if out := args.Get(0); out != nil {
		return out.(*kms.DecryptOutput), args.Error(1)
	}
	return nil, args.Error(1)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestDecryptor(t *testing.T, client kmsiface.KMSAPI) *Decryptor {
	t.Helper()
	d, err := NewDecryptor(client, testKeyID, []string{testKeyARN}, testLogger())
	require.NoError(t, err)
	return d
}

func TestNewDecryptorValidation(t *testing.T) {
	_, err := NewDecryptor(new(mockKMS), "", []string{testKeyARN}, testLogger())
	assert.Error(t, err)

	_, err = NewDecryptor(new(mockKMS), testKeyID, nil, testLogger())
	assert.Error(t, err)
}

func TestDecryptSuccess(t *testing.T) {
	blob := []byte{0x01, 0x02, 0x03, 0x04}
	ciphertext := base64.StdEncoding.EncodeToString(blob)

	client := new(mockKMS)
	client.On("DecryptWithContext", mock.Anything, mock.MatchedBy(func(in *kms.DecryptInput) bool {
		return aws.StringValue(in.KeyId) == testKeyID && assert.ObjectsAreEqual(blob, in.CiphertextBlob)
	})).Return(&kms.DecryptOutput{
		KeyId:     aws.String(testKeyARN),
		Plaintext: []byte("123456"),
	}, nil)

	d := newTestDecryptor(t, client)

	plaintext, err := d.Decrypt(context.Background(), ciphertext)
	require.NoError(t, err)
	assert.Equal(t, "123456", plaintext)

	client.AssertExpectations(t)
}

func TestDecryptEmptyCiphertext(t *testing.T) {
	client := new(mockKMS)
	d := newTestDecryptor(t, client)

	_, err := d.Decrypt(context.Background(), "")
	assert.ErrorIs(t, err, ErrInvalidCiphertext)

	client.AssertNotCalled(t, "DecryptWithContext", mock.Anything, mock.Anything)
}

func TestDecryptInvalidBase64(t *testing.T) {
	client := new(mockKMS)
	d := newTestDecryptor(t, client)

	_, err := d.Decrypt(context.Background(), "not-base64!!!")
	assert.ErrorIs(t, err, ErrInvalidCiphertext)

	client.AssertNotCalled(t, "DecryptWithContext", mock.Anything, mock.Anything)
}

func TestDecryptKMSError(t *testing.T) {
	client := new(mockKMS)
	client.On("DecryptWithContext", mock.Anything, mock.Anything).
		Return(nil, errors.New("InvalidCiphertextException: ciphertext refers to a different key"))

	d := newTestDecryptor(t, client)

	_, err := d.Decrypt(context.Background(), base64.StdEncoding.EncodeToString([]byte("junk")))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDecryptionFailed)

	// The surfaced message stays generic.
	assert.Equal(t, ErrDecryptionFailed.Error(), err.Error())
}

func TestDecryptKeyOutsideAllowList(t *testing.T) {
	client := new(mockKMS)
	client.On("DecryptWithContext", mock.Anything, mock.Anything).Return(&kms.DecryptOutput{
		KeyId:     aws.String(otherARN),
		Plaintext: []byte("123456"),
	}, nil)

	d := newTestDecryptor(t, client)

	_, err := d.Decrypt(context.Background(), base64.StdEncoding.EncodeToString([]byte{0xff}))
	assert.ErrorIs(t, err, ErrDecryptionFailed)
}
