// Package crypt unwraps Cognito-supplied ciphertexts through AWS KMS.
package crypt

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/kms"
	"github.com/aws/aws-sdk-go/service/kms/kmsiface"
)

// ErrInvalidCiphertext signals a caller error: the ciphertext was empty
// or not valid base64. No KMS call is made in that case.
var ErrInvalidCiphertext = errors.New("ciphertext is missing or not valid base64")

// ErrDecryptionFailed signals that KMS rejected the ciphertext or that
// the key it was produced under is not in the allow-list. The message is
// deliberately generic; the cause is written to the log only.
var ErrDecryptionFailed = errors.New("failed to decrypt verification code")

// Decryptor unwraps ciphertexts with one designated generator key and
// verifies every result against an allow-list of key ARNs.
type Decryptor struct {
	kms         kmsiface.KMSAPI
	keyID       string
	allowedKeys []string
	log         *slog.Logger
}

// NewDecryptor creates a Decryptor for the given generator key. The
// allow-list must name at least one full key ARN.
func NewDecryptor(client kmsiface.KMSAPI, keyID string, allowedKeys []string, log *slog.Logger) (*Decryptor, error) {
	if keyID == "" {
		return nil, errors.New("generator key ID must not be empty")
	}
	if len(allowedKeys) == 0 {
		return nil, errors.New("key allow-list must not be empty")
	}

	return &Decryptor{
		kms:         client,
		keyID:       keyID,
		allowedKeys: allowedKeys,
		log:         log,
	}, nil
}

// Decrypt unwraps a base64 ciphertext and returns the plaintext code.
// The plaintext is sensitive: callers must never log it in full or place
// it in externally visible error messages.
func (d *Decryptor) Decrypt(ctx context.Context, ciphertextB64 string) (string, error) {
	if ciphertextB64 == "" {
		return "", ErrInvalidCiphertext
	}

	blob, err := base64.StdEncoding.DecodeString(ciphertextB64)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidCiphertext, err)
	}

	start := time.Now()

	// Pinning KeyId makes KMS itself reject ciphertexts produced under
	// any other key before the allow-list check runs.
	out, err := d.kms.DecryptWithContext(ctx, &kms.DecryptInput{
		CiphertextBlob: blob,
		KeyId:          aws.String(d.keyID),
	})
	if err != nil {
		d.log.Error("KMS decrypt call failed",
			"err", err,
			slog.String("keyID", d.keyID),
			slog.Duration("duration", time.Since(start)))
		return "", ErrDecryptionFailed
	}

	usedKey := aws.StringValue(out.KeyId)
	if !d.keyAllowed(usedKey) {
		d.log.Error("Ciphertext key is not in the allow-list",
			slog.String("usedKeyARN", usedKey),
			slog.Duration("duration", time.Since(start)))
		return "", ErrDecryptionFailed
	}

	d.log.Debug("Decrypted ciphertext",
		slog.String("usedKeyARN", usedKey),
		slog.Int("plaintextBytes", len(out.Plaintext)),
		slog.Duration("duration", time.Since(start)))

	return string(out.Plaintext), nil
}

func (d *Decryptor) keyAllowed(keyARN string) bool {
	for _, allowed := range d.allowedKeys {
		if keyARN == allowed {
			return true
		}
	}
	return false
}
