// Package cognito models the Amazon Cognito custom SMS sender contract.
//
// A user pool with a CustomSMSSender trigger delivers one Event per
// user-facing SMS. The verification code inside the event is encrypted
// under the pool's KMS key; decryption is the caller's concern.
package cognito

// Trigger sources a custom SMS sender Lambda can receive.
const (
	TriggerSignUp              = "CustomSMSSender_SignUp"
	TriggerResendCode          = "CustomSMSSender_ResendCode"
	TriggerForgotPassword      = "CustomSMSSender_ForgotPassword"
	TriggerUpdateUserAttribute = "CustomSMSSender_UpdateUserAttribute"
	TriggerVerifyUserAttribute = "CustomSMSSender_VerifyUserAttribute"
	TriggerAuthentication      = "CustomSMSSender_Authentication"
	TriggerAdminCreateUser     = "CustomSMSSender_AdminCreateUser"
)

// RequestTypeCustomSMSSender is the only request payload version this
// bridge understands. Events carrying any other type are rejected before
// decryption is attempted.
const RequestTypeCustomSMSSender = "customSMSSenderRequestV1"

// AttributePhoneNumber is the user attribute holding the recipient.
const AttributePhoneNumber = "phone_number"

// Event is the envelope Cognito delivers to the trigger.
type Event struct {
	Version       string        `json:"version"`
	TriggerSource string        `json:"triggerSource"`
	Region        string        `json:"region"`
	UserPoolID    string        `json:"userPoolId"`
	UserName      string        `json:"userName"`
	CallerContext CallerContext `json:"callerContext"`
	Request       Request       `json:"request"`
}

// CallerContext identifies the app client that caused the trigger.
type CallerContext struct {
	AWSSDKVersion string `json:"awsSdkVersion"`
	ClientID      string `json:"clientId"`
}

// Request carries the encrypted code and the user's attributes.
type Request struct {
	// Type is the request payload version tag.
	Type string `json:"type"`

	// Code is the base64-encoded, KMS-encrypted one-time code. Some
	// triggers legitimately deliver no code.
	Code string `json:"code"`

	// UserAttributes are the user's pool attributes by name.
	UserAttributes map[string]string `json:"userAttributes"`

	// ClientMetadata carries optional per-call parameters supplied by
	// the application through the Cognito API.
	ClientMetadata map[string]string `json:"clientMetadata,omitempty"`
}

// PhoneNumber returns the recipient's phone number attribute, or the
// empty string when the user has none.
func (e *Event) PhoneNumber() string {
	return e.Request.UserAttributes[AttributePhoneNumber]
}

// Response acknowledges a handled event back to the platform. Body holds
// a JSON document.
type Response struct {
	StatusCode int    `json:"statusCode"`
	Body       string `json:"body"`
}
