// Package message renders the outbound SMS text for each trigger source.
package message

import (
	"fmt"

	"github.com/lox24/cognito-sms-bridge/cognito"
)

// Compose maps a trigger source to its message template and embeds the
// plaintext code. It is a pure function: unrecognized trigger sources
// fall back to the generic verification template rather than failing,
// and an absent code simply leaves the placeholder empty. Attributes are
// available for templates that personalize the message; none of the
// current templates use them.
func Compose(triggerSource, code string, attributes map[string]string) string {
	switch triggerSource {
	case cognito.TriggerSignUp:
		return fmt.Sprintf("Welcome! Your verification code is %s.", code)
	case cognito.TriggerResendCode:
		return fmt.Sprintf("Your verification code is %s.", code)
	case cognito.TriggerForgotPassword:
		return fmt.Sprintf("Your password reset code is %s. If you did not request a reset, please ignore this message.", code)
	case cognito.TriggerUpdateUserAttribute:
		return fmt.Sprintf("Your code to update your phone number is %s.", code)
	case cognito.TriggerVerifyUserAttribute:
		return fmt.Sprintf("Your verification code is %s.", code)
	case cognito.TriggerAuthentication:
		return fmt.Sprintf("Your authentication code is %s. It expires in 3 minutes.", code)
	case cognito.TriggerAdminCreateUser:
		return fmt.Sprintf("Your temporary password is %s. Please change it after signing in.", code)
	default:
		return fmt.Sprintf("Your verification code is %s.", code)
	}
}
