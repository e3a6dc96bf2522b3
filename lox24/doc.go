/*
Package lox24 is a minimal client for the LOX24 SMS HTTP API.

The client serializes one Message per call, posts it to /sms with the
account token in the X-LOX24-AUTH-TOKEN header, and classifies the
response. The gateway acknowledges accepted messages with HTTP 201;
every other status maps to a fixed operator-facing message carried in a
*GatewayError together with the original status code:

	400 invalid input data
	401 invalid or inactive API token
	402 insufficient account funds
	403 account is not activated
	404 unknown API endpoint
	429 rate limit exceeded
	500 gateway internal error
	503 gateway temporarily unavailable

Each dispatch is bounded by a hard timeout (10 seconds by default) that
aborts the in-flight request.

Example usage:

	client := lox24.New("api.lox24.eu", token, logger)
	result, err := client.Send(ctx, lox24.Message{
		Phone:       "+4917612345678",
		Text:        "Your verification code is 123456.",
		SenderID:    "ACME",
		ServiceCode: "direct",
	})

Unicode detection is automatic: messages containing any rune outside
7-bit ASCII are flagged is_unicode so the gateway picks the right
encoding and billing.
*/
package lox24
