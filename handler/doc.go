/*
Package handler orchestrates one Cognito custom SMS sender invocation.

Each event moves through a fixed sequence: validate the request type,
extract the recipient, decrypt the code when one is present, compose the
message text for the trigger source, and dispatch through the gateway.
The first failing stage aborts the invocation and its error is returned
to the platform, which applies its own retry policy. Nothing is queued
or persisted.

Two client metadata keys act as per-call overrides: "sender_id" replaces
the configured default sender and "voice_lang" requests voice delivery.

All log output masks phone numbers and digit runs that could be codes,
at every verbosity level.
*/
package handler
