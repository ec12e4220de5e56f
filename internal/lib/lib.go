// Package lib acts as a library for modules that do not fit
// strictly into other layers.
//
// It contains shared utilities, the external command runner, the intranet
// API client, background job processing (using Redis/Asynq) and the email
// client (Resend).
package lib
