// Package errors provides the structured error type used for failures that
// happen before any network activity: invalid configuration, missing fields
// and rejected request input. Transport failures use httpclient.Error instead.
package errors
