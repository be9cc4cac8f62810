// Package google handles OAuth2 authentication against Google APIs.
//
// Tokens are cached per account under the user cache directory
// (~/.cache/inboxpilot on Linux). The Gmail client obtains authenticated
// HTTP clients from this package; a missing token is a configuration error
// surfaced to the caller together with the authorization URL.
package google
