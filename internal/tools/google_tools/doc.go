// Package google_tools implements the OAuth bootstrap tools the agent uses
// to authorize Gmail access for one or more Google accounts.
package google_tools
