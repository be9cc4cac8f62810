// Package common provides shared utilities for MCP tool implementations:
// account extraction from request arguments and handler wrappers that record
// invocation metrics.
package common
