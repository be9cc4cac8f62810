// Package memory implements the assistant's durable note store. Each note is
// a single file under a root directory, so notes survive restarts and can be
// inspected or edited with any text editor.
package memory
