// Package errors defines error types for IPC sessions.
//
// This package provides structured error types that wrap the different failure
// scenarios of a session: a transport refusing or failing to deliver a message,
// a child process exiting, or a peer writing undecodable data. All error types
// support error unwrapping and can be checked using errors.Is, errors.As, and
// errors.AsType.
package errors
