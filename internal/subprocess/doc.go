// Package subprocess provides process-boundary channels.
//
// StreamChannel carries newline-delimited JSON over any reader/writer pair.
// Spawn starts a child process and talks to it over its stdin and stdout;
// Stdio is the matching channel on the child side.
package subprocess
