package subprocess

import (
	"io"
	"log/slog"
	"os"

	"github.com/wagiedev/ipc-session-go/internal/transport"
)

// Stdio returns the child-side channel to the parent, reading os.Stdin and
// writing os.Stdout.
//
// Closing the channel closes os.Stdin but leaves os.Stdout open.
func Stdio(log *slog.Logger) *StreamChannel {
	identity := transport.Identity{
		Self: processName(os.Getpid()),
		Peer: processName(os.Getppid()),
	}

	return NewStreamChannel(log, os.Stdin, struct{ io.Writer }{os.Stdout}, identity)
}
