package subprocess

import (
	"bufio"
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"

	"github.com/wagiedev/ipc-session-go/internal/errors"
	"github.com/wagiedev/ipc-session-go/internal/transport"
)

// maxStderrBufferSize is the maximum size for the stderr buffer.
// Stderr reading continues indefinitely (callback receives all lines),
// but the buffer stops growing after this limit to prevent unbounded memory usage.
const maxStderrBufferSize = 10 * 1024 * 1024 // 10MB

// Config describes the child process to spawn.
type Config struct {
	// Path is the executable to run.
	Path string
	// Args are the arguments passed after Path.
	Args []string
	// Env is the child's environment. Nil inherits the parent's environment.
	Env []string
	// Dir is the child's working directory. Empty uses the parent's.
	Dir string
	// Stderr receives each line the child writes to stderr.
	Stderr func(line string)
}

// Process is a running child process and the channel to it.
//
// The channel writes to the child's stdin and reads from its stdout.
type Process struct {
	*StreamChannel

	log *slog.Logger
	cmd *exec.Cmd

	stderrWg     sync.WaitGroup
	stderrMu     sync.Mutex
	stderrBuffer strings.Builder

	mu      sync.Mutex
	closing bool

	waitOnce sync.Once
	waitErr  error
}

// Spawn starts the child process described by cfg.
//
// The child is killed when ctx is cancelled or when Close is called.
func Spawn(ctx context.Context, log *slog.Logger, cfg Config) (*Process, error) {
	log = log.With("component", "subprocess")

	//nolint:gosec // G204: launching a caller-configured child is the purpose of Spawn
	cmd := exec.CommandContext(ctx, cfg.Path, cfg.Args...)
	cmd.Dir = cfg.Dir
	cmd.Env = cfg.Env

	// Set up stdin pipe for sending messages
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("stdin pipe: %w", err)
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		log.Error("Failed to start child process", "path", cfg.Path, "error", err)

		return nil, fmt.Errorf("start process: %w", err)
	}

	identity := transport.Identity{
		Self: processName(os.Getpid()),
		Peer: processName(cmd.Process.Pid),
	}

	p := &Process{
		log:           log.With("pid", cmd.Process.Pid),
		cmd:           cmd,
		StreamChannel: NewStreamChannel(log, stdout, stdin, identity),
	}

	// Always buffer stderr for error reporting (must complete reads before Wait())
	// See: https://pkg.go.dev/os/exec#Cmd.StderrPipe
	p.stderrWg.Go(func() {
		scanner := bufio.NewScanner(stderr)
		for scanner.Scan() {
			line := scanner.Text()

			p.stderrMu.Lock()

			if p.stderrBuffer.Len() < maxStderrBufferSize {
				if p.stderrBuffer.Len() > 0 {
					p.stderrBuffer.WriteString("\n")
				}

				p.stderrBuffer.WriteString(line)
			}

			p.stderrMu.Unlock()

			if cfg.Stderr != nil {
				cfg.Stderr(line)
			}
		}

		if err := scanner.Err(); err != nil {
			p.log.Debug("Stderr scanner error", "error", err)
		}
	})

	p.log.Info("Child process started", "path", cfg.Path)

	return p, nil
}

// Pid returns the child's process id.
func (p *Process) Pid() int {
	return p.cmd.Process.Pid
}

// Wait waits for the child to exit and for its output to be drained.
//
// A non-zero exit returns a *errors.ProcessError carrying the buffered stderr,
// unless the child was killed by Close. Wait may be called multiple times and
// from several goroutines; all calls return the same result.
func (p *Process) Wait() error {
	p.waitOnce.Do(func() {
		<-p.Done()
		p.stderrWg.Wait()

		err := p.cmd.Wait()
		if err == nil {
			p.log.Info("Child process exited successfully")

			return
		}

		p.mu.Lock()
		isClosing := p.closing
		p.mu.Unlock()

		if isClosing {
			p.log.Debug("Child process terminated during shutdown")

			return
		}

		p.stderrMu.Lock()
		stderrOutput := strings.TrimSpace(p.stderrBuffer.String())
		p.stderrMu.Unlock()

		exitCode := -1

		if exitErr, ok := stderrors.AsType[*exec.ExitError](err); ok {
			exitCode = exitErr.ExitCode()
		}

		p.log.Error("Child process exited with error", "exit_code", exitCode, "stderr", stderrOutput)

		p.waitErr = &errors.ProcessError{
			ExitCode: exitCode,
			Stderr:   stderrOutput,
			Err:      err,
		}
	})

	return p.waitErr
}

// Close closes the channel and kills the child. It's safe to call Close
// multiple times or after the child has exited.
func (p *Process) Close() error {
	p.mu.Lock()
	p.closing = true
	p.mu.Unlock()

	_ = p.StreamChannel.Close()

	p.log.Debug("Killing child process")

	if err := p.cmd.Process.Kill(); err != nil && !stderrors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("kill child process (pid %d): %w", p.cmd.Process.Pid, err)
	}

	return nil
}

func processName(pid int) string {
	return "process " + strconv.Itoa(pid)
}
