package transcribe

import (
	"context"
	"fmt"
	"net"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/hpcloud/tail"
	process "github.com/mudler/go-processmanager"
	"github.com/mudler/xlog"
	"github.com/phayes/freeport"

	"github.com/mudler/LocalSRS/core/schema"
	"github.com/mudler/LocalSRS/pkg/signals"
)

// whisper runs a local whisper.cpp server and speaks the OpenAI audio API
// to it. The server is spawned lazily on first use and reused afterwards.
type whisper struct {
	cfg Config

	mu       sync.Mutex
	proc     *process.Process
	delegate *openAI
}

func newWhisper(cfg Config) *whisper {
	return &whisper{cfg: cfg}
}

func (w *whisper) Name() string { return BackendWhisper }

func (w *whisper) binary() string {
	if w.cfg.WhisperBinary != "" {
		return w.cfg.WhisperBinary
	}
	return "whisper-server"
}

func (w *whisper) Transcribe(ctx context.Context, audioPath, language string) ([]schema.Word, error) {
	if err := w.ensureServer(ctx); err != nil {
		return nil, err
	}
	return w.delegate.Transcribe(ctx, audioPath, language)
}

func (w *whisper) ensureServer(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.proc != nil {
		return nil
	}

	port, err := freeport.GetFreePort()
	if err != nil {
		return fmt.Errorf("no free port for whisper server: %w", err)
	}
	addr := net.JoinHostPort("127.0.0.1", strconv.Itoa(port))

	binary := w.binary()
	if _, err := os.Stat(binary); err == nil {
		// Make sure the binary is executable when given as a path.
		if err := os.Chmod(binary, 0700); err != nil {
			return err
		}
	}

	xlog.Info("starting whisper server", "binary", binary, "model", w.cfg.WhisperModel, "addr", addr)

	proc := process.New(
		process.WithTemporaryStateDir(),
		process.WithName(binary),
		process.WithArgs(
			"--model", w.cfg.WhisperModel,
			"--host", "127.0.0.1",
			"--port", strconv.Itoa(port),
			"--inference-path", "/v1/audio/transcriptions",
		),
		process.WithEnvironment(os.Environ()...),
	)
	if err := proc.Run(); err != nil {
		return fmt.Errorf("starting whisper server: %w", err)
	}
	xlog.Debug("whisper server state dir", "dir", proc.StateDir())

	go func() {
		t, err := tail.TailFile(proc.StderrPath(), tail.Config{Follow: true})
		if err != nil {
			xlog.Debug("could not tail whisper stderr")
			return
		}
		for line := range t.Lines {
			xlog.Debug("whisper stderr", "line", line.Text)
		}
	}()
	go func() {
		t, err := tail.TailFile(proc.StdoutPath(), tail.Config{Follow: true})
		if err != nil {
			xlog.Debug("could not tail whisper stdout")
			return
		}
		for line := range t.Lines {
			xlog.Debug("whisper stdout", "line", line.Text)
		}
	}()

	if err := waitListening(ctx, addr, time.Minute); err != nil {
		proc.Stop()
		return fmt.Errorf("whisper server never became ready: %w", err)
	}

	w.proc = proc
	w.delegate = newOpenAI(Config{
		BaseURL: fmt.Sprintf("http://%s/v1", addr),
		Model:   w.cfg.Model,
	})
	signals.OnTermination(w.Stop)
	return nil
}

// Stop terminates the managed server, if one is running.
func (w *whisper) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.proc == nil {
		return
	}
	xlog.Info("stopping whisper server")
	if err := w.proc.Stop(); err != nil {
		xlog.Warn("error stopping whisper server", "error", err)
	}
	w.proc = nil
	w.delegate = nil
}

func waitListening(ctx context.Context, addr string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		conn, err := net.DialTimeout("tcp", addr, time.Second)
		if err == nil {
			conn.Close()
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("timed out waiting for %s", addr)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(500 * time.Millisecond):
		}
	}
}
