package transport

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"os"
	"sync"

	"golang.org/x/sync/errgroup"

	mcperrors "github.com/gptr-ai/researcher-mcp/pkg/errors"
	"github.com/gptr-ai/researcher-mcp/pkg/logging"
	"github.com/gptr-ai/researcher-mcp/pkg/protocol"
)

// StdioTransport frames JSON-RPC messages as newline-delimited JSON on
// standard input and output. This is the recommended transport for
// servers launched as subprocesses of a client, connected via pipes.
//
// Responses and notifications are the only bytes written to the output
// stream; diagnostic logging must go elsewhere (typically stderr).
type StdioTransport struct {
	*BaseTransport

	reader io.Reader
	logger logging.Logger

	mu           sync.Mutex // guards writer
	writer       *bufio.Writer
	errorHandler ErrorHandler

	done     chan struct{}
	stopOnce sync.Once
}

// StdioOption configures a StdioTransport.
type StdioOption func(*StdioTransport)

// WithStdioReader overrides the input stream. Intended for tests.
func WithStdioReader(r io.Reader) StdioOption {
	return func(t *StdioTransport) { t.reader = r }
}

// WithStdioWriter overrides the output stream. Intended for tests.
func WithStdioWriter(w io.Writer) StdioOption {
	return func(t *StdioTransport) { t.writer = bufio.NewWriter(w) }
}

// WithStdioLogger sets the logger used for frame-level diagnostics.
func WithStdioLogger(logger logging.Logger) StdioOption {
	return func(t *StdioTransport) { t.logger = logger }
}

// WithStdioErrorHandler sets the callback for errors that have no
// request to answer, such as unparseable input lines.
func WithStdioErrorHandler(handler ErrorHandler) StdioOption {
	return func(t *StdioTransport) { t.errorHandler = handler }
}

// NewStdioTransport creates a stdio transport reading from os.Stdin and
// writing to os.Stdout unless overridden by options.
func NewStdioTransport(opts ...StdioOption) *StdioTransport {
	t := &StdioTransport{
		BaseTransport: NewBaseTransport(),
		reader:        os.Stdin,
		writer:        bufio.NewWriter(os.Stdout),
		logger:        logging.NewNop(),
		done:          make(chan struct{}),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Initialize prepares the transport for use. Stdio streams are already
// open, so this is a no-op.
func (t *StdioTransport) Initialize(ctx context.Context) error {
	return nil
}

// Start reads frames from the input stream until EOF or cancellation.
func (t *StdioTransport) Start(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	scanner := bufio.NewScanner(t.reader)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	scannerDone := make(chan struct{})

	g.Go(func() error {
		defer close(scannerDone)

		for scanner.Scan() {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case <-t.done:
				return nil
			default:
			}

			line := scanner.Bytes()
			if len(line) == 0 {
				continue
			}
			// Copy before the next Scan reuses the buffer.
			data := make([]byte, len(line))
			copy(data, line)

			t.processFrame(gctx, data)
		}

		if err := scanner.Err(); err != nil && err != io.EOF {
			return mcperrors.TransportError("stdio", "scan_input", err)
		}
		return nil
	})

	// Unblock scanner.Scan on cancellation by closing the reader if it
	// supports closing.
	g.Go(func() error {
		select {
		case <-gctx.Done():
			t.closeReader()
			return gctx.Err()
		case <-t.done:
			t.closeReader()
			return nil
		case <-scannerDone:
			return nil
		}
	})

	return g.Wait()
}

func (t *StdioTransport) closeReader() {
	if closer, ok := t.reader.(io.Closer); ok {
		_ = closer.Close()
	}
}

// Stop halts the transport and flushes any buffered output.
func (t *StdioTransport) Stop(ctx context.Context) error {
	var flushErr error

	t.stopOnce.Do(func() {
		close(t.done)

		t.mu.Lock()
		if t.writer != nil {
			flushErr = t.writer.Flush()
		}
		t.mu.Unlock()
	})

	if flushErr != nil {
		return mcperrors.TransportError("stdio", "flush_on_stop", flushErr)
	}
	return nil
}

// SendNotification writes a one-way message to the output stream.
func (t *StdioTransport) SendNotification(ctx context.Context, method string, params interface{}) error {
	notif, err := protocol.NewNotification(method, params)
	if err != nil {
		return mcperrors.TransportError("stdio", "build_notification", err)
	}
	data, err := json.Marshal(notif)
	if err != nil {
		return mcperrors.TransportError("stdio", "marshal_notification", err)
	}
	return t.send(data)
}

// send writes a single frame followed by a newline and flushes.
func (t *StdioTransport) send(data []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.writer == nil {
		return mcperrors.TransportNotInitialized("stdio")
	}
	if _, err := t.writer.Write(data); err != nil {
		return mcperrors.TransportError("stdio", "write_frame", err)
	}
	if err := t.writer.WriteByte('\n'); err != nil {
		return mcperrors.TransportError("stdio", "write_frame", err)
	}
	if err := t.writer.Flush(); err != nil {
		return mcperrors.TransportError("stdio", "flush_output", err)
	}
	return nil
}

// processFrame dispatches a single input line and writes the response,
// if any. Frame-level failures are reported to the error handler;
// there is no peer request to answer when a frame cannot be parsed.
func (t *StdioTransport) processFrame(ctx context.Context, data []byte) {
	out, err := t.DispatchMessage(ctx, data)
	if err != nil {
		t.logger.Warn("dropping malformed frame", logging.ErrorField(err))
		t.reportError(err)
		return
	}
	if out == nil {
		return
	}
	if sendErr := t.send(out); sendErr != nil {
		t.logger.Error("failed to write response", logging.ErrorField(sendErr))
		t.reportError(sendErr)
	}
}

func (t *StdioTransport) reportError(err error) {
	t.mu.Lock()
	handler := t.errorHandler
	t.mu.Unlock()
	if handler != nil {
		handler(err)
	}
}
