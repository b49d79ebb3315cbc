// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package procexec

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"os/exec"

	"github.com/google/uuid"
	"golang.org/x/sys/unix"

	"github.com/bureau-foundation/procrun/lib/resultsink"
	"github.com/bureau-foundation/procrun/lib/taint"
)

const (
	readBufSize        = 65535
	pollOuterTimeoutMS = 50
	pollInnerTimeoutMS = 0
	diagnosticBudget   = 5
)

type streamKind int

const (
	kindChildStdout streamKind = iota
	kindChildStderr
	kindCallerStdin
)

func (k streamKind) String() string {
	switch k {
	case kindChildStdout:
		return "stdout"
	case kindChildStderr:
		return "stderr"
	case kindCallerStdin:
		return "caller_stdin"
	default:
		return "unknown"
	}
}

// fder is satisfied by the pipe handles exec.Cmd hands back from
// StdinPipe/StdoutPipe/StderrPipe, letting the multiplexer recover the
// raw descriptor for polling regardless of the concrete wrapper type.
type fder interface {
	Fd() uintptr
}

// multiplexer holds all per-invocation state for the full executor's
// poll loop. A fresh multiplexer is created for each call to Run; no
// state survives across calls.
type multiplexer struct {
	opts   Options
	logger *slog.Logger
	sink   *resultsink.Sink

	readers map[int]io.Reader
	kinds   map[int]streamKind
	order   []int // stable iteration order for building the poll set

	childStdin    io.WriteCloser
	stdinWriter   *resilientWriter
	stdinClosed   bool

	stdoutCapture bytes.Buffer
	stderrCapture bytes.Buffer

	stdoutWriter *resilientWriter
	stderrWriter *resilientWriter
	noisyStdout  bool
	noisyStderr  bool
	stdoutFilter *envelopeFilter

	bytesStdin  int64
	bytesStdout int64
	bytesStderr int64

	capped bool
}

// Run is the full executor: three pipes, a poll-driven multiplex loop
// over up to four descriptors, resilient mirror writers, the
// JSON_START/JSON_END redaction filter on mirrored stdout when IsHelper
// is set, a byte cap on captured stdout, and exit-status decoding.
func Run(ctx context.Context, opts Options) (resultsink.Result, error) {
	applyDebugEnv(&opts)

	if opts.IsHelper && opts.IsBinary {
		return resultsink.Result{}, ErrInvalidOptions
	}
	if len(opts.Cmd) == 0 {
		return resultsink.Result{}, &ExecFailedError{Err: errCmdRequired}
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("invocation_id", uuid.NewString())

	if opts.System {
		return runSystem(ctx, opts, logger)
	}

	for _, f := range taint.Check(opts.Cmd) {
		logger.Warn("tainted argument", "index", f.Index, "token", f.Token, "reason", f.Reason)
	}

	cmd := exec.CommandContext(ctx, opts.Cmd[0], opts.Cmd[1:]...)
	cmd.Env = resolveEnv(opts)

	stdinPipe, err := cmd.StdinPipe()
	if err != nil {
		return resultsink.Result{}, &ExecFailedError{Err: err}
	}
	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return resultsink.Result{}, &ExecFailedError{Err: err}
	}
	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		return resultsink.Result{}, &ExecFailedError{Err: err}
	}

	if err := cmd.Start(); err != nil {
		return resultsink.Result{}, &ExecFailedError{Err: err}
	}

	m := &multiplexer{
		opts:         opts,
		logger:       logger,
		sink:         resultsink.NewSink(logger, diagnosticBudget),
		readers:      make(map[int]io.Reader),
		kinds:        make(map[int]streamKind),
		childStdin:   stdinPipe,
		stdinWriter:  newResilientWriter(stdinPipe),
		noisyStdout:  opts.NoisyStdout || opts.IsBinary,
		noisyStderr:  opts.NoisyStderr || opts.IsBinary,
		stdoutWriter: newResilientWriter(os.Stdout),
		stderrWriter: newResilientWriter(os.Stderr),
	}
	if opts.IsHelper {
		m.stdoutFilter = &envelopeFilter{}
	}

	stdoutFd := int(stdoutPipe.(fder).Fd())
	stderrFd := int(stderrPipe.(fder).Fd())
	m.addDescriptor(stdoutFd, kindChildStdout, stdoutPipe)
	m.addDescriptor(stderrFd, kindChildStderr, stderrPipe)

	switch {
	case opts.StdinStr != "":
		m.writeStdinBurst(opts.StdinStr)
	case opts.ExpectsStdin:
		stdinFd := int(os.Stdin.Fd())
		m.addDescriptor(stdinFd, kindCallerStdin, os.Stdin)
	default:
		// Child stdin is left open but unwritten; the child may ignore it.
	}

	m.loop()

	raw, failed, execErr := extractWaitStatus(cmd, cmd.Wait())
	if failed {
		return resultsink.Result{}, &ExecFailedError{Err: execErr}
	}

	kind, value, msg := decodeExit(raw, opts.MustSucceed)
	value.BytesNB.Stdin = m.bytesStdin
	value.BytesNB.Stdout = m.bytesStdout
	value.BytesNB.Stderr = m.bytesStderr
	if !opts.IsBinary {
		value.Stdout = splitCapturedLines(m.stdoutCapture.Bytes())
		value.Stderr = splitCapturedLines(m.stderrCapture.Bytes())
	}

	return resultsink.R(kind, value, msg), nil
}

func (m *multiplexer) addDescriptor(fd int, kind streamKind, r io.Reader) {
	m.readers[fd] = r
	m.kinds[fd] = kind
	m.order = append(m.order, fd)
}

func (m *multiplexer) removeDescriptor(fd int, c io.Closer) {
	delete(m.readers, fd)
	delete(m.kinds, fd)
	for i, f := range m.order {
		if f == fd {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	if c != nil {
		c.Close()
	}
}

func (m *multiplexer) writeStdinBurst(s string) {
	m.bytesStdin += int64(len(s))
	gone, err := m.stdinWriter.write([]byte(s))
	if err != nil && !gone {
		m.sink.InfoSyslog("stdin burst write aborted", "error", err)
	}
	m.closeChildStdin()
}

func (m *multiplexer) closeChildStdin() {
	if m.stdinClosed {
		return
	}
	m.stdinClosed = true
	m.childStdin.Close()
}

// hasChildSide reports whether the read set still contains a child-side
// descriptor; caller stdin alone must not keep the loop alive.
func (m *multiplexer) hasChildSide() bool {
	for _, k := range m.kinds {
		if k == kindChildStdout || k == kindChildStderr {
			return true
		}
	}
	return false
}

func (m *multiplexer) loop() {
	for m.hasChildSide() {
		ready := m.pollOnce(pollOuterTimeoutMS)
		for ready && m.hasChildSide() {
			ready = m.pollOnce(pollInnerTimeoutMS)
		}
		if m.capped {
			break
		}
	}
}

// pollOnce polls the current read set with the given timeout (in
// milliseconds) and processes one read from each ready descriptor,
// returning whether anything was ready.
func (m *multiplexer) pollOnce(timeoutMS int) bool {
	if len(m.order) == 0 {
		return false
	}

	pollFds := make([]unix.PollFd, len(m.order))
	for i, fd := range m.order {
		pollFds[i] = unix.PollFd{Fd: int32(fd), Events: unix.POLLIN}
	}

	n, err := unix.Poll(pollFds, timeoutMS)
	if err != nil {
		if err == unix.EINTR {
			return true
		}
		m.sink.WarnSyslog("poll failed", "error", err)
		return false
	}
	if n == 0 {
		return false
	}

	ready := make([]int, 0, n)
	for _, pf := range pollFds {
		if pf.Revents&(unix.POLLIN|unix.POLLHUP|unix.POLLERR) != 0 {
			ready = append(ready, int(pf.Fd))
		}
	}
	for _, fd := range ready {
		m.processFD(fd)
	}
	return len(ready) > 0
}

func (m *multiplexer) processFD(fd int) {
	kind, ok := m.kinds[fd]
	if !ok {
		return
	}
	reader, ok := m.readers[fd]
	if !ok {
		return
	}

	buf := make([]byte, readBufSize)
	n, err := reader.Read(buf)
	if err != nil && err != io.EOF {
		m.sink.InfoSyslog("read error, dropping descriptor", "stream", kind.String(), "error", err)
		m.removeDescriptor(fd, closerOf(reader))
		return
	}
	if n == 0 {
		m.removeDescriptor(fd, closerOf(reader))
		if kind == kindCallerStdin {
			m.closeChildStdin()
		}
		return
	}

	data := buf[:n]
	switch kind {
	case kindChildStdout:
		m.handleStdout(data)
	case kindChildStderr:
		m.handleStderr(data)
	case kindCallerStdin:
		m.handleCallerStdin(data)
	}
}

func (m *multiplexer) handleStdout(data []byte) {
	m.bytesStdout += int64(len(data))
	if !m.opts.IsBinary {
		m.stdoutCapture.Write(data)
	}
	if m.noisyStdout {
		mirrored := data
		if m.stdoutFilter != nil {
			mirrored = m.stdoutFilter.feed(data)
		}
		if len(mirrored) > 0 {
			gone, werr := m.stdoutWriter.write(mirrored)
			if gone {
				m.noisyStdout = false
				m.sink.InfoSyslog("stdout mirror target closed, disabling mirroring")
			} else if werr != nil {
				m.sink.InfoSyslog("stdout mirror write aborted this cycle", "error", werr)
			}
		}
	}
	m.checkCap()
}

func (m *multiplexer) handleStderr(data []byte) {
	m.bytesStderr += int64(len(data))
	if !m.opts.IsBinary {
		m.stderrCapture.Write(data)
	}
	if m.noisyStderr {
		gone, werr := m.stderrWriter.write(data)
		if gone {
			m.noisyStderr = false
			m.sink.InfoSyslog("stderr mirror target closed, disabling mirroring")
		} else if werr != nil {
			m.sink.InfoSyslog("stderr mirror write aborted this cycle", "error", werr)
		}
	}
}

func (m *multiplexer) handleCallerStdin(data []byte) {
	m.bytesStdin += int64(len(data))
	if m.stdinClosed {
		return
	}
	gone, werr := m.stdinWriter.write(data)
	if gone {
		m.stdinClosed = true
	} else if werr != nil {
		m.sink.InfoSyslog("child stdin write aborted this cycle", "error", werr)
	}
}

// checkCap enforces max_stdout_bytes: once reached, every remaining
// descriptor (all child-side plus caller stdin) is force-closed,
// draining the loop on the next iteration.
func (m *multiplexer) checkCap() {
	if m.opts.MaxStdoutBytes <= 0 || m.bytesStdout < m.opts.MaxStdoutBytes {
		return
	}
	m.capped = true
	for _, fd := range append([]int(nil), m.order...) {
		m.removeDescriptor(fd, closerOf(m.readers[fd]))
	}
	m.closeChildStdin()
}

func closerOf(r io.Reader) io.Closer {
	if c, ok := r.(io.Closer); ok {
		return c
	}
	return nil
}
