/* ipp-probe - IPP printer capability and status discovery
 *
 * Copyright (C) 2020 and up by Alexander Pevzner (pzz@apevzner.com)
 * See LICENSE for license terms and conditions
 *
 * Logging
 */

package ippprobe

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/OpenPrinting/goipp"
)

var (
	logLinePool = sync.Pool{New: func() interface{} { return &bytes.Buffer{} }}
	logMsgPool  = sync.Pool{New: func() interface{} { return &LogMessage{} }}
)

// LogLevel is the bit mask of enabled log levels
type LogLevel int

// Log levels
const (
	LogError LogLevel = 1 << iota
	LogInfo
	LogDebug
	LogTraceIPP

	LogAll = LogError | LogInfo | LogDebug | LogTraceIPP
)

// Logger writes log messages either to the console or into
// the file with size-based rotation
type Logger struct {
	lock       sync.Mutex
	levels     LogLevel
	path       string
	out        io.Writer
	file       *os.File
	maxSize    int64
	maxBackups uint
	stamp      bytes.Buffer
}

// NewConsoleLogger creates a logger that writes to stderr
func NewConsoleLogger(levels LogLevel) *Logger {
	return &Logger{
		levels: levels,
		out:    os.Stderr,
	}
}

// NewWriterLogger creates a logger that writes into the io.Writer.
// Mostly useful for tests
func NewWriterLogger(w io.Writer, levels LogLevel) *Logger {
	return &Logger{
		levels: levels,
		out:    w,
	}
}

// NewFileLogger creates a logger that writes into the named
// file within PathLogDir. The file is opened on demand
func NewFileLogger(name string, conf *Configuration) *Logger {
	return &Logger{
		levels:     conf.LogFile,
		path:       filepath.Join(PathLogDir, name+".log"),
		maxSize:    conf.LogMaxFileSize,
		maxBackups: conf.LogMaxBackupFiles,
	}
}

// Close closes the log file, if any
func (l *Logger) Close() {
	l.lock.Lock()
	if l.file != nil {
		l.file.Close()
		l.file = nil
	}
	l.lock.Unlock()
}

// Enabled reports whether any of levels is enabled
func (l *Logger) Enabled(levels LogLevel) bool {
	return l != nil && l.levels&levels != 0
}

// Begin starts a new multi-line log message
func (l *Logger) Begin() *LogMessage {
	msg := logMsgPool.Get().(*LogMessage)
	msg.logger = l
	return msg
}

// Debug writes a single-line LogDebug message
func (l *Logger) Debug(prefix byte, format string, args ...interface{}) {
	l.Begin().Debug(prefix, format, args...).Commit()
}

// Info writes a single-line LogInfo message
func (l *Logger) Info(prefix byte, format string, args ...interface{}) {
	l.Begin().Info(prefix, format, args...).Commit()
}

// Error writes a single-line LogError message
func (l *Logger) Error(prefix byte, format string, args ...interface{}) {
	l.Begin().Error(prefix, format, args...).Commit()
}

// Dump writes a hex dump of data at LogDebug level
func (l *Logger) Dump(data []byte, title string, args ...interface{}) {
	l.Begin().Dump(data, title, args...).Commit()
}

// IppRequest traces outgoing IPP request at LogTraceIPP level
func (l *Logger) IppRequest(uri string, msg *goipp.Message) {
	l.Begin().IppRequest(uri, msg).Commit()
}

// IppResponse traces received IPP response at LogTraceIPP level
func (l *Logger) IppResponse(uri string, msg *goipp.Message) {
	l.Begin().IppResponse(uri, msg).Commit()
}

// write writes already formatted lines. Called under the lock
func (l *Logger) write(lines []*bytes.Buffer) {
	out := l.out
	if out == nil {
		if l.file == nil {
			os.MkdirAll(filepath.Dir(l.path), 0755)
			l.file, _ = os.OpenFile(l.path,
				os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0644)
		}
		if l.file == nil {
			return
		}

		l.rotate()
		out = l.file
	}

	l.stamp.Reset()
	if l.file != nil {
		now := time.Now()
		fmt.Fprintf(&l.stamp, "%s: ", now.Format("02-01-2006 15:04:05"))
	}

	for _, line := range lines {
		out.Write(l.stamp.Bytes())
		out.Write(line.Bytes())
	}
}

// rotate rotates the log file when it grows above the limit.
// Backups are kept gzip-compressed as path.0.gz ... path.N.gz
func (l *Logger) rotate() {
	if l.maxSize <= 0 {
		return
	}

	stat, err := l.file.Stat()
	if err != nil || stat.Size() <= l.maxSize {
		return
	}

	backup := func(n uint) string {
		return fmt.Sprintf("%s.%d.gz", l.path, n)
	}

	if l.maxBackups == 0 {
		l.file.Truncate(0)
		return
	}

	os.Remove(backup(l.maxBackups - 1))
	for n := l.maxBackups - 1; n > 0; n-- {
		os.Rename(backup(n-1), backup(n))
	}

	if logGzip(l.path, backup(0)) == nil {
		l.file.Truncate(0)
	}
}

// logGzip compresses file at src into dst
func logGzip(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0644)
	if err != nil {
		return err
	}

	w := gzip.NewWriter(out)
	_, err = io.Copy(w, in)
	if err2 := w.Close(); err == nil {
		err = err2
	}
	if err2 := out.Close(); err == nil {
		err = err2
	}

	if err != nil {
		os.Remove(dst)
	}

	return err
}

// LogMessage accumulates lines of a multi-line log message.
// Lines appear in the log atomically, when message is committed
type LogMessage struct {
	logger *Logger
	lines  []*bytes.Buffer
}

// add appends a line, if level is enabled
func (msg *LogMessage) add(level LogLevel, prefix byte,
	format string, args ...interface{}) *LogMessage {

	if !msg.logger.Enabled(level) {
		return msg
	}

	buf := logLinePool.Get().(*bytes.Buffer)
	buf.WriteByte(prefix)
	buf.WriteByte(' ')
	fmt.Fprintf(buf, format, args...)
	if b := buf.Bytes(); len(b) == 0 || b[len(b)-1] != '\n' {
		buf.WriteByte('\n')
	}

	msg.lines = append(msg.lines, buf)
	return msg
}

// Debug adds a LogDebug line
func (msg *LogMessage) Debug(prefix byte, format string, args ...interface{}) *LogMessage {
	return msg.add(LogDebug, prefix, format, args...)
}

// Info adds a LogInfo line
func (msg *LogMessage) Info(prefix byte, format string, args ...interface{}) *LogMessage {
	return msg.add(LogInfo, prefix, format, args...)
}

// Error adds a LogError line
func (msg *LogMessage) Error(prefix byte, format string, args ...interface{}) *LogMessage {
	return msg.add(LogError, prefix, format, args...)
}

// Dump adds a hex dump of data, 16 bytes per line
func (msg *LogMessage) Dump(data []byte, title string, args ...interface{}) *LogMessage {
	if !msg.logger.Enabled(LogDebug) {
		return msg
	}

	if title != "" {
		msg.Debug(' ', title, args...)
	}

	var hex, chr bytes.Buffer
	for off := 0; off < len(data); off += 16 {
		hex.Reset()
		chr.Reset()

		end := off + 16
		if end > len(data) {
			end = len(data)
		}

		for i := off; i < off+16; i++ {
			if i >= end {
				hex.WriteString("   ")
				continue
			}

			c := data[i]
			sep := byte(' ')
			if i%4 == 3 {
				sep = ':'
			}
			fmt.Fprintf(&hex, "%2.2x%c", c, sep)

			if c < 0x20 || c >= 0x7f {
				c = '.'
			}
			chr.WriteByte(c)
		}

		msg.Debug(' ', "%4.4x: %s %s", off, hex.String(), chr.String())
	}

	return msg
}

// IppRequest adds formatted IPP request
func (msg *LogMessage) IppRequest(uri string, rq *goipp.Message) *LogMessage {
	return msg.ipp('>', "IPP request to %s", uri, rq, true)
}

// IppResponse adds formatted IPP response
func (msg *LogMessage) IppResponse(uri string, rsp *goipp.Message) *LogMessage {
	return msg.ipp('<', "IPP response from %s", uri, rsp, false)
}

// ipp adds formatted IPP message
func (msg *LogMessage) ipp(prefix byte, title, uri string,
	m *goipp.Message, request bool) *LogMessage {

	if !msg.logger.Enabled(LogTraceIPP) || m == nil {
		return msg
	}

	f := goipp.NewFormatter()
	if request {
		f.FmtRequest(m)
	} else {
		f.FmtResponse(m)
	}

	msg.add(LogTraceIPP, prefix, title, uri)

	lw := &lineWriter{line: func(line []byte) {
		msg.add(LogTraceIPP, prefix, "  %s", line)
	}}
	f.WriteTo(lw)
	lw.Close()

	return msg
}

// Commit writes the message and releases it
func (msg *LogMessage) Commit() {
	if l := msg.logger; l != nil && len(msg.lines) != 0 {
		l.lock.Lock()
		l.write(msg.lines)
		l.lock.Unlock()
	}

	msg.release()
}

// Reject drops the message without writing it
func (msg *LogMessage) Reject() {
	msg.release()
}

// release returns message and its lines to the pools
func (msg *LogMessage) release() {
	for _, buf := range msg.lines {
		if buf.Cap() <= 256 {
			buf.Reset()
			logLinePool.Put(buf)
		}
	}

	msg.lines = msg.lines[:0]
	msg.logger = nil
	logMsgPool.Put(msg)
}
