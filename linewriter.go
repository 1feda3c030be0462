/* ipp-probe - IPP printer capability and status discovery
 *
 * Copyright (C) 2020 and up by Alexander Pevzner (pzz@apevzner.com)
 * See LICENSE for license terms and conditions
 *
 * Line-splitting writer
 */

package ippprobe

import (
	"bytes"
)

// lineWriter is the io.WriteCloser that splits the stream into
// lines and passes each non-empty line, without the trailing '\n',
// to the callback. Close flushes the last unterminated line
type lineWriter struct {
	line func([]byte)
	buf  bytes.Buffer
}

// Write implements io.Writer
func (lw *lineWriter) Write(text []byte) (int, error) {
	n := len(text)

	for len(text) > 0 {
		end := bytes.IndexByte(text, '\n')
		if end < 0 {
			lw.buf.Write(text)
			break
		}

		lw.buf.Write(text[:end])
		text = text[end+1:]
		lw.flush()
	}

	return n, nil
}

// Close implements io.Closer
func (lw *lineWriter) Close() error {
	lw.flush()
	return nil
}

// flush passes the buffered line to the callback
func (lw *lineWriter) flush() {
	if lw.buf.Len() != 0 {
		lw.line(lw.buf.Bytes())
		lw.buf.Reset()
	}
}
