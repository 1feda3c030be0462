/* ipp-probe - IPP printer capability and status discovery
 *
 * Copyright (C) 2020 and up by Alexander Pevzner (pzz@apevzner.com)
 * See LICENSE for license terms and conditions
 *
 * Default loggers
 */

package ippprobe

// Log is the default logger, used by sessions created without
// an explicit one and by the stateless decoders
var Log = NewConsoleLogger(ConfDefault.LogConsole)

// ConfLogger returns a logger, configured according to conf.
//
// If name is not empty, messages go to the named log file within
// PathLogDir, otherwise to the console.
func ConfLogger(conf *Configuration, name string) *Logger {
	if name != "" {
		return NewFileLogger(name, conf)
	}
	return NewConsoleLogger(conf.LogConsole)
}
