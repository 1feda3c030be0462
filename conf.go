/* ipp-probe - IPP printer capability and status discovery
 *
 * Copyright (C) 2020 and up by Alexander Pevzner (pzz@apevzner.com)
 * See LICENSE for license terms and conditions
 *
 * Configuration
 */

package ippprobe

import (
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/ini.v1"
)

const (
	// ConfFileName defines a name of the configuration file
	ConfFileName = "ipp-probe.conf"
)

// Configuration represents the library configuration
type Configuration struct {
	Timeout           time.Duration // Per-request network timeout
	DecodeWorkarounds bool          // Tolerate broken IPP responses
	UserName          string        // requesting-user-name
	RetryServiceUnav  uint          // Retries on service-unavailable
	RetryBadRequest   uint          // Retries on bad-request
	RetryInternal     uint          // Retries on internal/transport error
	RetryVersion      uint          // Version renegotiations per request
	RetryInterval     time.Duration // Initial pause between retries
	RetryMaxInterval  time.Duration // Maximum pause between retries
	LogConsole        LogLevel      // Console LogLevel mask
	LogFile           LogLevel      // File LogLevel mask
	LogMaxFileSize    int64         // Maximum log file size
	LogMaxBackupFiles uint          // Count of files preserved during rotation
	Quirks            QuirksDb      // Device quirks
}

// ConfDefault contains default configuration
var ConfDefault = Configuration{
	Timeout:           DefaultTimeout,
	DecodeWorkarounds: true,
	UserName:          DefaultUserName,
	RetryServiceUnav:  3,
	RetryBadRequest:   2,
	RetryInternal:     1,
	RetryVersion:      3,
	RetryInterval:     0,
	RetryMaxInterval:  5 * time.Second,
	LogConsole:        LogError | LogInfo,
	LogFile:           LogError | LogInfo | LogDebug,
	LogMaxFileSize:    256 * 1024,
	LogMaxBackupFiles: 5,
}

// ConfLoad loads configuration from the files, applied in order
// over ConfDefault. Without arguments, PathConfDir/ConfFileName is
// used. Missing files are silently skipped.
//
// Quirks are always loaded from PathQuirksDir and PathConfQuirksDir
func ConfLoad(files ...string) (*Configuration, error) {
	conf := ConfDefault

	if len(files) == 0 {
		files = []string{filepath.Join(PathConfDir, ConfFileName)}
	}

	for _, file := range files {
		err := conf.load(file)
		if err != nil {
			return nil, fmt.Errorf("conf: %s", err)
		}
	}

	var err error
	conf.Quirks, err = LoadQuirksDb(PathQuirksDir, PathConfQuirksDir)
	if err != nil {
		return nil, fmt.Errorf("conf: %s", err)
	}

	return &conf, nil
}

// load merges a single configuration file into conf
func (conf *Configuration) load(file string) error {
	opts := ini.LoadOptions{
		Loose:                    true,
		Insensitive:              true,
		SpaceBeforeInlineComment: true,
	}

	inifile, err := ini.LoadSources(opts, file)

	if err != nil {
		return fmt.Errorf("%s: %s", file, err)
	}

	type loader struct {
		section, key string
		load         func(*ini.Key) error
	}

	loaders := []loader{
		{"network", "timeout", func(k *ini.Key) error {
			return confLoadDurationKey(&conf.Timeout, k)
		}},
		{"network", "ipp-decode-workarounds", func(k *ini.Key) error {
			return confLoadBinaryKey(&conf.DecodeWorkarounds, k, "disable", "enable")
		}},
		{"network", "user-name", func(k *ini.Key) error {
			conf.UserName = strings.TrimSpace(k.String())
			return nil
		}},
		{"retry", "service-unavailable", func(k *ini.Key) error {
			return confLoadUintKeyRange(&conf.RetryServiceUnav, k, 0, 100)
		}},
		{"retry", "bad-request", func(k *ini.Key) error {
			return confLoadUintKeyRange(&conf.RetryBadRequest, k, 0, 100)
		}},
		{"retry", "internal-error", func(k *ini.Key) error {
			return confLoadUintKeyRange(&conf.RetryInternal, k, 0, 100)
		}},
		{"retry", "version", func(k *ini.Key) error {
			return confLoadUintKeyRange(&conf.RetryVersion, k, 0, 10)
		}},
		{"retry", "interval", func(k *ini.Key) error {
			return confLoadDurationKey(&conf.RetryInterval, k)
		}},
		{"retry", "max-interval", func(k *ini.Key) error {
			return confLoadDurationKey(&conf.RetryMaxInterval, k)
		}},
		{"logging", "console-log", func(k *ini.Key) error {
			return confLoadLogLevelKey(&conf.LogConsole, k)
		}},
		{"logging", "file-log", func(k *ini.Key) error {
			return confLoadLogLevelKey(&conf.LogFile, k)
		}},
		{"logging", "max-file-size", func(k *ini.Key) error {
			return confLoadSizeKey(&conf.LogMaxFileSize, k)
		}},
		{"logging", "max-backup-files", func(k *ini.Key) error {
			return confLoadUintKey(&conf.LogMaxBackupFiles, k)
		}},
	}

	for _, ld := range loaders {
		section, err := inifile.GetSection(ld.section)
		if err != nil {
			continue
		}

		key, err := section.GetKey(ld.key)
		if err != nil {
			continue
		}

		err = ld.load(key)
		if err != nil {
			return fmt.Errorf("%s: [%s] %s", file, ld.section, err)
		}
	}

	if conf.RetryMaxInterval < conf.RetryInterval {
		return fmt.Errorf("%s: max-interval must not be less that interval",
			file)
	}

	return nil
}

// confBadValue creates "bad value" error
func confBadValue(key *ini.Key, format string, args ...interface{}) error {
	return fmt.Errorf(key.Name()+": "+format, args...)
}

// confLoadBinaryKey loads a two-state key
func confLoadBinaryKey(out *bool, key *ini.Key, vFalse, vTrue string) error {
	switch key.String() {
	case vFalse:
		*out = false
	case vTrue:
		*out = true
	default:
		return confBadValue(key, "must be %s or %s", vFalse, vTrue)
	}

	return nil
}

// confLoadLogLevelKey loads comma-separated list of log levels.
// Each level implies all less verbose ones
func confLoadLogLevelKey(out *LogLevel, key *ini.Key) error {
	var mask LogLevel

	for _, s := range key.Strings(",") {
		switch s {
		case "":
		case "error":
			mask |= LogError
		case "info":
			mask |= LogError | LogInfo
		case "debug":
			mask |= LogError | LogInfo | LogDebug
		case "trace-ipp", "all":
			mask |= LogAll
		default:
			return confBadValue(key, "invalid log level %q", s)
		}
	}

	*out = mask
	return nil
}

// confLoadSizeKey loads size with optional K or M suffix
func confLoadSizeKey(out *int64, key *ini.Key) error {
	s := key.String()
	units := uint64(1)

	if l := len(s); l > 0 {
		switch s[l-1] {
		case 'k', 'K':
			units = 1024
		case 'm', 'M':
			units = 1024 * 1024
		}

		if units != 1 {
			s = s[:l-1]
		}
	}

	sz, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return confBadValue(key, "%q: invalid size", key.String())
	}

	if sz > uint64(math.MaxInt64)/units {
		return confBadValue(key, "size too large")
	}

	*out = int64(sz * units)
	return nil
}

// confLoadUintKey loads unsigned integer key
func confLoadUintKey(out *uint, key *ini.Key) error {
	num, err := key.Uint()
	if err != nil {
		return confBadValue(key, "%q: invalid number", key.String())
	}

	*out = num
	return nil
}

// confLoadUintKeyRange loads unsigned integer key within the range
func confLoadUintKeyRange(out *uint, key *ini.Key, min, max uint) error {
	var val uint

	err := confLoadUintKey(&val, key)
	if err == nil && (val < min || val > max) {
		err = confBadValue(key, "must be in range %d...%d", min, max)
	}

	if err == nil {
		*out = val
	}

	return err
}

// confLoadDurationKey loads duration. Plain numbers are milliseconds
func confLoadDurationKey(out *time.Duration, key *ini.Key) error {
	s := key.String()

	if ms, err := strconv.ParseUint(s, 10, 32); err == nil {
		*out = time.Duration(ms) * time.Millisecond
		return nil
	}

	d, err := time.ParseDuration(s)
	if err != nil || d < 0 || strings.HasPrefix(s, "+") {
		return confBadValue(key, "%q: invalid duration", s)
	}

	*out = d
	return nil
}
