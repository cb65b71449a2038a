package elog

import (
	"os"
	"runtime/debug"

	"github.com/davecgh/go-spew/spew"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// Log is the process logger. It reports the caller of whoever invokes it
// directly; the package helpers below go through hlog, which accounts for
// the extra frame.
var Log log.Logger

var (
	base log.Logger
	hlog log.Logger
)

func init() {
	base = log.NewLogfmtLogger(log.NewSyncWriter(os.Stdout))
	SetLevel("info")
}

// SetLevel sets the minimum logging level: debug, warn, error, all or info.
// Called once at startup; -v flags map to debug and all.
func SetLevel(lvl string) {
	var opt level.Option
	switch lvl {
	case "debug":
		opt = level.AllowDebug()
	case "warn":
		opt = level.AllowWarn()
	case "error":
		opt = level.AllowError()
	case "all":
		opt = level.AllowAll()
	default:
		opt = level.AllowInfo()
	}

	Log = level.NewFilter(log.With(base, "ts", log.DefaultTimestampUTC, "caller", log.Caller(5)), opt)
	hlog = level.NewFilter(log.With(base, "ts", log.DefaultTimestampUTC, "caller", log.Caller(6)), opt)
}

// Debug adds a log entry w/ Debug level
func Debug(keyvals ...interface{}) {
	level.Debug(hlog).Log(keyvals...)
}

// Info adds a log entry w/ Info level
func Info(keyvals ...interface{}) {
	level.Info(hlog).Log(keyvals...)
}

// Warn adds a log entry w/ Warn level
func Warn(keyvals ...interface{}) {
	level.Warn(hlog).Log(keyvals...)
}

// Error adds a log entry w/ Error level
func Error(keyvals ...interface{}) {
	level.Error(hlog).Log(keyvals...)
}

// Dump spews v at Debug level, for chasing config or context state under -vv.
func Dump(name string, v interface{}) {
	level.Debug(hlog).Log("dump", name, "val", spew.Sdump(v))
}

// Fatal adds a log entry w/ Error level and exits
func Fatal(keyvals ...interface{}) {
	debug.PrintStack()
	level.Error(hlog).Log(keyvals...)
	os.Exit(1)
}

// FatalIf prints a fatal Error level and exits if err != nil
func FatalIf(err error) {
	if err == nil {
		return
	}
	level.Error(hlog).Log("err", err)
	os.Exit(1)
}
