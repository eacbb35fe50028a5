package transfercore

import (
	"os"

	kitlog "github.com/go-kit/kit/log"
)

// componentLogger returns a logfmt logger writing to stdout, bound with a
// "component" key naming the subsystem (the registry and the planner each
// bind one).
func componentLogger(component string) kitlog.Logger {
	klog := kitlog.NewLogfmtLogger(kitlog.NewSyncWriter(os.Stdout))
	return kitlog.With(klog, "component", component)
}

// logInfo logs msg at level=info with the given key/value pairs.
func logInfo(logger kitlog.Logger, msg string, kvs ...interface{}) {
	kitlog.With(logger, "level", "info").Log(append([]interface{}{"msg", msg}, kvs...)...)
}

// logError logs msg at level=error with the given key/value pairs.
// The registry routes a Keplerian-propagation NumericalNonConvergence
// through this before returning it; the planner's NumericalNonConvergence
// wrappers do not.
func logError(logger kitlog.Logger, msg string, kvs ...interface{}) {
	kitlog.With(logger, "level", "error").Log(append([]interface{}{"msg", msg}, kvs...)...)
}
