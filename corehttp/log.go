package corehttp

import "go.uber.org/zap"

// LogContext binds fields to r.  They are included by Logger, and therefore in
// the summary logged once the request has been served.
func LogContext(r *Request, fields ...zap.Field) {
	r.logFields = append(r.logFields, fields...)
}

// Logger returns the registry logger for r, with any LogContext fields.  Subrequests
// are marked with their parent's path.
func Logger(r *Request) *zap.Logger {
	l := zap.NewNop()
	if r.Registry != nil {
		l = r.Registry.logger
	}

	if r.Parent != nil && r.Parent.Request != nil {
		l = l.With(zap.String("parent", r.Parent.URL.Path))
	}

	return l.With(r.logFields...)
}
