package corekit

import (
	"reflect"

	"go.uber.org/fx"
)

// Task is a context-less operation, such as an accept loop, that runs for the
// life of an fx.App.  Named function types are allowed.
type Task interface {
	~func() | ~func() error
}

// ShutdownWhenDone executes task and then shuts down the enclosing fx.App, even when
// task panics.  The task's error, if any, is returned.
func ShutdownWhenDone[T Task](sh fx.Shutdowner, task T) (err error) {
	defer sh.Shutdown()

	// the type set admits named types, which a plain type assertion would miss
	results := reflect.ValueOf(task).Call(nil)
	if len(results) > 0 && !results[0].IsNil() {
		err = results[0].Interface().(error)
	}

	return
}
