package corekit

import (
	"fmt"
	"io"
	"log"
	"os"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Module is the module name this package passes to NewModulePrinter
const Module = "CoreKit"

// Prepend creates the standard format for informational output that uber/fx uses.
// It returns a string of the form "[module] template".
func Prepend(module, template string) string {
	return "[" + module + "] " + template
}

// PrinterFunc is a function type that implements fx.Printer.  A zap SugaredLogger's
// Infof method is a common example.
type PrinterFunc func(string, ...interface{})

// Printf implements fx.Printer.  Note that this method does not append
// a newline to the output.
func (pf PrinterFunc) Printf(template string, args ...interface{}) {
	pf(template, args...)
}

// NewPrinterWriter creates an fx.Printer that sends all output to the specified
// Writer.  Each write has a newline appended.
//
// Any error from Write() results in a panic.
func NewPrinterWriter(w io.Writer) fx.Printer {
	return PrinterFunc(func(template string, args ...interface{}) {
		if _, err := fmt.Fprintf(w, template+"\n", args...); err != nil {
			panic(err)
		}
	})
}

// NewZapPrinter bridges a zap.Logger into an fx.Printer.  Output is logged at INFO.
// A nil logger results in DefaultPrinter.
func NewZapPrinter(l *zap.Logger) fx.Printer {
	if l == nil {
		return DefaultPrinter()
	}

	return PrinterFunc(l.Sugar().Infof)
}

var defaultPrinter fx.Printer = log.New(os.Stderr, "", log.LstdFlags)

// DefaultPrinter returns the fx.Printer used when no printer is supplied.
// This outputs to os.Stderr, in keeping with uber/fx's behavior.
func DefaultPrinter() fx.Printer {
	return defaultPrinter
}

type modulePrinter struct {
	module string
	p      fx.Printer
}

func (mp modulePrinter) Printf(template string, args ...interface{}) {
	mp.p.Printf(Prepend(mp.module, template), args...)
}

// NewModulePrinter decorates p so that every message is prefixed with [module].
// If p is nil, DefaultPrinter is decorated instead.
func NewModulePrinter(module string, p fx.Printer) fx.Printer {
	if p == nil {
		p = DefaultPrinter()
	}

	return modulePrinter{module: module, p: p}
}

// Logger makes p available as an unnamed fx.Printer component, which this module and
// its subpackages use for informational output.
func Logger(p fx.Printer) fx.Option {
	return fx.Provide(
		// NOTE: fx.Supply would produce a component of the concrete type
		func() fx.Printer {
			return p
		},
	)
}

// t is implemented by both *testing.T and *testing.B
type t interface {
	Name() string
	Logf(string, ...interface{})
}

// NewTestPrinter returns an fx.Printer that writes to a *testing.T or *testing.B
func NewTestPrinter(t t) fx.Printer {
	return PrinterFunc(func(template string, args ...interface{}) {
		t.Logf(t.Name()+" "+template, args...)
	})
}

// TestLogger uses Logger to establish a *testing.T or *testing.B as the
// sink for corekit messages
func TestLogger(t t) fx.Option {
	return Logger(NewTestPrinter(t))
}
