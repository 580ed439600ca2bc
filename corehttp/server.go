package corehttp

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/justinas/alice"
	"github.com/xmidt-org/corekit"
	"github.com/xmidt-org/httpaux"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Module is the module name this package passes to corekit.NewModulePrinter
const Module = "CoreHTTP"

// ServerConfig is the unmarshaled configuration for the http.Server that
// serves a Registry.
type ServerConfig struct {
	// Network is the tcp network to listen on.  The default is "tcp".
	Network string

	// Address is the bind address of the server.  If unset, the server binds to
	// the first port available.
	Address string

	// APIPrefix is the path prefix of every service, e.g. "v1"
	APIPrefix string

	ReadTimeout       time.Duration
	ReadHeaderTimeout time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int

	// KeepAlive corresponds to net.ListenConfig.KeepAlive
	KeepAlive time.Duration

	// Header supplies HTTP headers to emit on every response from this server
	Header http.Header
}

// ResponseHeader returns middleware that sets header on every response before
// next runs.
func ResponseHeader(header httpaux.Header) alice.Constructor {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(response http.ResponseWriter, request *http.Request) {
			header.SetTo(response.Header())
			next.ServeHTTP(response, request)
		})
	}
}

// NewServer creates the http.Server for h
func (sc ServerConfig) NewServer(h http.Handler) *http.Server {
	header := httpaux.NewHeader(sc.Header)

	return &http.Server{
		Addr:              sc.Address,
		Handler:           alice.New(ResponseHeader(header)).Then(h),
		ReadTimeout:       sc.ReadTimeout,
		ReadHeaderTimeout: sc.ReadHeaderTimeout,
		WriteTimeout:      sc.WriteTimeout,
		IdleTimeout:       sc.IdleTimeout,
		MaxHeaderBytes:    sc.MaxHeaderBytes,
	}
}

// Listen creates the listener for the server's accept loop
func (sc ServerConfig) Listen(ctx context.Context) (net.Listener, error) {
	network := sc.Network
	if len(network) == 0 {
		network = "tcp"
	}

	lc := net.ListenConfig{
		KeepAlive: sc.KeepAlive,
	}

	return lc.Listen(ctx, network, sc.Address)
}

// ListenerConstructor decorates the net.Listener used by a server
type ListenerConstructor func(net.Listener) net.Listener

// CaptureListenAddress returns a ListenerConstructor that sends the actual bind
// address to a channel without decorating the listener.  Useful when a server
// binds to ":0".
func CaptureListenAddress(ch chan<- net.Addr) ListenerConstructor {
	return func(l net.Listener) net.Listener {
		ch <- l.Addr()
		return l
	}
}

// ServerIn describes the dependencies for Provide
type ServerIn struct {
	fx.In

	// Settings is the required source of the ServerConfig
	Settings *corekit.Settings

	// Printer is the optional fx.Printer for informational messages
	Printer fx.Printer `optional:"true"`

	// Logger is the optional zap logger for request logging
	Logger *zap.Logger `optional:"true"`

	// Options are additional RegistryOptions from the enclosing fx.App
	Options []RegistryOption `group:"corehttp.options"`

	// Listeners decorate the server's listener, in order
	Listeners []ListenerConstructor `group:"corehttp.listeners"`

	Lifecycle  fx.Lifecycle
	Shutdowner fx.Shutdowner
}

// Provide unmarshals a ServerConfig from the given settings key and produces a
// *Registry served by an http.Server bound to the fx.App lifecycle.  If the server's
// accept loop exits for any reason, the fx.App is shut down.
func Provide(key string, opts ...RegistryOption) fx.Option {
	return fx.Provide(
		func(in ServerIn) (*Registry, error) {
			var sc ServerConfig
			if err := in.Settings.UnmarshalKey(key, &sc); err != nil {
				return nil, err
			}

			all := append(
				[]RegistryOption{
					WithAPIPrefix(sc.APIPrefix),
					WithLogger(in.Logger),
				},
				in.Options...,
			)

			registry, err := NewRegistry(append(all, opts...)...)
			if err != nil {
				return nil, err
			}

			var (
				p      = corekit.NewModulePrinter(Module, in.Printer)
				server = sc.NewServer(registry)
			)

			in.Lifecycle.Append(fx.Hook{
				OnStart: func(ctx context.Context) error {
					l, err := sc.Listen(ctx)
					if err != nil {
						return err
					}

					for _, lc := range in.Listeners {
						l = lc(l)
					}

					p.Printf("SERVER [%s] => %s", key, l.Addr())
					go corekit.ShutdownWhenDone(in.Shutdowner, func() {
						p.Printf("SERVER EXIT [%s] => %v", key, server.Serve(l))
					})

					return nil
				},
				OnStop: server.Shutdown,
			})

			return registry, nil
		},
	)
}
