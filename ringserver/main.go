// Package ringserver hoists rings to remote readers over HTTP and WebSocket.
//
// Each ring of the catalog is served at /ring/{name}. ringsource readers
// attach to it as ws://host:port/ring/{name}.
package ringserver

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/ridge/ringsource"
	"github.com/ridge/ringsource/run"
	"github.com/ridge/ringsource/thttp"
	"github.com/ridge/ringsource/tlog"
	"github.com/ridge/ringsource/tnet"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

// Config contains the server parameters
type Config struct {
	Listener net.Listener
	Catalog  Catalog
	Source   ringsource.Config
}

// Main handles the command line and runs the server
func Main(args []string) {
	run.Server(func(ctx context.Context) error {
		addr := pflag.String("addr", ":30080", "address to listen on")
		catalogPath := pflag.String("catalog", "", "YAML ring catalog")
		rings := pflag.StringArray("ring", nil, "ring to serve, as name=uri (repeatable)")
		wait := pflag.Duration("wait", time.Second, "bound on a single wait for live ring data")
		if err := pflag.CommandLine.Parse(args[1:]); err != nil {
			if errors.Is(err, pflag.ErrHelp) {
				return nil
			}
			return err
		}

		catalog := Catalog{}
		if *catalogPath != "" {
			var err error
			if catalog, err = LoadCatalog(*catalogPath); err != nil {
				return err
			}
		}
		for _, entry := range *rings {
			if err := catalog.Add(entry); err != nil {
				return err
			}
		}
		if len(catalog) == 0 {
			tlog.Get(ctx).Warn("No rings to serve", zap.String("hint", "use --catalog or --ring"))
		}

		listener, err := tnet.Listen(*addr)
		if err != nil {
			return err
		}

		return Run(ctx, Config{
			Listener: listener,
			Catalog:  catalog,
			Source:   ringsource.Config{Wait: *wait},
		})
	})
}

// Run runs the server
func Run(ctx context.Context, config Config) error {
	tlog.Get(ctx).Info("Serving rings", zap.Strings("rings", config.Catalog.Names()))
	return thttp.NewServer(config.Listener, thttp.Wrap(Handler(config.Catalog, config.Source), thttp.StandardMiddleware)).Run(ctx)
}
