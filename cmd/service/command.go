package service

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/manuscripta/apm/app/core"
	"github.com/manuscripta/apm/app/store/memstore"
	"github.com/manuscripta/apm/app/store/sqlstore"
	"github.com/manuscripta/apm/cmd/service/handler"
	"github.com/manuscripta/apm/pkg/safe"
)

type Options struct {
	ConfigPath string
	Memstore   bool
}

func (o *Options) AddFlags(flagSet *pflag.FlagSet) {
	flagSet.StringVarP(&o.ConfigPath, "config", "c", "", "init api by given config")
	flagSet.BoolVar(&o.Memstore, "memstore", false, "keep transcriptions in process memory, for development only")
}

func NewCommand() *cobra.Command {
	opts := &Options{}
	cmd := &cobra.Command{
		Use:   "service",
		Short: "transcription api service",
		RunE: func(cmd *cobra.Command, args []string) error {
			return Run(opts)
		},
	}
	opts.AddFlags(cmd.Flags())
	return cmd
}

func Run(opts *Options) error {
	var coreOpts []core.Option
	if opts.Memstore {
		coreOpts = append(coreOpts, core.WithStore(memstore.New()))
	}
	app := core.MustSetupCore(core.MustLoadBaseConfig(opts.ConfigPath), coreOpts...)
	defer app.Close()

	return serve(app)
}

func serve(app *core.Core) error {
	httpSrv := &handler.HttpSrv{
		Core:   app,
		Engine: app.HttpEngine(),
	}
	setupHttpRouter(httpSrv)

	addr := app.Cfg().Addr
	if addr == "" {
		addr = ":33033"
	}
	server := &http.Server{
		Addr:    addr,
		Handler: app.HttpEngine(),
	}

	errCh := make(chan error, 1)
	safe.Go("http server", func() {
		slog.Info("http server starting", slog.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	})

	sigs := make(chan os.Signal, 1)
	// 监听 os.Interrupt (Ctrl+C) 和 syscall.SIGTERM (kill)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case <-sigs:
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(ctx)
}

func NewInstallCommand() *cobra.Command {
	opts := &Options{}
	cmd := &cobra.Command{
		Use:   "install",
		Short: "create or migrate the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			return RunInstall(opts)
		},
	}
	opts.AddFlags(cmd.Flags())
	return cmd
}

func RunInstall(opts *Options) error {
	cfg := core.MustLoadBaseConfig(opts.ConfigPath)
	provider := sqlstore.MustSetup(cfg.Postgres)
	if err := provider().Install(); err != nil {
		return err
	}
	slog.Info("database schema installed")
	return nil
}
