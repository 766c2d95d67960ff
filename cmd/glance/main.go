/*
Command glance serves an HTML widget with the state of systemd services.

Invoke it like so:

	glance -p 8080 -templates ./templates -locales ./locales

and request

	http://localhost:8080/?services=nginx,sshd&servicesTitle=Web,SSH&title=Server

The "service" template is resolved once per unit and the "widget" template
receives the results as $serviceElements.
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"

	"github.com/systemd-glance/glance"
	"github.com/systemd-glance/glance/errortypes"
	"github.com/systemd-glance/glance/i18n"
	"github.com/systemd-glance/glance/systemd"
	"github.com/systemd-glance/glance/widget"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("glance: %v", err))
		os.Exit(1)
	}
}

func run(args []string) error {
	f, err := parseFlags(args)
	if err != nil {
		return err
	}
	config, err := LoadConfig(f.config)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	f.apply(config.Server)

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: parseLogLevel(config.Server.LogLevel)}))
	glance.Logger = logger.With("pkg", "glance")

	handler, closer, err := newHandler(config.Server, logger)
	if err != nil {
		return err
	}
	defer closer()

	var mux = http.NewServeMux()
	mux.Handle("/", handler)
	server := &http.Server{
		Addr:              config.Server.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	banner(config.Server)

	var serveErr = make(chan error, 1)
	go func() {
		logger.Info("Starting widget server", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	osSignalChan := make(chan os.Signal, 1)
	signal.Notify(osSignalChan, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serveErr:
		return err
	case <-osSignalChan:
		logger.Info("OS signal received, initiating shutdown.")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err = server.Shutdown(ctx); err != nil {
		logger.Error("Server shutdown failed", "error", err)
	}
	logger.Info("glance has shut down.")
	return nil
}

// newHandler compiles the templates and catalogs named by cfg into a widget
// handler.  The returned func stops the template watcher.
func newHandler(cfg *ServerConfig, logger *slog.Logger) (http.Handler, func(), error) {
	var bundle = glance.NewBundle().
		WatchFiles(cfg.Watch).
		AddTemplateDir(cfg.TemplateDir).
		OnReload(func(name string, err error) {
			if err != nil {
				logger.Warn("Template reload rejected", append([]any{"template", name}, errAttrs(err)...)...)
			}
		})
	if cfg.GlobalsFile != "" {
		bundle.AddGlobalsFile(cfg.GlobalsFile)
	}
	templates, err := bundle.Compile()
	if err != nil {
		bundle.Close()
		logger.Error("Template compilation failed", errAttrs(err)...)
		return nil, nil, fmt.Errorf("failed to compile templates: %w", err)
	}
	templates.MaxDepth = cfg.MaxLoopDepth

	var cats *i18n.Catalogs
	if cfg.LocaleDir != "" {
		switch _, statErr := os.Stat(cfg.LocaleDir); {
		case os.IsNotExist(statErr):
			logger.Info("No locale directory, serving untranslated", "dir", cfg.LocaleDir)
		default:
			if cats, err = i18n.Dir(cfg.LocaleDir); err != nil {
				bundle.Close()
				return nil, nil, fmt.Errorf("failed to load locales: %w", err)
			}
			logger.Info("Loaded locales", "count", cats.Len())
		}
	}

	var client = systemd.NewClient()
	client.Systemctl = cfg.Systemctl
	var w = &widget.Widget{
		Templates:    templates,
		Services:     timeoutQuerier{client, time.Duration(cfg.QueryTimeoutSec) * time.Second},
		Catalogs:     cats,
		DefaultTitle: cfg.DefaultTitle,
		Logger:       logger,
	}
	return w, func() { bundle.Close() }, nil
}

// errAttrs returns the log attributes of err, with its source position when
// it has one.
func errAttrs(err error) []any {
	var attrs = []any{"error", err}
	if errortypes.IsErrFilePos(err) {
		var pos = errortypes.ToErrFilePos(err)
		attrs = append(attrs, "file", pos.File(), "line", pos.Line(), "col", pos.Col())
	}
	return attrs
}

// timeoutQuerier bounds each service query.
type timeoutQuerier struct {
	q       widget.Querier
	timeout time.Duration
}

func (t timeoutQuerier) Services(ctx context.Context, names []string) ([]systemd.Status, error) {
	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}
	return t.q.Services(ctx, names)
}

func banner(cfg *ServerConfig) {
	green := color.New(color.FgGreen, color.Bold)
	cyan := color.New(color.FgCyan)
	fmt.Printf("%s %s\n", green.Sprint("glance"), cyan.Sprintf("listening on %s", cfg.Addr))
	fmt.Printf("  templates: %s\n", cyan.Sprint(cfg.TemplateDir))
	if cfg.Watch {
		fmt.Printf("  %s\n", color.New(color.FgYellow).Sprint("watching templates for changes"))
	}
	fmt.Printf("%s\n", color.New(color.FgYellow).Sprint("Press Ctrl+C to stop server"))
}
