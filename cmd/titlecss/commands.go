package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/kraciasty/titlecss"
	"github.com/kraciasty/titlecss/internal/config"
	"github.com/kraciasty/titlecss/internal/logging"
	"github.com/kraciasty/titlecss/internal/metrics"
	"github.com/kraciasty/titlecss/internal/server"
	"github.com/kraciasty/titlecss/internal/service"
	"github.com/kraciasty/titlecss/internal/store"
	"github.com/kraciasty/titlecss/render"
)

// operator is the actor used for writes made from the command line.
var operator = service.Actor{ID: "cli", Staff: true}

type app struct {
	cfg   *config.Config
	db    *sql.DB
	store *store.Store
	svc   *service.TitleService
}

func (a *app) Close() error {
	return a.db.Close()
}

// open loads configuration, opens and migrates the database and builds the
// title service.
func open(configPath string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	logging.SetLevel(cfg.Level())

	db, err := store.Open(cfg.DBPath())
	if err != nil {
		return nil, err
	}
	if err := store.Migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	logger := slog.Default()
	st := store.New(db)
	svc := service.New(st,
		service.WithLogger(logger),
		service.WithApplicator(func() render.Applicator {
			return cfg.Render.NewApplicator(
				render.WithLogger(logger.With("component", "render")),
				render.WithObserver(metrics.Observer{}),
			)
		}),
	)
	return &app{cfg: cfg, db: db, store: st, svc: svc}, nil
}

func newFlagSet(name string) (*flag.FlagSet, *string) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	cfgPath := fs.String("config", "", "path to a YAML config file")
	return fs, cfgPath
}

func runServe(args []string) error {
	fs, cfgPath := newFlagSet("serve")
	addr := fs.String("addr", "", "listen address (overrides config)")
	_ = fs.Parse(args)

	a, err := open(*cfgPath)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	if *addr != "" {
		a.cfg.Addr = *addr
	}
	if a.cfg.AdminToken == "" {
		slog.Warn("admin token not set, title css writes are disabled")
	}

	srv := server.New(a.svc, server.Config{AdminToken: a.cfg.AdminToken})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	slog.Info("starting", "version", version, "strategy", a.cfg.Render.Strategy)
	return srv.Serve(ctx, a.cfg.Addr)
}

// runSanitize writes the sanitized form of stdin to stdout and reports on
// stderr whether sanitization changed it.
func runSanitize(in io.Reader, out, errOut io.Writer) error {
	raw, err := io.ReadAll(in)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	input := strings.TrimSpace(string(raw))
	sanitized := titlecss.SanitizeCSS(input)
	if _, err := fmt.Fprintln(out, sanitized); err != nil {
		return err
	}
	_, err = fmt.Fprintf(errOut, "sanitized: %t\n", sanitized != input)
	return err
}

func runAddUser(args []string, out io.Writer) error {
	fs, cfgPath := newFlagSet("adduser")
	name := fs.String("name", "", "username")
	title := fs.String("title", "", "user title")
	_ = fs.Parse(args)

	if *name == "" {
		return errors.New("adduser: -name is required")
	}

	a, err := open(*cfgPath)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	u, err := a.store.CreateUser(context.Background(), *name, *title)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, u.ID)
	return err
}

func runSetCSS(args []string, out io.Writer) error {
	fs, cfgPath := newFlagSet("set-css")
	userID := fs.String("id", "", "user id")
	_ = fs.Parse(args)

	if *userID == "" {
		return errors.New("set-css: -id is required")
	}

	a, err := open(*cfgPath)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	res, err := a.svc.UpdateTitleCSS(context.Background(), operator, *userID, strings.Join(fs.Args(), " "))
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "title_css: %q\nsanitized: %t\n", res.TitleCSS, res.Sanitized)
	return err
}

func runRender(args []string, out io.Writer) error {
	fs, cfgPath := newFlagSet("render")
	in := fs.String("in", "", "HTML page to decorate (default stdin)")
	_ = fs.Parse(args)

	a, err := open(*cfgPath)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	var r io.Reader = os.Stdin
	if *in != "" {
		f, err := os.Open(*in)
		if err != nil {
			return fmt.Errorf("open page: %w", err)
		}
		defer func() { _ = f.Close() }()
		r = f
	}

	page, err := a.svc.RenderPage(context.Background(), r)
	if err != nil {
		return err
	}
	_, err = io.WriteString(out, page)
	return err
}
