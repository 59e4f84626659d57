package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"text/tabwriter"
	"time"

	"codeberg.org/miketth/keynames/pkg/config"
	"codeberg.org/miketth/keynames/pkg/hyprland"
	"codeberg.org/miketth/keynames/pkg/keycodes"
	"codeberg.org/miketth/keynames/pkg/keylayout"
	"codeberg.org/miketth/keynames/pkg/keyserver"
	"codeberg.org/miketth/keynames/pkg/namestore"
	jsonstore "codeberg.org/miketth/keynames/pkg/namestore/json"
	"codeberg.org/miketth/keynames/pkg/namestore/memory"
	"codeberg.org/miketth/keynames/pkg/namestore/sqlite"
	"codeberg.org/miketth/keynames/pkg/xkblayouts"
	"github.com/coreos/go-systemd/v22/daemon"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const usage = `usage: keynames [flags] [command] [args]

commands:
  lookup CODE...     print the name of each key (default)
  layouts            list the layouts in the active keymap
  keyboards          list the compositor's keyboards (Hyprland)
  dump -label NAME   save the name of every key under NAME
  show [NAME]        print a saved snapshot, or list them
  serve              answer lookups on the server socket
  query CODE...      ask a running server

CODE is a decimal evdev code or a name such as KEY_A.

flags:
`

func main() {
	err := run()
	if err != nil {
		log.Fatalf("error: %+v", err)
	}
}

func run() error {
	configPath := flag.String("config", config.DefaultPath(), "path to config.yaml")
	backend := flag.String("backend", "auto", "keymap source: auto, wayland or x11")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	log, err := newLogger(*debug)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer log.Sync()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx := context.Background()
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	command, args := splitCommand(flag.Args())
	app := &app{
		cfg:     cfg,
		backend: *backend,
		log:     log,
		out:     os.Stdout,
	}

	switch command {
	case "lookup":
		return app.lookup(args)
	case "layouts":
		return app.layouts()
	case "keyboards":
		return app.keyboards()
	case "dump":
		return app.dump(args)
	case "show":
		return app.show(args)
	case "serve":
		return app.serve(ctx)
	case "query":
		return app.query(args)
	}

	return fmt.Errorf("unknown command %q", command)
}

var commands = map[string]bool{
	"lookup":    true,
	"layouts":   true,
	"keyboards": true,
	"dump":      true,
	"show":      true,
	"serve":     true,
	"query":     true,
}

// splitCommand treats arguments that do not start with a command as
// lookup arguments.
func splitCommand(args []string) (string, []string) {
	if len(args) > 0 && commands[args[0]] {
		return args[0], args[1:]
	}
	return "lookup", args
}

type app struct {
	cfg     config.Config
	backend string
	log     *zap.SugaredLogger
	out     io.Writer
}

type translator interface {
	GetKeyAsString(scancode uint32) string
	Layouts() []string
	Close() error
}

func (a *app) openLayout() (translator, error) {
	opts := a.cfg.LayoutOptions(a.log)

	var (
		layout *keylayout.KeyLayout
		err    error
	)
	switch a.backend {
	case "auto":
		layout, err = keylayout.New(opts...)
	case "wayland":
		layout, err = keylayout.NewWayland(opts...)
	case "x11":
		layout, err = keylayout.NewX11(opts...)
	default:
		return nil, fmt.Errorf("unknown backend %q", a.backend)
	}
	if err != nil {
		return nil, fmt.Errorf("load keymap: %w", err)
	}
	return layout, nil
}

func (a *app) lookup(args []string) error {
	if len(args) == 0 {
		return errors.New("lookup needs at least one key code")
	}

	layout, err := a.openLayout()
	if err != nil {
		return err
	}
	defer layout.Close()

	return writeLookups(a.out, layout, args)
}

func writeLookups(out io.Writer, t keyserver.Translator, args []string) error {
	codes := make([]uint32, 0, len(args))
	for _, arg := range args {
		code, err := keycodes.Parse(arg)
		if err != nil {
			return err
		}
		codes = append(codes, code)
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, code := range codes {
		fmt.Fprintf(w, "%d\t%s\t%s\n", code, keycodes.Name(code), t.GetKeyAsString(code))
	}
	return w.Flush()
}

func (a *app) layouts() error {
	layout, err := a.openLayout()
	if err != nil {
		return err
	}
	defer layout.Close()

	registry, err := xkblayouts.Load(a.cfg.EvdevXMLPath)
	if err != nil {
		a.log.Warnw("layout codes unavailable", "error", err)
		registry = &xkblayouts.Registry{}
	}

	return writeLayouts(a.out, registry, layout.Layouts())
}

func writeLayouts(out io.Writer, registry *xkblayouts.Registry, names []string) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for i, name := range names {
		code, languages := "?", "-"
		if c, err := registry.Resolve(name); err == nil {
			code = c.String()
			if l := registry.Languages(c); len(l) > 0 {
				languages = strings.Join(l, ",")
			}
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", i, code, languages, name)
	}
	return w.Flush()
}

func (a *app) keyboards() error {
	hyprctl, err := hyprland.NewHyprctl()
	if err != nil {
		return fmt.Errorf("connect hyprctl: %w", err)
	}

	keyboards, err := hyprctl.Keyboards()
	if err != nil {
		return fmt.Errorf("get keyboards: %w", err)
	}

	registry, err := xkblayouts.Load(a.cfg.EvdevXMLPath)
	if err != nil {
		a.log.Warnw("layout codes unavailable", "error", err)
		registry = &xkblayouts.Registry{}
	}

	return writeKeyboards(a.out, registry, keyboards)
}

// writeKeyboards marks the main keyboard with "*" and lists each
// keyboard's configured layouts below it.
func writeKeyboards(out io.Writer, registry *xkblayouts.Registry, keyboards []hyprland.Keyboard) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, k := range keyboards {
		active := k.ActiveKeymap
		if c, err := registry.Resolve(k.ActiveKeymap); err == nil {
			active = fmt.Sprintf("%s [%s]", k.ActiveKeymap, c)
		}
		marker := " "
		if k.Main {
			marker = "*"
		}
		fmt.Fprintf(w, "%s %s\t%s\n", marker, k.Name, active)

		for i, layout := range k.Layouts {
			code := xkblayouts.Code{Layout: layout}
			if i < len(k.Variants) {
				code.Variant = k.Variants[i]
			}
			description, err := registry.Describe(code)
			if err != nil {
				description = "?"
			}
			fmt.Fprintf(w, "    %d\t%s\t%s\n", i, code, description)
		}
	}
	return w.Flush()
}

func (a *app) dump(args []string) error {
	flags := flag.NewFlagSet("dump", flag.ContinueOnError)
	label := flags.String("label", "", "name to save the snapshot under")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if *label == "" {
		return errors.New("dump needs -label")
	}

	layout, err := a.openLayout()
	if err != nil {
		return err
	}
	defer layout.Close()

	store, err := openStore(a.cfg.Store, a.log)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	snapshot := namestore.Build(*label, layout.Layouts(), layout, keycodes.Keys(), time.Now())
	if err := store.SaveSnapshot(snapshot); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}

	a.log.Infow("saved snapshot", "label", *label, "keys", len(snapshot.Entries), "layouts", snapshot.Layouts)
	return nil
}

func (a *app) show(args []string) error {
	store, err := openStore(a.cfg.Store, a.log)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	if versioned, ok := store.(interface{ SchemaVersion() (uint, error) }); ok {
		version, err := versioned.SchemaVersion()
		if err != nil {
			return fmt.Errorf("check store schema: %w", err)
		}
		a.log.Debugw("opened store", "driver", a.cfg.Store.Driver, "schema", version)
	}

	return writeSnapshot(a.out, store, args)
}

func writeSnapshot(out io.Writer, store namestore.Store, args []string) error {
	if len(args) == 0 {
		labels, err := store.ListSnapshots()
		if err != nil {
			return fmt.Errorf("list snapshots: %w", err)
		}
		for _, label := range labels {
			fmt.Fprintln(out, label)
		}
		return nil
	}

	snapshot, err := store.GetSnapshot(args[0])
	if err != nil {
		return fmt.Errorf("get snapshot %q: %w", args[0], err)
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "# %s\t%s\t%v\n", snapshot.Label, snapshot.CreatedAt.Format(time.RFC3339), snapshot.Layouts)
	for _, e := range snapshot.Entries {
		fmt.Fprintf(w, "%d\t%s\t%s\n", e.Code, e.Key, e.Name)
	}
	return w.Flush()
}

func openStore(cfg config.Store, log *zap.SugaredLogger) (namestore.Store, error) {
	if cfg.Driver != "memory" {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0755); err != nil {
			return nil, fmt.Errorf("create store dir: %w", err)
		}
	}

	switch cfg.Driver {
	case "memory":
		return memory.NewStore(), nil
	case "json":
		return jsonstore.NewStore(cfg.Path)
	case "sqlite":
		return sqlite.NewStore(cfg.Path, log)
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
}

func (a *app) serve(ctx context.Context) error {
	layout, err := a.openLayout()
	if err != nil {
		return err
	}
	defer layout.Close()

	ln, err := listen(a.cfg.Server.Socket)
	if err != nil {
		return err
	}

	server := keyserver.NewServer(layout, a.log)
	a.log.Infow("started keynames", "socket", a.cfg.Server.Socket, "layouts", layout.Layouts())

	errChan := make(chan error, 2)
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		err := server.Serve(ctx, ln)
		if err != nil {
			errChan <- fmt.Errorf("serve: %w", err)
		}
	}()

	go func() {
		defer wg.Done()
		err := systemdNotifyLoop(ctx)
		if err != nil {
			errChan <- fmt.Errorf("systemd notify: %w", err)
		}
	}()

	err = <-errChan
	switch {
	case errors.Is(err, context.Canceled):
		a.log.Info("shutting down")
		wg.Wait()
		return nil
	case err != nil:
		return err
	}

	return nil
}

// listen replaces a socket left behind by a previous run.
func listen(path string) (net.Listener, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("create socket dir: %w", err)
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("remove stale socket: %w", err)
	}

	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen: %w", err)
	}
	return ln, nil
}

func (a *app) query(args []string) error {
	if len(args) == 0 {
		return errors.New("query needs at least one key code")
	}

	client, err := keyserver.Dial(a.cfg.Server.Socket)
	if err != nil {
		return fmt.Errorf("connect to server: %w", err)
	}
	defer client.Close()

	for _, arg := range args {
		name, err := client.Lookup(arg)
		if err != nil {
			return fmt.Errorf("lookup %s: %w", arg, err)
		}
		fmt.Fprintf(a.out, "%s\t%s\n", arg, name)
	}
	return nil
}

func systemdNotifyLoop(ctx context.Context) error {
	// tell systemd that we're ready
	supported, err := daemon.SdNotify(false, daemon.SdNotifyReady)
	if err != nil {
		return fmt.Errorf("notify systemd: %w", err)
	}
	if !supported {
		<-ctx.Done()
		return ctx.Err()
	}

	_, _ = daemon.SdNotify(false, "STATUS=Naming keys")

	t, err := daemon.SdWatchdogEnabled(false)
	if err != nil {
		return fmt.Errorf("check watchdog: %w", err)
	}
	if t == 0 {
		<-ctx.Done()
		return ctx.Err()
	}

	for {
		select {
		case <-ctx.Done():
			_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)
			return ctx.Err()

		case <-time.After(t / 2):
			_, err := daemon.SdNotify(false, daemon.SdNotifyWatchdog)
			if err != nil {
				return fmt.Errorf("notify watchdog: %w", err)
			}
		}
	}
}

func newLogger(debug bool) (*zap.SugaredLogger, error) {
	loggerConfig := zap.NewDevelopmentConfig()

	loggerConfig.OutputPaths = []string{"stderr"}
	loggerConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if debug {
		loggerConfig.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	} else {
		loggerConfig.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}

	logger, err := loggerConfig.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}

	return logger.Sugar(), nil
}
