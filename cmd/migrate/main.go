// Command migrate manages the postgres schema of the retail engine.
package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	_ "github.com/lib/pq"
	"github.com/retailops/backend/internal/infrastructure/config"
	"github.com/retailops/backend/internal/infrastructure/logger"
	"github.com/retailops/backend/internal/infrastructure/migration"
	"go.uber.org/zap"
)

var errUsage = errors.New("usage")

// invocation is what a subcommand gets to work with. migrator is nil for
// commands that do not touch the database.
type invocation struct {
	args     []string
	dir      string
	log      *zap.Logger
	migrator *migration.Migrator
}

func (in invocation) arg(i int, what string) (string, error) {
	if i >= len(in.args) {
		return "", fmt.Errorf("%w: %s required", errUsage, what)
	}
	return in.args[i], nil
}

type subcommand struct {
	usage   string
	offline bool
	run     func(invocation) error
}

var subcommands = map[string]subcommand{
	"up": {usage: "up                    apply every pending migration", run: func(in invocation) error {
		return in.migrator.Up()
	}},
	"down": {usage: "down                  roll back every migration", run: func(in invocation) error {
		return in.migrator.Down()
	}},
	"step": {usage: "step <n>              apply n migrations; negative rolls back", run: func(in invocation) error {
		raw, err := in.arg(0, "step count")
		if err != nil {
			return err
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("%w: step count %q is not an integer", errUsage, raw)
		}
		return in.migrator.Steps(n)
	}},
	"goto": {usage: "goto <version>        migrate up or down to version", run: func(in invocation) error {
		raw, err := in.arg(0, "version")
		if err != nil {
			return err
		}
		v, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			return fmt.Errorf("%w: version %q is not a number", errUsage, raw)
		}
		return in.migrator.GoTo(uint(v))
	}},
	"version": {usage: "version               print the applied version", run: func(in invocation) error {
		v, dirty, err := in.migrator.Version()
		if err != nil {
			return err
		}
		if v == 0 {
			in.log.Info("No migrations applied")
			return nil
		}
		in.log.Info("Schema version", zap.Uint("version", v), zap.Bool("dirty", dirty))
		return nil
	}},
	"force": {usage: "force <version>       set the version and clear the dirty flag", run: func(in invocation) error {
		raw, err := in.arg(0, "version")
		if err != nil {
			return err
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("%w: version %q is not a number", errUsage, raw)
		}
		in.log.Warn("Forcing schema version", zap.Int("version", v))
		return in.migrator.Force(v)
	}},
	"create": {usage: "create <name> [desc]  write a new up/down pair (needs -path)", offline: true, run: create},
	"list":   {usage: "list                  print the known migrations", offline: true, run: list},
}

func create(in invocation) error {
	if in.dir == "" {
		return fmt.Errorf("%w: create writes files and needs -path", errUsage)
	}
	name, err := in.arg(0, "migration name")
	if err != nil {
		return err
	}
	desc, _ := in.arg(1, "")
	mf, err := migration.CreateMigration(in.dir, name, desc)
	if err != nil {
		return err
	}
	in.log.Info("Migration created",
		zap.Uint("version", mf.Version),
		zap.String("up", mf.UpPath),
		zap.String("down", mf.DownPath),
	)
	return nil
}

func list(in invocation) error {
	src := migration.Embedded()
	if in.dir != "" {
		src = os.DirFS(in.dir)
	}
	found, err := migration.ListMigrations(src)
	if err != nil {
		return err
	}
	in.log.Info("Migrations", zap.Int("count", len(found)))
	for _, m := range found {
		fmt.Println("  -", m)
	}
	return nil
}

func main() {
	dir := flag.String("path", "", "migrations directory (default: the set compiled into the binary)")
	level := flag.String("log-level", "info", "debug, info, warn or error")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() == 0 {
		usage()
		os.Exit(2)
	}
	name := flag.Arg(0)
	cmd, ok := subcommands[name]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", name)
		usage()
		os.Exit(2)
	}

	log, err := logger.New(&logger.Config{Level: *level, Format: "console", TimeFormat: "15:04:05"})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	in := invocation{args: flag.Args()[1:], log: log}
	if *dir != "" {
		if in.dir, err = filepath.Abs(*dir); err != nil {
			log.Fatal("Bad migrations path", zap.Error(err))
		}
	}

	if !cmd.offline {
		m, closeDB, err := open(in.dir, log)
		if err != nil {
			log.Fatal("Cannot open migrator", zap.Error(err))
		}
		defer closeDB()
		in.migrator = m
	}

	if err := cmd.run(in); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprintf(os.Stderr, "%v\n\n", err)
			usage()
			os.Exit(2)
		}
		log.Fatal("Migration command failed", zap.String("command", name), zap.Error(err))
	}
}

// open connects with the server's configuration. Only postgres is
// migrated; sqlite schemas come from the models at server start.
func open(dir string, log *zap.Logger) (*migration.Migrator, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if cfg.Database.Driver != config.DriverPostgres {
		return nil, nil, fmt.Errorf("driver %s has no migrations; use database.migrate_on_start", cfg.Database.Driver)
	}
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return nil, nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("ping %s:%d: %w", cfg.Database.Host, cfg.Database.Port, err)
	}
	m, err := migration.New(db, dir, log)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return m, func() { _ = m.Close() }, nil
}

func usage() {
	out := flag.CommandLine.Output()
	fmt.Fprintln(out, "Usage: migrate [flags] <command> [args]")
	fmt.Fprintln(out, "\nCommands:")
	names := make([]string, 0, len(subcommands))
	for n := range subcommands {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		fmt.Fprintln(out, "  "+subcommands[n].usage)
	}
	fmt.Fprintln(out, "\nFlags:")
	flag.PrintDefaults()
	fmt.Fprintln(out, "\nThe database comes from config.toml or RETAIL_CONFIG and RETAIL_DATABASE_* variables.")
}
