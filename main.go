// Command hullworld builds, stores and serves worlds of convex solids.
//
// Usage:
//
//	hullworld [-config file] <command> [flags] [args]
//
// Commands:
//
//	eval      evaluate a world script
//	watch     re-evaluate a world script whenever it changes
//	export    write a stored world as JSON or STL
//	import    store a serialized world file
//	list      list stored worlds
//	delete    delete a stored world
//	demo      store the starter world
//	validate  check a stored world or world file
//	serve     serve stored worlds over HTTP
//	config    write the default configuration
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chazu/hullworld/pkg/config"
	"github.com/chazu/hullworld/pkg/server"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("hullworld: ")

	configPath := flag.String("config", os.Getenv("HULLWORLD_CONFIG"), "configuration file")
	flag.Usage = usage
	flag.Parse()
	if flag.NArg() == 0 {
		usage()
		os.Exit(2)
	}

	cmd, args := flag.Arg(0), flag.Args()[1:]
	if cmd == "config" {
		if err := runConfig(args); err != nil {
			log.Fatal(err)
		}
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal(err)
	}
	logger := cfg.Log.NewLogger(os.Stderr)
	app := NewApp(cfg, logger, os.Stdout)
	defer app.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, app, cmd, args); err != nil {
		app.Close()
		log.Fatal(err)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `usage: hullworld [-config file] <command> [flags] [args]

commands:
  eval [-save name] [-meshes file] script
  watch [-save name] script
  export [-format json|stl] name|file output
  import name file
  list
  delete name
  demo [-terrain] [name]
  validate name|file
  serve [-addr host:port]
  config [file]

flags:
`)
	flag.PrintDefaults()
}

func run(ctx context.Context, app *App, cmd string, args []string) error {
	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	switch cmd {
	case "eval":
		save := fs.String("save", "", "store the world under this name")
		meshes := fs.String("meshes", "", "write meshes as JSON to this file")
		fs.Parse(args)
		if fs.NArg() != 1 {
			return errors.New("eval: expected one script")
		}
		return app.EvalFile(ctx, fs.Arg(0), *save, *meshes)

	case "watch":
		save := fs.String("save", "", "store the world under this name after each change")
		fs.Parse(args)
		if fs.NArg() != 1 {
			return errors.New("watch: expected one script")
		}
		return app.Watch(ctx, fs.Arg(0), *save)

	case "export":
		format := fs.String("format", "", "json or stl (default from the output extension)")
		fs.Parse(args)
		if fs.NArg() != 2 {
			return errors.New("export: expected a world and an output file")
		}
		return app.Export(ctx, fs.Arg(0), fs.Arg(1), *format)

	case "import":
		fs.Parse(args)
		if fs.NArg() != 2 {
			return errors.New("import: expected a name and a file")
		}
		return app.Import(ctx, fs.Arg(0), fs.Arg(1))

	case "list":
		fs.Parse(args)
		return app.List(ctx)

	case "delete":
		fs.Parse(args)
		if fs.NArg() != 1 {
			return errors.New("delete: expected one name")
		}
		return app.Delete(ctx, fs.Arg(0))

	case "demo":
		terrain := fs.Bool("terrain", false, "add rolling terrain under the starter cubes")
		fs.Parse(args)
		name := "demo"
		if fs.NArg() > 0 {
			name = fs.Arg(0)
		}
		return app.Demo(ctx, name, *terrain)

	case "validate":
		fs.Parse(args)
		if fs.NArg() != 1 {
			return errors.New("validate: expected a world name or file")
		}
		return app.Validate(ctx, fs.Arg(0))

	case "serve":
		addr := fs.String("addr", app.cfg.Server.Addr(), "listen address")
		fs.Parse(args)
		return serve(ctx, app, *addr)

	default:
		usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func runConfig(args []string) error {
	path := "hullworld.yaml"
	if len(args) > 0 {
		path = args[0]
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config: %s already exists", path)
	}
	if err := config.WriteDefault(path); err != nil {
		return err
	}
	log.Printf("wrote default configuration to %s", path)
	return nil
}

// serve runs the HTTP server until ctx is canceled.
func serve(ctx context.Context, app *App, addr string) error {
	st, err := app.Store()
	if err != nil {
		return err
	}
	srv := server.New(server.Config{
		Store:          st,
		Engine:         app.engine,
		Kernel:         app.kernel,
		HighlightRoots: app.cfg.Mesh.HighlightRoots,
		WorldOptions:   app.cfg.WorldOptions(nil),
		Logger:         app.logger,
	})

	errc := make(chan error, 1)
	go func() { errc <- srv.Listen(addr) }()
	log.Printf("serving %s worlds on http://%s", app.cfg.Store.Backend, addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
