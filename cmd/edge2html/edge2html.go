package main

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/alecthomas/kong"

	"github.com/jarstone/edge2html/internal/builder"
	"github.com/jarstone/edge2html/internal/directive"
	"github.com/jarstone/edge2html/internal/edge"
	"github.com/jarstone/edge2html/internal/elog"
	"github.com/jarstone/edge2html/internal/server"
	"github.com/jarstone/edge2html/internal/sitepath"
	"github.com/jarstone/edge2html/internal/vars"
	"github.com/jarstone/edge2html/pkg/config"
)

var CLI struct {
	SrcDir  string `arg:"" optional:"" help:"Source directory."`
	DestDir string `arg:"" optional:"" help:"Destination directory."`

	Build  bool `help:"Render every page once and exit."`
	Dev    bool `help:"Watch the source tree and rebuild on change."`
	Serve  bool `help:"Serve the destination tree with live reload (implies --dev)."`
	Minify bool `help:"Minify build output instead of beautifying it."`

	Port       int    `short:"p" help:"Dev server port."`
	ConfigFile string `short:"c" help:"Configuration file path (optional)."`
	Verbose    int    `short:"v" type:"counter" help:"Print verbose output."`
}

func main() {
	kong.Parse(&CLI,
		kong.Name("edge2html"),
		kong.Description("Renders .edge templates into a static HTML tree."),
		kong.UsageOnError(),
	)

	if err := config.Init(CLI.ConfigFile); err != nil {
		elog.Fatal("msg", "Configuration failed", "err", err)
	}

	applyVerbose(CLI.Verbose)
	elog.Dump("config", config.Config)

	if err := run(context.Background()); err != nil {
		os.Exit(1)
	}
}

func applyVerbose(v int) {
	switch {
	case v == 1:
		elog.SetLevel("debug")
	case v > 1:
		elog.SetLevel("all")
	case config.Config.LogLevel != "":
		elog.SetLevel(config.Config.LogLevel)
	default:
		elog.SetLevel("info")
	}
}

func run(ctx context.Context) error {
	cfg := config.Config

	srcDir := CLI.SrcDir
	if srcDir == "" {
		srcDir = cfg.SrcDir
	}
	destDir := CLI.DestDir
	if destDir == "" {
		destDir = cfg.DestDir
	}

	// No mode flag means one build pass; --serve implies watching.
	build := CLI.Build || (!CLI.Dev && !CLI.Serve)
	dev := CLI.Dev || CLI.Serve

	m := sitepath.Mapper{SrcDir: srcDir, DestDir: destDir, Ext: cfg.TemplateExt}
	store := vars.NewStore(filepath.Join(srcDir, cfg.DataFile))
	engine := &edge.Engine{SrcDir: srcDir, Ext: cfg.TemplateExt}
	fetcher := directive.NewHTTPFetcher(time.Duration(cfg.FetchTimeoutSecs) * time.Second)

	base := directive.Pipeline{
		&directive.SVGInclude{Fetch: fetcher},
		&directive.TextInclude{Fetch: fetcher},
	}

	if build {
		post := append(directive.Pipeline{}, base...)
		if CLI.Minify {
			post = append(post, directive.NewMinify())
		} else {
			post = append(post, directive.Beautify{})
		}

		b := &builder.Builder{
			Map:         m,
			Data:        store,
			Engine:      engine,
			Post:        post,
			DataFile:    cfg.DataFile,
			Concurrency: cfg.RenderConcurrency,
		}
		if err := b.Build(ctx); err != nil {
			if !dev {
				return err
			}
			elog.Warn("msg", "Initial build failed", "err", err)
		}
	}

	if !dev {
		return nil
	}

	b := &builder.Builder{
		Map:         m,
		Data:        store,
		Engine:      engine,
		Post:        base,
		DataFile:    cfg.DataFile,
		Concurrency: cfg.RenderConcurrency,
	}

	if !build {
		if err := store.Load(); err != nil {
			elog.Warn("msg", "Vars file unavailable, rendering with empty vars", "err", err)
		}
	}

	if CLI.Serve {
		port := CLI.Port
		if port <= 0 {
			port = cfg.ServeConfig.Port
		}
		srv := server.New(destDir, strconv.Itoa(port), cfg.ServeConfig.Redirect404)
		b.AfterBatch = srv.TriggerReload
		go func() {
			elog.FatalIf(srv.Start())
		}()
	}

	return b.Watch(ctx, time.Duration(cfg.DebounceMs)*time.Millisecond)
}
