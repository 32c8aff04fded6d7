package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/vanderheijden86/tspview/internal/cityform"
	"github.com/vanderheijden86/tspview/internal/datasource"
	"github.com/vanderheijden86/tspview/pkg/config"
	"github.com/vanderheijden86/tspview/pkg/debug"
	"github.com/vanderheijden86/tspview/pkg/export"
	"github.com/vanderheijden86/tspview/pkg/hooks"
	"github.com/vanderheijden86/tspview/pkg/interact"
	"github.com/vanderheijden86/tspview/pkg/metrics"
	"github.com/vanderheijden86/tspview/pkg/model"
	"github.com/vanderheijden86/tspview/pkg/result"
	"github.com/vanderheijden86/tspview/pkg/scene"
	"github.com/vanderheijden86/tspview/pkg/transport"
	"github.com/vanderheijden86/tspview/pkg/ui"
	"github.com/vanderheijden86/tspview/pkg/version"
	"github.com/vanderheijden86/tspview/pkg/watcher"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
)

// Defaults for headless collection.
const (
	defaultSettle  = 2 * time.Second
	defaultTimeout = 60 * time.Second
	submitTimeout  = 15 * time.Second
)

type cliOptions struct {
	configPath string
	citiesPath string
	form       bool
	endpoint   string
	response   string
	snapshot   string
	settle     time.Duration
	timeout    time.Duration
	watch      bool
	noHooks    bool
	stats      bool
	version    bool
	help       bool
}

func parseFlags(args []string, stderr io.Writer) (cliOptions, *flag.FlagSet, error) {
	var o cliOptions
	fs := flag.NewFlagSet("tspview", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.configPath, "config", "", "Config file (default $XDG_CONFIG_HOME/tspview/config.yaml)")
	fs.StringVar(&o.citiesPath, "cities", "", "Cities file to submit (.yaml, .json or .jsonl)")
	fs.BoolVar(&o.form, "form", false, "Enter cities interactively")
	fs.StringVar(&o.endpoint, "endpoint", "", "Optimizer WebSocket URL (overrides config and TSPVIEW_ENDPOINT)")
	fs.StringVar(&o.response, "response", "", "Render a saved response (.json, or the last line of a .jsonl stream)")
	fs.StringVar(&o.snapshot, "snapshot", "", "Write an SVG or PNG snapshot and exit instead of opening the viewer")
	fs.DurationVar(&o.settle, "settle", defaultSettle, "With -snapshot: stop collecting after this long without a new solution")
	fs.DurationVar(&o.timeout, "timeout", defaultTimeout, "With -snapshot: give up waiting for a first solution after this long")
	fs.BoolVar(&o.watch, "watch", false, "Reload and resubmit the cities file when it changes")
	fs.BoolVar(&o.noHooks, "no-hooks", false, "With -snapshot: skip the hooks in .tspview/hooks.yaml")
	fs.BoolVar(&o.stats, "stats", false, "Print timing statistics on exit")
	fs.BoolVar(&o.version, "version", false, "Show version")
	fs.BoolVar(&o.help, "help", false, "Show help")
	if err := fs.Parse(args); err != nil {
		return o, fs, err
	}

	switch {
	case o.watch && o.citiesPath == "":
		return o, fs, errors.New("-watch requires -cities")
	case o.form && o.citiesPath != "":
		return o, fs, errors.New("-form and -cities are mutually exclusive")
	case o.settle <= 0 || o.timeout <= 0:
		return o, fs, errors.New("-settle and -timeout must be positive")
	}
	return o, fs, nil
}

func main() {
	// a missing .env is the normal case
	_ = godotenv.Load()

	opts, fs, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	if opts.help {
		fmt.Println("Usage: tspview [options]")
		fmt.Println("\nLive viewer for vehicle routing solutions streamed by the route optimizer.")
		fs.PrintDefaults()
		os.Exit(0)
	}
	if opts.version {
		fmt.Printf("tspview %s\n", version.Version)
		os.Exit(0)
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if opts.snapshot != "" {
		err = runSnapshot(ctx, opts, cfg, os.Stdout)
	} else {
		err = runViewer(ctx, opts, cfg)
	}
	if opts.stats {
		printStats(os.Stderr)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig(opts cliOptions) (config.Config, error) {
	if opts.configPath == "" {
		cfg, err := config.Load()
		if err != nil {
			return cfg, err
		}
		return withEndpoint(cfg, opts.endpoint)
	}
	cfg, err := config.LoadFrom(opts.configPath)
	if err != nil {
		return cfg, err
	}
	cfg.ApplyEnv(os.Getenv)
	return withEndpoint(cfg, opts.endpoint)
}

func withEndpoint(cfg config.Config, endpoint string) (config.Config, error) {
	if endpoint != "" {
		cfg.Endpoint = endpoint
	}
	debug.Dump("config", cfg)
	return cfg, cfg.Validate()
}

// loadCities returns the cities to submit, or nil when rendering a saved
// response without them.
func loadCities(opts cliOptions) ([]model.City, error) {
	switch {
	case opts.citiesPath != "":
		return datasource.LoadCities(opts.citiesPath)
	case opts.form:
		return cityform.Run(os.Stderr, nil)
	}
	return nil, nil
}

func surfaceOptions(cfg config.Config) (scene.Options, error) {
	return cfg.SceneOptions(float64(cfg.Surface.Width), float64(cfg.Surface.Height))
}

// runSnapshot renders one solution to opts.snapshot and prints its legend.
func runSnapshot(ctx context.Context, opts cliOptions, cfg config.Config, stdout io.Writer) error {
	cities, err := loadCities(opts)
	if err != nil {
		return err
	}
	sceneOpts, err := surfaceOptions(cfg)
	if err != nil {
		return err
	}

	var resp model.Response
	switch {
	case opts.response != "":
		if resp, err = datasource.LoadResponse(opts.response); err != nil {
			return err
		}
	case len(cities) > 0:
		client := transport.NewClient(cfg.Endpoint)
		defer client.Close()

		submitCtx, cancel := context.WithTimeout(ctx, min(opts.timeout, submitTimeout))
		err := client.Start(submitCtx, cities, cfg.Solver)
		cancel()
		if err != nil {
			return fmt.Errorf("submit: %w", err)
		}
		var n int
		if resp, n, err = collect(ctx, client.Results(), opts.timeout, opts.settle); err != nil {
			return err
		}
		debug.Log("snapshot: settled after %d responses", n)
	default:
		return errors.New("-snapshot needs -cities, -form or -response")
	}

	sc := buildScene(cities, resp, sceneOpts)
	format, path, err := export.ResolveFormat("", opts.snapshot)
	if err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	hookDir, _ := os.Getwd()
	executor, err := hooks.RunHooks(hookDir, hooks.ExportContext{
		ExportPath:   path,
		ExportFormat: format,
		Generation:   resp.Generation,
		RouteCount:   len(sc.Routes),
		Timestamp:    time.Now(),
	}, opts.noHooks)
	if err != nil {
		return fmt.Errorf("hooks: %w", err)
	}
	if executor != nil {
		if err := executor.RunPreExport(); err != nil {
			return fmt.Errorf("export cancelled: %w", err)
		}
	}

	if err := export.SaveSnapshot(export.SnapshotOptions{
		Path:   path,
		Format: format,
		Title:  fmt.Sprintf("Generation %d", resp.Generation),
		Scene:  sc,
		State:  interact.Idle(),
	}); err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}

	if executor != nil {
		// the snapshot is kept even if a post-export hook fails
		if err := executor.RunPostExport(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
		fmt.Fprintln(os.Stderr, executor.Summary())
	}

	fmt.Fprintf(stdout, "Generation %d  best distance %.2f  fitness %.4f\n",
		resp.Generation, resp.BestDistance.Float64(), resp.BestFitness.Float64())
	fmt.Fprint(stdout, export.FormatLegend(sc.Legend))
	return nil
}

// buildScene uses the submitted cities as the point set when there are any,
// and the cities seen in the response otherwise.
func buildScene(cities []model.City, resp model.Response, opts scene.Options) *scene.Scene {
	points := model.CityPoints(cities)
	if len(points) == 0 {
		points = model.PointsFromResponse(resp)
	}
	return scene.Build(points, resp.Solution.Routes(), opts)
}

// collect reads responses until none arrives for settle, returning the last
// one and how many were seen. firstWait bounds only the wait for the first
// response; once one has arrived, collection ends on settle, on ctx or when
// results closes.
func collect(ctx context.Context, results <-chan model.Response, firstWait, settle time.Duration) (model.Response, int, error) {
	var last model.Response
	n := 0
	first := time.NewTimer(firstWait)
	defer first.Stop()
	quiet := time.NewTimer(settle)
	defer quiet.Stop()

	for {
		var settled, expired <-chan time.Time
		if n > 0 {
			settled = quiet.C
		} else {
			expired = first.C
		}
		select {
		case <-ctx.Done():
			if n > 0 {
				return last, n, nil
			}
			return last, 0, fmt.Errorf("no solution received: %w", ctx.Err())
		case <-expired:
			return last, 0, fmt.Errorf("no solution received within %v", firstWait)
		case resp, ok := <-results:
			if !ok {
				if n > 0 {
					return last, n, nil
				}
				return last, 0, errors.New("connection closed before a solution arrived")
			}
			last = resp
			n++
			quiet.Reset(settle)
		case <-settled:
			return last, n, nil
		}
	}
}

// runViewer runs the terminal UI next to the solution feed and, in
// watch mode, the file watcher. The first goroutine to finish ends them all.
func runViewer(ctx context.Context, opts cliOptions, cfg config.Config) error {
	cities, err := loadCities(opts)
	if err != nil {
		return err
	}
	exportOpts, err := surfaceOptions(cfg)
	if err != nil {
		return err
	}
	var saved *model.Response
	if opts.response != "" {
		resp, err := datasource.LoadResponse(opts.response)
		if err != nil {
			return err
		}
		saved = &resp
	}
	if len(cities) == 0 && saved == nil {
		return errors.New("nothing to show: pass -cities, -form or -response")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// the holder replays the latest solution to the UI once it subscribes
	latest := &result.Holder[model.Response]{}
	if saved != nil {
		latest.Set(*saved)
	}
	client := transport.NewClient(cfg.Endpoint, transport.WithHolder(latest))
	defer client.Close()

	var prog *tea.Program
	send := func(msg tea.Msg) {
		if prog != nil {
			prog.Send(msg)
		}
	}

	machine := interact.New(
		interact.WithTTL(cfg.Interaction.SelectionTTL),
		interact.WithOnExpire(func(interact.State) { send(ui.SelectionExpiredMsg{}) }),
	)
	submit := func(c []model.City) error {
		sctx, scancel := context.WithTimeout(ctx, submitTimeout)
		defer scancel()
		return client.Start(sctx, c, cfg.Solver)
	}
	exportDir, _ := os.Getwd()
	m := ui.New(ui.Options{
		Cities:    cities,
		Submit:    submit,
		Machine:   machine,
		Palette:   exportOpts.Palette,
		Export:    exportOpts,
		ExportDir: exportDir,
		Endpoint:  cfg.Endpoint,
	})
	// the program runs on the group context so a failing worker closes the UI
	g, gctx := errgroup.WithContext(ctx)
	prog = tea.NewProgram(m,
		tea.WithAltScreen(),
		tea.WithMouseAllMotion(),
		tea.WithContext(gctx),
	)
	g.Go(func() error {
		defer cancel()
		return runProgram(prog)
	})

	if len(cities) > 0 {
		g.Go(func() error {
			if err := submit(cities); err != nil {
				send(ui.ErrorMsg{Err: fmt.Errorf("submit: %w", err)})
			}
			return nil
		})
	}

	g.Go(func() error {
		unsubscribe := latest.Subscribe(func(resp model.Response) {
			send(ui.SolutionMsg{Response: resp})
		})
		defer unsubscribe()
		<-gctx.Done()
		return nil
	})

	if opts.watch {
		w, err := watcher.New(opts.citiesPath,
			watcher.WithOnError(func(err error) {
				send(ui.ErrorMsg{Err: fmt.Errorf("watch %s: %w", filepath.Base(opts.citiesPath), err)})
			}),
		)
		if err != nil {
			return err
		}
		g.Go(func() error { return w.Run(gctx) })
		g.Go(func() error {
			for {
				select {
				case <-gctx.Done():
					return nil
				case <-w.Changed():
					reloaded, err := datasource.LoadCities(opts.citiesPath)
					if err != nil {
						send(ui.ErrorMsg{Err: err})
						continue
					}
					send(ui.CitiesMsg{Cities: reloaded})
				}
			}
		})
	}

	return g.Wait()
}

// runProgram runs p until the user quits or its context ends. Both are a
// clean exit; the error that ended the context is reported by the group.
func runProgram(p *tea.Program) error {
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) || errors.Is(err, tea.ErrInterrupted) {
		return nil
	}
	return err
}

func printStats(w io.Writer) {
	stats := metrics.AllTimingStats()
	if len(stats) == 0 {
		fmt.Fprintln(w, "No timing samples recorded.")
		return
	}
	fmt.Fprintf(w, "%-16s %8s %10s %10s %10s\n", "metric", "count", "total ms", "avg ms", "max ms")
	for _, s := range stats {
		fmt.Fprintf(w, "%-16s %8d %10.2f %10.3f %10.3f\n", s.Name, s.Count, s.TotalMs, s.AvgMs, s.MaxMs)
	}
}
