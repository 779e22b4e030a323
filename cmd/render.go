package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/TFMV/cognilink/config"
	"github.com/TFMV/cognilink/models"
	"github.com/TFMV/cognilink/physics"
	"github.com/TFMV/cognilink/render"
)

// frameDT is the fixed layout step used for offline renders
const frameDT = 1.0 / 60

var (
	renderOut    string
	renderInput  string
	renderSelect string
	renderWatch  bool
)

var renderCmd = &cobra.Command{
	Use:   "render <graph-file>",
	Short: "Lay out a graph and render it as svg, ascii, json, drawlist or dot",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		if !renderWatch {
			return renderOnce(cmd.OutOrStdout(), path)
		}
		if renderOut == "" {
			return fmt.Errorf("--watch needs --out")
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return watchRender(ctx, cmd.OutOrStdout(), path)
	},
}

// renderJob is everything needed to render one graph file
type renderJob struct {
	Record   *models.GraphRecord
	Config   *config.Config
	Selected string
}

// renderGraph builds, settles and renders the job's graph
func renderGraph(job renderJob) ([]byte, int, error) {
	c := job.Config
	g, err := models.BuildRecord(job.Record, c.BuildOptions()...)
	if err != nil {
		return nil, 0, err
	}
	layout, err := c.NewLayout()
	if err != nil {
		return nil, 0, err
	}
	renderer, err := render.GetRenderer(c.Render.Format)
	if err != nil {
		return nil, 0, err
	}
	theme, err := c.Theme()
	if err != nil {
		return nil, 0, err
	}

	layout.Initialize(g)
	steps := physics.Settle(layout, c.Render.Steps, frameDT)

	opts := render.NewDefaultOptions(c.Render.Format)
	opts.Width = c.Render.Width
	opts.Height = c.Render.Height
	opts.Theme = theme
	opts.Padding = c.Render.Padding
	if job.Selected != "" {
		id, err := topicID(job.Record, job.Selected)
		if err != nil {
			return nil, 0, err
		}
		opts.Selected = models.Selected(id)
	}

	out, err := renderer.Render(g, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("%s render: %w", renderer.Name(), err)
	}
	return out, steps, nil
}

func renderOnce(stdout io.Writer, path string) error {
	rec, err := readRecord(path, renderInput)
	if err != nil {
		return err
	}
	start := time.Now()
	out, steps, err := renderGraph(renderJob{Record: rec, Config: cfg, Selected: renderSelect})
	if err != nil {
		return err
	}
	logger.Debug("rendered graph", "topics", rec.N, "steps", steps, "duration", time.Since(start))

	if renderOut == "" {
		_, err := stdout.Write(out)
		return err
	}
	if err := os.WriteFile(renderOut, out, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	fmt.Fprintf(stdout, "%s %s %s\n", statusIcon(true), Brand.Sprint(renderOut), Subtle.Sprintf("(%d topics, %d steps)", rec.N, steps))
	return nil
}

// watchRender re-renders whenever the graph file changes. Events are
// debounced since editors often write a file in several steps.
func watchRender(ctx context.Context, stdout io.Writer, path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := renderOnce(stdout, abs); err != nil {
		fmt.Fprintln(stdout, statusIcon(false), Bad.Sprint(err))
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	// watch the directory so renames from atomic saves are seen
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}
	fmt.Fprintln(stdout, Subtle.Sprintf("watching %s", path))

	var mu sync.Mutex
	var timer *time.Timer
	flush := func() {
		mu.Lock()
		defer mu.Unlock()
		if err := renderOnce(stdout, abs); err != nil {
			fmt.Fprintln(stdout, statusIcon(false), Bad.Sprint(err))
		}
	}

	for {
		select {
		case <-ctx.Done():
			mu.Lock()
			if timer != nil {
				timer.Stop()
			}
			mu.Unlock()
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs || ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			mu.Lock()
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(300*time.Millisecond, flush)
			mu.Unlock()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", "error", err)
		}
	}
}

func init() {
	rootCmd.AddCommand(renderCmd)
	f := renderCmd.Flags()
	f.StringVarP(&renderOut, "out", "o", "", "output file (default: stdout)")
	f.StringVar(&renderInput, "input-format", "", "input format: json, csv or edges (default: from extension)")
	f.StringVar(&renderSelect, "select", "", "topic label to highlight")
	f.BoolVarP(&renderWatch, "watch", "w", false, "re-render when the graph file changes")
	f.StringP("format", "f", "svg", "output format: svg, ascii, json, drawlist, dot")
	f.Float64("width", 800, "canvas width")
	f.Float64("height", 600, "canvas height")
	f.String("theme", "default", "theme name: default or light")
	f.String("theme-file", "", "TOML theme file")
	f.Int("steps", 3000, "maximum layout steps")

	_ = viper.BindPFlag("render.format", f.Lookup("format"))
	_ = viper.BindPFlag("render.width", f.Lookup("width"))
	_ = viper.BindPFlag("render.height", f.Lookup("height"))
	_ = viper.BindPFlag("render.theme", f.Lookup("theme"))
	_ = viper.BindPFlag("render.theme_file", f.Lookup("theme-file"))
	_ = viper.BindPFlag("render.steps", f.Lookup("steps"))
}
