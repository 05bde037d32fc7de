package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image/color"
	"image/png"
	"net/http"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"latentmap/internal/config"
	"latentmap/internal/geom"
	"latentmap/internal/logging"
	"latentmap/internal/scatter"
	"latentmap/internal/tui"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "latentmap:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("latentmap", flag.ContinueOnError)
	cfgPath := fs.String("config", "", "YAML config file")
	pngOut := fs.String("png", "", "render the input file to this PNG and exit")
	size := fs.Int("size", 1024, "PNG width and height in pixels")
	hulls := fs.Bool("hulls", true, "outline clusters in the PNG")
	logLevel := fs.String("log-level", "", "override log_level")
	metricsAddr := fs.String("metrics", "", "override metrics_addr")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		return err
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if *metricsAddr != "" {
		cfg.MetricsAddr = *metricsAddr
	}

	logger, closer, err := logging.Open(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	defer closer.Close()

	metrics := scatter.NewMetrics()
	if cfg.MetricsAddr != "" {
		srv := serveMetrics(cfg.MetricsAddr, metrics, logger)
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(ctx)
		}()
	}

	path := fs.Arg(0)
	if *pngOut != "" {
		return renderPNG(path, *pngOut, *size, *hulls, cfg, logger, metrics)
	}

	opts := tui.Options{
		Config:  cfg,
		Dark:    lipgloss.HasDarkBackground(),
		Logger:  logger,
		Metrics: metrics,
	}
	var m tea.Model
	if path != "" {
		m = tui.NewWithPath(opts, path)
	} else {
		m = tui.New(opts)
	}
	logger.Info().Str("path", path).Msg("starting terminal ui")
	_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseAllMotion()).Run()
	return err
}

func serveMetrics(addr string, m *scatter.Metrics, logger zerolog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info().Str("addr", addr).Msg("metrics listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("metrics server error")
		}
	}()
	return srv
}

// hullStroke is the cluster outline width in pixels before zoom scaling.
const hullStroke = 3

var hullColor = color.RGBA{0x7c, 0x3a, 0xed, 0xc0}

// renderPNG draws the dataset headlessly with the raster surface.
func renderPNG(in, out string, size int, hulls bool, cfg config.Config, logger zerolog.Logger, m *scatter.Metrics) error {
	if in == "" {
		return errors.New("-png needs an input file")
	}
	d, err := geom.Load(in)
	if err != nil {
		return err
	}
	d = d.Normalized()

	surf := scatter.NewRasterSurface(size, size)
	eng, err := scatter.Initialize(surf, size, size, cfg.Scatter(false), scatter.Callbacks{},
		scatter.WithLogger(logger), scatter.WithMetrics(m))
	if err != nil {
		return err
	}
	defer eng.Close()

	cats := make([]scatter.Category, d.Len())
	for i, gone := range d.Deleted {
		if gone {
			cats[i] = scatter.Hidden
		}
	}
	ps, err := eng.LoadPoints(d.Points, cats, d.Activation)
	if err != nil {
		return err
	}
	if !eng.Draw() {
		return fmt.Errorf("nothing to draw in %s", in)
	}
	if hulls {
		u := eng.Uniforms()
		width := eng.Mapper().StrokeWidth(hullStroke)
		for _, idx := range d.Hulls() {
			surf.StrokeHull(u, ps, idx, width, hullColor)
		}
	}

	f, err := os.Create(out)
	if err != nil {
		return err
	}
	if err := png.Encode(f, surf.Image()); err != nil {
		f.Close()
		return fmt.Errorf("encode png: %w", err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	logger.Info().Str("in", in).Str("out", out).Int("rows", d.Len()).Msg("rendered png")
	return nil
}
