package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/arnatngaw/portfolio/internal/analytics"
	"github.com/arnatngaw/portfolio/internal/config"
	"github.com/arnatngaw/portfolio/internal/content"
	"github.com/arnatngaw/portfolio/internal/nav"
)

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:          "portfolio",
		Short:        "Serve the portfolio site",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), configPath)
		},
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default portfolio.yaml if present)")

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), configPath)
		},
	})
	root.AddCommand(newSectionsCmd(&configPath))
	return root
}

func runServe(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log := newLogger(os.Stdout, cfg.Log)
	gin.SetMode(cfg.GinMode)

	site, err := content.Load(cfg.ContentPath)
	if err != nil {
		return err
	}
	store, err := analytics.Open(cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer store.Close()

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := newServer(cfg, log, site, store, newRelay(cfg))
	go srv.janitor(ctx, time.Hour)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv.routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		log.Info("shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	log.Info("starting portfolio", "port", cfg.Port, "relay", cfg.Contact.Relay)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}

// janitor drops idle contact forms and expired visitor rows.
func (s *server) janitor(ctx context.Context, every time.Duration) {
	s.admin.cleanup(ctx)

	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.sessions.Sweep(s.cfg.Contact.SessionTTL); n > 0 {
				s.log.Debug("swept contact sessions", "removed", n)
			}
			s.admin.cleanup(ctx)
		}
	}
}

func newSectionsCmd(configPath *string) *cobra.Command {
	var (
		y, vh   float64
		anchors map[string]string
	)

	cmd := &cobra.Command{
		Use:   "sections",
		Short: "List navigation sections and show which one a scroll position highlights",
		Example: `  portfolio sections
  portfolio sections --y 700 --vh 900 --anchor home=0,skills=800,contact=1600`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			site, err := content.Load(cfg.ContentPath)
			if err != nil {
				return err
			}

			layout := nav.Layout{Offset: y, Viewport: vh, Anchors: map[string]float64{}}
			for id, raw := range anchors {
				var top float64
				if _, err := fmt.Sscan(raw, &top); err != nil {
					return fmt.Errorf("anchor %s: %w", id, err)
				}
				layout.Anchors[id] = top
			}
			return printSections(cmd.OutOrStdout(), site.Registry(), layout)
		},
	}
	cmd.Flags().Float64Var(&y, "y", 0, "scroll offset")
	cmd.Flags().Float64Var(&vh, "vh", 0, "viewport height")
	cmd.Flags().StringToStringVar(&anchors, "anchor", nil, "anchor offsets as id=top")
	return cmd
}

var (
	activeStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

func printSections(w io.Writer, reg *nav.Registry, layout nav.Layout) error {
	active := nav.NewTracker(reg, layout).Handle(layout.Sample())
	fmt.Fprintf(w, "trigger line: %.0f\n", layout.Sample().TriggerLine())

	for i, sec := range reg.Sections() {
		top := "-"
		if t, ok := layout.AnchorTop(sec.ID); ok {
			top = fmt.Sprintf("%.0f", t)
		}
		line := fmt.Sprintf("%d. %-10s %-12s %s", i+1, sec.ID, sec.Label, top)
		if sec.ID == active {
			fmt.Fprintln(w, activeStyle.Render("> "+line))
		} else {
			fmt.Fprintln(w, mutedStyle.Render("  "+line))
		}
	}
	return nil
}
