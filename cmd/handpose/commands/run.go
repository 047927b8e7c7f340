package commands

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"gocv.io/x/gocv"

	"github.com/ayusman/handpose/internal/app"
	"github.com/ayusman/handpose/internal/capture"
	"github.com/ayusman/handpose/internal/detector"
	"github.com/ayusman/handpose/internal/gesture"
	"github.com/ayusman/handpose/internal/render"
	"github.com/ayusman/handpose/internal/server"
	"github.com/ayusman/handpose/internal/store"
	"github.com/ayusman/handpose/internal/tray"
)

func runCmd() *cobra.Command {
	var (
		listen  string
		preview bool
		noTray  bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the detection loop and the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if listen != "" {
				cfg.Listen = listen
			}
			// The preview window and the tray both need the main thread.
			useTray := cfg.Tray && !noTray && !preview
			return run(cmd.Context(), preview, useTray)
		},
	}

	cmd.Flags().StringVarP(&listen, "listen", "l", "", "HTTP listen address (default from config)")
	cmd.Flags().BoolVar(&preview, "preview", false, "show the overlay in an OpenCV window")
	cmd.Flags().BoolVar(&noTray, "no-tray", false, "do not show the system tray menu")
	return cmd
}

func run(parent context.Context, preview, useTray bool) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	templates, err := app.LoadTemplates(st)
	if err != nil {
		return err
	}

	est, err := detector.NewMediaPipeEstimator(cfg.DetectorConfig())
	if err != nil {
		return fmt.Errorf("failed to create estimator: %w", err)
	}

	camera := capture.NewCamera(cfg.CameraConfig())

	var surface render.Surface
	if preview {
		w, h := camera.Dimensions()
		mat := render.NewMatSurface(w, h)
		defer mat.Close()
		surface = mat
	}

	a, err := app.New(app.Config{
		Source:       camera,
		Estimator:    est,
		Classifier:   gesture.NewClassifier(templates, cfg.Threshold),
		Surface:      surface,
		PollInterval: cfg.Interval(),
	})
	if err != nil {
		return err
	}
	a.SetEnabled(st.Settings().GetBool(store.SettingEnabled, true))

	srv := &http.Server{
		Addr: cfg.Listen,
		Handler: server.New(server.Config{
			StaticDir: findWebDir(),
			Store:     st,
			Pipeline:  a,
		}),
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Printf("Starting server on %s", cfg.Listen)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Server failed: %v", err)
			stop()
		}
	}()

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
		}
		wg.Wait()
	}()

	if err := a.Start(ctx); err != nil {
		return err
	}
	defer a.Stop()

	go logGestures(a)

	switch {
	case preview:
		showPreview(ctx, a)
	case useTray:
		runTray(ctx, stop, a, st)
	default:
		<-ctx.Done()
	}

	log.Println("Shutting down")
	return nil
}

// logGestures logs each change of the recognised gesture.
func logGestures(a *app.App) {
	detections, unsubscribe := a.Subscribe()
	defer unsubscribe()

	last := ""
	for d := range detections {
		name := ""
		if d.Gesture != nil {
			name = d.Gesture.Name
		}
		if name == last {
			continue
		}
		last = name
		if d.Gesture != nil {
			log.Printf("Gesture: %s %s (%.1f)", d.Gesture.Emoji, d.Gesture.Name, d.Gesture.Score)
		} else {
			log.Printf("Gesture: none")
		}
	}
}

// showPreview displays the overlay until ctx is done or the window is closed.
func showPreview(ctx context.Context, a *app.App) {
	window := gocv.NewWindow("handpose")
	defer window.Close()

	for ctx.Err() == nil && window.IsOpen() {
		if img, ok := a.Overlay(); ok {
			mat, err := gocv.ImageToMatRGB(img)
			if err == nil {
				window.IMShow(mat)
				mat.Close()
			}
		}
		if window.WaitKey(int(cfg.Interval()/time.Millisecond)) == 27 { // Esc
			return
		}
	}
}

// runTray shows the tray menu until quit or ctx is done.
func runTray(ctx context.Context, stop context.CancelFunc, a *app.App, st *store.Store) {
	t := tray.New(a.IsEnabled())
	t.OnToggle(func(enabled bool) {
		a.SetEnabled(enabled)
		if err := st.Settings().SetBool(store.SettingEnabled, enabled); err != nil {
			log.Printf("Error saving setting %s: %v", store.SettingEnabled, err)
		}
	})
	t.OnOpen(func() {
		log.Printf("Overlay available at http://%s/api/overlay/stream", displayAddr(cfg.Listen))
	})
	t.OnQuit(stop)

	detections, unsubscribe := a.Subscribe()
	defer unsubscribe()
	go t.Follow(detections)

	go func() {
		<-ctx.Done()
		t.Quit()
	}()

	t.Run()
}

func displayAddr(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "localhost" + addr
	}
	return addr
}

// findWebDir searches for the web directory in common locations.
// It checks "web", "../web" and the data directory.
// Returns the first existing directory or empty string if none found.
func findWebDir() string {
	candidates := []string{"web", "../web", filepath.Join(cfg.DataDir, "web")}
	for _, p := range candidates {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if abs, err := filepath.Abs(p); err == nil {
				return abs
			}
			return p
		}
	}
	return ""
}
