package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"

	"github.com/ayusman/fretwise/internal/app"
	"github.com/ayusman/fretwise/internal/capture"
	"github.com/ayusman/fretwise/internal/chord"
	"github.com/ayusman/fretwise/internal/config"
	"github.com/ayusman/fretwise/internal/detector"
	"github.com/ayusman/fretwise/internal/server"
	"github.com/ayusman/fretwise/internal/tray"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML or JSON config file")
	flag.Parse()

	fmt.Println("Fretwise - Guitar Chord Trainer")

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	lib := chord.DefaultLibrary()
	detCfg := cfg.DetectorSettings()

	appCfg := app.Config{
		Library:         lib,
		Camera:          capture.NewCamera(cfg.CameraSettings()),
		Markers:         detector.NewArucoDetector(detCfg),
		TrackerHistory:  cfg.Tracker.History,
		Projector:       cfg.ProjectorSettings(),
		Resolver:        cfg.ResolverSettings(),
		AxisTolerance:   cfg.Resolver.AxisTolerance,
		MaxDistance:     cfg.Scorer.MaxDistance,
		PressMargin:     cfg.Detector.PressMargin,
		Mirror:          cfg.Camera.Mirror,
		MotionThreshold: cfg.Camera.MotionThreshold,
		MotionMaxSkip:   cfg.Camera.MotionMaxSkip,
		Mode:            app.Mode(cfg.Practice.Mode),
		Target:          cfg.Practice.Target,
	}

	// Without the hand service the fretboard is still tracked and streamed.
	hands, err := detector.NewMediaPipeDetector(detCfg)
	if err != nil {
		log.Printf("Hand detection disabled: %v", err)
	} else {
		appCfg.Hands = hands
	}

	a, err := app.New(appCfg)
	if err != nil {
		log.Fatalf("Failed to create app: %v", err)
	}
	defer a.Close()

	if err := a.Start(); err != nil {
		log.Printf("Camera unavailable, serving API only: %v", err)
	}

	webDir := cfg.Server.StaticDir
	if webDir == "" {
		webDir = findWebDir()
	}
	if webDir != "" {
		fmt.Printf("Serving static files from: %s\n", webDir)
	}

	srv := server.New(server.Config{
		StaticDir: webDir,
		App:       a,
	})

	addr := cfg.Server.Addr
	serveErr := make(chan error, 1)
	go func() {
		fmt.Printf("Starting server on %s\n", addr)
		serveErr <- srv.ListenAndServe(addr)
	}()

	if cfg.Tray.Enabled {
		runTray(a, lib, addr)
		return
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	select {
	case s := <-sig:
		log.Printf("Received %s, shutting down", s)
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Server failed: %v", err)
		}
	}
}

// runTray blocks in the system tray until the user quits.
func runTray(a *app.App, lib *chord.Library, addr string) {
	t := tray.New(lib.Definitions())

	t.OnMode(func(practice bool) {
		mode := app.ModeFree
		if practice {
			mode = app.ModePractice
		}
		if err := a.SetMode(mode); err != nil {
			log.Printf("Failed to set mode: %v", err)
		}
	})
	t.OnTarget(func(key string) {
		if err := a.SetTarget(key); err != nil {
			log.Printf("Failed to set target: %v", err)
		}
	})
	t.OnOpen(func() {
		if err := openBrowser(localURL(addr)); err != nil {
			log.Printf("Failed to open browser: %v", err)
		}
	})

	results, unsubscribe := a.Subscribe()
	defer unsubscribe()
	go func() {
		var last string
		for res := range results {
			if status := res.Status(); status != last {
				t.SetStatus(status)
				last = status
			}
		}
	}()

	t.Run()
}

// localURL turns a listen address such as ":8080" into a browsable URL.
func localURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	return "http://" + addr
}

func openBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	return cmd.Start()
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", "../../web", and ~/.fretwise/web.
// Returns the first existing directory or empty string if none found.
func findWebDir() string {
	// Check relative paths from current working directory
	relativePaths := []string{"web", "../web", "../../web"}
	for _, p := range relativePaths {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			absPath, err := filepath.Abs(p)
			if err == nil {
				return absPath
			}
			return p
		}
	}

	// Check home directory
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	homeWebDir := filepath.Join(homeDir, ".fretwise", "web")
	if info, err := os.Stat(homeWebDir); err == nil && info.IsDir() {
		return homeWebDir
	}

	return ""
}
