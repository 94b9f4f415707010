package main

import (
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ayusman/abhinaya/internal/app"
	"github.com/ayusman/abhinaya/internal/server"
	"github.com/ayusman/abhinaya/internal/store"
	"github.com/ayusman/abhinaya/internal/tray"
)

var serveOpts struct {
	Addr      string
	CameraID  int
	ModelURL  string
	PoseScale float64
	NoTray    bool
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the tracking pipeline and HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func init() {
	serveCmd.Flags().StringVarP(&serveOpts.Addr, "addr", "a", ":8080", "HTTP listen address")
	serveCmd.Flags().IntVarP(&serveOpts.CameraID, "camera", "c", 0, "Camera device ID")
	serveCmd.Flags().StringVarP(&serveOpts.ModelURL, "model", "m", "", "Avatar manifest URL to load at startup")
	serveCmd.Flags().Float64Var(&serveOpts.PoseScale, "pose-scale", 0, "Override the avatar's head pose scale")
	serveCmd.Flags().BoolVar(&serveOpts.NoTray, "no-tray", false, "Run without the system tray")
	rootCmd.AddCommand(serveCmd)
}

func runServe() error {
	st, err := store.New(filepath.Join(dataDir, "abhinaya.db"))
	if err != nil {
		return fmt.Errorf("initialize store: %w", err)
	}
	defer st.Close()

	// The last model URL is remembered across runs.
	if serveOpts.ModelURL == "" {
		if saved, err := st.Settings().Get("model_url"); err == nil {
			serveOpts.ModelURL = saved
		}
	} else if err := st.Settings().Set("model_url", serveOpts.ModelURL); err != nil {
		log.Printf("Failed to save model URL: %v", err)
	}

	a := app.New(app.Config{
		Store:     st,
		PluginDir: filepath.Join(dataDir, "plugins"),
		CameraID:  serveOpts.CameraID,
		ModelURL:  serveOpts.ModelURL,
		PoseScale: serveOpts.PoseScale,
	})
	defer a.Stop()

	if err := a.DiscoverPlugins(); err != nil {
		log.Printf("Plugin discovery failed: %v", err)
	}
	if err := a.LoadGainRules(); err != nil {
		log.Printf("Failed to load gain rules: %v", err)
	}
	if err := a.LoadTriggers(); err != nil {
		log.Printf("Failed to load triggers: %v", err)
	}

	srv := server.New(server.Config{
		StaticDir: findWebDir(),
		Store:     st,
		Camera:    a.Camera(),
		App:       a,
	})

	// A failed start leaves the server up so the status line is reachable.
	if err := a.Start(); err != nil {
		log.Printf("Tracking unavailable: %s", a.Status())
	} else {
		a.SetEnabled(true)
	}

	if serveOpts.NoTray {
		fmt.Printf("Starting server on %s\n", serveOpts.Addr)
		return srv.ListenAndServe(serveOpts.Addr)
	}

	go func() {
		fmt.Printf("Starting server on %s\n", serveOpts.Addr)
		if err := srv.ListenAndServe(serveOpts.Addr); err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	t := tray.New()
	t.OnToggle(a.SetEnabled)
	t.OnQuit(a.Stop)
	t.OnSettings(func() {
		if err := openBrowser(settingsURL(serveOpts.Addr)); err != nil {
			log.Printf("Failed to open settings: %v", err)
		}
	})
	t.SetStatus(a.Status())
	a.OnTrigger(t.SetLastExpression)
	t.Run()
	return nil
}

// settingsURL turns a listen address into a browsable URL.
func settingsURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		return "http://localhost" + addr
	}
	return "http://" + addr
}

// openBrowser opens the URL in the default browser.
func openBrowser(url string) error {
	return exec.Command("open", url).Start()
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", "../../web", and <data-dir>/web.
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

	homeWebDir := filepath.Join(dataDir, "web")
	if info, err := os.Stat(homeWebDir); err == nil && info.IsDir() {
		return homeWebDir
	}

	return ""
}
