package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ivlev/animcam/internal/config"
	"github.com/ivlev/animcam/internal/engine"
)

func main() {
	configPtr := flag.String("config", "", "YAML config file")
	fpsPtr := flag.Int("fps", 0, "Tick rate (0: from config)")
	logPtr := flag.String("log", "", "Write engine log lines to this file")
	flag.Parse()

	cfg := config.Default()
	if *configPtr != "" {
		loaded, err := config.Load(*configPtr)
		if err != nil {
			log.Fatalf("[-] Config error: %v", err)
		}
		cfg = loaded
	}
	if *fpsPtr > 0 {
		cfg.FPS = *fpsPtr
	}

	// The terminal belongs to the UI; engine warnings go to a file or nowhere.
	var out io.Writer = io.Discard
	if *logPtr != "" {
		f, err := os.Create(*logPtr)
		if err != nil {
			log.Fatalf("[-] Log file: %v", err)
		}
		defer f.Close()
		out = f
	}
	logger := log.New(out, "", log.LstdFlags)

	view := engine.NewAnimatedView(engine.Options{
		QueueCapacity:     cfg.QueueCapacity,
		DefaultTransition: cfg.Transition(),
		FrameByFrame:      cfg.FrameByFrame,
		FPS:               cfg.FPS,
		Logger:            logger,
		Verbose:           cfg.Verbose,
	})

	p := tea.NewProgram(newModel(view, cfg.FPS), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "[-] %v\n", err)
		os.Exit(1)
	}
}
