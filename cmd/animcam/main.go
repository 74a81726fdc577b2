package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/ivlev/animcam/internal/analyzer"
	"github.com/ivlev/animcam/internal/config"
	"github.com/ivlev/animcam/internal/director"
	"github.com/ivlev/animcam/internal/renderer"
	"github.com/ivlev/animcam/internal/source"
	"github.com/ivlev/animcam/internal/system"
)

var buildVersion = "dev"

func main() {
	system.InitResourceLimits()

	for _, d := range []string{director.DefaultScriptDir, "input/backdrops", "output"} {
		os.MkdirAll(d, 0755)
	}

	configPtr := flag.String("config", "", "YAML config file (flags override it)")
	generatePtr := flag.String("generate", "", "Write a script and exit: orbit, tour")
	realtimePtr := flag.Bool("realtime", false, "Tick against the wall clock instead of stepping offline")
	maxFramesPtr := flag.Int("max-frames", 0, "Stop after this many ticks (0: derived from the script)")

	defaults := config.Default()
	fs := flag.CommandLine
	fs.Int("fps", defaults.FPS, "Target tick rate")
	fs.Bool("frame-by-frame", defaults.FrameByFrame, "Count progress in rendered frames")
	fs.Bool("images", defaults.PublishImages, "Publish rendered frames")
	fs.Bool("poses", defaults.PublishPoses, "Publish pose feedback")
	fs.Float64("transition", defaults.DefaultTransition, "Default transition time (sec)")
	fs.Int("queue", defaults.QueueCapacity, "Movement queue capacity")
	fs.Int("width", defaults.Width, "Frame width")
	fs.Int("height", defaults.Height, "Frame height")
	fs.String("output", defaults.OutputDir, "Output directory for runs")
	fs.String("video", "", "Also encode the frames into this video file")
	fs.String("encoder", "", "Video encoder (empty: best available H.264)")
	fs.Int("quality", 0, "Video quality (0: auto; x264: CRF 1-51, VideoToolbox: bitrate = Q*100 kbit/s)")
	fs.Int("workers", defaults.Workers, "PNG encoding workers")
	fs.String("backdrop", "", "PDF or image folder shown behind the scene")
	fs.Int("dpi", defaults.DPI, "Backdrop DPI for PDF pages")
	fs.Bool("stamp", false, "Stamp each frame with a QR code of the tick")
	fs.Bool("stats", false, "Print resource statistics at the end")
	fs.Bool("verbose", false, "Log every tick")
	fs.String("script", "", "Script to play (default: newest in input/scripts/)")

	flag.Parse()

	cfg := config.Default()
	if *configPtr != "" {
		loaded, err := config.Load(*configPtr)
		if err != nil {
			log.Fatalf("[-] Config error: %v", err)
		}
		cfg = loaded
	}
	applyFlags(&cfg, fs)
	cfg.BuildVersion = buildVersion

	if *generatePtr != "" {
		path, err := generate(*generatePtr, cfg)
		if err != nil {
			log.Fatalf("[-] Generation failed: %v", err)
		}
		fmt.Printf("[+] Script written: %s\n", path)
		return
	}

	scriptPath := cfg.Script
	if scriptPath == "" {
		latest, err := director.FindLatestScript(director.DefaultScriptDir)
		if err != nil {
			log.Fatalf("[-] %v. Put a script into %s/ or run with -generate orbit", err, director.DefaultScriptDir)
		}
		scriptPath = latest
		fmt.Printf("[*] Script: %s\n", scriptPath)
	}
	script, err := director.ReadScript(scriptPath)
	if err != nil {
		log.Fatalf("[-] Script error: %v", err)
	}
	applyScript(&cfg, script, fs)
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[-] %v", err)
	}

	runDir := filepath.Join(cfg.OutputDir, runName(scriptPath, time.Now()))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	r, err := newRun(ctx, cfg, script, runDir, *realtimePtr, log.Default())
	if err != nil {
		log.Fatalf("[-] Setup failed: %v", err)
	}

	start := time.Now()
	if *realtimePtr {
		err = r.realtime(ctx)
	} else {
		err = r.offline(ctx, *maxFramesPtr)
	}
	if closeErr := r.close(); closeErr != nil {
		log.Printf("[!] Closing outputs: %v", closeErr)
	}
	if err != nil {
		log.Fatalf("[-] Run failed: %v", err)
	}

	c := r.pub.Counters()
	fmt.Printf("[*] %d ticks, %d frames, %d poses, %d movements in %s\n",
		c.Ticks, c.Frames, c.Poses, r.view.Completed(), time.Since(start).Round(time.Millisecond))
	if c.Errors > 0 {
		fmt.Printf("[!] %d publish errors\n", c.Errors)
	}
	if cfg.ShowStats {
		r.printStats(ctx)
	}
	fmt.Printf("[+++] Done: %s\n", runDir)
}

// applyFlags copies every flag set on the command line into cfg.
func applyFlags(cfg *config.Config, fs *flag.FlagSet) {
	fs.Visit(func(f *flag.Flag) {
		getter, ok := f.Value.(flag.Getter)
		if !ok {
			return
		}
		v := getter.Get()
		switch f.Name {
		case "fps":
			cfg.FPS = v.(int)
		case "frame-by-frame":
			cfg.FrameByFrame = v.(bool)
		case "images":
			cfg.PublishImages = v.(bool)
		case "poses":
			cfg.PublishPoses = v.(bool)
		case "transition":
			cfg.DefaultTransition = v.(float64)
		case "queue":
			cfg.QueueCapacity = v.(int)
		case "width":
			cfg.Width = v.(int)
		case "height":
			cfg.Height = v.(int)
		case "output":
			cfg.OutputDir = v.(string)
		case "video":
			cfg.VideoOutput = v.(string)
		case "encoder":
			cfg.VideoEncoder = v.(string)
		case "quality":
			cfg.Quality = v.(int)
		case "workers":
			cfg.Workers = v.(int)
		case "backdrop":
			cfg.Backdrop = v.(string)
		case "dpi":
			cfg.DPI = v.(int)
		case "stamp":
			cfg.StampFrames = v.(bool)
		case "stats":
			cfg.ShowStats = v.(bool)
		case "verbose":
			cfg.Verbose = v.(bool)
		case "script":
			cfg.Script = v.(string)
		}
	})
}

// applyScript lets the script choose timing and backdrop unless the command
// line already did.
func applyScript(cfg *config.Config, s *director.Script, fs *flag.FlagSet) {
	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	if s.FPS > 0 && !set["fps"] {
		cfg.FPS = s.FPS
	}
	if s.FrameByFrame != nil && !set["frame-by-frame"] {
		cfg.FrameByFrame = *s.FrameByFrame
	}
	if s.Backdrop != "" && !set["backdrop"] {
		cfg.Backdrop = s.Backdrop
	}
}

func generate(kind string, cfg config.Config) (string, error) {
	d := director.NewDirector()
	var script *director.Script
	var err error
	switch kind {
	case "orbit":
		script, err = d.Orbit(mgl64.Vec3{0, 0, 0.5}, 8, 4, 12, 12)
	case "tour":
		points := defaultTourPoints
		if cfg.Backdrop != "" {
			found, lerr := backdropLandmarks(cfg)
			if lerr != nil {
				log.Printf("[!] Backdrop analysis failed, using default tour: %v", lerr)
			} else if len(found) > 0 {
				log.Printf("[*] Touring %d landmarks found on the backdrop", len(found))
				points = found
			}
		}
		script, err = d.Tour(points, 15)
	default:
		return "", fmt.Errorf("unknown generator %q (orbit, tour)", kind)
	}
	if err != nil {
		return "", err
	}
	script.FPS = cfg.FPS
	script.Backdrop = cfg.Backdrop
	frames := cfg.FrameByFrame
	script.FrameByFrame = &frames

	path := director.GenerateScriptPath(director.DefaultScriptDir, kind)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", err
	}
	return path, director.WriteScript(script, path)
}

var defaultTourPoints = []mgl64.Vec3{{3, 0, 0}, {0, 3, 0}, {-3, 0, 0}, {0, -3, 0}, {0, 0, 1}}

// backdropLandmarks detects regions of interest on the first backdrop page
// and places them on the ground grid.
func backdropLandmarks(cfg config.Config) ([]mgl64.Vec3, error) {
	src, err := source.Open(cfg.Backdrop)
	if err != nil {
		return nil, err
	}
	defer src.Close()
	if src.PageCount() == 0 {
		return nil, nil
	}
	img, err := src.RenderPage(0, cfg.DPI)
	if err != nil {
		return nil, err
	}
	det, err := analyzer.NewDetector("contrast")
	if err != nil {
		return nil, err
	}
	regions, err := det.Detect(img)
	if err != nil {
		return nil, err
	}
	return analyzer.Landmarks(regions, img.Bounds(), renderer.DefaultGridHalf), nil
}

// runName builds the run directory name from the script name and start time.
func runName(scriptPath string, at time.Time) string {
	base := filepath.Base(scriptPath)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	name = strings.ReplaceAll(name, " ", "_")
	return fmt.Sprintf("%s_%s", name, at.Format("2006-01-02_15-04-05"))
}
