package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/cjeanneret/mattoscam/internal/config"
	"github.com/cjeanneret/mattoscam/internal/debug"
	"github.com/cjeanneret/mattoscam/internal/hw/adc"
	"github.com/cjeanneret/mattoscam/internal/hw/gpio"
	"github.com/cjeanneret/mattoscam/internal/hw/keypad"
	"github.com/cjeanneret/mattoscam/internal/hw/sound"
	"github.com/cjeanneret/mattoscam/internal/logic/control"
	"github.com/cjeanneret/mattoscam/internal/logic/motion"
	"github.com/cjeanneret/mattoscam/internal/logic/statemachine"
	"github.com/cjeanneret/mattoscam/internal/web"
)

// remoteQueueSize bounds the keys waiting from the web keypad.
const remoteQueueSize = 16

func main() {
	// CLI flags
	webPort := &webPortFlag{defaultPort: 8080}
	flag.Var(webPort, "web", "start web server on port; -web= for default 8080, -web 8980 for custom port")
	cfgPath := flag.String("config", filepath.Join("configs", "default.yaml"), "path to config file")
	tickMs := flag.Int("tick_ms", 0, "override loop tick in ms (1-1000)")
	threshold := flag.Int("threshold", 0, "override microphone threshold in ADC counts (1-4095)")
	claps := flag.Bool("claps", false, "print microphone level and clap count per window, then exit on Ctrl-C")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Load configuration
	if err := config.ValidateConfigPath(*cfgPath); err != nil {
		log.Fatalf("invalid config path: %v", err)
	}
	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("load config failed: %v", err)
	}

	// Validate CLI overrides (zero means "use config value")
	if err := validateCLIOverrides(*tickMs, *threshold); err != nil {
		log.Fatalf("invalid CLI override: %v", err)
	}
	applyOverrides(cfg, *tickMs, *threshold)

	// Initialize debug system
	debug.Init(cfg.Defaults.DebugLevel)
	debug.Section("Initialization")
	debug.Value("Config path", *cfgPath)
	debug.Value("Debug level", cfg.Defaults.DebugLevel)
	debug.Value("Mock GPIO", cfg.Defaults.MockGPIO)

	debug.Step(1, "Initializing GPIO driver")
	gpioDriver, err := gpio.NewDriver(cfg.Defaults.MockGPIO)
	if err != nil {
		log.Fatalf("init GPIO failed: %v", err)
	}
	defer func() {
		if err := gpioDriver.Close(); err != nil {
			log.Printf("closing GPIO driver failed: %v", err)
		}
	}()

	if *claps {
		if err := runClapMonitor(ctx, cfg); err != nil {
			log.Fatalf("clap monitor: %v", err)
		}
		return
	}

	r, err := openRig(cfg, gpioDriver)
	if err != nil {
		log.Fatalf("init hardware failed: %v", err)
	}
	defer r.Close()

	var input keypad.Source = r.keypad
	var srv *web.Server
	if port := webPort.port(); port > 0 {
		broadcaster := web.NewStatusBroadcaster()
		debug.SetOutput(io.MultiWriter(os.Stdout, web.BroadcastWriter(broadcaster)))

		queue := keypad.NewQueue(remoteQueueSize)
		input = keypad.Chain{r.keypad, queue}
		srv = web.NewServer(fmt.Sprintf(":%d", port), broadcaster, queue, web.Settings{
			TickMs:     cfg.Loop.TickMs,
			Threshold:  cfg.Microphone.Threshold,
			DebounceMs: cfg.Keypad.DebounceMs,
			Microphone: cfg.Microphone.Enabled,
			ShowClock:  cfg.Display.ShowClock,
		})
	}

	debug.Step(6, "Starting control loop")
	machine := statemachine.New()
	deps := control.Deps{
		Input:    input,
		Motion:   motion.NewController(r.servos),
		Renderer: r.display,
		Laser:    r.laser,
	}
	if r.sound != nil {
		deps.Sound = r.sound
	}
	loop := control.NewLoop(machine, deps, control.Params{
		Interval:       cfg.TickInterval(),
		SoundThreshold: cfg.Microphone.Threshold,
		SoundWindow:    cfg.SoundWindow(),
		ShowClock:      cfg.Display.ShowClock,
	})

	observers := []func(control.Snapshot){logSnapshot}
	webErr := make(chan error, 1)
	if srv != nil {
		observers = append(observers, srv.Handlers().Observe)
		go func() { webErr <- srv.Run(ctx) }()
	}
	loop.OnSnapshot(func(s control.Snapshot) {
		for _, f := range observers {
			f(s)
		}
	})

	if err := loop.Run(ctx); err != nil {
		log.Fatalf("control loop: %v", err)
	}
	if srv != nil {
		cancel()
		if err := <-webErr; err != nil {
			log.Printf("web server: %v", err)
		}
	}
	debug.Summary("MattosCam stopped")
}

// logSnapshot reports confirmed codes; other snapshots are already
// covered by the renderer's own logging.
func logSnapshot(s control.Snapshot) {
	if s.Event == "confirm" {
		debug.Code(s.Confirmed)
	}
}

// runClapMonitor samples the microphone in clap_window_ms windows and
// prints a level bar with the number of claps heard.
func runClapMonitor(ctx context.Context, cfg *config.Config) error {
	reader, err := adc.NewReader(cfg.Defaults.MockGPIO, adc.MCP3208Config{ChipSelect: cfg.Microphone.ChipSelect})
	if err != nil {
		return err
	}
	defer reader.Close()
	trig := sound.NewTrigger(reader, soundConfig(cfg))

	log.Printf("Counting claps above %d every %v (Ctrl-C to stop)", cfg.Microphone.Threshold, cfg.ClapWindow())
	for ctx.Err() == nil {
		n, err := trig.CountClaps(cfg.Microphone.Threshold, cfg.ClapWindow())
		if err != nil {
			return err
		}
		v, err := reader.Read(cfg.Microphone.ADCChannel)
		if err != nil {
			return err
		}
		log.Printf("%s  claps=%d", sound.LevelBar(v, adc.MaxValue, 40), n)
	}
	return nil
}

// validateCLIOverrides checks that non-zero CLI overrides are within valid ranges.
// Zero values are ignored (they mean "use config value").
func validateCLIOverrides(tickMs, threshold int) error {
	if tickMs != 0 && (tickMs < 1 || tickMs > 1000) {
		return fmt.Errorf("tick_ms must be between 1 and 1000, got %d", tickMs)
	}
	if threshold != 0 && (threshold < 1 || threshold > adc.MaxValue) {
		return fmt.Errorf("threshold must be between 1 and %d, got %d", adc.MaxValue, threshold)
	}
	return nil
}

// applyOverrides mutates cfg with overrides. Only non-zero override values are applied.
func applyOverrides(cfg *config.Config, tickMs, threshold int) {
	if tickMs > 0 {
		cfg.Loop.TickMs = tickMs
	}
	if threshold > 0 {
		cfg.Microphone.Threshold = threshold
	}
}

// webPortFlag implements flag.Value for -web: 0 = disabled, -web= or -web 8080 → 8080, -web 8980 → 8980.
type webPortFlag struct {
	val         int
	defaultPort int
}

func (w *webPortFlag) String() string {
	if w.val == 0 {
		return "0"
	}
	return strconv.Itoa(w.val)
}

func (w *webPortFlag) Set(s string) error {
	if s == "" {
		w.val = w.defaultPort
		return nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return err
	}
	if v <= 0 || v > 65535 {
		return fmt.Errorf("port must be 1-65535, got %d", v)
	}
	w.val = v
	return nil
}

func (w *webPortFlag) port() int { return w.val }
