package cmd

import (
	"bufio"
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/retropad/corebridge/internal/cdc"
	"github.com/retropad/corebridge/internal/event"
	"github.com/retropad/corebridge/internal/hotkey"
	"github.com/retropad/corebridge/internal/log"
	"github.com/retropad/corebridge/internal/output"
	"github.com/retropad/corebridge/internal/output/directinput"
	"github.com/retropad/corebridge/internal/output/ds3"
	"github.com/retropad/corebridge/internal/output/gcadapter"
	"github.com/retropad/corebridge/internal/output/pcengine"
	"github.com/retropad/corebridge/internal/output/switchpad"
	"github.com/retropad/corebridge/internal/output/xinput"
	"github.com/retropad/corebridge/internal/player"
	"github.com/retropad/corebridge/internal/registry"
	"github.com/retropad/corebridge/internal/router"
	"github.com/retropad/corebridge/internal/sched"
	"github.com/retropad/corebridge/internal/storage"
	"github.com/retropad/corebridge/internal/transport"
)

// Run starts the translation core's cooperative main loop, wiring the
// driver registry, router, player manager, profile store, debounced
// settings store, and CDC control plane together in a fixed tick order.
// Physical transport (USB/BT/PIO bring-up) is out of scope; this command
// runs the core against whatever host integration a caller attaches to the
// CDC socket, driven by a real wall-clock tick instead of the bare-metal
// main loop's spin.
type Run struct {
	TickRate     time.Duration `help:"Scheduler tick period" default:"1ms" env:"COREBRIDGE_TICK_RATE"`
	SettingsFile string        `help:"Path to the settings blob (simulated NVS)" default:"corebridge.settings.json" env:"COREBRIDGE_SETTINGS_FILE"`
	Listen       string        `help:"Unix socket path for the CDC control plane; empty means stdio" env:"COREBRIDGE_CDC_LISTEN"`
	PlayerMode   string        `help:"Player slot assignment mode" enum:"fixed,dynamic" default:"dynamic" env:"COREBRIDGE_PLAYER_MODE"`
}

// Run is called by Kong when the run command is executed.
func (r *Run) Run(logger *slog.Logger, rawLogger log.RawLogger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hal := newHostHAL()
	radioEvents := transport.NewRadioEvents(64)

	reg := registry.New()
	registerDefaultDrivers(reg)

	mode := player.ModeDynamic
	if r.PlayerMode == "fixed" {
		mode = player.ModeFixed
	}
	players := player.New(mode, true)
	rt := router.New(players)

	bindings := registerDefaultOutputs(rt)

	backend := &fileBackend{path: r.SettingsFile}
	store := storage.New(backend, func() uint64 { return hal.NowMicros() / 1000 }, encodeBlob, decodeBlob)
	if _, ok := store.Load(); !ok {
		logger.Warn("settings blob missing or invalid magic; starting from defaults")
	}

	hotkeys := hotkey.New(defaultHotkeys(hal, store))

	dispatcher := cdc.NewDispatcher()
	registerControlPlaneCommands(dispatcher, rt, store, hal, logger)

	conn, err := r.openControlPlane(ctx, logger)
	if err != nil {
		return fmt.Errorf("corebridge: open control plane: %w", err)
	}
	defer conn.Close()

	server := cdc.NewServer(dispatcher, conn)
	feed := make(chan []byte, 64)
	go pumpReader(ctx, conn, feed, rawLogger)

	logger.Info("corebridge core started", "tick", r.TickRate, "players", mode)

	loop := sched.New(hal.NowMicros)
	loop.Use("transport", func(uint64) {
		for _, ev := range radioEvents.Drain() {
			reg.ProcessReport(event.Source{DeviceAddr: ev.DeviceAddr, Instance: ev.Instance}, ev.Payload)
		}
	})
	loop.Use("drivers", reg.Task)
	loop.Use("outputs", func(now uint64) {
		for _, b := range bindings {
			if t, ok := b.mode.(interface{ Tick(nowMicros uint64) }); ok {
				t.Tick(now)
			}
		}
		pollOutputs(bindings, rt, rawLogger)
	})
	loop.Use("hotkeys", func(now uint64) { hotkeys.Tick(now/1000, rawButtonSnapshot(rt, bindings)) })
	loop.Use("storage", func(now uint64) { store.Task(now / 1000) })
	loop.Use("control-plane", func(uint64) {
		for {
			select {
			case data := <-feed:
				server.Feed(data)
			default:
				return
			}
		}
	})

	go func() {
		<-ctx.Done()
		loop.Stop()
	}()

	loop.Run(r.TickRate)

	store.FlushPending()
	logger.Info("corebridge core stopped")
	return nil
}

func registerDefaultDrivers(reg *registry.Registry) {
	registry.RegisterDefaults(reg)
}

// outputBinding pairs a router target with the concrete output.Mode
// instance that actually builds its wire report, so the scheduler can poll
// every registered, non-tap output once per tick.
type outputBinding struct {
	target router.OutputTarget
	mode   output.Mode
	port   int
}

func registerDefaultOutputs(rt *router.Router) []outputBinding {
	xi, ds, sp, di, gc, pe := xinput.New(), ds3.New(), switchpad.New(), directinput.New(), gcadapter.New(), pcengine.New()
	for _, m := range []output.Mode{xi, ds, sp, di, gc, pe} {
		_ = m.Init()
	}

	var bindings []outputBinding
	reg := func(target router.OutputTarget, mode output.Mode, port int) {
		rt.RegisterOutput(target, nil)
		bindings = append(bindings, outputBinding{target: target, mode: mode, port: port})
	}

	reg("xinput:0", xi, 0)
	reg("ds3:0", ds, 0)
	reg("switchpad:0", sp, 0)
	reg("directinput:0", di, 0)
	for port := 0; port < gc.Ports(); port++ {
		reg(router.OutputTarget(fmt.Sprintf("gcadapter:%d", port)), gc, port)
	}
	reg("pcengine:0", pe, 0)
	return bindings
}

// pollOutputs drives every polled output's SendReport for each occupied
// player slot and hands the built wire report to rawLogger as the
// stand-in for the physical transport write, which is out of scope here.
func pollOutputs(bindings []outputBinding, rt *router.Router, rawLogger log.RawLogger) {
	for _, b := range bindings {
		for slot := 0; slot < player.MaxPlayers; slot++ {
			out, ok := rt.GetOutputState(b.target, slot)
			if !ok {
				continue
			}
			report, ok := b.mode.SendReport(b.port, out)
			if !ok {
				continue
			}
			if rawLogger != nil {
				rawLogger.Log(false, report)
			}
		}
	}
}

func defaultHotkeys(hal *hostHAL, store *storage.Store) []hotkey.Hotkey {
	return []hotkey.Hotkey{
		{
			Mask:       0, // wired by host integration once a concrete profile-switch mask is configured
			Trigger:    hotkey.TriggerOnHold,
			DurationMs: 2000,
			Global:     true,
			Callback:   func() {},
		},
	}
}

// rawButtonSnapshot collects each occupied player slot's pre-profile
// button word across every bound output, so the hotkey detector always
// inspects raw input rather than a remapped/combo'd result.
func rawButtonSnapshot(rt *router.Router, bindings []outputBinding) map[int]uint32 {
	snapshot := make(map[int]uint32)
	for _, b := range bindings {
		for slot := 0; slot < player.MaxPlayers; slot++ {
			raw, ok := rt.RawButtons(b.target, slot)
			if !ok {
				continue
			}
			snapshot[slot] |= raw
		}
	}
	return snapshot
}

// --- settings blob encode/decode (JSON, matching internal/cmd.ConfigInit's
// JSON-first convention) ---

type wireBlob struct {
	Magic          uint32              `json:"magic"`
	Sequence       uint32              `json:"sequence"`
	ActiveProfile  int                 `json:"activeProfile"`
	CustomProfiles []wireProfileSlot   `json:"customProfiles"`
	AppFields      map[string]string   `json:"appFields"`
}

type wireProfileSlot struct {
	Name string `json:"name"`
	Data []byte `json:"data"`
}

func encodeBlob(b storage.Blob) []byte {
	w := wireBlob{Magic: b.Magic, Sequence: b.Sequence, ActiveProfile: b.ActiveProfile, AppFields: b.AppFields}
	for _, p := range b.CustomProfiles {
		w.CustomProfiles = append(w.CustomProfiles, wireProfileSlot{Name: p.Name, Data: p.Data})
	}
	data, err := json.Marshal(w)
	if err != nil {
		return nil
	}
	return data
}

func decodeBlob(raw []byte) (storage.Blob, bool) {
	var w wireBlob
	if err := json.Unmarshal(raw, &w); err != nil {
		return storage.Blob{}, false
	}
	b := storage.Blob{Magic: w.Magic, Sequence: w.Sequence, ActiveProfile: w.ActiveProfile, AppFields: w.AppFields}
	for _, p := range w.CustomProfiles {
		b.CustomProfiles = append(b.CustomProfiles, storage.ProfileSlot{Name: p.Name, Data: p.Data})
	}
	return b, true
}

// --- file-backed simulated NVS ---

type fileBackend struct {
	mu   sync.Mutex
	path string
}

func (f *fileBackend) Read(namespace, key string) ([]byte, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, false
	}
	return data, true
}

func (f *fileBackend) Write(namespace, key string, blob []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return os.WriteFile(f.path, blob, 0o644)
}

// --- host HAL: a real-clock stand-in for the out-of-scope platform HAL
// collaborator ---

type hostHAL struct {
	start time.Time
	id    [8]byte
}

func newHostHAL() *hostHAL {
	hostname, _ := os.Hostname()
	sum := sha256.Sum256([]byte(hostname))
	var id [8]byte
	copy(id[:], sum[:8])
	return &hostHAL{start: time.Now(), id: id}
}

func (h *hostHAL) NowMicros() uint64 { return uint64(time.Since(h.start).Microseconds()) }
func (h *hostHAL) UniqueID() [8]byte { return h.id }
func (h *hostHAL) Reboot()           { os.Exit(0) }
func (h *hostHAL) BootselReboot()    { os.Exit(3) }

func (r *Run) openControlPlane(ctx context.Context, logger *slog.Logger) (rwCloser, error) {
	if r.Listen == "" {
		return stdioConn{}, nil
	}
	_ = os.Remove(r.Listen)
	ln, err := net.Listen("unix", r.Listen)
	if err != nil {
		return nil, err
	}
	logger.Info("corebridge control plane listening", "socket", r.Listen)
	c, err := ln.Accept()
	if err != nil {
		ln.Close()
		return nil, err
	}
	return unixConn{Conn: c, ln: ln}, nil
}

type rwCloser interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	Close() error
}

type stdioConn struct{}

func (stdioConn) Read(p []byte) (int, error)  { return os.Stdin.Read(p) }
func (stdioConn) Write(p []byte) (int, error) { return os.Stdout.Write(p) }
func (stdioConn) Close() error                { return nil }

type unixConn struct {
	net.Conn
	ln net.Listener
}

func (u unixConn) Close() error {
	_ = u.Conn.Close()
	return u.ln.Close()
}

func pumpReader(ctx context.Context, r interface{ Read([]byte) (int, error) }, out chan<- []byte, raw log.RawLogger) {
	br := bufio.NewReaderSize(r, 4096)
	buf := make([]byte, 4096)
	for {
		n, err := br.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			if raw != nil {
				raw.Log(true, chunk)
			}
			select {
			case out <- chunk:
			case <-ctx.Done():
				return
			}
		}
		if err != nil {
			return
		}
		select {
		case <-ctx.Done():
			return
		default:
		}
	}
}
