package cmd

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/retropad/corebridge/internal/cdc"
	"github.com/retropad/corebridge/internal/router"
	"github.com/retropad/corebridge/internal/storage"
)

// controlHAL narrows transport.HAL to what the control-plane handlers below
// need, so this file doesn't import internal/transport just for a type name.
type controlHAL interface {
	UniqueID() [8]byte
	Reboot()
	BootselReboot()
}

// registerControlPlaneCommands wires the CDC command table to the live
// router/storage/HAL instances. The dispatcher itself carries no domain
// knowledge; every closure here is the "cmd/corebridge registers handlers
// at startup" seam internal/cdc/commands.go's doc comment describes.
func registerControlPlaneCommands(d *cdc.Dispatcher, rt *router.Router, store *storage.Store, h controlHAL, logger *slog.Logger) {
	d.Register(cdc.CmdInfo, func(json.RawMessage) (any, error) {
		id := h.UniqueID()
		return map[string]any{
			"uniqueId": fmt.Sprintf("%x", id),
			"players":  rt.GetPlayerCount(),
		}, nil
	})

	d.Register(cdc.CmdReboot, func(json.RawMessage) (any, error) {
		logger.Info("control plane requested reboot")
		h.Reboot()
		return "OK", nil
	})

	d.Register(cdc.CmdBootsel, func(json.RawMessage) (any, error) {
		logger.Info("control plane requested bootsel reboot")
		h.BootselReboot()
		return "OK", nil
	})

	d.Register(cdc.CmdPlayersList, func(json.RawMessage) (any, error) {
		return map[string]any{"count": rt.GetPlayerCount()}, nil
	})

	d.Register(cdc.CmdModeList, func(json.RawMessage) (any, error) {
		return []string{"xinput", "directinput", "ds3", "switchpad", "gcadapter", "pcengine", "gpio"}, nil
	})

	type settingsView struct {
		ActiveProfile int      `json:"activeProfile"`
		Sequence      uint32   `json:"sequence"`
		ProfileNames  []string `json:"profileNames"`
	}
	currentSettings := func() settingsView {
		b, _ := store.Load()
		names := make([]string, 0, len(b.CustomProfiles))
		for _, p := range b.CustomProfiles {
			names = append(names, p.Name)
		}
		return settingsView{ActiveProfile: b.ActiveProfile, Sequence: b.Sequence, ProfileNames: names}
	}

	d.Register(cdc.CmdSettingsGet, func(json.RawMessage) (any, error) {
		return currentSettings(), nil
	})

	d.Register(cdc.CmdSettingsReset, func(json.RawMessage) (any, error) {
		if err := store.SaveNow(storage.Blob{}); err != nil {
			return nil, fmt.Errorf("settings reset: %w", err)
		}
		return currentSettings(), nil
	})

	d.Register(cdc.CmdProfileList, func(json.RawMessage) (any, error) {
		return currentSettings().ProfileNames, nil
	})

	var profileSetArgs struct {
		Index int `json:"index"`
	}
	d.Register(cdc.CmdProfileSet, func(args json.RawMessage) (any, error) {
		if err := json.Unmarshal(args, &profileSetArgs); err != nil {
			return nil, fmt.Errorf("profile.set: %w", err)
		}
		b, _ := store.Load()
		b.ActiveProfile = profileSetArgs.Index
		store.Save(b)
		return "OK", nil
	})

	d.Register(cdc.CmdProfileSave, func(json.RawMessage) (any, error) {
		b, _ := store.Load()
		if err := store.SaveNow(b); err != nil {
			return nil, err
		}
		return currentSettings(), nil
	})

	// CmdBTStatus, CmdBTBondsClear and CmdRumbleStop name a collaborator
	// (radio task, feedback channel) that only exists once a host
	// integration has attached real transports; they are acknowledged here
	// with a stub response rather than left unregistered, so a host UI gets a
	// defined NAK-free response instead of a silent timeout. No handler is
	// registered for WIIMOTE.ORIENT.*, DEBUG.STREAM or INPUT.STREAM.
	d.Register(cdc.CmdBTStatus, func(json.RawMessage) (any, error) {
		return map[string]any{"connected": 0}, nil
	})
	d.Register(cdc.CmdBTBondsClear, func(json.RawMessage) (any, error) {
		return "OK", nil
	})
	d.Register(cdc.CmdRumbleStop, func(json.RawMessage) (any, error) {
		return "OK", nil
	})
}
