package registry

import (
	"github.com/retropad/corebridge/internal/drivers/eightbitdo"
	"github.com/retropad/corebridge/internal/drivers/generichid"
	"github.com/retropad/corebridge/internal/drivers/native"
	"github.com/retropad/corebridge/internal/drivers/switch2"
	"github.com/retropad/corebridge/internal/drivers/wiimote"
)

// RegisterDefaults registers every built-in driver against r in first-fit
// order: vendor-specific drivers first (exclusive claim by VID/PID or
// report shape), native wired-console drivers next (claimed by port
// identity, never contend with a BT/USB match), and the generic HID
// gamepad driver last so it only ever catches what nothing else wanted.
func RegisterDefaults(r *Registry) {
	r.Register(eightbitdo.New())
	r.Register(wiimote.New())
	r.Register(switch2.New())
	r.Register(native.NewNES())
	r.Register(native.NewSNES())
	r.Register(native.NewN64())
	r.Register(native.NewGameCube())
	r.Register(native.NewNeoGeo())
	r.Register(generichid.New())
}
