package app

import (
	"github.com/fluxwire/fluxwire/internal/events"
	"github.com/fluxwire/fluxwire/internal/registry"
	"github.com/fluxwire/fluxwire/modules/arith"
	"github.com/fluxwire/fluxwire/modules/assert"
	"github.com/fluxwire/fluxwire/modules/collect"
	"github.com/fluxwire/fluxwire/modules/constant"
	"github.com/fluxwire/fluxwire/modules/delay"
	"github.com/fluxwire/fluxwire/modules/eventcomm"
	"github.com/fluxwire/fluxwire/modules/httpreq"
	"github.com/fluxwire/fluxwire/modules/printer"
	"github.com/fluxwire/fluxwire/modules/socketio"
	"github.com/fluxwire/fluxwire/modules/timer"
)

// coreModules is the definitive list of all unit modules compiled into the
// fluxwire binary. The event communication units share the scheduler's
// correlation manager.
func coreModules(ev *events.Manager) []registry.Module {
	return []registry.Module{
		&constant.Module{},
		&arith.Module{},
		&collect.Module{},
		&printer.Module{},
		&delay.Module{},
		&assert.Module{},
		&timer.Module{},
		&httpreq.Module{},
		&socketio.Module{},
		eventcomm.New(ev),
	}
}
