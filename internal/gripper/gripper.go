// Package gripper owns the pneumatic ball gripper and its pump.
package gripper

import (
	"log"
	"sync"

	"github.com/extreme-axolotls/relaybot/internal/device"
	"github.com/extreme-axolotls/relaybot/internal/logic"
)

// Gripper is the sole commander of the pneumatic controller. Both cylinders
// move together.
type Gripper struct {
	pneu device.Pneumatic

	mu    sync.Mutex
	state logic.GripperState
	pump  bool
}

// New creates a Gripper in the Unknown state.
func New(pneu device.Pneumatic) *Gripper {
	return &Gripper{pneu: pneu, state: logic.GripperUnknown}
}

// Setup switches the pump on so the first command has pressure.
func (g *Gripper) Setup() {
	g.pumpOn()
}

func (g *Gripper) pumpOn() {
	g.pneu.PumpOn()
	g.mu.Lock()
	g.pump = true
	g.mu.Unlock()
}

// Hug retracts the cylinders to clamp a ball at the top of the launch path.
func (g *Gripper) Hug() {
	g.pumpOn()
	g.pneu.Retract(device.Cylinder1)
	g.pneu.Retract(device.Cylinder2)
	g.setState(logic.GripperHugging)
}

// Release extends the cylinders to open the gripper. This is also the
// resting position.
func (g *Gripper) Release() {
	g.pumpOn()
	g.pneu.Extend(device.Cylinder1)
	g.pneu.Extend(device.Cylinder2)
	g.setState(logic.GripperReleased)
}

// PowerDown switches the pump off. The pump shares the compressor with the
// intake, so it stays on while the intake is running. Returns whether the
// pump was switched off.
func (g *Gripper) PowerDown(intakeRunning bool) bool {
	if intakeRunning {
		log.Printf("gripper: pump left on, intake still running")
		return false
	}
	g.pneu.PumpOff()
	g.mu.Lock()
	g.pump = false
	g.mu.Unlock()
	return true
}

func (g *Gripper) setState(s logic.GripperState) {
	g.mu.Lock()
	g.state = s
	g.mu.Unlock()
}

// State returns the last commanded position.
func (g *Gripper) State() logic.GripperState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// PumpRunning reports whether the pump is on.
func (g *Gripper) PumpRunning() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.pump
}
