package simulator

import (
	"maps"

	"github.com/motorlink/motorlink-go/pkg/device"
	"github.com/motorlink/motorlink-go/pkg/resource"
)

// Firmware is the version reported by simulated nodes.
const Firmware = "sim-1.0.0"

// Default parameters of a factory-fresh node.
var factoryParameters = map[device.ParameterKey]float64{
	0x2001: 1.0,    // current limit gain
	0x2002: 3000.0, // max speed
	0x2003: 0.5,    // acceleration ramp
	0x2004: 60.0,   // over-temperature threshold
}

// Signals every simulated node can stream.
var signalCatalog = []device.SignalInfo{
	{ID: 1, Name: "current", Unit: "A"},
	{ID: 2, Name: "voltage", Unit: "V"},
	{ID: 3, Name: "speed", Unit: "rpm"},
	{ID: 4, Name: "temperature", Unit: "C"},
}

type node struct {
	serial    string
	connected bool
	setpoint  float64
	setpoints int
	params    map[device.ParameterKey]float64
	flash     map[device.ParameterKey]float64
}

func newNode(id resource.DeviceID) *node {
	return &node{
		serial: "SIM-" + id.String(),
		params: maps.Clone(factoryParameters),
		flash:  maps.Clone(factoryParameters),
	}
}

// NodeState is a snapshot of a simulated node.
type NodeState struct {
	Connected  bool
	Setpoint   float64
	Setpoints  int
	Parameters map[device.ParameterKey]float64
	Flash      map[device.ParameterKey]float64
}

func (n *node) state() NodeState {
	return NodeState{
		Connected:  n.connected,
		Setpoint:   n.setpoint,
		Setpoints:  n.setpoints,
		Parameters: maps.Clone(n.params),
		Flash:      maps.Clone(n.flash),
	}
}

func knownSignal(id resource.SignalID) bool {
	for _, s := range signalCatalog {
		if s.ID == id {
			return true
		}
	}
	return false
}
