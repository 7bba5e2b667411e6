package device

import (
	"time"
)

// NetworkClass is a device's communication profile. It drives the
// keepalive interval used for online/offline determination.
type NetworkClass string

// The four network classes.
//
// Class A and D are both battery sensor profiles, distinguished only
// by per-model exceptions; class C is the mains-powered controller
// profile; hubs have their own always-on profile.
const (
	ClassA   NetworkClass = "A"
	ClassC   NetworkClass = "C"
	ClassD   NetworkClass = "D"
	ClassHub NetworkClass = "Hub"

	// ClassUnknown is returned for types outside the vocabulary.
	// Its keepalive is zero, which fails safe to offline.
	ClassUnknown NetworkClass = ""
)

// Keepalive defaults in seconds. These are vendor calibration values,
// not derivable constants; override them via Keepalives when the
// platform publishes different figures.
const (
	defaultSensorKeepalive     = 14400
	defaultControllerKeepalive = 3600
	defaultHubKeepalive        = 600
)

// Keepalives carries per-class keepalive overrides in seconds.
// Zero fields keep the defaults.
type Keepalives struct {
	Sensor     int
	Controller int
	Hub        int
}

// sensorTypes default to class A.
var sensorTypes = map[string]bool{
	TypeLeakSensor:        true,
	TypeDoorSensor:        true,
	TypeTHSensor:          true,
	TypeMotionSensor:      true,
	TypeCOSmokeSensor:     true,
	TypePowerFailureAlarm: true,
	TypeSoilTHSensor:      true,
	TypeVibrationSensor:   true,
	TypeSmartRemoter:      true,
	TypeWaterDepthSensor:  true,
	TypeSmokeAlarm:        true,
}

// sensorClassDModels are sensor models that deviate to class D.
var sensorClassDModels = map[string]bool{
	"YS7A02": true,
	"YS8006": true,
}

// controllerTypes default to class C.
var controllerTypes = map[string]bool{
	TypeManipulator: true,
	TypeOutlet:      true,
	TypeMultiOutlet: true,
	TypeThermostat:  true,
	TypeSiren:       true,
	TypeSwitch:      true,
	TypeGarageDoor:  true,
	TypeDimmer:      true,
	TypeSprinkler:   true,
}

// controllerClassDModels are controller models that deviate to class D.
var controllerClassDModels = map[string]bool{
	"YS4909": true,
	// Manipulator
	"YS5001": true,
	"YS5002": true,
	"YS5003": true,
	"YS5012": true,
	// Switch
	"YS5709": true,
	// Siren
	"YS7104": true,
	"YS7105": true,
	"YS7107": true,
}

// batteryControllerTypes default to class D.
var batteryControllerTypes = map[string]bool{
	TypeFinger:               true,
	TypeLock:                 true,
	TypeLockV2:               true,
	TypeWaterMeterController: true,
	TypeWaterMeterMulti:      true,
	TypeSprinklerV2:          true,
}

// batteryControllerClassAModels deviate to class A.
var batteryControllerClassAModels = map[string]bool{
	"YS5007": true,
}

// Classify derives the network class from device type and model.
//
// The class is looked up from the static type table; specific
// {type, model} combinations override their type's default.
func Classify(deviceType, model string) NetworkClass {
	switch {
	case sensorTypes[deviceType]:
		if sensorClassDModels[model] {
			return ClassD
		}
		return ClassA
	case controllerTypes[deviceType]:
		if controllerClassDModels[model] {
			return ClassD
		}
		return ClassC
	case batteryControllerTypes[deviceType]:
		if batteryControllerClassAModels[model] {
			return ClassA
		}
		return ClassD
	case deviceType == TypeHub || deviceType == TypeSpeakerHub:
		return ClassHub
	default:
		return ClassUnknown
	}
}

// KeepaliveSeconds returns the keepalive interval for a class, with
// overrides applied. Unknown classes get zero, forcing the online
// check to fail safe.
func (k Keepalives) KeepaliveSeconds(class NetworkClass) int {
	switch class {
	case ClassA, ClassD:
		if k.Sensor > 0 {
			return k.Sensor
		}
		return defaultSensorKeepalive
	case ClassC:
		if k.Controller > 0 {
			return k.Controller
		}
		return defaultControllerKeepalive
	case ClassHub:
		if k.Hub > 0 {
			return k.Hub
		}
		return defaultHubKeepalive
	default:
		return 0
	}
}

// Online determines whether a device is currently reachable.
//
// Hubs trust an explicit "online" boolean in their state when present.
// Every other case requires a last-report timestamp: the device is
// online when the elapsed time since reportAt does not exceed the
// class keepalive. A missing timestamp or non-positive keepalive is
// treated as offline, never as an error.
//
// Parameters:
//   - class: The device's network class
//   - keepaliveSeconds: Interval from Keepalives.KeepaliveSeconds
//   - state: Latest state snapshot (may be nil)
//   - reportAt: Last report time; zero means never reported
//   - now: Current wall-clock time
func Online(class NetworkClass, keepaliveSeconds int, state map[string]any, reportAt, now time.Time) bool {
	if class == ClassHub {
		if v, ok := state["online"].(bool); ok {
			return v
		}
	}
	if reportAt.IsZero() || keepaliveSeconds <= 0 {
		return false
	}
	return now.Sub(reportAt) <= time.Duration(keepaliveSeconds)*time.Second
}
