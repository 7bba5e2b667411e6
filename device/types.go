package device

import (
	"github.com/nerrad567/gray-logic-cloud/client"
	"github.com/nerrad567/gray-logic-cloud/endpoint"
)

// Device type vocabulary used by the platform. Unknown types are
// carried through untouched; they simply get no special resolution.
const (
	TypeDoorSensor           = "DoorSensor"
	TypeTHSensor             = "THSensor"
	TypeMotionSensor         = "MotionSensor"
	TypeLeakSensor           = "LeakSensor"
	TypeVibrationSensor      = "VibrationSensor"
	TypeCOSmokeSensor        = "COSmokeSensor"
	TypeSmokeAlarm           = "SmokeAlarm"
	TypePowerFailureAlarm    = "PowerFailureAlarm"
	TypeSoilTHSensor         = "SoilTHSensor"
	TypeSmartRemoter         = "SmartRemoter"
	TypeWaterDepthSensor     = "WaterDepthSensor"
	TypeOutlet               = "Outlet"
	TypeMultiOutlet          = "MultiOutlet"
	TypeSwitch               = "Switch"
	TypeThermostat           = "Thermostat"
	TypeSiren                = "Siren"
	TypeManipulator          = "Manipulator"
	TypeGarageDoor           = "GarageDoor"
	TypeDimmer               = "Dimmer"
	TypeSprinkler            = "Sprinkler"
	TypeSprinklerV2          = "SprinklerV2"
	TypeFinger               = "Finger"
	TypeLock                 = "Lock"
	TypeLockV2               = "LockV2"
	TypeWaterMeterController = "WaterMeterController"
	TypeWaterMeterMulti      = "WaterMeterMultiController"
	TypeHub                  = "Hub"
	TypeSpeakerHub           = "SpeakerHub"
)

// parentNullSentinel is the literal the platform sends for "no parent".
const parentNullSentinel = "null"

// Descriptor is one registered device.
//
// Descriptors are immutable after construction except for Attributes,
// which is populated lazily for device types that need an extra
// settings fetch (depth-sensor calibration).
type Descriptor struct {
	// DeviceID is the unique key within a registry.
	DeviceID string `json:"deviceId"`

	// Name is the user-assigned label.
	Name string `json:"name"`

	// Type is the device category (closed vocabulary above).
	Type string `json:"type"`

	// Token is the device-scoped auth token, distinct from the
	// session credential.
	Token string `json:"token"`

	// ModelName is the hardware model code, e.g. "YS7804-UC".
	ModelName string `json:"modelName"`

	// ServiceZone, when present, pins the device to a region.
	ServiceZone string `json:"serviceZone,omitempty"`

	// ParentDeviceID links a paired logical device to the physical
	// device that reports for it. "null" and "" mean no parent.
	ParentDeviceID string `json:"parentDeviceId,omitempty"`

	// Endpoint the device is bound to for its lifetime.
	Endpoint endpoint.Endpoint `json:"-"`

	// Attributes is the opaque settings blob from getExternalData,
	// nil until fetched. Depth-sensor calibration lives here.
	Attributes map[string]any `json:"-"`

	// client executes device-scoped calls; set by the registry at
	// load time.
	client *client.Client
}

// PairedID returns the parent device id, or "" when the device has no
// pairing. The platform's "null" sentinel is treated as absent.
func (d *Descriptor) PairedID() string {
	if d.ParentDeviceID == "" || d.ParentDeviceID == parentNullSentinel {
		return ""
	}
	return d.ParentDeviceID
}

// bindEndpoint resolves the endpoint the descriptor belongs to from
// its metadata. Called once at registration time.
func (d *Descriptor) bindEndpoint(local *endpoint.Endpoint) {
	if local != nil {
		d.Endpoint = *local
		return
	}
	d.Endpoint = endpoint.ForDevice(d.ServiceZone, d.ModelName)
}
