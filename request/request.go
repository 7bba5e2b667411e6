// Package request provides thin parameter-shaping builders for
// device-scoped API calls. Builders hold no state beyond the values
// they shape; each Request is consumed by exactly one call.
package request

// Request is one device invocation: a method verb plus its parameters.
// The device category prefix is added by the executor from the target
// device's type.
type Request struct {
	Method string
	Params map[string]any
}

// SetState builds a plain on/off state request for switches, outlets
// and manipulators. State is "open" or "close".
//
// For multi-outlet devices, plugIndex selects the channel; pass a
// negative value for single-channel devices. The channel is encoded as
// a bitmask in the "chs" parameter.
func SetState(state string, plugIndex int) *Request {
	params := map[string]any{"state": state}
	if plugIndex >= 0 {
		params["chs"] = 1 << plugIndex
	}
	return &Request{Method: "setState", Params: params}
}

// ThermostatState carries the optional fields of a thermostat
// setState request. Nil fields are omitted.
type ThermostatState struct {
	LowTemp  *float64
	HighTemp *float64
	Mode     *string
	Fan      *string
	Schedule *string
}

// ThermostatSetState builds a thermostat setState request from the
// non-nil fields of state.
func ThermostatSetState(state ThermostatState) *Request {
	params := map[string]any{}
	if state.LowTemp != nil {
		params["lowTemp"] = *state.LowTemp
	}
	if state.HighTemp != nil {
		params["highTemp"] = *state.HighTemp
	}
	if state.Mode != nil {
		params["mode"] = *state.Mode
	}
	if state.Fan != nil {
		params["fan"] = *state.Fan
	}
	if state.Schedule != nil {
		params["sche"] = *state.Schedule
	}
	return &Request{Method: "setState", Params: params}
}

// ThermostatSetECO builds a thermostat eco-mode request.
// Mode is "on" or "off".
func ThermostatSetECO(mode string) *Request {
	return &Request{Method: "setECO", Params: map[string]any{"mode": mode}}
}
