package resolve

import (
	"math"
	"strings"
)

// Depth-sensor calibration defaults used when device attributes are
// unavailable.
const (
	defaultDepthRange   = 5.0
	defaultDepthDensity = 1.0
)

// defaultStepFactor is the water-meter scaling divisor used when a
// device carries no override.
const defaultStepFactor = 10.0

// reciprocalStepModels are water-meter model prefixes whose step
// factor is a multiplier rather than a divisor.
var reciprocalStepModels = []string{"YS5018"}

// msgTypeReport is the periodic status-report discriminator. Button
// sequences are only meaningful on dedicated press events, so report
// payloads have their event object suppressed.
const msgTypeReport = "Report"

// ButtonEvent decodes the key-mask of a remote's button-press event.
//
// The keyMask integer is replaced by a 1-based button sequence:
// floor(log2(mask))+1, with mask 0 mapping to sequence 0. For a plain
// status report the whole event object is removed instead.
//
// The payload is modified in place and returned.
func ButtonEvent(msgType string, data map[string]any) map[string]any {
	if data == nil {
		return nil
	}
	if msgType == msgTypeReport {
		delete(data, "event")
		return data
	}

	event, ok := data["event"].(map[string]any)
	if !ok {
		return data
	}
	mask, ok := number(event["keyMask"])
	if !ok {
		return data
	}

	sequence := 0
	if mask > 0 {
		sequence = int(math.Log2(mask)) + 1
	}
	event["keyMask"] = sequence
	return data
}

// WaterDepth converts a raw depth report (millimeters scaled by 1000)
// into a physical reading using the device calibration attributes:
//
//	reading = (range * (raw/1000)) / density
//
// rounded to 2 decimal places. Missing attributes fall back to
// range=5, density=1.
//
// The payload is modified in place and returned.
func WaterDepth(state, attrs map[string]any) map[string]any {
	if state == nil {
		return nil
	}
	raw, ok := number(state["waterDepth"])
	if !ok {
		return state
	}

	devRange, devDensity := defaultDepthRange, defaultDepthDensity
	if cal, ok := attrs["range"].(map[string]any); ok {
		if v, ok := number(cal["range"]); ok {
			devRange = v
		}
		if v, ok := number(cal["density"]); ok && v != 0 {
			devDensity = v
		}
	}

	state["waterDepth"] = round2(devRange * (raw / 1000) / devDensity)
	return state
}

// WaterMeter converts a raw meter integer into cubic meters.
//
// The raw value is divided by the step factor (default 10, overridden
// by the device's stepFactor attribute); a negative factor multiplies
// by its absolute value instead, and the reciprocal-scaling model
// families multiply by the factor directly. The scaled value is then
// converted from the configured volume unit (default gallons) to cubic
// meters and truncated toward zero to 5 decimal places.
//
// The valve state, when present, is carried through unchanged.
// The payload is modified in place and returned.
func WaterMeter(state map[string]any, model string, attrs map[string]any) map[string]any {
	if state == nil {
		return nil
	}
	resolveMeterField(state, "meter", model, attrs)
	return state
}

// WaterMeterMulti is the two-channel variant of WaterMeter: channels 0
// and 1 are scaled independently and both valve states carry through.
func WaterMeterMulti(state map[string]any, model string, attrs map[string]any) map[string]any {
	if state == nil {
		return nil
	}
	resolveMeterField(state, "meter0", model, attrs)
	resolveMeterField(state, "meter1", model, attrs)
	return state
}

// resolveMeterField rewrites one raw meter field in place.
func resolveMeterField(state map[string]any, field, model string, attrs map[string]any) {
	raw, ok := number(state[field])
	if !ok {
		return
	}

	factor := defaultStepFactor
	if v, ok := number(attrs["stepFactor"]); ok && v != 0 {
		factor = v
	}

	var scaled float64
	switch {
	case factor < 0:
		scaled = raw * math.Abs(factor)
	case reciprocalStep(model):
		scaled = raw * factor
	default:
		scaled = raw / factor
	}

	unit := Gallons
	if v, ok := attrs["meterUnit"].(string); ok && v != "" {
		unit = VolumeUnit(v)
	}

	reading, err := ConvertVolume(scaled, unit, CubicMeters)
	if err != nil {
		// Unknown unit: leave the raw value untouched.
		return
	}
	state[field] = trunc5(reading)
}

// reciprocalStep reports whether the model belongs to a family with
// reciprocal step scaling.
func reciprocalStep(model string) bool {
	for _, prefix := range reciprocalStepModels {
		if strings.HasPrefix(model, prefix) {
			return true
		}
	}
	return false
}

// number extracts a float from the loosely typed values JSON decoding
// produces.
func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

// round2 rounds to 2 decimal places.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// trunc5 truncates toward zero to 5 decimal places.
func trunc5(v float64) float64 {
	return math.Trunc(v*1e5) / 1e5
}
