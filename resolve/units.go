package resolve

import "fmt"

// VolumeUnit identifies a water-volume unit reported by meter devices.
type VolumeUnit string

// Supported volume units.
const (
	Gallons     VolumeUnit = "GAL"
	Liters      VolumeUnit = "L"
	CubicMeters VolumeUnit = "M3"
)

// litersPer maps each unit to its size in liters.
var litersPer = map[VolumeUnit]float64{
	Gallons:     3.785411784,
	Liters:      1,
	CubicMeters: 1000,
}

// ConvertVolume converts a value between volume units.
//
// Returns:
//   - float64: Converted value
//   - error: When either unit is not recognized
func ConvertVolume(value float64, from, to VolumeUnit) (float64, error) {
	fromFactor, ok := litersPer[from]
	if !ok {
		return 0, fmt.Errorf("%q is not a recognized volume unit", from)
	}
	toFactor, ok := litersPer[to]
	if !ok {
		return 0, fmt.Errorf("%q is not a recognized volume unit", to)
	}
	return value * fromFactor / toFactor, nil
}
