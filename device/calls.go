package device

import (
	"context"
	"fmt"

	"github.com/nerrad567/gray-logic-cloud/client"
	"github.com/nerrad567/gray-logic-cloud/request"
	"github.com/nerrad567/gray-logic-cloud/resolve"
)

// invoke executes one device-scoped call against the device's endpoint.
func (d *Descriptor) invoke(ctx context.Context, method string, params map[string]any) (*client.BRDP, error) {
	if d.client == nil {
		return nil, ErrRegistryNotLoaded
	}
	call := client.NewDeviceCall(d.DeviceID, d.Token, fmt.Sprintf("%s.%s", d.Type, method))
	return d.client.Execute(ctx, d.Endpoint.URL, call.WithParams(params))
}

// GetState requests the device's realtime state.
func (d *Descriptor) GetState(ctx context.Context) (*client.BRDP, error) {
	return d.invoke(ctx, "getState", nil)
}

// FetchState fetches the device's last reported state, with the
// vendor-payload normalization applied for device types that need it
// (depth scaling, meter scaling).
func (d *Descriptor) FetchState(ctx context.Context) (*client.BRDP, error) {
	brdp, err := d.invoke(ctx, "fetchState", nil)
	if err != nil {
		return nil, err
	}

	if state, ok := brdp.Data["state"].(map[string]any); ok {
		switch d.Type {
		case TypeWaterDepthSensor:
			resolve.WaterDepth(state, d.Attributes)
		case TypeWaterMeterController:
			resolve.WaterMeter(state, d.ModelName, d.Attributes)
		case TypeWaterMeterMulti:
			resolve.WaterMeterMulti(state, d.ModelName, d.Attributes)
		}
	}
	return brdp, nil
}

// GetExternalData fetches the device settings blob (calibration
// attributes and similar).
func (d *Descriptor) GetExternalData(ctx context.Context) (*client.BRDP, error) {
	return d.invoke(ctx, "getExternalData", nil)
}

// Call executes a built request against the device.
func (d *Descriptor) Call(ctx context.Context, req *request.Request) (*client.BRDP, error) {
	if req == nil {
		return nil, client.NewInitializationError("request is required")
	}
	return d.invoke(ctx, req.Method, req.Params)
}
