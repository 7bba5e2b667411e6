package client

import "encoding/json"

// BRDP is the response envelope of the platform API, shared by the
// HTTPS gateway and the streaming broker.
type BRDP struct {
	Code   string         `json:"code"`
	Desc   string         `json:"desc"`
	Method string         `json:"method"`
	Data   map[string]any `json:"data"`
	Event  string         `json:"event,omitempty"`
}

// CheckResponse validates the envelope code.
//
// Returns:
//   - error: nil for code 000000, otherwise an *APIError carrying the
//     vendor code and description
func (b *BRDP) CheckResponse() error {
	if b.Code == codeSuccess {
		return nil
	}
	return newAPIError(b.Code, b.Desc)
}

// DecodeBRDP parses one raw payload into a BRDP envelope.
func DecodeBRDP(payload []byte) (*BRDP, error) {
	var brdp BRDP
	if err := json.Unmarshal(payload, &brdp); err != nil {
		return nil, err
	}
	return &brdp, nil
}

// Call is one outbound BSDP request body.
//
// TargetDevice and Token are set for device-scoped methods and omitted
// for home-scoped ones (Home.getDeviceList and friends).
type Call struct {
	Method       string         `json:"method"`
	TargetDevice string         `json:"targetDevice,omitempty"`
	Token        string         `json:"token,omitempty"`
	Params       map[string]any `json:"params,omitempty"`
}

// NewCall builds a home-scoped call.
func NewCall(method string) *Call {
	return &Call{Method: method}
}

// NewDeviceCall builds a device-scoped call using the device's own
// token (distinct from the session credential).
func NewDeviceCall(deviceID, deviceToken, method string) *Call {
	return &Call{Method: method, TargetDevice: deviceID, Token: deviceToken}
}

// WithParams merges params into the call and returns it for chaining.
func (c *Call) WithParams(params map[string]any) *Call {
	if len(params) == 0 {
		return c
	}
	if c.Params == nil {
		c.Params = make(map[string]any, len(params))
	}
	for k, v := range params {
		c.Params[k] = v
	}
	return c
}
