// Package endpoint describes the regional service endpoints of the
// cloud platform: the HTTPS API gateway, the OAuth2 token URL and the
// message-broker address. Endpoints are immutable values; a device is
// bound to exactly one endpoint for its lifetime.
package endpoint

import (
	"fmt"
	"strings"
)

// Broker ports used by the platform.
const (
	cloudBrokerPort = 8003
	localBrokerPort = 18080
	localAPIPort    = 1080
)

// Endpoint identifies one regional (or local) service instance.
type Endpoint struct {
	// Name is a short region label: "US", "EU" or "Local".
	Name string

	// Host is the bare API hostname.
	Host string

	// URL is the full HTTPS API gateway URL.
	URL string

	// TokenURL is the OAuth2 token endpoint.
	TokenURL string

	// BrokerHost and BrokerPort locate the message broker.
	BrokerHost string
	BrokerPort int
}

// The statically known cloud regions.
var (
	US = cloud("US", "api.yosmart.com")
	EU = cloud("EU", "api-eu.yosmart.com")
)

func cloud(name, host string) Endpoint {
	return Endpoint{
		Name:       name,
		Host:       host,
		URL:        fmt.Sprintf("https://%s/open/yolink/v2/api", host),
		TokenURL:   fmt.Sprintf("https://%s/open/yolink/token", host),
		BrokerHost: host,
		BrokerPort: cloudBrokerPort,
	}
}

// Local constructs the endpoint for a hub reachable on the local network.
// The local hub serves the same API shape over plain HTTP.
func Local(host string) Endpoint {
	return Endpoint{
		Name:       "Local",
		Host:       host,
		URL:        fmt.Sprintf("http://%s:%d/open/yolink/v2/api", host, localAPIPort),
		TokenURL:   fmt.Sprintf("http://%s:%d/open/yolink/token", host, localAPIPort),
		BrokerHost: host,
		BrokerPort: localBrokerPort,
	}
}

// ForRegion returns the cloud endpoint for a region label.
// Unrecognised labels fall back to US.
func ForRegion(region string) Endpoint {
	if strings.EqualFold(region, "EU") {
		return EU
	}
	return US
}

// ForDevice selects the endpoint a device is bound to.
//
// Selection order:
//  1. An explicit serviceZone field from device metadata, when set.
//  2. The model-name suffix heuristic: "-EC" models are EU stock.
//  3. The US default.
func ForDevice(serviceZone, modelName string) Endpoint {
	if serviceZone != "" {
		return ForRegion(serviceZone)
	}
	if strings.HasSuffix(modelName, "-EC") {
		return EU
	}
	return US
}
