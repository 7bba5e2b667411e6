package endpoint

import "testing"

func TestCloudEndpoints(t *testing.T) {
	if US.URL != "https://api.yosmart.com/open/yolink/v2/api" {
		t.Errorf("US.URL = %q", US.URL)
	}
	if EU.Host != "api-eu.yosmart.com" {
		t.Errorf("EU.Host = %q", EU.Host)
	}
	if US.BrokerPort != 8003 {
		t.Errorf("US.BrokerPort = %d, want 8003", US.BrokerPort)
	}
}

func TestLocal(t *testing.T) {
	ep := Local("192.168.1.50")

	if ep.URL != "http://192.168.1.50:1080/open/yolink/v2/api" {
		t.Errorf("Local().URL = %q", ep.URL)
	}
	if ep.BrokerHost != "192.168.1.50" || ep.BrokerPort != 18080 {
		t.Errorf("Local() broker = %s:%d, want 192.168.1.50:18080", ep.BrokerHost, ep.BrokerPort)
	}
}

func TestForDevice(t *testing.T) {
	tests := []struct {
		name        string
		serviceZone string
		model       string
		want        string
	}{
		{"explicit EU zone", "EU", "YS7804-UC", "EU"},
		{"explicit US zone wins over suffix", "US", "YS7804-EC", "US"},
		{"zone is case-insensitive", "eu", "YS7804-UC", "EU"},
		{"EC model suffix", "", "YS7804-EC", "EU"},
		{"UC model defaults US", "", "YS7804-UC", "US"},
		{"no hints defaults US", "", "", "US"},
		{"unknown zone falls back to US", "AP", "", "US"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ForDevice(tt.serviceZone, tt.model); got.Name != tt.want {
				t.Errorf("ForDevice(%q, %q) = %s, want %s", tt.serviceZone, tt.model, got.Name, tt.want)
			}
		})
	}
}
