package radio

import (
	"bytes"
	"reflect"
	"testing"
)

func uint32p(v uint32) *uint32 { return &v }
func int32p(v int32) *int32    { return &v }

func TestFromRadioRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		env  *FromRadio
	}{
		{
			name: "my info",
			env: &FromRadio{
				MyInfo: &MyNodeInfo{NodeNum: 0xA1B2C3D4, RebootCount: 7, MinAppVersion: 30200},
			},
		},
		{
			name: "node info",
			env: &FromRadio{
				Node: &NodeInfo{
					Num: 0x11223344,
					User: &User{
						ID:        "!11223344",
						LongName:  "Base Camp",
						ShortName: "BC",
						HwModel:   HardwareRAK4631,
					},
					SNR:       -7.25,
					LastHeard: 1756400000,
					HopsAway:  2,
				},
			},
		},
		{
			name: "channel",
			env: &FromRadio{
				Channel: &Channel{
					Index:    1,
					Settings: &ChannelSettings{Name: "ops", PSK: []byte{1, 2, 3, 4}},
					Role:     ChannelSecondary,
				},
			},
		},
		{
			name: "config complete",
			env:  &FromRadio{ConfigCompleteID: uint32p(0xDEADBEEF)},
		},
		{
			name: "config complete zero nonce",
			env:  &FromRadio{ConfigCompleteID: uint32p(0)},
		},
		{
			name: "text packet",
			env: &FromRadio{
				Packet: &MeshPacket{
					From:    0x11223344,
					To:      Broadcast,
					Channel: 0,
					Decoded: &Data{Port: PortText, Payload: []byte("hello mesh")},
					ID:      42,
					RxTime:  1756400100,
					RxSNR:   6.5,
					RxRSSI:  -91,
					WantAck: true,
				},
			},
		},
		{
			name: "encrypted packet",
			env: &FromRadio{
				Packet: &MeshPacket{
					From:      0x55667788,
					To:        0x11223344,
					Encrypted: []byte{0xDE, 0xAD, 0xBE, 0xEF},
					ID:        99,
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := UnmarshalFromRadio(MarshalFromRadio(tt.env))
			if err != nil {
				t.Fatalf("UnmarshalFromRadio() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.env) {
				t.Errorf("round trip mismatch\n got: %+v\nwant: %+v", got, tt.env)
			}
		})
	}
}

func TestToRadioRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		env  *ToRadio
	}{
		{
			name: "want config",
			env:  &ToRadio{WantConfigID: uint32p(12345)},
		},
		{
			name: "disconnect",
			env:  &ToRadio{Disconnect: true},
		},
		{
			name: "packet",
			env: &ToRadio{
				Packet: &MeshPacket{
					From:    0xA1B2C3D4,
					To:      0x11223344,
					Decoded: &Data{Port: PortText, Payload: []byte("on my way"), WantResponse: true},
					ID:      7,
					WantAck: true,
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := UnmarshalToRadio(MarshalToRadio(tt.env))
			if err != nil {
				t.Fatalf("UnmarshalToRadio() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.env) {
				t.Errorf("round trip mismatch\n got: %+v\nwant: %+v", got, tt.env)
			}
		})
	}
}

func TestPositionRoundTrip(t *testing.T) {
	lat := int32(515074560)
	lon := int32(-1278000)

	pos := &Position{
		LatitudeI:  &lat,
		LongitudeI: &lon,
		Altitude:   -12,
		Time:       1756400200,
	}

	got, err := UnmarshalPosition(MarshalPosition(pos))
	if err != nil {
		t.Fatalf("UnmarshalPosition() error = %v", err)
	}
	if !reflect.DeepEqual(got, pos) {
		t.Errorf("round trip mismatch\n got: %+v\nwant: %+v", got, pos)
	}
}

func TestPositionNoFix(t *testing.T) {
	// A node without GPS lock sends a position with no coordinates.
	got, err := UnmarshalPosition(MarshalPosition(&Position{Time: 1756400200}))
	if err != nil {
		t.Fatalf("UnmarshalPosition() error = %v", err)
	}
	if got.LatitudeI != nil || got.LongitudeI != nil {
		t.Errorf("expected absent coordinates, got lat=%v lon=%v", got.LatitudeI, got.LongitudeI)
	}
}

func TestTelemetryRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		tel  *Telemetry
	}{
		{
			name: "device metrics",
			tel: &Telemetry{
				Time: 1756400300,
				Device: &DeviceMetrics{
					BatteryLevel:       87,
					Voltage:            3.92,
					ChannelUtilization: 4.5,
					AirUtilTx:          0.8,
					UptimeSeconds:      86400,
				},
			},
		},
		{
			name: "environment metrics",
			tel: &Telemetry{
				Time: 1756400300,
				Environment: &EnvironmentMetrics{
					Temperature:        21.5,
					RelativeHumidity:   48,
					BarometricPressure: 1013.2,
				},
			},
		},
		{
			name: "air quality metrics",
			tel: &Telemetry{
				Time:       1756400300,
				AirQuality: &AirQualityMetrics{PM25Standard: 12, PM100Standard: 18},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := UnmarshalTelemetry(MarshalTelemetry(tt.tel))
			if err != nil {
				t.Fatalf("UnmarshalTelemetry() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.tel) {
				t.Errorf("round trip mismatch\n got: %+v\nwant: %+v", got, tt.tel)
			}
		})
	}
}

func TestRoutingRoundTrip(t *testing.T) {
	reason := RouteMaxRetransmit

	tests := []struct {
		name string
		msg  *Routing
	}{
		{
			name: "route reply",
			msg:  &Routing{RouteReply: &RouteDiscovery{Route: []uint32{0x11, 0x22, 0x33}}},
		},
		{
			name: "error reason",
			msg:  &Routing{ErrorReason: &reason},
		},
		{
			name: "empty reply",
			msg:  &Routing{RouteReply: &RouteDiscovery{}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := UnmarshalRouting(MarshalRouting(tt.msg))
			if err != nil {
				t.Fatalf("UnmarshalRouting() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.msg) {
				t.Errorf("round trip mismatch\n got: %+v\nwant: %+v", got, tt.msg)
			}
		})
	}
}

func TestRouteDiscoveryPackedEncoding(t *testing.T) {
	// Firmware may pack the hop list; the decoder accepts both forms.
	var e encoder
	var packed encoder
	packed.uvarint(0x11)
	packed.uvarint(0x22)
	packed.uvarint(0x33)
	e.bytes(1, packed.buf)

	got, err := unmarshalRouteDiscovery(e.buf)
	if err != nil {
		t.Fatalf("unmarshalRouteDiscovery() error = %v", err)
	}
	want := []uint32{0x11, 0x22, 0x33}
	if !reflect.DeepEqual(got.Route, want) {
		t.Errorf("Route = %v, want %v", got.Route, want)
	}
}

func TestAdminMessageRoundTrip(t *testing.T) {
	cfgType := ConfigTypeLoRa
	removeIdx := uint32(2)
	reboot := int32(5)

	tests := []struct {
		name string
		msg  *AdminMessage
	}{
		{
			name: "get config request",
			msg:  &AdminMessage{GetConfigRequest: &cfgType},
		},
		{
			name: "get config response with passkey",
			msg: &AdminMessage{
				GetConfigResponse: &Config{
					LoRa: &LoRaConfig{
						UsePreset:   true,
						ModemPreset: PresetLongFast,
						Region:      RegionEU868,
						HopLimit:    3,
						TxEnabled:   true,
						TxPower:     27,
					},
				},
				SessionPasskey: []byte{9, 8, 7, 6},
			},
		},
		{
			name: "set channel",
			msg: &AdminMessage{
				SetChannel: &Channel{
					Index:    2,
					Settings: &ChannelSettings{Name: "logistics", PSK: []byte{0xAA}},
					Role:     ChannelSecondary,
				},
			},
		},
		{
			name: "remove channel",
			msg:  &AdminMessage{RemoveChannel: &removeIdx},
		},
		{
			name: "reboot",
			msg:  &AdminMessage{RebootSeconds: &reboot},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := UnmarshalAdminMessage(MarshalAdminMessage(tt.msg))
			if err != nil {
				t.Fatalf("UnmarshalAdminMessage() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.msg) {
				t.Errorf("round trip mismatch\n got: %+v\nwant: %+v", got, tt.msg)
			}
		})
	}
}

func TestConfigRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		cfg  *Config
	}{
		{
			name: "device",
			cfg: &Config{Device: &DeviceConfig{
				Role:                  RoleRouter,
				NodeInfoBroadcastSecs: 900,
				Timezone:              "Europe/London",
			}},
		},
		{
			name: "position",
			cfg: &Config{Position: &PositionConfig{
				PositionBroadcastSecs: 300,
				SmartBroadcastEnabled: true,
				GPSMode:               GPSEnabled,
			}},
		},
		{
			name: "power",
			cfg:  &Config{Power: &PowerConfig{IsPowerSaving: true, MinWakeSecs: 10}},
		},
		{
			name: "network",
			cfg:  &Config{Network: &NetworkConfig{WifiEnabled: true, WifiSSID: "basecamp", NTPServer: "pool.ntp.org"}},
		},
		{
			name: "display",
			cfg:  &Config{Display: &DisplayConfig{ScreenOnSecs: 60, FlipScreen: true}},
		},
		{
			name: "lora defaults",
			cfg:  &Config{LoRa: &LoRaConfig{}},
		},
		{
			name: "bluetooth",
			cfg:  &Config{Bluetooth: &BluetoothConfig{Enabled: true, UsePIN: true, FixedPIN: 123456}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := unmarshalConfig(marshalConfig(tt.cfg))
			if err != nil {
				t.Fatalf("unmarshalConfig() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.cfg) {
				t.Errorf("round trip mismatch\n got: %+v\nwant: %+v", got, tt.cfg)
			}
			if got.Type() != tt.cfg.Type() {
				t.Errorf("Type() = %v, want %v", got.Type(), tt.cfg.Type())
			}
		})
	}
}

func TestUnknownFieldsSkipped(t *testing.T) {
	// An envelope with fields from a newer firmware revision must decode
	// cleanly, keeping the fields we know about.
	var e encoder
	e.message(2, marshalNodeInfo(&NodeInfo{Num: 77, LastHeard: 100}))
	e.varintAlways(99, 12345)            // unknown varint
	e.bytes(100, []byte{1, 2, 3})        // unknown bytes
	e.float(101, 3.14)                   // unknown fixed32
	e.tag(102, wireFixed64)              // unknown fixed64
	e.buf = append(e.buf, make([]byte, 8)...)

	env, err := UnmarshalFromRadio(e.buf)
	if err != nil {
		t.Fatalf("UnmarshalFromRadio() error = %v", err)
	}
	if env.Node == nil || env.Node.Num != 77 {
		t.Errorf("Node = %+v, want Num=77", env.Node)
	}
}

func TestUnmarshalTruncated(t *testing.T) {
	env := &FromRadio{
		Node: &NodeInfo{Num: 1, User: &User{ID: "!00000001", LongName: "n1"}},
	}
	full := MarshalFromRadio(env)

	// Cutting inside the trailing string is always detectable.
	if _, err := UnmarshalFromRadio(full[:len(full)-1]); err == nil {
		t.Error("expected error for truncated message")
	}
}

func TestZigzagEncoding(t *testing.T) {
	tests := []struct {
		value int32
		want  []byte
	}{
		{0, nil}, // zero omitted
		{-1, []byte{0x01}},
		{1, []byte{0x02}},
		{-91, []byte{0xB5, 0x01}},
	}

	for _, tt := range tests {
		var e encoder
		e.zigzag(9, tt.value)
		if tt.want == nil {
			if len(e.buf) != 0 {
				t.Errorf("zigzag(%d) emitted %v, want nothing", tt.value, e.buf)
			}
			continue
		}
		want := append([]byte{0x48 | 0}, tt.want...) // field 9, wire 0 => 0x48
		if !bytes.Equal(e.buf, want) {
			t.Errorf("zigzag(%d) = %v, want %v", tt.value, e.buf, want)
		}
	}
}

func TestParseEnums(t *testing.T) {
	if r, err := ParseDeviceRole("Router"); err != nil || r != RoleRouter {
		t.Errorf("ParseDeviceRole(Router) = %v, %v", r, err)
	}
	if _, err := ParseDeviceRole("submarine"); err == nil {
		t.Error("ParseDeviceRole(submarine) expected error")
	}
	if r, err := ParseRegionCode("eu_868"); err != nil || r != RegionEU868 {
		t.Errorf("ParseRegionCode(eu_868) = %v, %v", r, err)
	}
	if p, err := ParseModemPreset("LONG_FAST"); err != nil || p != PresetLongFast {
		t.Errorf("ParseModemPreset(LONG_FAST) = %v, %v", p, err)
	}
}
