package radio

import (
	"fmt"
	"strings"
)

// Config is one configuration category as sent by the radio. Exactly one
// category field is set per message.
type Config struct {
	Device    *DeviceConfig
	Position  *PositionConfig
	Power     *PowerConfig
	Network   *NetworkConfig
	Display   *DisplayConfig
	LoRa      *LoRaConfig
	Bluetooth *BluetoothConfig
}

// Type returns which category this config message carries.
func (c *Config) Type() ConfigType {
	switch {
	case c.Position != nil:
		return ConfigTypePosition
	case c.Power != nil:
		return ConfigTypePower
	case c.Network != nil:
		return ConfigTypeNetwork
	case c.Display != nil:
		return ConfigTypeDisplay
	case c.LoRa != nil:
		return ConfigTypeLoRa
	case c.Bluetooth != nil:
		return ConfigTypeBluetooth
	default:
		return ConfigTypeDevice
	}
}

// DeviceRole determines how a node participates in mesh routing.
type DeviceRole uint32

// Device roles.
const (
	RoleClient       DeviceRole = 0
	RoleClientMute   DeviceRole = 1
	RoleRouter       DeviceRole = 2
	RoleRouterClient DeviceRole = 3
	RoleRepeater     DeviceRole = 4
	RoleTracker      DeviceRole = 5
	RoleSensor       DeviceRole = 6
)

func (r DeviceRole) String() string {
	switch r {
	case RoleClientMute:
		return "client_mute"
	case RoleRouter:
		return "router"
	case RoleRouterClient:
		return "router_client"
	case RoleRepeater:
		return "repeater"
	case RoleTracker:
		return "tracker"
	case RoleSensor:
		return "sensor"
	default:
		return "client"
	}
}

// ParseDeviceRole converts a role name to its DeviceRole value.
func ParseDeviceRole(s string) (DeviceRole, error) {
	switch strings.ToLower(s) {
	case "client":
		return RoleClient, nil
	case "client_mute":
		return RoleClientMute, nil
	case "router":
		return RoleRouter, nil
	case "router_client":
		return RoleRouterClient, nil
	case "repeater":
		return RoleRepeater, nil
	case "tracker":
		return RoleTracker, nil
	case "sensor":
		return RoleSensor, nil
	default:
		return 0, fmt.Errorf("unknown device role %q", s)
	}
}

// RegionCode selects the LoRa regulatory region.
type RegionCode uint32

// Regulatory regions.
const (
	RegionUnset RegionCode = 0
	RegionUS    RegionCode = 1
	RegionEU433 RegionCode = 2
	RegionEU868 RegionCode = 3
	RegionCN    RegionCode = 4
	RegionJP    RegionCode = 5
	RegionANZ   RegionCode = 6
	RegionKR    RegionCode = 7
	RegionTW    RegionCode = 8
	RegionRU    RegionCode = 9
	RegionIN    RegionCode = 10
	RegionTH    RegionCode = 11
)

var regionNames = map[RegionCode]string{
	RegionUnset: "unset",
	RegionUS:    "US",
	RegionEU433: "EU_433",
	RegionEU868: "EU_868",
	RegionCN:    "CN",
	RegionJP:    "JP",
	RegionANZ:   "ANZ",
	RegionKR:    "KR",
	RegionTW:    "TW",
	RegionRU:    "RU",
	RegionIN:    "IN",
	RegionTH:    "TH",
}

func (r RegionCode) String() string {
	if name, ok := regionNames[r]; ok {
		return name
	}
	return fmt.Sprintf("region(%d)", uint32(r))
}

// ParseRegionCode converts a region name (case-insensitive) to its code.
func ParseRegionCode(s string) (RegionCode, error) {
	want := strings.ToUpper(s)
	for code, name := range regionNames {
		if strings.ToUpper(name) == want {
			return code, nil
		}
	}
	return 0, fmt.Errorf("unknown region %q", s)
}

// ModemPreset selects a named LoRa modulation preset.
type ModemPreset uint32

// Modem presets, fastest to longest range.
const (
	PresetLongFast   ModemPreset = 0
	PresetLongSlow   ModemPreset = 1
	PresetMediumFast ModemPreset = 3
	PresetMediumSlow ModemPreset = 4
	PresetShortFast  ModemPreset = 5
	PresetShortSlow  ModemPreset = 6
	PresetLongMod    ModemPreset = 7
)

var presetNames = map[ModemPreset]string{
	PresetLongFast:   "long_fast",
	PresetLongSlow:   "long_slow",
	PresetMediumFast: "medium_fast",
	PresetMediumSlow: "medium_slow",
	PresetShortFast:  "short_fast",
	PresetShortSlow:  "short_slow",
	PresetLongMod:    "long_moderate",
}

func (p ModemPreset) String() string {
	if name, ok := presetNames[p]; ok {
		return name
	}
	return fmt.Sprintf("preset(%d)", uint32(p))
}

// ParseModemPreset converts a preset name to its ModemPreset value.
func ParseModemPreset(s string) (ModemPreset, error) {
	want := strings.ToLower(s)
	for preset, name := range presetNames {
		if name == want {
			return preset, nil
		}
	}
	return 0, fmt.Errorf("unknown modem preset %q", s)
}

// GPSMode controls the node's GPS receiver.
type GPSMode uint32

// GPS modes.
const (
	GPSDisabled   GPSMode = 0
	GPSEnabled    GPSMode = 1
	GPSNotPresent GPSMode = 2
)

// DeviceConfig is the "device" configuration category.
type DeviceConfig struct {
	Role                  DeviceRole
	ButtonGPIO            uint32
	BuzzerGPIO            uint32
	NodeInfoBroadcastSecs uint32
	Timezone              string
	DisableTripleClick    bool
}

// PositionConfig is the "position" configuration category.
type PositionConfig struct {
	PositionBroadcastSecs  uint32
	SmartBroadcastEnabled  bool
	FixedPosition          bool
	GPSMode                GPSMode
	GPSUpdateIntervalSecs  uint32
	BroadcastSmartMinDist  uint32 // metres
	BroadcastSmartMinSecs  uint32
}

// PowerConfig is the "power" configuration category.
type PowerConfig struct {
	IsPowerSaving              bool
	OnBatteryShutdownAfterSecs uint32
	ADCMultiplierOverride      float32
	WaitBluetoothSecs          uint32
	SDSSecs                    uint32 // super-deep-sleep duration
	LSSecs                     uint32 // light-sleep duration
	MinWakeSecs                uint32
}

// NetworkConfig is the "network" configuration category.
type NetworkConfig struct {
	WifiEnabled bool
	WifiSSID    string
	WifiPSK     string
	NTPServer   string
	EthEnabled  bool
}

// DisplayConfig is the "display" configuration category.
type DisplayConfig struct {
	ScreenOnSecs     uint32
	AutoCarouselSecs uint32
	CompassNorthTop  bool
	FlipScreen       bool
	UseImperialUnits bool
}

// LoRaConfig is the "lora" configuration category.
type LoRaConfig struct {
	UsePreset       bool
	ModemPreset     ModemPreset
	Bandwidth       uint32 // kHz, when UsePreset is false
	SpreadFactor    uint32
	CodingRate      uint32
	FrequencyOffset float32
	Region          RegionCode
	HopLimit        uint32
	TxEnabled       bool
	TxPower         int32 // dBm
	ChannelNum      uint32
}

// BluetoothConfig is the "bluetooth" configuration category.
type BluetoothConfig struct {
	Enabled  bool
	FixedPIN uint32
	UsePIN   bool
}
