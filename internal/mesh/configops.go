package mesh

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/rfmesh/rfmesh-core/internal/radio"
)

// configFields lists every addressable "category.field" key. Validation
// happens against this table so unknown keys error even when the category
// has never been cached.
var configFields = map[string]map[string]struct{}{
	"device": {
		"role": {}, "button_gpio": {}, "buzzer_gpio": {},
		"node_info_broadcast_secs": {}, "timezone": {}, "disable_triple_click": {},
	},
	"position": {
		"position_broadcast_secs": {}, "smart_broadcast_enabled": {},
		"fixed_position": {}, "gps_mode": {}, "gps_update_interval": {},
		"smart_min_distance": {}, "smart_min_interval": {},
	},
	"power": {
		"is_power_saving": {}, "on_battery_shutdown_after_secs": {},
		"adc_multiplier_override": {}, "wait_bluetooth_secs": {},
		"sds_secs": {}, "ls_secs": {}, "min_wake_secs": {},
	},
	"network": {
		"wifi_enabled": {}, "wifi_ssid": {}, "wifi_psk": {},
		"ntp_server": {}, "eth_enabled": {},
	},
	"display": {
		"screen_on_secs": {}, "auto_carousel_secs": {}, "compass_north_top": {},
		"flip_screen": {}, "use_imperial_units": {},
	},
	"lora": {
		"use_preset": {}, "modem_preset": {}, "bandwidth": {}, "spread_factor": {},
		"coding_rate": {}, "frequency_offset": {}, "region": {}, "hop_limit": {},
		"tx_enabled": {}, "tx_power": {}, "channel_num": {},
	},
	"bluetooth": {
		"enabled": {}, "fixed_pin": {}, "use_pin": {},
	},
}

// configTypeFor maps category names to their wire identifiers.
var configTypeFor = map[string]radio.ConfigType{
	"device":    radio.ConfigTypeDevice,
	"position":  radio.ConfigTypePosition,
	"power":     radio.ConfigTypePower,
	"network":   radio.ConfigTypeNetwork,
	"display":   radio.ConfigTypeDisplay,
	"lora":      radio.ConfigTypeLoRa,
	"bluetooth": radio.ConfigTypeBluetooth,
}

// splitConfigKey validates a "category.field" key.
func splitConfigKey(key string) (category, field string, err error) {
	category, field, ok := strings.Cut(key, ".")
	if !ok {
		return "", "", fmt.Errorf("%w: key %q must be category.field", ErrUnknownConfigCategory, key)
	}
	fields, ok := configFields[category]
	if !ok {
		return "", "", fmt.Errorf("%w: %q", ErrUnknownConfigCategory, category)
	}
	if _, ok := fields[field]; !ok {
		return "", "", fmt.Errorf("%w: %s.%s", ErrUnknownConfigField, category, field)
	}
	return category, field, nil
}

// ConfigValue reads one configuration value from the radio.
//
// A get-config request is sent, the cache is given a fixed delay to absorb
// the reply, and the value is read from the cache. The radio reports
// config on its own schedule, so the result reflects the most recent
// report, which the delay usually makes current.
//
// Parameters:
//   - ctx: Context for cancellation
//   - key: "category.field", e.g. "lora.region"
//
// Returns:
//   - any: The value; nil when the radio has never reported the category
//   - error: Unknown key, ErrNotConnected, or a transport failure
func (c *Client) ConfigValue(ctx context.Context, key string) (any, error) {
	category, field, err := splitConfigKey(key)
	if err != nil {
		return nil, err
	}
	if _, err := c.currentStream(); err != nil {
		return nil, err
	}

	cfgType := configTypeFor[category]
	if _, err := c.sendAdmin(&radio.AdminMessage{GetConfigRequest: &cfgType}, true); err != nil {
		return nil, err
	}

	if err := sleepCtx(ctx, configReadDelay); err != nil {
		return nil, err
	}

	return configGet(c.state.snapshot().Config, category, field), nil
}

// SetConfigValue writes one configuration value, fire and forget.
//
// The new category message starts from the cached category so unrelated
// fields keep their values. The cache itself is not touched: it converges
// when the radio reports the category back.
//
// Parameters:
//   - key: "category.field"
//   - value: String form of the new value; enums accept their names
//
// Returns:
//   - error: Unknown key, ErrInvalidConfigValue, ErrNotConnected, or a
//     transport failure
func (c *Client) SetConfigValue(key, value string) error {
	category, field, err := splitConfigKey(key)
	if err != nil {
		return err
	}

	cfg, err := configBuild(c.state.snapshot().Config, category, field, value)
	if err != nil {
		return err
	}

	_, err = c.sendAdmin(&radio.AdminMessage{SetConfig: cfg}, false)
	return err
}

// ListConfig returns every cached configuration value, keyed by category
// then field. Categories the radio has never reported are absent.
func (c *Client) ListConfig() map[string]map[string]any {
	snap := c.state.snapshot().Config
	out := make(map[string]map[string]any)
	for category, fields := range configFields {
		if !configCached(snap, category) {
			continue
		}
		values := make(map[string]any, len(fields))
		for field := range fields {
			values[field] = configGet(snap, category, field)
		}
		out[category] = values
	}
	return out
}

func configCached(cfg DeviceConfigState, category string) bool {
	switch category {
	case "device":
		return cfg.Device != nil
	case "position":
		return cfg.Position != nil
	case "power":
		return cfg.Power != nil
	case "network":
		return cfg.Network != nil
	case "display":
		return cfg.Display != nil
	case "lora":
		return cfg.LoRa != nil
	case "bluetooth":
		return cfg.Bluetooth != nil
	}
	return false
}

// configGet reads a validated field from the cached config. Returns nil
// when the category has never been reported.
func configGet(cfg DeviceConfigState, category, field string) any {
	switch category {
	case "device":
		if cfg.Device == nil {
			return nil
		}
		d := cfg.Device
		switch field {
		case "role":
			return d.Role.String()
		case "button_gpio":
			return d.ButtonGPIO
		case "buzzer_gpio":
			return d.BuzzerGPIO
		case "node_info_broadcast_secs":
			return d.NodeInfoBroadcastSecs
		case "timezone":
			return d.Timezone
		case "disable_triple_click":
			return d.DisableTripleClick
		}
	case "position":
		if cfg.Position == nil {
			return nil
		}
		p := cfg.Position
		switch field {
		case "position_broadcast_secs":
			return p.PositionBroadcastSecs
		case "smart_broadcast_enabled":
			return p.SmartBroadcastEnabled
		case "fixed_position":
			return p.FixedPosition
		case "gps_mode":
			return uint32(p.GPSMode)
		case "gps_update_interval":
			return p.GPSUpdateIntervalSecs
		case "smart_min_distance":
			return p.BroadcastSmartMinDist
		case "smart_min_interval":
			return p.BroadcastSmartMinSecs
		}
	case "power":
		if cfg.Power == nil {
			return nil
		}
		p := cfg.Power
		switch field {
		case "is_power_saving":
			return p.IsPowerSaving
		case "on_battery_shutdown_after_secs":
			return p.OnBatteryShutdownAfterSecs
		case "adc_multiplier_override":
			return p.ADCMultiplierOverride
		case "wait_bluetooth_secs":
			return p.WaitBluetoothSecs
		case "sds_secs":
			return p.SDSSecs
		case "ls_secs":
			return p.LSSecs
		case "min_wake_secs":
			return p.MinWakeSecs
		}
	case "network":
		if cfg.Network == nil {
			return nil
		}
		n := cfg.Network
		switch field {
		case "wifi_enabled":
			return n.WifiEnabled
		case "wifi_ssid":
			return n.WifiSSID
		case "wifi_psk":
			return n.WifiPSK
		case "ntp_server":
			return n.NTPServer
		case "eth_enabled":
			return n.EthEnabled
		}
	case "display":
		if cfg.Display == nil {
			return nil
		}
		d := cfg.Display
		switch field {
		case "screen_on_secs":
			return d.ScreenOnSecs
		case "auto_carousel_secs":
			return d.AutoCarouselSecs
		case "compass_north_top":
			return d.CompassNorthTop
		case "flip_screen":
			return d.FlipScreen
		case "use_imperial_units":
			return d.UseImperialUnits
		}
	case "lora":
		if cfg.LoRa == nil {
			return nil
		}
		l := cfg.LoRa
		switch field {
		case "use_preset":
			return l.UsePreset
		case "modem_preset":
			return l.ModemPreset.String()
		case "bandwidth":
			return l.Bandwidth
		case "spread_factor":
			return l.SpreadFactor
		case "coding_rate":
			return l.CodingRate
		case "frequency_offset":
			return l.FrequencyOffset
		case "region":
			return l.Region.String()
		case "hop_limit":
			return l.HopLimit
		case "tx_enabled":
			return l.TxEnabled
		case "tx_power":
			return l.TxPower
		case "channel_num":
			return l.ChannelNum
		}
	case "bluetooth":
		if cfg.Bluetooth == nil {
			return nil
		}
		b := cfg.Bluetooth
		switch field {
		case "enabled":
			return b.Enabled
		case "fixed_pin":
			return b.FixedPIN
		case "use_pin":
			return b.UsePIN
		}
	}
	return nil
}

// configBuild produces a single-category Config with one field changed,
// starting from the cached category when available.
func configBuild(cached DeviceConfigState, category, field, value string) (*radio.Config, error) {
	invalid := func(err error) error {
		return fmt.Errorf("%w: %s.%s = %q: %v", ErrInvalidConfigValue, category, field, value, err)
	}

	switch category {
	case "device":
		d := radio.DeviceConfig{}
		if cached.Device != nil {
			d = *cached.Device
		}
		switch field {
		case "role":
			role, err := radio.ParseDeviceRole(value)
			if err != nil {
				return nil, invalid(err)
			}
			d.Role = role
		case "button_gpio":
			return setUint32(&d.ButtonGPIO, value, invalid, &radio.Config{Device: &d})
		case "buzzer_gpio":
			return setUint32(&d.BuzzerGPIO, value, invalid, &radio.Config{Device: &d})
		case "node_info_broadcast_secs":
			return setUint32(&d.NodeInfoBroadcastSecs, value, invalid, &radio.Config{Device: &d})
		case "timezone":
			d.Timezone = value
		case "disable_triple_click":
			return setBool(&d.DisableTripleClick, value, invalid, &radio.Config{Device: &d})
		}
		return &radio.Config{Device: &d}, nil

	case "position":
		p := radio.PositionConfig{}
		if cached.Position != nil {
			p = *cached.Position
		}
		switch field {
		case "position_broadcast_secs":
			return setUint32(&p.PositionBroadcastSecs, value, invalid, &radio.Config{Position: &p})
		case "smart_broadcast_enabled":
			return setBool(&p.SmartBroadcastEnabled, value, invalid, &radio.Config{Position: &p})
		case "fixed_position":
			return setBool(&p.FixedPosition, value, invalid, &radio.Config{Position: &p})
		case "gps_mode":
			v, err := strconv.ParseUint(value, 10, 32)
			if err != nil {
				return nil, invalid(err)
			}
			p.GPSMode = radio.GPSMode(v)
		case "gps_update_interval":
			return setUint32(&p.GPSUpdateIntervalSecs, value, invalid, &radio.Config{Position: &p})
		case "smart_min_distance":
			return setUint32(&p.BroadcastSmartMinDist, value, invalid, &radio.Config{Position: &p})
		case "smart_min_interval":
			return setUint32(&p.BroadcastSmartMinSecs, value, invalid, &radio.Config{Position: &p})
		}
		return &radio.Config{Position: &p}, nil

	case "power":
		p := radio.PowerConfig{}
		if cached.Power != nil {
			p = *cached.Power
		}
		switch field {
		case "is_power_saving":
			return setBool(&p.IsPowerSaving, value, invalid, &radio.Config{Power: &p})
		case "on_battery_shutdown_after_secs":
			return setUint32(&p.OnBatteryShutdownAfterSecs, value, invalid, &radio.Config{Power: &p})
		case "adc_multiplier_override":
			v, err := strconv.ParseFloat(value, 32)
			if err != nil {
				return nil, invalid(err)
			}
			p.ADCMultiplierOverride = float32(v)
		case "wait_bluetooth_secs":
			return setUint32(&p.WaitBluetoothSecs, value, invalid, &radio.Config{Power: &p})
		case "sds_secs":
			return setUint32(&p.SDSSecs, value, invalid, &radio.Config{Power: &p})
		case "ls_secs":
			return setUint32(&p.LSSecs, value, invalid, &radio.Config{Power: &p})
		case "min_wake_secs":
			return setUint32(&p.MinWakeSecs, value, invalid, &radio.Config{Power: &p})
		}
		return &radio.Config{Power: &p}, nil

	case "network":
		n := radio.NetworkConfig{}
		if cached.Network != nil {
			n = *cached.Network
		}
		switch field {
		case "wifi_enabled":
			return setBool(&n.WifiEnabled, value, invalid, &radio.Config{Network: &n})
		case "wifi_ssid":
			n.WifiSSID = value
		case "wifi_psk":
			n.WifiPSK = value
		case "ntp_server":
			n.NTPServer = value
		case "eth_enabled":
			return setBool(&n.EthEnabled, value, invalid, &radio.Config{Network: &n})
		}
		return &radio.Config{Network: &n}, nil

	case "display":
		d := radio.DisplayConfig{}
		if cached.Display != nil {
			d = *cached.Display
		}
		switch field {
		case "screen_on_secs":
			return setUint32(&d.ScreenOnSecs, value, invalid, &radio.Config{Display: &d})
		case "auto_carousel_secs":
			return setUint32(&d.AutoCarouselSecs, value, invalid, &radio.Config{Display: &d})
		case "compass_north_top":
			return setBool(&d.CompassNorthTop, value, invalid, &radio.Config{Display: &d})
		case "flip_screen":
			return setBool(&d.FlipScreen, value, invalid, &radio.Config{Display: &d})
		case "use_imperial_units":
			return setBool(&d.UseImperialUnits, value, invalid, &radio.Config{Display: &d})
		}
		return &radio.Config{Display: &d}, nil

	case "lora":
		l := radio.LoRaConfig{}
		if cached.LoRa != nil {
			l = *cached.LoRa
		}
		switch field {
		case "use_preset":
			return setBool(&l.UsePreset, value, invalid, &radio.Config{LoRa: &l})
		case "modem_preset":
			preset, err := radio.ParseModemPreset(value)
			if err != nil {
				return nil, invalid(err)
			}
			l.ModemPreset = preset
		case "bandwidth":
			return setUint32(&l.Bandwidth, value, invalid, &radio.Config{LoRa: &l})
		case "spread_factor":
			return setUint32(&l.SpreadFactor, value, invalid, &radio.Config{LoRa: &l})
		case "coding_rate":
			return setUint32(&l.CodingRate, value, invalid, &radio.Config{LoRa: &l})
		case "frequency_offset":
			v, err := strconv.ParseFloat(value, 32)
			if err != nil {
				return nil, invalid(err)
			}
			l.FrequencyOffset = float32(v)
		case "region":
			region, err := radio.ParseRegionCode(value)
			if err != nil {
				return nil, invalid(err)
			}
			l.Region = region
		case "hop_limit":
			return setUint32(&l.HopLimit, value, invalid, &radio.Config{LoRa: &l})
		case "tx_enabled":
			return setBool(&l.TxEnabled, value, invalid, &radio.Config{LoRa: &l})
		case "tx_power":
			v, err := strconv.ParseInt(value, 10, 32)
			if err != nil {
				return nil, invalid(err)
			}
			l.TxPower = int32(v)
		case "channel_num":
			return setUint32(&l.ChannelNum, value, invalid, &radio.Config{LoRa: &l})
		}
		return &radio.Config{LoRa: &l}, nil

	case "bluetooth":
		b := radio.BluetoothConfig{}
		if cached.Bluetooth != nil {
			b = *cached.Bluetooth
		}
		switch field {
		case "enabled":
			return setBool(&b.Enabled, value, invalid, &radio.Config{Bluetooth: &b})
		case "fixed_pin":
			return setUint32(&b.FixedPIN, value, invalid, &radio.Config{Bluetooth: &b})
		case "use_pin":
			return setBool(&b.UsePIN, value, invalid, &radio.Config{Bluetooth: &b})
		}
		return &radio.Config{Bluetooth: &b}, nil
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownConfigCategory, category)
}

func setUint32(dst *uint32, value string, invalid func(error) error, cfg *radio.Config) (*radio.Config, error) {
	v, err := strconv.ParseUint(value, 10, 32)
	if err != nil {
		return nil, invalid(err)
	}
	*dst = uint32(v)
	return cfg, nil
}

func setBool(dst *bool, value string, invalid func(error) error, cfg *radio.Config) (*radio.Config, error) {
	v, err := strconv.ParseBool(value)
	if err != nil {
		return nil, invalid(err)
	}
	*dst = v
	return cfg, nil
}
