package radio

// marshalConfig encodes a configuration category message. Category bodies
// are always emitted when present, even if every field is default, so the
// receiver can tell "category known, all defaults" from "category absent".
func marshalConfig(c *Config) []byte {
	var e encoder
	if c.Device != nil {
		var s encoder
		s.varint(1, uint64(c.Device.Role))
		s.varint(2, uint64(c.Device.ButtonGPIO))
		s.varint(3, uint64(c.Device.BuzzerGPIO))
		s.varint(4, uint64(c.Device.NodeInfoBroadcastSecs))
		s.string(5, c.Device.Timezone)
		s.bool(6, c.Device.DisableTripleClick)
		e.message(1, s.buf)
	}
	if c.Position != nil {
		var s encoder
		s.varint(1, uint64(c.Position.PositionBroadcastSecs))
		s.bool(2, c.Position.SmartBroadcastEnabled)
		s.bool(3, c.Position.FixedPosition)
		s.varint(4, uint64(c.Position.GPSMode))
		s.varint(5, uint64(c.Position.GPSUpdateIntervalSecs))
		s.varint(6, uint64(c.Position.BroadcastSmartMinDist))
		s.varint(7, uint64(c.Position.BroadcastSmartMinSecs))
		e.message(2, s.buf)
	}
	if c.Power != nil {
		var s encoder
		s.bool(1, c.Power.IsPowerSaving)
		s.varint(2, uint64(c.Power.OnBatteryShutdownAfterSecs))
		s.float(3, c.Power.ADCMultiplierOverride)
		s.varint(4, uint64(c.Power.WaitBluetoothSecs))
		s.varint(5, uint64(c.Power.SDSSecs))
		s.varint(6, uint64(c.Power.LSSecs))
		s.varint(7, uint64(c.Power.MinWakeSecs))
		e.message(3, s.buf)
	}
	if c.Network != nil {
		var s encoder
		s.bool(1, c.Network.WifiEnabled)
		s.string(2, c.Network.WifiSSID)
		s.string(3, c.Network.WifiPSK)
		s.string(4, c.Network.NTPServer)
		s.bool(5, c.Network.EthEnabled)
		e.message(4, s.buf)
	}
	if c.Display != nil {
		var s encoder
		s.varint(1, uint64(c.Display.ScreenOnSecs))
		s.varint(2, uint64(c.Display.AutoCarouselSecs))
		s.bool(3, c.Display.CompassNorthTop)
		s.bool(4, c.Display.FlipScreen)
		s.bool(5, c.Display.UseImperialUnits)
		e.message(5, s.buf)
	}
	if c.LoRa != nil {
		var s encoder
		s.bool(1, c.LoRa.UsePreset)
		s.varint(2, uint64(c.LoRa.ModemPreset))
		s.varint(3, uint64(c.LoRa.Bandwidth))
		s.varint(4, uint64(c.LoRa.SpreadFactor))
		s.varint(5, uint64(c.LoRa.CodingRate))
		s.float(6, c.LoRa.FrequencyOffset)
		s.varint(7, uint64(c.LoRa.Region))
		s.varint(8, uint64(c.LoRa.HopLimit))
		s.bool(9, c.LoRa.TxEnabled)
		s.zigzag(10, c.LoRa.TxPower)
		s.varint(11, uint64(c.LoRa.ChannelNum))
		e.message(6, s.buf)
	}
	if c.Bluetooth != nil {
		var s encoder
		s.bool(1, c.Bluetooth.Enabled)
		s.varint(2, uint64(c.Bluetooth.FixedPIN))
		s.bool(3, c.Bluetooth.UsePIN)
		e.message(7, s.buf)
	}
	return e.buf
}

func unmarshalConfig(b []byte) (*Config, error) {
	c := &Config{}
	d := decoder{b: b}
	for !d.done() {
		field, wire, err := d.next()
		if err != nil {
			return nil, err
		}
		if field < 1 || field > 7 {
			if err := d.skip(wire); err != nil {
				return nil, err
			}
			continue
		}
		body, err := d.bytes()
		if err != nil {
			return nil, err
		}
		switch field {
		case 1:
			c.Device, err = unmarshalDeviceConfig(body)
		case 2:
			c.Position, err = unmarshalPositionConfig(body)
		case 3:
			c.Power, err = unmarshalPowerConfig(body)
		case 4:
			c.Network, err = unmarshalNetworkConfig(body)
		case 5:
			c.Display, err = unmarshalDisplayConfig(body)
		case 6:
			c.LoRa, err = unmarshalLoRaConfig(body)
		case 7:
			c.Bluetooth, err = unmarshalBluetoothConfig(body)
		}
		if err != nil {
			return nil, err
		}
	}
	return c, nil
}

func unmarshalDeviceConfig(b []byte) (*DeviceConfig, error) {
	m := &DeviceConfig{}
	d := decoder{b: b}
	for !d.done() {
		field, wire, err := d.next()
		if err != nil {
			return nil, err
		}
		switch field {
		case 1:
			v, err := d.uint32()
			if err != nil {
				return nil, err
			}
			m.Role = DeviceRole(v)
		case 2:
			v, err := d.uint32()
			if err != nil {
				return nil, err
			}
			m.ButtonGPIO = v
		case 3:
			v, err := d.uint32()
			if err != nil {
				return nil, err
			}
			m.BuzzerGPIO = v
		case 4:
			v, err := d.uint32()
			if err != nil {
				return nil, err
			}
			m.NodeInfoBroadcastSecs = v
		case 5:
			body, err := d.bytes()
			if err != nil {
				return nil, err
			}
			m.Timezone = string(body)
		case 6:
			v, err := d.uvarint()
			if err != nil {
				return nil, err
			}
			m.DisableTripleClick = v != 0
		default:
			if err := d.skip(wire); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}

func unmarshalPositionConfig(b []byte) (*PositionConfig, error) {
	m := &PositionConfig{}
	d := decoder{b: b}
	for !d.done() {
		field, wire, err := d.next()
		if err != nil {
			return nil, err
		}
		if wire != wireVarint {
			if err := d.skip(wire); err != nil {
				return nil, err
			}
			continue
		}
		v, err := d.uvarint()
		if err != nil {
			return nil, err
		}
		switch field {
		case 1:
			m.PositionBroadcastSecs = uint32(v)
		case 2:
			m.SmartBroadcastEnabled = v != 0
		case 3:
			m.FixedPosition = v != 0
		case 4:
			m.GPSMode = GPSMode(v)
		case 5:
			m.GPSUpdateIntervalSecs = uint32(v)
		case 6:
			m.BroadcastSmartMinDist = uint32(v)
		case 7:
			m.BroadcastSmartMinSecs = uint32(v)
		}
	}
	return m, nil
}

func unmarshalPowerConfig(b []byte) (*PowerConfig, error) {
	m := &PowerConfig{}
	d := decoder{b: b}
	for !d.done() {
		field, wire, err := d.next()
		if err != nil {
			return nil, err
		}
		switch field {
		case 1:
			v, err := d.uvarint()
			if err != nil {
				return nil, err
			}
			m.IsPowerSaving = v != 0
		case 2:
			v, err := d.uint32()
			if err != nil {
				return nil, err
			}
			m.OnBatteryShutdownAfterSecs = v
		case 3:
			v, err := d.float()
			if err != nil {
				return nil, err
			}
			m.ADCMultiplierOverride = v
		case 4:
			v, err := d.uint32()
			if err != nil {
				return nil, err
			}
			m.WaitBluetoothSecs = v
		case 5:
			v, err := d.uint32()
			if err != nil {
				return nil, err
			}
			m.SDSSecs = v
		case 6:
			v, err := d.uint32()
			if err != nil {
				return nil, err
			}
			m.LSSecs = v
		case 7:
			v, err := d.uint32()
			if err != nil {
				return nil, err
			}
			m.MinWakeSecs = v
		default:
			if err := d.skip(wire); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}

func unmarshalNetworkConfig(b []byte) (*NetworkConfig, error) {
	m := &NetworkConfig{}
	d := decoder{b: b}
	for !d.done() {
		field, wire, err := d.next()
		if err != nil {
			return nil, err
		}
		switch field {
		case 1:
			v, err := d.uvarint()
			if err != nil {
				return nil, err
			}
			m.WifiEnabled = v != 0
		case 2, 3, 4:
			body, err := d.bytes()
			if err != nil {
				return nil, err
			}
			switch field {
			case 2:
				m.WifiSSID = string(body)
			case 3:
				m.WifiPSK = string(body)
			case 4:
				m.NTPServer = string(body)
			}
		case 5:
			v, err := d.uvarint()
			if err != nil {
				return nil, err
			}
			m.EthEnabled = v != 0
		default:
			if err := d.skip(wire); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}

func unmarshalDisplayConfig(b []byte) (*DisplayConfig, error) {
	m := &DisplayConfig{}
	d := decoder{b: b}
	for !d.done() {
		field, wire, err := d.next()
		if err != nil {
			return nil, err
		}
		if wire != wireVarint {
			if err := d.skip(wire); err != nil {
				return nil, err
			}
			continue
		}
		v, err := d.uvarint()
		if err != nil {
			return nil, err
		}
		switch field {
		case 1:
			m.ScreenOnSecs = uint32(v)
		case 2:
			m.AutoCarouselSecs = uint32(v)
		case 3:
			m.CompassNorthTop = v != 0
		case 4:
			m.FlipScreen = v != 0
		case 5:
			m.UseImperialUnits = v != 0
		}
	}
	return m, nil
}

func unmarshalLoRaConfig(b []byte) (*LoRaConfig, error) {
	m := &LoRaConfig{}
	d := decoder{b: b}
	for !d.done() {
		field, wire, err := d.next()
		if err != nil {
			return nil, err
		}
		switch field {
		case 1:
			v, err := d.uvarint()
			if err != nil {
				return nil, err
			}
			m.UsePreset = v != 0
		case 2:
			v, err := d.uint32()
			if err != nil {
				return nil, err
			}
			m.ModemPreset = ModemPreset(v)
		case 3:
			v, err := d.uint32()
			if err != nil {
				return nil, err
			}
			m.Bandwidth = v
		case 4:
			v, err := d.uint32()
			if err != nil {
				return nil, err
			}
			m.SpreadFactor = v
		case 5:
			v, err := d.uint32()
			if err != nil {
				return nil, err
			}
			m.CodingRate = v
		case 6:
			v, err := d.float()
			if err != nil {
				return nil, err
			}
			m.FrequencyOffset = v
		case 7:
			v, err := d.uint32()
			if err != nil {
				return nil, err
			}
			m.Region = RegionCode(v)
		case 8:
			v, err := d.uint32()
			if err != nil {
				return nil, err
			}
			m.HopLimit = v
		case 9:
			v, err := d.uvarint()
			if err != nil {
				return nil, err
			}
			m.TxEnabled = v != 0
		case 10:
			v, err := d.zigzag()
			if err != nil {
				return nil, err
			}
			m.TxPower = v
		case 11:
			v, err := d.uint32()
			if err != nil {
				return nil, err
			}
			m.ChannelNum = v
		default:
			if err := d.skip(wire); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}

func unmarshalBluetoothConfig(b []byte) (*BluetoothConfig, error) {
	m := &BluetoothConfig{}
	d := decoder{b: b}
	for !d.done() {
		field, wire, err := d.next()
		if err != nil {
			return nil, err
		}
		if wire != wireVarint {
			if err := d.skip(wire); err != nil {
				return nil, err
			}
			continue
		}
		v, err := d.uvarint()
		if err != nil {
			return nil, err
		}
		switch field {
		case 1:
			m.Enabled = v != 0
		case 2:
			m.FixedPIN = uint32(v)
		case 3:
			m.UsePIN = v != 0
		}
	}
	return m, nil
}
