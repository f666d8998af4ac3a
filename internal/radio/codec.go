package radio

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Protobuf wire types used by the codec.
const (
	wireVarint  = 0
	wireFixed64 = 1
	wireBytes   = 2
	wireFixed32 = 5
)

// encoder builds a protobuf-wire-format message. Zero-valued scalar fields
// are omitted, matching proto3 semantics; presence-carrying fields are
// modelled as pointers and always emitted when non-nil.
type encoder struct {
	buf []byte
}

func (e *encoder) uvarint(v uint64) {
	e.buf = binary.AppendUvarint(e.buf, v)
}

func (e *encoder) tag(field, wire int) {
	e.uvarint(uint64(field)<<3 | uint64(wire))
}

func (e *encoder) varint(field int, v uint64) {
	if v == 0 {
		return
	}
	e.tag(field, wireVarint)
	e.uvarint(v)
}

// varintAlways emits the field even when zero, for presence-carrying fields.
func (e *encoder) varintAlways(field int, v uint64) {
	e.tag(field, wireVarint)
	e.uvarint(v)
}

func (e *encoder) bool(field int, v bool) {
	if !v {
		return
	}
	e.tag(field, wireVarint)
	e.uvarint(1)
}

// zigzag encodes a signed value as sint32.
func (e *encoder) zigzag(field int, v int32) {
	if v == 0 {
		return
	}
	e.zigzagAlways(field, v)
}

func (e *encoder) zigzagAlways(field int, v int32) {
	e.tag(field, wireVarint)
	e.uvarint(uint64(uint32(v)<<1 ^ uint32(v>>31)))
}

func (e *encoder) float(field int, v float32) {
	if v == 0 {
		return
	}
	e.tag(field, wireFixed32)
	e.buf = binary.LittleEndian.AppendUint32(e.buf, math.Float32bits(v))
}

func (e *encoder) bytes(field int, b []byte) {
	if len(b) == 0 {
		return
	}
	e.tag(field, wireBytes)
	e.uvarint(uint64(len(b)))
	e.buf = append(e.buf, b...)
}

func (e *encoder) string(field int, s string) {
	if s == "" {
		return
	}
	e.tag(field, wireBytes)
	e.uvarint(uint64(len(s)))
	e.buf = append(e.buf, s...)
}

// message emits a nested message field. Empty bodies are still emitted so
// the receiver can distinguish "present but default" from "absent".
func (e *encoder) message(field int, body []byte) {
	e.tag(field, wireBytes)
	e.uvarint(uint64(len(body)))
	e.buf = append(e.buf, body...)
}

// decoder walks a protobuf-wire-format message field by field.
type decoder struct {
	b []byte
	i int
}

func (d *decoder) done() bool {
	return d.i >= len(d.b)
}

// next reads the next field tag. Returns the field number and wire type.
func (d *decoder) next() (field, wire int, err error) {
	v, err := d.uvarint()
	if err != nil {
		return 0, 0, err
	}
	field = int(v >> 3)
	wire = int(v & 7)
	if field == 0 {
		return 0, 0, fmt.Errorf("%w: field number 0", ErrBadWireType)
	}
	return field, wire, nil
}

func (d *decoder) uvarint() (uint64, error) {
	v, n := binary.Uvarint(d.b[d.i:])
	if n <= 0 {
		return 0, ErrTruncated
	}
	d.i += n
	return v, nil
}

func (d *decoder) uint32() (uint32, error) {
	v, err := d.uvarint()
	return uint32(v), err
}

func (d *decoder) zigzag() (int32, error) {
	v, err := d.uvarint()
	if err != nil {
		return 0, err
	}
	u := uint32(v)
	return int32(u>>1) ^ -int32(u&1), nil
}

func (d *decoder) float() (float32, error) {
	if d.i+4 > len(d.b) {
		return 0, ErrTruncated
	}
	v := math.Float32frombits(binary.LittleEndian.Uint32(d.b[d.i:]))
	d.i += 4
	return v, nil
}

func (d *decoder) bytes() ([]byte, error) {
	n, err := d.uvarint()
	if err != nil {
		return nil, err
	}
	if uint64(d.i)+n > uint64(len(d.b)) {
		return nil, ErrTruncated
	}
	b := d.b[d.i : d.i+int(n)]
	d.i += int(n)
	return b, nil
}

// skip advances past a field of the given wire type. Unknown fields from
// newer firmware are tolerated this way.
func (d *decoder) skip(wire int) error {
	switch wire {
	case wireVarint:
		_, err := d.uvarint()
		return err
	case wireFixed64:
		if d.i+8 > len(d.b) {
			return ErrTruncated
		}
		d.i += 8
		return nil
	case wireBytes:
		_, err := d.bytes()
		return err
	case wireFixed32:
		if d.i+4 > len(d.b) {
			return ErrTruncated
		}
		d.i += 4
		return nil
	default:
		return fmt.Errorf("%w: %d", ErrBadWireType, wire)
	}
}

// ---- ToRadio / FromRadio envelopes ----

// MarshalToRadio encodes a host→radio envelope.
func MarshalToRadio(m *ToRadio) []byte {
	var e encoder
	if m.Packet != nil {
		e.message(1, marshalMeshPacket(m.Packet))
	}
	if m.WantConfigID != nil {
		e.varintAlways(2, uint64(*m.WantConfigID))
	}
	e.bool(3, m.Disconnect)
	return e.buf
}

// UnmarshalToRadio decodes a host→radio envelope. Used by the fake radio
// in tests and by the frame logger.
func UnmarshalToRadio(b []byte) (*ToRadio, error) {
	m := &ToRadio{}
	d := decoder{b: b}
	for !d.done() {
		field, wire, err := d.next()
		if err != nil {
			return nil, err
		}
		switch field {
		case 1:
			body, err := d.bytes()
			if err != nil {
				return nil, err
			}
			if m.Packet, err = unmarshalMeshPacket(body); err != nil {
				return nil, err
			}
		case 2:
			v, err := d.uint32()
			if err != nil {
				return nil, err
			}
			m.WantConfigID = &v
		case 3:
			v, err := d.uvarint()
			if err != nil {
				return nil, err
			}
			m.Disconnect = v != 0
		default:
			if err := d.skip(wire); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}

// MarshalFromRadio encodes a radio→host envelope. Used by the fake radio
// in tests; real envelopes are produced by firmware.
func MarshalFromRadio(m *FromRadio) []byte {
	var e encoder
	if m.MyInfo != nil {
		e.message(1, marshalMyNodeInfo(m.MyInfo))
	}
	if m.Node != nil {
		e.message(2, marshalNodeInfo(m.Node))
	}
	if m.Channel != nil {
		e.message(3, marshalChannel(m.Channel))
	}
	if m.Packet != nil {
		e.message(4, marshalMeshPacket(m.Packet))
	}
	if m.Config != nil {
		e.message(5, marshalConfig(m.Config))
	}
	if m.ConfigCompleteID != nil {
		e.varintAlways(6, uint64(*m.ConfigCompleteID))
	}
	return e.buf
}

// UnmarshalFromRadio decodes a radio→host envelope.
func UnmarshalFromRadio(b []byte) (*FromRadio, error) {
	m := &FromRadio{}
	d := decoder{b: b}
	for !d.done() {
		field, wire, err := d.next()
		if err != nil {
			return nil, err
		}
		switch field {
		case 1, 2, 3, 4, 5:
			body, err := d.bytes()
			if err != nil {
				return nil, err
			}
			switch field {
			case 1:
				m.MyInfo, err = unmarshalMyNodeInfo(body)
			case 2:
				m.Node, err = unmarshalNodeInfo(body)
			case 3:
				m.Channel, err = unmarshalChannel(body)
			case 4:
				m.Packet, err = unmarshalMeshPacket(body)
			case 5:
				m.Config, err = unmarshalConfig(body)
			}
			if err != nil {
				return nil, err
			}
		case 6:
			v, err := d.uint32()
			if err != nil {
				return nil, err
			}
			m.ConfigCompleteID = &v
		default:
			if err := d.skip(wire); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}

// ---- MeshPacket / Data ----

func marshalMeshPacket(p *MeshPacket) []byte {
	var e encoder
	e.varint(1, uint64(p.From))
	e.varint(2, uint64(p.To))
	e.varint(3, uint64(p.Channel))
	if p.Decoded != nil {
		e.message(4, marshalData(p.Decoded))
	}
	e.bytes(5, p.Encrypted)
	e.varint(6, uint64(p.ID))
	e.varint(7, uint64(p.RxTime))
	e.float(8, p.RxSNR)
	e.zigzag(9, p.RxRSSI)
	e.varint(10, uint64(p.HopLimit))
	e.bool(11, p.WantAck)
	e.varint(12, uint64(p.Priority))
	return e.buf
}

func unmarshalMeshPacket(b []byte) (*MeshPacket, error) {
	p := &MeshPacket{}
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
			p.From = v
		case 2:
			v, err := d.uint32()
			if err != nil {
				return nil, err
			}
			p.To = v
		case 3:
			v, err := d.uint32()
			if err != nil {
				return nil, err
			}
			p.Channel = v
		case 4:
			body, err := d.bytes()
			if err != nil {
				return nil, err
			}
			if p.Decoded, err = unmarshalData(body); err != nil {
				return nil, err
			}
		case 5:
			body, err := d.bytes()
			if err != nil {
				return nil, err
			}
			p.Encrypted = append([]byte(nil), body...)
		case 6:
			v, err := d.uint32()
			if err != nil {
				return nil, err
			}
			p.ID = v
		case 7:
			v, err := d.uint32()
			if err != nil {
				return nil, err
			}
			p.RxTime = v
		case 8:
			v, err := d.float()
			if err != nil {
				return nil, err
			}
			p.RxSNR = v
		case 9:
			v, err := d.zigzag()
			if err != nil {
				return nil, err
			}
			p.RxRSSI = v
		case 10:
			v, err := d.uint32()
			if err != nil {
				return nil, err
			}
			p.HopLimit = v
		case 11:
			v, err := d.uvarint()
			if err != nil {
				return nil, err
			}
			p.WantAck = v != 0
		case 12:
			v, err := d.uint32()
			if err != nil {
				return nil, err
			}
			p.Priority = v
		default:
			if err := d.skip(wire); err != nil {
				return nil, err
			}
		}
	}
	return p, nil
}

func marshalData(m *Data) []byte {
	var e encoder
	e.varint(1, uint64(m.Port))
	e.bytes(2, m.Payload)
	e.bool(3, m.WantResponse)
	e.varint(4, uint64(m.Dest))
	e.varint(5, uint64(m.Source))
	e.varint(6, uint64(m.RequestID))
	e.varint(7, uint64(m.ReplyID))
	return e.buf
}

func unmarshalData(b []byte) (*Data, error) {
	m := &Data{}
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
			m.Port = PortNum(v)
		case 2:
			body, err := d.bytes()
			if err != nil {
				return nil, err
			}
			m.Payload = append([]byte(nil), body...)
		case 3:
			v, err := d.uvarint()
			if err != nil {
				return nil, err
			}
			m.WantResponse = v != 0
		case 4:
			v, err := d.uint32()
			if err != nil {
				return nil, err
			}
			m.Dest = v
		case 5:
			v, err := d.uint32()
			if err != nil {
				return nil, err
			}
			m.Source = v
		case 6:
			v, err := d.uint32()
			if err != nil {
				return nil, err
			}
			m.RequestID = v
		case 7:
			v, err := d.uint32()
			if err != nil {
				return nil, err
			}
			m.ReplyID = v
		default:
			if err := d.skip(wire); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}

// ---- node database messages ----

func marshalMyNodeInfo(m *MyNodeInfo) []byte {
	var e encoder
	e.varint(1, uint64(m.NodeNum))
	e.varint(2, uint64(m.RebootCount))
	e.varint(3, uint64(m.MinAppVersion))
	return e.buf
}

func unmarshalMyNodeInfo(b []byte) (*MyNodeInfo, error) {
	m := &MyNodeInfo{}
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
			m.NodeNum = v
		case 2:
			v, err := d.uint32()
			if err != nil {
				return nil, err
			}
			m.RebootCount = v
		case 3:
			v, err := d.uint32()
			if err != nil {
				return nil, err
			}
			m.MinAppVersion = v
		default:
			if err := d.skip(wire); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}

// MarshalUser encodes a node owner record for a PortNodeInfo payload.
func MarshalUser(m *User) []byte {
	var e encoder
	e.string(1, m.ID)
	e.string(2, m.LongName)
	e.string(3, m.ShortName)
	e.varint(4, uint64(m.HwModel))
	return e.buf
}

// UnmarshalUser decodes a node owner record.
func UnmarshalUser(b []byte) (*User, error) {
	m := &User{}
	d := decoder{b: b}
	for !d.done() {
		field, wire, err := d.next()
		if err != nil {
			return nil, err
		}
		switch field {
		case 1, 2, 3:
			body, err := d.bytes()
			if err != nil {
				return nil, err
			}
			switch field {
			case 1:
				m.ID = string(body)
			case 2:
				m.LongName = string(body)
			case 3:
				m.ShortName = string(body)
			}
		case 4:
			v, err := d.uint32()
			if err != nil {
				return nil, err
			}
			m.HwModel = HardwareModel(v)
		default:
			if err := d.skip(wire); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}

func marshalNodeInfo(m *NodeInfo) []byte {
	var e encoder
	e.varint(1, uint64(m.Num))
	if m.User != nil {
		e.message(2, MarshalUser(m.User))
	}
	e.float(3, m.SNR)
	e.varint(4, uint64(m.LastHeard))
	e.varint(5, uint64(m.HopsAway))
	return e.buf
}

func unmarshalNodeInfo(b []byte) (*NodeInfo, error) {
	m := &NodeInfo{}
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
			m.Num = v
		case 2:
			body, err := d.bytes()
			if err != nil {
				return nil, err
			}
			if m.User, err = UnmarshalUser(body); err != nil {
				return nil, err
			}
		case 3:
			v, err := d.float()
			if err != nil {
				return nil, err
			}
			m.SNR = v
		case 4:
			v, err := d.uint32()
			if err != nil {
				return nil, err
			}
			m.LastHeard = v
		case 5:
			v, err := d.uint32()
			if err != nil {
				return nil, err
			}
			m.HopsAway = v
		default:
			if err := d.skip(wire); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}

func marshalChannel(m *Channel) []byte {
	var e encoder
	e.varint(1, uint64(m.Index))
	if m.Settings != nil {
		var s encoder
		s.string(1, m.Settings.Name)
		s.bytes(2, m.Settings.PSK)
		e.message(2, s.buf)
	}
	e.varint(3, uint64(m.Role))
	return e.buf
}

func unmarshalChannel(b []byte) (*Channel, error) {
	m := &Channel{}
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
			m.Index = v
		case 2:
			body, err := d.bytes()
			if err != nil {
				return nil, err
			}
			settings := &ChannelSettings{}
			sd := decoder{b: body}
			for !sd.done() {
				sf, sw, err := sd.next()
				if err != nil {
					return nil, err
				}
				switch sf {
				case 1:
					v, err := sd.bytes()
					if err != nil {
						return nil, err
					}
					settings.Name = string(v)
				case 2:
					v, err := sd.bytes()
					if err != nil {
						return nil, err
					}
					settings.PSK = append([]byte(nil), v...)
				default:
					if err := sd.skip(sw); err != nil {
						return nil, err
					}
				}
			}
			m.Settings = settings
		case 3:
			v, err := d.uint32()
			if err != nil {
				return nil, err
			}
			m.Role = ChannelRole(v)
		default:
			if err := d.skip(wire); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}

// ---- application payloads ----

// MarshalPosition encodes a GPS fix for a PortPosition payload.
func MarshalPosition(m *Position) []byte {
	var e encoder
	if m.LatitudeI != nil {
		e.zigzagAlways(1, *m.LatitudeI)
	}
	if m.LongitudeI != nil {
		e.zigzagAlways(2, *m.LongitudeI)
	}
	e.zigzag(3, m.Altitude)
	e.varint(4, uint64(m.Time))
	return e.buf
}

// UnmarshalPosition decodes a PortPosition payload.
func UnmarshalPosition(b []byte) (*Position, error) {
	m := &Position{}
	d := decoder{b: b}
	for !d.done() {
		field, wire, err := d.next()
		if err != nil {
			return nil, err
		}
		switch field {
		case 1:
			v, err := d.zigzag()
			if err != nil {
				return nil, err
			}
			m.LatitudeI = &v
		case 2:
			v, err := d.zigzag()
			if err != nil {
				return nil, err
			}
			m.LongitudeI = &v
		case 3:
			v, err := d.zigzag()
			if err != nil {
				return nil, err
			}
			m.Altitude = v
		case 4:
			v, err := d.uint32()
			if err != nil {
				return nil, err
			}
			m.Time = v
		default:
			if err := d.skip(wire); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}

// MarshalTelemetry encodes a metric sample for a PortTelemetry payload.
func MarshalTelemetry(m *Telemetry) []byte {
	var e encoder
	e.varint(1, uint64(m.Time))
	if m.Device != nil {
		var s encoder
		s.varint(1, uint64(m.Device.BatteryLevel))
		s.float(2, m.Device.Voltage)
		s.float(3, m.Device.ChannelUtilization)
		s.float(4, m.Device.AirUtilTx)
		s.varint(5, uint64(m.Device.UptimeSeconds))
		e.message(2, s.buf)
	}
	if m.Environment != nil {
		var s encoder
		s.float(1, m.Environment.Temperature)
		s.float(2, m.Environment.RelativeHumidity)
		s.float(3, m.Environment.BarometricPressure)
		s.float(4, m.Environment.GasResistance)
		s.varint(5, uint64(m.Environment.IAQ))
		s.float(6, m.Environment.Lux)
		s.varint(7, uint64(m.Environment.WindDirection))
		s.float(8, m.Environment.WindSpeed)
		e.message(3, s.buf)
	}
	if m.AirQuality != nil {
		var s encoder
		s.varint(1, uint64(m.AirQuality.PM10Standard))
		s.varint(2, uint64(m.AirQuality.PM25Standard))
		s.varint(3, uint64(m.AirQuality.PM100Standard))
		s.varint(4, uint64(m.AirQuality.PM10Environmental))
		s.varint(5, uint64(m.AirQuality.PM25Environmental))
		s.varint(6, uint64(m.AirQuality.PM100Environmental))
		e.message(4, s.buf)
	}
	return e.buf
}

// UnmarshalTelemetry decodes a PortTelemetry payload.
func UnmarshalTelemetry(b []byte) (*Telemetry, error) {
	m := &Telemetry{}
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
			m.Time = v
		case 2:
			body, err := d.bytes()
			if err != nil {
				return nil, err
			}
			if m.Device, err = unmarshalDeviceMetrics(body); err != nil {
				return nil, err
			}
		case 3:
			body, err := d.bytes()
			if err != nil {
				return nil, err
			}
			if m.Environment, err = unmarshalEnvironmentMetrics(body); err != nil {
				return nil, err
			}
		case 4:
			body, err := d.bytes()
			if err != nil {
				return nil, err
			}
			if m.AirQuality, err = unmarshalAirQualityMetrics(body); err != nil {
				return nil, err
			}
		default:
			if err := d.skip(wire); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}

func unmarshalDeviceMetrics(b []byte) (*DeviceMetrics, error) {
	m := &DeviceMetrics{}
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
			m.BatteryLevel = v
		case 2:
			v, err := d.float()
			if err != nil {
				return nil, err
			}
			m.Voltage = v
		case 3:
			v, err := d.float()
			if err != nil {
				return nil, err
			}
			m.ChannelUtilization = v
		case 4:
			v, err := d.float()
			if err != nil {
				return nil, err
			}
			m.AirUtilTx = v
		case 5:
			v, err := d.uint32()
			if err != nil {
				return nil, err
			}
			m.UptimeSeconds = v
		default:
			if err := d.skip(wire); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}

func unmarshalEnvironmentMetrics(b []byte) (*EnvironmentMetrics, error) {
	m := &EnvironmentMetrics{}
	d := decoder{b: b}
	for !d.done() {
		field, wire, err := d.next()
		if err != nil {
			return nil, err
		}
		switch field {
		case 1:
			v, err := d.float()
			if err != nil {
				return nil, err
			}
			m.Temperature = v
		case 2:
			v, err := d.float()
			if err != nil {
				return nil, err
			}
			m.RelativeHumidity = v
		case 3:
			v, err := d.float()
			if err != nil {
				return nil, err
			}
			m.BarometricPressure = v
		case 4:
			v, err := d.float()
			if err != nil {
				return nil, err
			}
			m.GasResistance = v
		case 5:
			v, err := d.uint32()
			if err != nil {
				return nil, err
			}
			m.IAQ = v
		case 6:
			v, err := d.float()
			if err != nil {
				return nil, err
			}
			m.Lux = v
		case 7:
			v, err := d.uint32()
			if err != nil {
				return nil, err
			}
			m.WindDirection = v
		case 8:
			v, err := d.float()
			if err != nil {
				return nil, err
			}
			m.WindSpeed = v
		default:
			if err := d.skip(wire); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}

func unmarshalAirQualityMetrics(b []byte) (*AirQualityMetrics, error) {
	m := &AirQualityMetrics{}
	d := decoder{b: b}
	for !d.done() {
		field, wire, err := d.next()
		if err != nil {
			return nil, err
		}
		if wire != wireVarint || field < 1 || field > 6 {
			if err := d.skip(wire); err != nil {
				return nil, err
			}
			continue
		}
		v, err := d.uint32()
		if err != nil {
			return nil, err
		}
		switch field {
		case 1:
			m.PM10Standard = v
		case 2:
			m.PM25Standard = v
		case 3:
			m.PM100Standard = v
		case 4:
			m.PM10Environmental = v
		case 5:
			m.PM25Environmental = v
		case 6:
			m.PM100Environmental = v
		}
	}
	return m, nil
}

// MarshalRouting encodes a routing control message for a PortRouting payload.
func MarshalRouting(m *Routing) []byte {
	var e encoder
	if m.RouteRequest != nil {
		e.message(1, marshalRouteDiscovery(m.RouteRequest))
	}
	if m.RouteReply != nil {
		e.message(2, marshalRouteDiscovery(m.RouteReply))
	}
	if m.ErrorReason != nil {
		e.varintAlways(3, uint64(*m.ErrorReason))
	}
	return e.buf
}

// UnmarshalRouting decodes a PortRouting payload.
func UnmarshalRouting(b []byte) (*Routing, error) {
	m := &Routing{}
	d := decoder{b: b}
	for !d.done() {
		field, wire, err := d.next()
		if err != nil {
			return nil, err
		}
		switch field {
		case 1, 2:
			body, err := d.bytes()
			if err != nil {
				return nil, err
			}
			disc, err := unmarshalRouteDiscovery(body)
			if err != nil {
				return nil, err
			}
			if field == 1 {
				m.RouteRequest = disc
			} else {
				m.RouteReply = disc
			}
		case 3:
			v, err := d.uint32()
			if err != nil {
				return nil, err
			}
			reason := RouteError(v)
			m.ErrorReason = &reason
		default:
			if err := d.skip(wire); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}

func marshalRouteDiscovery(m *RouteDiscovery) []byte {
	var e encoder
	for _, hop := range m.Route {
		e.varintAlways(1, uint64(hop))
	}
	return e.buf
}

// unmarshalRouteDiscovery accepts both unpacked and packed encodings of the
// hop list.
func unmarshalRouteDiscovery(b []byte) (*RouteDiscovery, error) {
	m := &RouteDiscovery{}
	d := decoder{b: b}
	for !d.done() {
		field, wire, err := d.next()
		if err != nil {
			return nil, err
		}
		if field != 1 {
			if err := d.skip(wire); err != nil {
				return nil, err
			}
			continue
		}
		switch wire {
		case wireVarint:
			v, err := d.uint32()
			if err != nil {
				return nil, err
			}
			m.Route = append(m.Route, v)
		case wireBytes:
			body, err := d.bytes()
			if err != nil {
				return nil, err
			}
			pd := decoder{b: body}
			for !pd.done() {
				v, err := pd.uint32()
				if err != nil {
					return nil, err
				}
				m.Route = append(m.Route, v)
			}
		default:
			if err := d.skip(wire); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}

// MarshalAdminMessage encodes an admin request or response for a PortAdmin
// payload.
func MarshalAdminMessage(m *AdminMessage) []byte {
	var e encoder
	if m.GetConfigRequest != nil {
		e.varintAlways(1, uint64(*m.GetConfigRequest))
	}
	if m.GetConfigResponse != nil {
		e.message(2, marshalConfig(m.GetConfigResponse))
	}
	if m.SetConfig != nil {
		e.message(3, marshalConfig(m.SetConfig))
	}
	if m.SetChannel != nil {
		e.message(4, marshalChannel(m.SetChannel))
	}
	if m.RemoveChannel != nil {
		e.varintAlways(5, uint64(*m.RemoveChannel))
	}
	if m.RebootSeconds != nil {
		e.zigzagAlways(6, *m.RebootSeconds)
	}
	if m.ShutdownSeconds != nil {
		e.zigzagAlways(7, *m.ShutdownSeconds)
	}
	if m.FactoryReset != nil {
		e.varintAlways(8, uint64(*m.FactoryReset))
	}
	e.bytes(9, m.SessionPasskey)
	return e.buf
}

// UnmarshalAdminMessage decodes a PortAdmin payload.
func UnmarshalAdminMessage(b []byte) (*AdminMessage, error) {
	m := &AdminMessage{}
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
			t := ConfigType(v)
			m.GetConfigRequest = &t
		case 2, 3:
			body, err := d.bytes()
			if err != nil {
				return nil, err
			}
			cfg, err := unmarshalConfig(body)
			if err != nil {
				return nil, err
			}
			if field == 2 {
				m.GetConfigResponse = cfg
			} else {
				m.SetConfig = cfg
			}
		case 4:
			body, err := d.bytes()
			if err != nil {
				return nil, err
			}
			if m.SetChannel, err = unmarshalChannel(body); err != nil {
				return nil, err
			}
		case 5:
			v, err := d.uint32()
			if err != nil {
				return nil, err
			}
			m.RemoveChannel = &v
		case 6, 7:
			v, err := d.zigzag()
			if err != nil {
				return nil, err
			}
			if field == 6 {
				m.RebootSeconds = &v
			} else {
				m.ShutdownSeconds = &v
			}
		case 8:
			v, err := d.uint32()
			if err != nil {
				return nil, err
			}
			m.FactoryReset = &v
		case 9:
			body, err := d.bytes()
			if err != nil {
				return nil, err
			}
			m.SessionPasskey = append([]byte(nil), body...)
		default:
			if err := d.skip(wire); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}
