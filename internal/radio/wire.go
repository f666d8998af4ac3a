package radio

import "fmt"

// PortNum identifies the application that owns a mesh packet payload.
type PortNum uint32

// Application port numbers.
const (
	PortUnknown   PortNum = 0
	PortText      PortNum = 1
	PortPosition  PortNum = 3
	PortNodeInfo  PortNum = 4
	PortRouting   PortNum = 5
	PortAdmin     PortNum = 6
	PortTelemetry PortNum = 67
)

// String returns a short name for the port, for logging.
func (p PortNum) String() string {
	switch p {
	case PortText:
		return "text"
	case PortPosition:
		return "position"
	case PortNodeInfo:
		return "nodeinfo"
	case PortRouting:
		return "routing"
	case PortAdmin:
		return "admin"
	case PortTelemetry:
		return "telemetry"
	default:
		return fmt.Sprintf("port(%d)", uint32(p))
	}
}

// Broadcast is the destination node number addressing every node on the mesh.
const Broadcast uint32 = 0xFFFFFFFF

// FromRadio is the radio→host envelope. Exactly one field is set per frame;
// envelopes with no recognized field are dropped by the caller.
type FromRadio struct {
	MyInfo  *MyNodeInfo
	Node    *NodeInfo
	Channel *Channel
	Packet  *MeshPacket
	Config  *Config

	// ConfigCompleteID marks the end of the initial state dump. It echoes
	// the nonce sent in ToRadio.WantConfigID. Nil when this envelope is
	// not a completion marker.
	ConfigCompleteID *uint32
}

// ToRadio is the host→radio envelope.
type ToRadio struct {
	Packet *MeshPacket

	// WantConfigID, when non-nil, asks the radio to replay its full state
	// (node database, channels, config) followed by a ConfigCompleteID
	// frame echoing this nonce.
	WantConfigID *uint32

	// Disconnect tells the radio the host is going away.
	Disconnect bool
}

// MeshPacket is a single over-the-air packet with addressing metadata.
type MeshPacket struct {
	From    uint32
	To      uint32
	Channel uint32

	// Decoded is the cleartext body. Nil when the radio could not decrypt
	// the packet, in which case Encrypted holds the raw ciphertext.
	Decoded   *Data
	Encrypted []byte

	ID       uint32
	RxTime   uint32 // seconds since epoch, radio clock
	RxSNR    float32
	RxRSSI   int32
	HopLimit uint32
	WantAck  bool
	Priority uint32
}

// Data is the decoded body of a mesh packet.
type Data struct {
	Port    PortNum
	Payload []byte

	// WantResponse asks the destination application to reply.
	WantResponse bool

	Dest   uint32
	Source uint32

	// RequestID correlates this packet with an earlier packet's ID: set on
	// acks, traceroute replies, and admin responses.
	RequestID uint32
	ReplyID   uint32
}

// MyNodeInfo describes the radio the host is connected to.
type MyNodeInfo struct {
	NodeNum       uint32
	RebootCount   uint32
	MinAppVersion uint32
}

// User is the owner record broadcast by each node.
type User struct {
	ID        string // canonical "!%08x" form of the node number
	LongName  string
	ShortName string
	HwModel   HardwareModel
}

// NodeInfo is one entry of the mesh node database.
type NodeInfo struct {
	Num       uint32
	User      *User
	SNR       float32
	LastHeard uint32 // seconds since epoch
	HopsAway  uint32
}

// HardwareModel identifies the radio hardware of a node.
type HardwareModel uint32

// Known hardware models.
const (
	HardwareUnset     HardwareModel = 0
	HardwareTBeam     HardwareModel = 1
	HardwareHeltecV3  HardwareModel = 2
	HardwareRAK4631   HardwareModel = 3
	HardwareTEcho     HardwareModel = 4
	HardwareStationG2 HardwareModel = 5
	HardwareTDeck     HardwareModel = 6
)

func (h HardwareModel) String() string {
	switch h {
	case HardwareTBeam:
		return "T-Beam"
	case HardwareHeltecV3:
		return "Heltec V3"
	case HardwareRAK4631:
		return "RAK4631"
	case HardwareTEcho:
		return "T-Echo"
	case HardwareStationG2:
		return "Station G2"
	case HardwareTDeck:
		return "T-Deck"
	default:
		return "unset"
	}
}

// ChannelRole describes how a channel slot is used.
type ChannelRole uint32

// Channel roles.
const (
	ChannelDisabled  ChannelRole = 0
	ChannelPrimary   ChannelRole = 1
	ChannelSecondary ChannelRole = 2
)

func (r ChannelRole) String() string {
	switch r {
	case ChannelPrimary:
		return "primary"
	case ChannelSecondary:
		return "secondary"
	default:
		return "disabled"
	}
}

// ChannelSettings holds the user-editable part of a channel slot.
type ChannelSettings struct {
	Name string
	PSK  []byte
}

// Channel is one of the radio's channel slots.
type Channel struct {
	Index    uint32
	Settings *ChannelSettings
	Role     ChannelRole
}

// Position is a GPS fix. Latitude and longitude are degrees ×1e-7 and
// nil when the node has no fix.
type Position struct {
	LatitudeI  *int32
	LongitudeI *int32
	Altitude   int32  // metres above sea level
	Time       uint32 // seconds since epoch
}

// Telemetry is a metric sample from a node. At most one metric set is
// present per sample.
type Telemetry struct {
	Time        uint32
	Device      *DeviceMetrics
	Environment *EnvironmentMetrics
	AirQuality  *AirQualityMetrics
}

// DeviceMetrics are the radio's own health metrics.
type DeviceMetrics struct {
	BatteryLevel       uint32 // percent; >100 means powered externally
	Voltage            float32
	ChannelUtilization float32 // percent
	AirUtilTx          float32 // percent
	UptimeSeconds      uint32
}

// EnvironmentMetrics are readings from attached environment sensors.
type EnvironmentMetrics struct {
	Temperature        float32 // °C
	RelativeHumidity   float32 // percent
	BarometricPressure float32 // hPa
	GasResistance      float32 // MΩ
	IAQ                uint32
	Lux                float32
	WindDirection      uint32 // degrees
	WindSpeed          float32 // m/s
}

// AirQualityMetrics are particulate-matter readings.
type AirQualityMetrics struct {
	PM10Standard       uint32
	PM25Standard       uint32
	PM100Standard      uint32
	PM10Environmental  uint32
	PM25Environmental  uint32
	PM100Environmental uint32
}

// RouteError is the failure reason carried in a routing packet.
type RouteError uint32

// Routing failure reasons.
const (
	RouteNone          RouteError = 0
	RouteNoRoute       RouteError = 1
	RouteGotNak        RouteError = 2
	RouteTimeout       RouteError = 3
	RouteMaxRetransmit RouteError = 5
	RouteNoChannel     RouteError = 6
)

func (e RouteError) String() string {
	switch e {
	case RouteNone:
		return "none"
	case RouteNoRoute:
		return "no route"
	case RouteGotNak:
		return "got nak"
	case RouteTimeout:
		return "timeout"
	case RouteMaxRetransmit:
		return "max retransmit"
	case RouteNoChannel:
		return "no channel"
	default:
		return fmt.Sprintf("route error(%d)", uint32(e))
	}
}

// RouteDiscovery lists the node numbers a traceroute traversed, in order,
// excluding the requesting node.
type RouteDiscovery struct {
	Route []uint32
}

// Routing is the body of a PortRouting packet. Exactly one field is set.
type Routing struct {
	RouteRequest *RouteDiscovery
	RouteReply   *RouteDiscovery
	ErrorReason  *RouteError
}

// ConfigType names one of the radio's configuration categories.
type ConfigType uint32

// Configuration categories.
const (
	ConfigTypeDevice    ConfigType = 0
	ConfigTypePosition  ConfigType = 1
	ConfigTypePower     ConfigType = 2
	ConfigTypeNetwork   ConfigType = 3
	ConfigTypeDisplay   ConfigType = 4
	ConfigTypeLoRa      ConfigType = 5
	ConfigTypeBluetooth ConfigType = 6
)

func (t ConfigType) String() string {
	switch t {
	case ConfigTypeDevice:
		return "device"
	case ConfigTypePosition:
		return "position"
	case ConfigTypePower:
		return "power"
	case ConfigTypeNetwork:
		return "network"
	case ConfigTypeDisplay:
		return "display"
	case ConfigTypeLoRa:
		return "lora"
	case ConfigTypeBluetooth:
		return "bluetooth"
	default:
		return fmt.Sprintf("config(%d)", uint32(t))
	}
}

// AdminMessage is the body of a PortAdmin packet. Exactly one request or
// response field is set; SessionPasskey may accompany any of them.
type AdminMessage struct {
	GetConfigRequest  *ConfigType
	GetConfigResponse *Config
	SetConfig         *Config
	SetChannel        *Channel
	RemoveChannel     *uint32
	RebootSeconds     *int32
	ShutdownSeconds   *int32
	FactoryReset      *uint32

	// SessionPasskey authorizes admin writes. The radio issues one on
	// every admin response; subsequent admin requests must echo it.
	SessionPasskey []byte
}
