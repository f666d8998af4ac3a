package mesh

import (
	"sync"
	"time"

	"github.com/rfmesh/rfmesh-core/internal/radio"
)

// stateStore is the client's cache of radio state. The ingestion goroutine
// writes; everyone else reads via deep-copied snapshots.
type stateStore struct {
	mu sync.RWMutex

	myInfo    *radio.MyNodeInfo
	nodes     map[uint32]*radio.NodeInfo
	channels  []*radio.Channel
	positions map[uint32]*radio.Position
	messages  []Message
	telemetry map[uint32]*radio.Telemetry
	config    DeviceConfigState

	positionTimes  map[uint32]time.Time
	telemetryTimes map[uint32]time.Time
}

func newStateStore() *stateStore {
	return &stateStore{
		nodes:          make(map[uint32]*radio.NodeInfo),
		positions:      make(map[uint32]*radio.Position),
		telemetry:      make(map[uint32]*radio.Telemetry),
		positionTimes:  make(map[uint32]time.Time),
		telemetryTimes: make(map[uint32]time.Time),
	}
}

// reset clears everything; used when a new connection replays the state dump.
func (s *stateStore) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.myInfo = nil
	s.nodes = make(map[uint32]*radio.NodeInfo)
	s.channels = nil
	s.positions = make(map[uint32]*radio.Position)
	s.messages = nil
	s.telemetry = make(map[uint32]*radio.Telemetry)
	s.config = DeviceConfigState{}
	s.positionTimes = make(map[uint32]time.Time)
	s.telemetryTimes = make(map[uint32]time.Time)
}

func (s *stateStore) setMyInfo(info *radio.MyNodeInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.myInfo = copyMyInfo(info)
}

// myNodeNum returns the local node number, or 0 before the handshake.
func (s *stateStore) myNodeNum() uint32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.myInfo == nil {
		return 0
	}
	return s.myInfo.NodeNum
}

// updateNode upserts a node database entry. Last write wins.
func (s *stateStore) updateNode(node *radio.NodeInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nodes[node.Num] = copyNode(node)
}

// touchNode refreshes link quality for a node we just heard from directly.
// Creates a minimal entry for nodes not yet in the database.
func (s *stateStore) touchNode(num uint32, snr float32, rxTime uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	node, ok := s.nodes[num]
	if !ok {
		node = &radio.NodeInfo{Num: num}
		s.nodes[num] = node
	}
	if snr != 0 {
		node.SNR = snr
	}
	if rxTime > node.LastHeard {
		node.LastHeard = rxTime
	}
}

// updateUser merges an owner record into a node entry, creating the entry
// if the node is new.
func (s *stateStore) updateUser(num uint32, user *radio.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	node, ok := s.nodes[num]
	if !ok {
		node = &radio.NodeInfo{Num: num}
		s.nodes[num] = node
	}
	u := *user
	node.User = &u
}

// updateChannel upserts a channel slot by index. Replaying the same slot
// is idempotent.
func (s *stateStore) updateChannel(ch *radio.Channel) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.channels {
		if existing.Index == ch.Index {
			s.channels[i] = copyChannel(ch)
			return
		}
	}
	s.channels = append(s.channels, copyChannel(ch))
}

func (s *stateStore) removeChannel(index uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.channels {
		if existing.Index == index {
			s.channels = append(s.channels[:i], s.channels[i+1:]...)
			return
		}
	}
}

func (s *stateStore) updatePosition(num uint32, pos *radio.Position, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.positions[num] = copyPosition(pos)
	s.positionTimes[num] = at
}

func (s *stateStore) updateTelemetry(num uint32, tel *radio.Telemetry, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.telemetry[num] = copyTelemetry(tel)
	s.telemetryTimes[num] = at
}

// addMessage appends to the message history. The history is append-only
// and unbounded; it is cleared only by reset on reconnect. Trimming it is
// the caller's business, not the store's.
func (s *stateStore) addMessage(msg Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, msg)
}

// setConfig folds one config category message into the cache.
func (s *stateStore) setConfig(cfg *radio.Config) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case cfg.Device != nil:
		c := *cfg.Device
		s.config.Device = &c
	case cfg.Position != nil:
		c := *cfg.Position
		s.config.Position = &c
	case cfg.Power != nil:
		c := *cfg.Power
		s.config.Power = &c
	case cfg.Network != nil:
		c := *cfg.Network
		s.config.Network = &c
	case cfg.Display != nil:
		c := *cfg.Display
		s.config.Display = &c
	case cfg.LoRa != nil:
		c := *cfg.LoRa
		s.config.LoRa = &c
	case cfg.Bluetooth != nil:
		c := *cfg.Bluetooth
		s.config.Bluetooth = &c
	}
}

// snapshot returns a deep copy of the entire cache.
func (s *stateStore) snapshot() *DeviceState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := &DeviceState{
		MyInfo:         copyMyInfo(s.myInfo),
		Nodes:          make(map[uint32]*radio.NodeInfo, len(s.nodes)),
		Positions:      make(map[uint32]*radio.Position, len(s.positions)),
		Telemetry:      make(map[uint32]*radio.Telemetry, len(s.telemetry)),
		Messages:       append([]Message(nil), s.messages...),
		Config:         copyConfigState(s.config),
		PositionTimes:  make(map[uint32]time.Time, len(s.positionTimes)),
		TelemetryTimes: make(map[uint32]time.Time, len(s.telemetryTimes)),
	}
	for num, node := range s.nodes {
		snap.Nodes[num] = copyNode(node)
	}
	if s.channels != nil {
		snap.Channels = make([]*radio.Channel, len(s.channels))
		for i, ch := range s.channels {
			snap.Channels[i] = copyChannel(ch)
		}
	}
	for num, pos := range s.positions {
		snap.Positions[num] = copyPosition(pos)
	}
	for num, tel := range s.telemetry {
		snap.Telemetry[num] = copyTelemetry(tel)
	}
	for num, at := range s.positionTimes {
		snap.PositionTimes[num] = at
	}
	for num, at := range s.telemetryTimes {
		snap.TelemetryTimes[num] = at
	}
	return snap
}

// ---- deep copy helpers ----

func copyMyInfo(info *radio.MyNodeInfo) *radio.MyNodeInfo {
	if info == nil {
		return nil
	}
	c := *info
	return &c
}

func copyNode(node *radio.NodeInfo) *radio.NodeInfo {
	if node == nil {
		return nil
	}
	c := *node
	if node.User != nil {
		u := *node.User
		c.User = &u
	}
	return &c
}

func copyChannel(ch *radio.Channel) *radio.Channel {
	if ch == nil {
		return nil
	}
	c := *ch
	if ch.Settings != nil {
		s := *ch.Settings
		s.PSK = append([]byte(nil), ch.Settings.PSK...)
		c.Settings = &s
	}
	return &c
}

func copyPosition(pos *radio.Position) *radio.Position {
	if pos == nil {
		return nil
	}
	c := *pos
	if pos.LatitudeI != nil {
		v := *pos.LatitudeI
		c.LatitudeI = &v
	}
	if pos.LongitudeI != nil {
		v := *pos.LongitudeI
		c.LongitudeI = &v
	}
	return &c
}

func copyTelemetry(tel *radio.Telemetry) *radio.Telemetry {
	if tel == nil {
		return nil
	}
	c := *tel
	if tel.Device != nil {
		m := *tel.Device
		c.Device = &m
	}
	if tel.Environment != nil {
		m := *tel.Environment
		c.Environment = &m
	}
	if tel.AirQuality != nil {
		m := *tel.AirQuality
		c.AirQuality = &m
	}
	return &c
}

func copyConfigState(cfg DeviceConfigState) DeviceConfigState {
	out := DeviceConfigState{}
	if cfg.Device != nil {
		c := *cfg.Device
		out.Device = &c
	}
	if cfg.Position != nil {
		c := *cfg.Position
		out.Position = &c
	}
	if cfg.Power != nil {
		c := *cfg.Power
		out.Power = &c
	}
	if cfg.Network != nil {
		c := *cfg.Network
		out.Network = &c
	}
	if cfg.Display != nil {
		c := *cfg.Display
		out.Display = &c
	}
	if cfg.LoRa != nil {
		c := *cfg.LoRa
		out.LoRa = &c
	}
	if cfg.Bluetooth != nil {
		c := *cfg.Bluetooth
		out.Bluetooth = &c
	}
	return out
}
