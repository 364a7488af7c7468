package ringitem

import "strconv"

// Type is the ring item type tag
type Type uint32

// Standard ring item types
const (
	BeginRun           Type = 1
	EndRun             Type = 2
	PauseRun           Type = 3
	ResumeRun          Type = 4
	PacketTypes        Type = 10
	MonitoredVariables Type = 11
	RingFormat         Type = 12
	PeriodicScalers    Type = 20
	PhysicsEvent       Type = 30
	PhysicsEventCount  Type = 31
	EVBFragment        Type = 40
	EVBUnknownPayload  Type = 41
	EVBGlomInfo        Type = 42

	// FirstUserItemCode is the first type tag reserved for user items
	FirstUserItemCode Type = 32768
)

var typeNames = map[Type]string{
	BeginRun:           "BEGIN_RUN",
	EndRun:             "END_RUN",
	PauseRun:           "PAUSE_RUN",
	ResumeRun:          "RESUME_RUN",
	PacketTypes:        "PACKET_TYPES",
	MonitoredVariables: "MONITORED_VARIABLES",
	RingFormat:         "RING_FORMAT",
	PeriodicScalers:    "PERIODIC_SCALERS",
	PhysicsEvent:       "PHYSICS_EVENT",
	PhysicsEventCount:  "PHYSICS_EVENT_COUNT",
	EVBFragment:        "EVB_FRAGMENT",
	EVBUnknownPayload:  "EVB_UNKNOWN_PAYLOAD",
	EVBGlomInfo:        "EVB_GLOM_INFO",
}

// String returns the conventional name of a standard type, USER_ITEM+n for
// user types and the bare number otherwise
func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	if t >= FirstUserItemCode {
		return "USER_ITEM+" + strconv.FormatUint(uint64(t-FirstUserItemCode), 10)
	}
	return strconv.FormatUint(uint64(t), 10)
}
