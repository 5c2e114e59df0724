package engagement

// DeviceType is the visitor's device class.
type DeviceType string

const (
	DeviceMobile  DeviceType = "mobile"
	DeviceTablet  DeviceType = "tablet"
	DeviceDesktop DeviceType = "desktop"
)

// TimeOfDay buckets the local clock into coarse dayparts.
type TimeOfDay string

const (
	TimeMorning   TimeOfDay = "morning"   // 05:00-11:59
	TimeAfternoon TimeOfDay = "afternoon" // 12:00-16:59
	TimeEvening   TimeOfDay = "evening"   // 17:00-21:59
	TimeNight     TimeOfDay = "night"     // 22:00-04:59
)

// BehaviorSnapshot is a derived, point-in-time view of a visitor's session
// behavior. It is recomputed on demand from the journey store and never
// persisted as its own entity.
type BehaviorSnapshot struct {
	SessionDurationSeconds int
	ScrollDepthPercent     int // 0-100
	SectionsViewed         []string
	ToolsUsed              []string
	ContentConsumed        []string
	CTAsClicked            []string // ordered, duplicates allowed
	InteractionCount       int
	DeviceType             DeviceType
	TimeOfDay              TimeOfDay
	ReturnVisitor          bool
}

// TimeOfDayFor maps an hour (0-23) to its daypart bucket.
func TimeOfDayFor(hour int) TimeOfDay {
	switch {
	case hour >= 5 && hour < 12:
		return TimeMorning
	case hour >= 12 && hour < 17:
		return TimeAfternoon
	case hour >= 17 && hour < 22:
		return TimeEvening
	default:
		return TimeNight
	}
}
