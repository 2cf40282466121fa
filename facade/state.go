package facade

// SourceMode says whether a facade is backed by hardware or by a synthetic generator. It is fixed
// when the facade is built.
type SourceMode int

// The known source modes.
const (
	Live SourceMode = iota
	Simulated
)

func (m SourceMode) String() string {
	switch m {
	case Live:
		return "live"
	case Simulated:
		return "simulated"
	default:
		return "unknown"
	}
}

// AuthorizationState mirrors the platform's permission answer for a sensor.
type AuthorizationState int

// The known authorization states.
const (
	NotDetermined AuthorizationState = iota
	Granted
	Denied
	Restricted
)

func (a AuthorizationState) String() string {
	switch a {
	case NotDetermined:
		return "not_determined"
	case Granted:
		return "granted"
	case Denied:
		return "denied"
	case Restricted:
		return "restricted"
	default:
		return "unknown"
	}
}

// Final reports whether the state is an answer the platform will keep giving without asking again.
func (a AuthorizationState) Final() bool {
	return a != NotDetermined
}

// LifecycleState is where a facade is in its start/stop lifecycle.
type LifecycleState int

// The lifecycle states. Idle is only ever seen before the first Start.
const (
	Idle LifecycleState = iota
	Starting
	Active
	Stopped
)

func (s LifecycleState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Starting:
		return "starting"
	case Active:
		return "active"
	case Stopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Permission names the platform permission a live driver needs.
type Permission string

// Permissions used by the sensors.
const (
	PermissionMotion     = Permission("motion")
	PermissionLocation   = Permission("location")
	PermissionMicrophone = Permission("microphone")
)
