package platform

// AppName identifies inkcalc to the host notification service.
const AppName = "inkcalc"

// Urgency mirrors the freedesktop urgency levels.
type Urgency byte

const (
	UrgencyLow Urgency = iota
	UrgencyNormal
	UrgencyCritical
)

// Options configures how a notification is displayed on the host platform.
type Options struct {
	// IconPath, when non-empty, points to an image shown with the
	// notification where the platform supports it.
	IconPath string
	Urgency  Urgency
	// TimeoutMS is how long the notification stays visible; zero lets the
	// platform decide.
	TimeoutMS int32
}
