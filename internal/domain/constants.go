package domain

// Event types dispatched by the platform's domain modules.
const (
	EventCourseEnrollment    = "COURSE_ENROLLMENT"
	EventLessonPublished     = "LESSON_PUBLISHED"
	EventQuizGraded          = "QUIZ_GRADED"
	EventAssignmentDue       = "ASSIGNMENT_DUE"
	EventLiveSessionStarting = "LIVE_SESSION_STARTING"
	EventLiveSessionEnded    = "LIVE_SESSION_ENDED"
	EventCertificateIssued   = "CERTIFICATE_ISSUED"
)

// Subscription / notification scope.
const (
	ScopeUser   = "USER"
	ScopeCourse = "COURSE"
)

// Delivery channels.
const (
	ChannelRealtime = "REALTIME"
	ChannelEmail    = "EMAIL"
	ChannelPush     = "PUSH"
	ChannelInApp    = "IN_APP"
)

// Notification delivery status.
const (
	StatusPending   = "PENDING"
	StatusSent      = "SENT"
	StatusFailed    = "FAILED"
	StatusCancelled = "CANCELLED"
	StatusRead      = "READ"
	StatusClicked   = "CLICKED"
)

// Preference categories group event types for per-user channel toggles.
const (
	CategoryEnrollment = "ENROLLMENT"
	CategoryContent    = "CONTENT"
	CategoryGrading    = "GRADING"
	CategoryLive       = "LIVE"
)

const (
	RoleStudent    = "STUDENT"
	RoleInstructor = "INSTRUCTOR"
	RoleAdmin      = "ADMIN"
	RoleService    = "SERVICE" // internal callers of the dispatch ingress
)

// Device platforms for push tokens.
const (
	PlatformIOS     = "IOS"
	PlatformAndroid = "ANDROID"
	PlatformWeb     = "WEB"
)

const (
	// MaxRetries caps delivery retries per notification.
	MaxRetries = 3
	// FanoutChunkSize bounds memory during course-wide fan-out; records for a
	// chunk are durably created before any channel dispatch for that chunk.
	FanoutChunkSize = 500
)

// EventInfo describes a known event type: its preference category, whether it
// bypasses quiet hours, and the default title used when the caller supplies none.
type EventInfo struct {
	Category     string
	Urgent       bool
	DefaultTitle string
}

// EventCatalog is the typed event table consulted by the dispatcher. Unknown
// event types are rejected at the ingress.
var EventCatalog = map[string]EventInfo{
	EventCourseEnrollment:    {Category: CategoryEnrollment, DefaultTitle: "Course enrollment"},
	EventLessonPublished:     {Category: CategoryContent, DefaultTitle: "New lesson available"},
	EventQuizGraded:          {Category: CategoryGrading, DefaultTitle: "Quiz graded"},
	EventAssignmentDue:       {Category: CategoryGrading, DefaultTitle: "Assignment due soon"},
	EventLiveSessionStarting: {Category: CategoryLive, Urgent: true, DefaultTitle: "Live session starting"},
	EventLiveSessionEnded:    {Category: CategoryLive, DefaultTitle: "Live session ended"},
	EventCertificateIssued:   {Category: CategoryGrading, DefaultTitle: "Certificate issued"},
}

// ValidScope reports whether s is a known scope value.
func ValidScope(s string) bool {
	return s == ScopeUser || s == ScopeCourse
}

// CategoryFor returns the preference category for an event type, or empty
// string for unknown types.
func CategoryFor(eventType string) string {
	return EventCatalog[eventType].Category
}
