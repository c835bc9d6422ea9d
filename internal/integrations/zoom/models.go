package zoom

import "time"

// MeetingRequest запланированная встреча
type MeetingRequest struct {
	Topic           string
	Start           time.Time
	DurationMinutes int
}

// Meeting созданная встреча
type Meeting struct {
	ID      string
	JoinURL string
}

// Scheduled meeting
const meetingTypeScheduled = 2

type createMeetingBody struct {
	Topic     string          `json:"topic"`
	Type      int             `json:"type"`
	StartTime string          `json:"start_time"`
	Timezone  string          `json:"timezone"`
	Duration  int             `json:"duration"`
	Settings  meetingSettings `json:"settings"`
}

type meetingSettings struct {
	JoinBeforeHost bool `json:"join_before_host"`
}

type createMeetingResponse struct {
	ID      int64  `json:"id"`
	JoinURL string `json:"join_url"`
}
