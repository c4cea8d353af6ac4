package engagement

import (
	"bytes"
	"fmt"
	"strconv"
	"time"
)

// TimestampLayout renders instants in UTC with millisecond precision and a
// literal trailing Z, as the engagement API expects.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// Timestamp is a time serialized with TimestampLayout.
type Timestamp struct {
	time.Time
}

// NewTimestamp wraps t.
func NewTimestamp(t time.Time) *Timestamp {
	return &Timestamp{Time: t}
}

// FormatTimestamp renders t in UTC using TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

func (t Timestamp) String() string {
	return FormatTimestamp(t.Time)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return []byte(strconv.Quote(FormatTimestamp(t.Time))), nil
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}
	s, err := strconv.Unquote(string(data))
	if err != nil {
		return fmt.Errorf("engagement: timestamp: %w", err)
	}
	parsed, err := time.ParseInLocation(TimestampLayout, s, time.UTC)
	if err != nil {
		return fmt.Errorf("engagement: timestamp: %w", err)
	}
	t.Time = parsed
	return nil
}

// CreateCallbackParms is the body of a callback booking request.
type CreateCallbackParms struct {
	ServiceName string         `json:"serviceName"`
	PhoneNumber string         `json:"phoneNumber"`
	DesiredTime *Timestamp     `json:"desiredTime,omitempty"`
	UserData    map[string]any `json:"userData,omitempty"`
}

// Status is the status block carried by engagement responses.
type Status struct {
	Code    int    `json:"code"`
	Message string `json:"message,omitempty"`
}

// CreateCallbackResponse is the body returned for a booked callback.
type CreateCallbackResponse struct {
	Status Status `json:"status"`
	Data   struct {
		ID string `json:"id"`
	} `json:"data"`
}
