package composer

import "time"

// createdAtLayout matches the ISO-8601 form browsers produce for Date.toISOString.
const createdAtLayout = "2006-01-02T15:04:05.000Z"

// Sender identifies who wrote a message.
type Sender struct {
	Username string `json:"username"`
}

// MessageRecord is the payload handed to the store on submission.
type MessageRecord struct {
	Content   string `json:"content"`
	Sender    Sender `json:"sender"`
	CreatedAt string `json:"createdAt"`
}

// FormatCreatedAt renders t the way MessageRecord.CreatedAt expects it.
func FormatCreatedAt(t time.Time) string {
	return t.UTC().Format(createdAtLayout)
}

// ParseCreatedAt is the inverse of FormatCreatedAt. RFC 3339 values are accepted as well.
func ParseCreatedAt(s string) (time.Time, error) {
	if t, err := time.Parse(createdAtLayout, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}

// MessageAdder accepts submitted messages. The composer calls it once per submission.
type MessageAdder interface {
	AddMessage(record MessageRecord)
}

// Identity is the registered sender of messages.
type Identity struct {
	Username string
}
