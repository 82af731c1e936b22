// Package payload turns raw queue bytes into a structurally complete
// notification candidate. Normalization never fails once the payload is
// syntactically parseable: every field is coerced with a permissive fallback,
// and validation of the result is the caller's concern.
package payload

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"

	"github.com/aliskhannn/booking-notifier/internal/apperrors"
	"github.com/aliskhannn/booking-notifier/internal/model"
)

// requiredFields are the business fields a message must carry to be
// processed. Numeric fields count as present when the key exists in the
// payload, even if the value coerced to zero; string fields must be
// non-empty after coercion. Status is defaulted and can never be missing.
var requiredFields = []string{
	"booking_id",
	"user_id",
	"user_email",
	"event_id",
	"event_name",
	"tickets",
	"total_price",
	"status",
}

var numericField = map[string]bool{
	"booking_id":  true,
	"user_id":     true,
	"tickets":     true,
	"total_price": true,
}

// Candidate is a fully coerced notification plus the set of keys that were
// actually present in the payload, so a legitimate zero can be told apart
// from an absent field.
type Candidate struct {
	Record  model.Notification
	present map[string]bool
}

// Normalize decodes raw as a JSON object and coerces the eleven notification
// fields. A payload that is not a JSON object is reported as a
// MalformedPayloadError; anything parseable always yields a complete
// candidate.
func Normalize(raw []byte) (Candidate, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return Candidate{}, apperrors.Malformed(err)
	}

	c := Candidate{present: make(map[string]bool, len(fields))}
	for k := range fields {
		c.present[k] = true
	}

	c.Record = model.Notification{
		BookingID:        toInt(fields["booking_id"]),
		UserID:           toInt(fields["user_id"]),
		UserEmail:        toString(fields["user_email"]),
		EventID:          toString(fields["event_id"]),
		EventName:        toString(fields["event_name"]),
		Tickets:          int(toInt(fields["tickets"])),
		TotalPrice:       toFloat(fields["total_price"]),
		Status:           model.Status(toString(fields["status"])),
		NotificationType: model.Channel(toString(fields["notification_type"])),
		Timestamp:        toString(fields["timestamp"]),
		Sent:             false,
		SentAt:           nil,
	}

	if c.Record.Status == "" {
		c.Record.Status = model.StatusPending
	}
	if c.Record.NotificationType == "" {
		c.Record.NotificationType = model.ChannelEmail
	}
	if c.Record.Timestamp == "" {
		c.Record.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}

	return c, nil
}

// MissingFields returns the required fields the payload failed to supply, in
// a fixed order. An empty result means the candidate passes validation.
func (c Candidate) MissingFields() []string {
	var missing []string

	for _, f := range requiredFields {
		if numericField[f] {
			if !c.present[f] {
				missing = append(missing, f)
			}
			continue
		}

		switch f {
		case "user_email":
			if c.Record.UserEmail == "" {
				missing = append(missing, f)
			}
		case "event_id":
			if c.Record.EventID == "" {
				missing = append(missing, f)
			}
		case "event_name":
			if c.Record.EventName == "" {
				missing = append(missing, f)
			}
		case "status":
			// defaulted during normalization, always present
		}
	}

	return missing
}

// toInt coerces numbers and numeric strings to an integer, truncating
// fractional values; anything else becomes 0.
func toInt(v any) int64 {
	s, ok := numericString(v)
	if !ok {
		return 0
	}

	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int64(f)
	}

	return 0
}

// toFloat coerces numbers and numeric strings to a float; anything else
// becomes 0.
func toFloat(v any) float64 {
	s, ok := numericString(v)
	if !ok {
		return 0
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}

	return f
}

func toString(v any) string {
	s, _ := v.(string)
	return s
}

func numericString(v any) (string, bool) {
	switch t := v.(type) {
	case json.Number:
		return t.String(), true
	case string:
		return t, true
	}
	return "", false
}
