package messaging

import (
	"encoding/json"
	"fmt"
	"time"
)

// Event types
const (
	// Attendance events
	EventAttendanceCheckedIn  = "attendance.checked_in"
	EventAttendanceCheckedOut = "attendance.checked_out"
	EventAttendanceMarked     = "attendance.marked"
	EventHolidayMarked        = "attendance.holiday.marked"
	EventHolidayUnmarked      = "attendance.holiday.unmarked"

	// Ledger events
	EventSaleRecorded    = "ledger.sale.recorded"
	EventPaymentRecorded = "ledger.payment.recorded"

	// Notification events
	EventNotificationGeneral = "notification.general"
)

// Exchange names
const (
	ExchangeAttendanceEvents   = "attendance.events"
	ExchangeLedgerEvents       = "ledger.events"
	ExchangeNotificationEvents = "notification.events"
)

// Event is the base event structure
type Event struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Source        string          `json:"source"`
	Timestamp     time.Time       `json:"timestamp"`
	CorrelationID string          `json:"correlation_id"`
	Data          json.RawMessage `json:"data"`
}

// NewEvent creates a new event with the given type and data
func NewEvent(eventType, source, correlationID string, data interface{}) (*Event, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:            GenerateEventID(),
		Type:          eventType,
		Source:        source,
		Timestamp:     time.Now().UTC(),
		CorrelationID: correlationID,
		Data:          dataBytes,
	}, nil
}

// UnmarshalData unmarshals the event data into the provided struct
func (e *Event) UnmarshalData(v interface{}) error {
	return json.Unmarshal(e.Data, v)
}

// Attendance events

// AttendanceCheckedInEvent is published when an employee checks in
type AttendanceCheckedInEvent struct {
	EmployeeID     string `json:"employee_id"`
	BusinessID     string `json:"business_id"`
	AttendanceDate string `json:"attendance_date"`
	CheckInTime    string `json:"check_in_time"`
	Method         string `json:"method"` // qr or direct
}

// AttendanceCheckedOutEvent is published when an employee checks out
type AttendanceCheckedOutEvent struct {
	EmployeeID     string `json:"employee_id"`
	BusinessID     string `json:"business_id"`
	AttendanceDate string `json:"attendance_date"`
	CheckOutTime   string `json:"check_out_time"`
}

// AttendanceMarkedEvent is published when attendance is set manually or back-dated
type AttendanceMarkedEvent struct {
	EmployeeID     string `json:"employee_id"`
	BusinessID     string `json:"business_id"`
	AttendanceDate string `json:"attendance_date"`
	Status         string `json:"status"`
}

// HolidayMarkedEvent is published when a holiday is created for a business
type HolidayMarkedEvent struct {
	BusinessID  string `json:"business_id"`
	HolidayDate string `json:"holiday_date"`
	Description string `json:"description"`
}

// HolidayUnmarkedEvent is published when a holiday is removed
type HolidayUnmarkedEvent struct {
	BusinessID  string `json:"business_id"`
	HolidayDate string `json:"holiday_date"`
}

// Ledger events

// SaleRecordedEvent is published after a customer sale mutation
type SaleRecordedEvent struct {
	SaleID     string  `json:"sale_id"`
	CustomerID string  `json:"customer_id"`
	OwnerID    string  `json:"owner_id"`
	Amount     float64 `json:"amount"`
	BalanceDue float64 `json:"balance_due"`
}

// PaymentRecordedEvent is published after a customer payment mutation
type PaymentRecordedEvent struct {
	PaymentID  string  `json:"payment_id"`
	CustomerID string  `json:"customer_id"`
	OwnerID    string  `json:"owner_id"`
	Amount     float64 `json:"amount"`
	BalanceDue float64 `json:"balance_due"`
}

// Notification events

// GeneralNotificationEvent carries a push notification for a user's devices.
// UserType tells the consumer which device registry to resolve UserID against.
type GeneralNotificationEvent struct {
	UserID   string         `json:"user_id"`
	UserType string         `json:"user_type"`
	Title    string         `json:"title"`
	Body     string         `json:"body"`
	Data     map[string]any `json:"data,omitempty"`
}

// GenerateEventID generates a unique event ID
func GenerateEventID() string {
	return fmt.Sprintf("%d-%d", time.Now().UnixNano(), time.Now().Nanosecond()%10000)
}
