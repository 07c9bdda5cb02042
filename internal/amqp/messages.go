package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"fintool/internal/reports"
)

// AllReports asks for every report in one request.
const AllReports = "all"

// ExportRequest asks the worker to build and export a report.
// HorizonDays only matters for the projection; zero means the worker default.
type ExportRequest struct {
	ID          string    `json:"id"`
	Report      string    `json:"report"`
	HorizonDays int       `json:"horizon_days,omitempty"`
	RequestedAt time.Time `json:"requested_at"`
}

// NewExportRequest creates a request with a fresh id.
func NewExportRequest(report string, horizonDays int) *ExportRequest {
	return &ExportRequest{
		ID:          uuid.NewString(),
		Report:      report,
		HorizonDays: horizonDays,
		RequestedAt: time.Now().UTC(),
	}
}

// Kinds resolves the requested report names.
func (m *ExportRequest) Kinds() ([]reports.Kind, error) {
	if m.Report == AllReports {
		return reports.Kinds, nil
	}
	k, err := reports.ParseKind(m.Report)
	if err != nil {
		return nil, err
	}
	return []reports.Kind{k}, nil
}

func (m *ExportRequest) Validate() error {
	if m.ID == "" {
		return fmt.Errorf("export request without id")
	}
	if _, err := m.Kinds(); err != nil {
		return err
	}
	if m.HorizonDays < 0 || m.HorizonDays > 3660 {
		return fmt.Errorf("horizon %d out of range 0-3660", m.HorizonDays)
	}
	return nil
}

// ToJSON converts the message to JSON bytes
func (m *ExportRequest) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ExportRequestFromJSON decodes and validates a message.
func ExportRequestFromJSON(data []byte) (*ExportRequest, error) {
	var msg ExportRequest
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}
