package cloudevents

import (
	"time"
)

// SourceMachineService is the CloudEvents source of every machine event
const SourceMachineService = "/vending/machine-service"

// Extension attribute names, also used as ce-* Kafka header suffixes
const (
	ExtMachineID     = "vendingmachineid"
	ExtCorrelationID = "vendingcorrelationid"
	ExtTraceParent   = "traceparent"
	ExtTraceState    = "tracestate"
)

// VendingCloudEvent is a CloudEvents v1.0 structured-mode event
type VendingCloudEvent struct {
	SpecVersion     string      `json:"specversion"`
	Type            string      `json:"type"`
	Source          string      `json:"source"`
	Subject         string      `json:"subject,omitempty"`
	ID              string      `json:"id"`
	Time            time.Time   `json:"time"`
	DataContentType string      `json:"datacontenttype"`
	Data            interface{} `json:"data"`

	MachineID     string `json:"vendingmachineid,omitempty"`
	CorrelationID string `json:"vendingcorrelationid,omitempty"`
	TraceParent   string `json:"traceparent,omitempty"`
	TraceState    string `json:"tracestate,omitempty"`
}

// Extensions returns the populated extension attributes keyed by name
func (e *VendingCloudEvent) Extensions() map[string]string {
	ext := make(map[string]string, 4)
	for name, value := range map[string]string{
		ExtMachineID:     e.MachineID,
		ExtCorrelationID: e.CorrelationID,
		ExtTraceParent:   e.TraceParent,
		ExtTraceState:    e.TraceState,
	} {
		if value != "" {
			ext[name] = value
		}
	}
	return ext
}
