package stopwatch

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed report.schema.json
var reportSchema []byte

// ErrInvalidReport is returned when a payload does not match the report wire format.
var ErrInvalidReport = errors.New("invalid lap timer report")

// Envelope is the logged wire shape: {"lapTimer": {...}}.
type Envelope struct {
	LapTimer Report `json:"lapTimer"`
}

// EncodeEnvelope returns the JSON document logged at shutdown.
func EncodeEnvelope(r Report) ([]byte, error) {
	return json.Marshal(Envelope{LapTimer: r})
}

// ValidateReportJSON checks data against the embedded report schema.
func ValidateReportJSON(data []byte) error {
	schemaLoader := gojsonschema.NewBytesLoader(reportSchema)
	documentLoader := gojsonschema.NewBytesLoader(data)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidReport, err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("%w: %s", ErrInvalidReport, strings.Join(msgs, "; "))
	}
	return nil
}
