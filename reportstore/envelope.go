package reportstore

import (
	"encoding/json"
	"fmt"

	"appshell/stopwatch"
)

func decodeEnvelope(doc []byte) (stopwatch.Report, error) {
	if err := stopwatch.ValidateReportJSON(doc); err != nil {
		return stopwatch.Report{}, err
	}
	var env stopwatch.Envelope
	if err := json.Unmarshal(doc, &env); err != nil {
		return stopwatch.Report{}, fmt.Errorf("failed to decode report: %w", err)
	}
	return env.LapTimer, nil
}
