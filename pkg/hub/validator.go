package hub

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"mercator-hq/callisto/pkg/metrics"
)

// Payload is the untrusted key-value body of an ingestion call.
type Payload map[string]any

// ValidatePayload normalizes an inbound payload into its sample fields
// or rejects it. The service name must be non-empty after trimming;
// uptime and request counters default to 0 when absent and must parse
// as non-negative integers when present. Any caller-supplied timestamp
// is ignored: the pipeline assigns its own.
func ValidatePayload(payload Payload) (service string, uptime, requests int64, err error) {
	raw, ok := payload["service"]
	if ok {
		s, isString := raw.(string)
		if !isString {
			return "", 0, 0, metrics.NewValidationError("service", metrics.ErrMissingService)
		}
		service = strings.TrimSpace(s)
	}
	if service == "" {
		return "", 0, 0, metrics.NewValidationError("service", metrics.ErrMissingService)
	}

	uptime, err = intField(payload, "uptime")
	if err != nil {
		return "", 0, 0, err
	}

	// The original wire format used "requests"; some senders spell it
	// "requestCount". Accept both, first one wins.
	requests, err = intField(payload, "requests")
	if err != nil {
		return "", 0, 0, err
	}
	if _, present := payload["requests"]; !present {
		requests, err = intField(payload, "requestCount")
		if err != nil {
			return "", 0, 0, err
		}
	}

	return service, uptime, requests, nil
}

// intField parses a payload field as a non-negative integer. Absent
// fields default to 0. JSON decoding hands numbers over as float64 or
// json.Number depending on the decoder; numeric strings are accepted
// for parity with the original ingestion endpoint.
func intField(payload Payload, field string) (int64, error) {
	raw, ok := payload[field]
	if !ok || raw == nil {
		return 0, nil
	}

	var (
		value int64
		err   error
	)
	switch v := raw.(type) {
	case float64:
		if v != float64(int64(v)) {
			err = fmt.Errorf("%v is not an integer", v)
		}
		value = int64(v)
	case int:
		value = int64(v)
	case int64:
		value = v
	case json.Number:
		value, err = v.Int64()
	case string:
		value, err = strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	default:
		err = fmt.Errorf("unsupported type %T", raw)
	}

	if err != nil || value < 0 {
		return 0, metrics.NewValidationError(field, metrics.ErrBadField)
	}
	return value, nil
}
