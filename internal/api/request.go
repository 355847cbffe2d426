package api

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// optInt is an integer field that may arrive as a JSON number, a numeric
// string, an empty string or null. Values that cannot be read as an integer
// are kept as Bad instead of failing the whole request.
type optInt struct {
	Value int64
	Set   bool
	Bad   bool
}

func (o *optInt) UnmarshalJSON(b []byte) error {
	*o = optInt{}
	raw := bytes.TrimSpace(b)
	if bytes.Equal(raw, []byte("null")) {
		return nil
	}

	text := string(raw)
	if len(raw) > 0 && raw[0] == '"' {
		if err := json.Unmarshal(raw, &text); err != nil {
			o.Bad = true
			return nil
		}
		text = strings.TrimSpace(text)
		if text == "" {
			return nil
		}
	}

	if n, err := strconv.ParseInt(text, 10, 64); err == nil {
		*o = optInt{Value: n, Set: true}
		return nil
	}
	if f, err := strconv.ParseFloat(text, 64); err == nil && f == math.Trunc(f) && math.Abs(f) < 1<<53 {
		*o = optInt{Value: int64(f), Set: true}
		return nil
	}
	o.Bad = true
	return nil
}

// id returns the value when it can identify a row.
func (o optInt) id() (int64, bool) {
	if !o.Set || o.Bad || o.Value <= 0 {
		return 0, false
	}
	return o.Value, true
}

// looseString is a text field read the way a form post would coerce it.
// Numbers keep their literal text, true becomes "1", and anything else that
// is not a string reads as empty so field validation reports it.
type looseString string

func (s *looseString) UnmarshalJSON(b []byte) error {
	raw := bytes.TrimSpace(b)
	switch {
	case len(raw) == 0:
		*s = ""
	case raw[0] == '"':
		var text string
		if err := json.Unmarshal(raw, &text); err != nil {
			*s = ""
			return nil
		}
		*s = looseString(text)
	case raw[0] == '-' || (raw[0] >= '0' && raw[0] <= '9'):
		*s = looseString(raw)
	case bytes.Equal(raw, []byte("true")):
		*s = "1"
	default:
		*s = ""
	}
	return nil
}

// actionRequest is the body of POST /api/actions. Fields that an action does
// not use are ignored.
type actionRequest struct {
	Action     looseString `json:"action"`
	ID         optInt      `json:"id"`
	Name       looseString `json:"name"`
	ParentID   optInt      `json:"parent_id"`
	MachineID  optInt      `json:"machine_id"`
	PartNumber looseString `json:"partNumber"`
	Quantity   optInt      `json:"quantity"`
	Location   looseString `json:"location"`
	Position   optInt      `json:"position"`
}

// decodeAction parses a request body. An empty object is rejected like
// malformed JSON.
func decodeAction(body []byte) (*actionRequest, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil || len(fields) == 0 {
		return nil, false
	}
	var req actionRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, false
	}
	req.Action = looseString(strings.TrimSpace(string(req.Action)))
	return &req, true
}
