// internal/gateway/request.go
package gateway

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	commonerrors "caregiver-matching/internal/common/errors"
	"caregiver-matching/internal/common/validation"
	"caregiver-matching/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/mitchellh/mapstructure"
)

const (
	maxWindowSpan = 30 * 24 * time.Hour
	maxRadiusKm   = 500.0
)

// MatchRequest is the wire form of POST /match. Query-string parameters override body
// fields of the same name.
type MatchRequest struct {
	Engine         string    `mapstructure:"engine"`
	City           string    `mapstructure:"city"`
	Lat            *float64  `mapstructure:"lat"`
	Lng            *float64  `mapstructure:"lng"`
	ServicesQuery  []string  `mapstructure:"servicesQuery"`
	Expertise      []string  `mapstructure:"expertise"`
	ExpertiseQuery []string  `mapstructure:"expertiseQuery"`
	Urgent         bool      `mapstructure:"urgent"`
	TopK           int       `mapstructure:"topK"`
	Start          time.Time `mapstructure:"start"`
	End            time.Time `mapstructure:"end"`
	RadiusKm       float64   `mapstructure:"radiusKm"`
	Text           string    `mapstructure:"query"`
	NurseName      string    `mapstructure:"nurseName"`
}

var (
	numericParams = map[string]bool{"lat": true, "lng": true, "topK": true, "radiusKm": true}
	listParams    = map[string]bool{"servicesQuery": true, "expertise": true, "expertiseQuery": true}
	timeLayouts   = []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04", "2006-01-02"}
)

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int { return &v }

// requestSchema bounds topK by the configured ceiling.
func requestSchema(maxTopK int) validation.JSONSchema {
	str := validation.Property{Type: "string"}
	return validation.JSONSchema{
		Type: "object",
		Properties: map[string]validation.Property{
			"engine":         {Type: "string", MinLength: intPtr(1), MaxLength: intPtr(64)},
			"city":           {Type: "string", MaxLength: intPtr(120)},
			"lat":            {Type: "number", Minimum: floatPtr(-90), Maximum: floatPtr(90)},
			"lng":            {Type: "number", Minimum: floatPtr(-180), Maximum: floatPtr(180)},
			"servicesQuery":  {Type: "array", Items: &str},
			"expertise":      {Type: "array", Items: &str},
			"expertiseQuery": {Type: "array", Items: &str},
			"urgent":         {Type: "boolean"},
			"topK":           {Type: "integer", Minimum: floatPtr(1), Maximum: floatPtr(float64(maxTopK))},
			"start":          {Type: "string"},
			"end":            {Type: "string"},
			"radiusKm":       {Type: "number", Minimum: floatPtr(0), Maximum: floatPtr(maxRadiusKm)},
			"query":          {Type: "string", MaxLength: intPtr(2000)},
			"nurseName":      {Type: "string", MaxLength: intPtr(200)},
		},
	}
}

// parseMatchRequest merges the body and query string, validates the result and decodes
// it. Every failure is a VALIDATION_FAILED error listing the offending fields.
func parseMatchRequest(c *fiber.Ctx, defaultTopK, maxTopK int) (*MatchRequest, error) {
	raw := map[string]interface{}{}
	if body := c.Body(); len(strings.TrimSpace(string(body))) > 0 {
		if err := json.Unmarshal(body, &raw); err != nil {
			return nil, commonerrors.NewValidationError([]validation.ValidationError{{
				Field:   "body",
				Message: "request body must be a JSON object",
				Code:    "INVALID_JSON",
			}})
		}
	}
	for key, value := range c.Queries() {
		raw[key] = coerceParam(key, value)
	}

	result := validation.ValidateInput(raw, requestSchema(maxTopK))
	if !result.Valid {
		return nil, commonerrors.NewValidationError(result.Errors)
	}

	var req MatchRequest
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: stringToTimeHook,
		Result:     &req,
	})
	if err != nil {
		return nil, commonerrors.NewInternalError(err)
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, commonerrors.NewValidationError(decodeErrors(err))
	}

	if fieldErrs := req.validate(); len(fieldErrs) > 0 {
		return nil, commonerrors.NewValidationError(fieldErrs)
	}
	if req.TopK == 0 {
		req.TopK = defaultTopK
	}
	return &req, nil
}

// coerceParam converts query-string values to the JSON types the schema expects.
// Values that do not convert stay strings so the schema reports them.
func coerceParam(key, value string) interface{} {
	switch {
	case numericParams[key]:
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	case key == "urgent":
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	case listParams[key]:
		var items []interface{}
		for _, part := range strings.Split(value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				items = append(items, part)
			}
		}
		return items
	}
	return value
}

func stringToTimeHook(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
	if from.Kind() != reflect.String || to != reflect.TypeOf(time.Time{}) {
		return data, nil
	}
	s := strings.TrimSpace(data.(string))
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return nil, fmt.Errorf("%q is not an ISO-8601 date or timestamp", s)
}

func decodeErrors(err error) []validation.ValidationError {
	var msgs []string
	if mErr, ok := err.(*mapstructure.Error); ok {
		msgs = mErr.Errors
	} else {
		msgs = []string{err.Error()}
	}

	out := make([]validation.ValidationError, 0, len(msgs))
	for _, msg := range msgs {
		field := "body"
		if i := strings.Index(msg, "'"); i >= 0 {
			if j := strings.Index(msg[i+1:], "'"); j > 0 {
				field = msg[i+1 : i+1+j]
			}
		}
		out = append(out, validation.ValidationError{Field: field, Message: msg, Code: "INVALID_VALUE"})
	}
	return out
}

func (r *MatchRequest) validate() []validation.ValidationError {
	var errs []validation.ValidationError
	add := func(field, msg, code string) {
		errs = append(errs, validation.ValidationError{Field: field, Message: msg, Code: code})
	}

	if strings.TrimSpace(r.City) == "" && r.Lat == nil && r.Lng == nil && strings.TrimSpace(r.Text) == "" {
		add("city", "one of city, lat/lng or query is required", "LOCATION_REQUIRED")
	}
	if (r.Lat == nil) != (r.Lng == nil) {
		add("lat", "lat and lng must be provided together", "COORDINATE_INCOMPLETE")
	}

	switch {
	case r.Start.IsZero() && r.End.IsZero():
	case r.Start.IsZero() || r.End.IsZero():
		add("start", "start and end must be provided together", "WINDOW_INCOMPLETE")
	case !r.End.After(r.Start):
		add("end", "end must be after start", "WINDOW_ORDER")
	case r.End.Sub(r.Start) > maxWindowSpan:
		add("end", "time window may span at most 30 days", "WINDOW_TOO_LONG")
	}
	return errs
}

// Query converts the request to the engine-facing query.
func (r *MatchRequest) Query() models.Query {
	q := models.Query{
		Locality:      strings.TrimSpace(r.City),
		Services:      cleanLabels(r.ServicesQuery),
		Expertise:     cleanLabels(append(append([]string{}, r.ExpertiseQuery...), r.Expertise...)),
		Urgent:        r.Urgent,
		TopK:          r.TopK,
		Text:          strings.TrimSpace(r.Text),
		RadiusKm:      r.RadiusKm,
		CandidateName: strings.TrimSpace(r.NurseName),
	}
	if r.Lat != nil && r.Lng != nil {
		q.Coordinate = &models.Coordinate{Lat: *r.Lat, Lng: *r.Lng}
	}
	if !r.Start.IsZero() {
		q.Window = &models.TimeWindow{Start: r.Start.UTC(), End: r.End.UTC()}
	}
	return q
}

func cleanLabels(labels []string) []string {
	seen := make(map[string]bool, len(labels))
	var out []string
	for _, l := range labels {
		l = strings.TrimSpace(l)
		if l == "" || seen[l] {
			continue
		}
		seen[l] = true
		out = append(out, l)
	}
	return out
}
