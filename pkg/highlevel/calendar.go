package highlevel

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Slot is one availability window in ISO-8601 form.
type Slot struct {
	StartISO string `json:"start_iso"`
	EndISO   string `json:"end_iso"`
}

// slotParamShape is one free-slots query encoding. The calendar API has
// accepted different parameter names across versions; the variants are
// tried in order and the first non-empty result wins.
type slotParamShape struct {
	name  string
	build func(start, end time.Time, tz string) url.Values
}

func msParams(startKey, endKey string, withTZ bool) func(start, end time.Time, tz string) url.Values {
	return func(start, end time.Time, tz string) url.Values {
		q := url.Values{}
		q.Set(startKey, strconv.FormatInt(start.UnixMilli(), 10))
		q.Set(endKey, strconv.FormatInt(end.UnixMilli(), 10))
		if withTZ && tz != "" {
			q.Set("timeZone", tz)
		}
		return q
	}
}

func isoParams(startKey, endKey string, withTZ bool) func(start, end time.Time, tz string) url.Values {
	return func(start, end time.Time, tz string) url.Values {
		q := url.Values{}
		q.Set(startKey, start.UTC().Format(time.RFC3339))
		q.Set(endKey, end.UTC().Format(time.RFC3339))
		if withTZ && tz != "" {
			q.Set("timeZone", tz)
		}
		return q
	}
}

var slotParamShapes = []slotParamShape{
	{name: "startDate/endDate ms", build: msParams("startDate", "endDate", false)},
	{name: "startDate/endDate ms + timeZone", build: msParams("startDate", "endDate", true)},
	{name: "start/end iso", build: isoParams("start", "end", false)},
	{name: "start/end iso + timeZone", build: isoParams("start", "end", true)},
	{name: "startTime/endTime iso", build: isoParams("startTime", "endTime", false)},
	{name: "startTime/endTime iso + timeZone", build: isoParams("startTime", "endTime", true)},
}

// FreeSlots queries calendar availability and returns normalized slots.
func (c *Client) FreeSlots(ctx context.Context, calendarID string, start, end time.Time, tz string) ([]Slot, error) {
	if err := c.requireCredentials(); err != nil {
		return nil, err
	}
	calendarID = strings.TrimSpace(calendarID)
	if calendarID == "" {
		calendarID = c.calendarID
	}
	if calendarID == "" {
		return nil, errors.New("calendar id is required")
	}

	endpoint := c.baseURL + "/calendars/" + calendarID + "/free-slots"

	var attempts []error
	for _, shape := range slotParamShapes {
		var raw any
		err := c.doJSON(ctx, "GET", endpoint, shape.build(start, end, tz), nil, &raw)
		if err != nil {
			attempts = append(attempts, fmt.Errorf("%s: %w", shape.name, err))
			continue
		}
		slots := NormalizeSlots(raw)
		if len(slots) > 0 {
			return slots, nil
		}
		attempts = append(attempts, fmt.Errorf("%s: empty slot set", shape.name))
	}
	return nil, fmt.Errorf("free slots for calendar %s: %w", calendarID, errors.Join(attempts...))
}

type BookingInput struct {
	CalendarID string
	ContactID  string
	StartISO   string
	EndISO     string
	Timezone   string
	Location   string
}

// BookAppointment creates an appointment, walking the known endpoint paths
// until one accepts the payload.
func (c *Client) BookAppointment(ctx context.Context, in BookingInput) (map[string]any, error) {
	if err := c.requireCredentials(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.ContactID) == "" {
		return nil, errors.New("contact id is required")
	}
	if strings.TrimSpace(in.StartISO) == "" || strings.TrimSpace(in.EndISO) == "" {
		return nil, errors.New("slot start and end are required")
	}

	calendarID := strings.TrimSpace(in.CalendarID)
	if calendarID == "" {
		calendarID = c.calendarID
	}

	payload := map[string]any{
		"calendarId": calendarID,
		"contactId":  in.ContactID,
		"startTime":  in.StartISO,
		"endTime":    in.EndISO,
		"locationId": c.locationID,
	}
	if in.Timezone != "" {
		payload["timeZone"] = in.Timezone
	}
	if in.Location != "" {
		payload["location"] = in.Location
	}

	paths := []string{
		"/calendars/events/appointments",
		"/appointments",
		"/calendars/" + calendarID + "/appointments",
		"/locations/" + c.locationID + "/appointments",
	}

	var attempts []error
	for _, path := range paths {
		var resp map[string]any
		err := c.doJSON(ctx, "POST", c.baseURL+path, nil, payload, &resp)
		if err != nil {
			attempts = append(attempts, fmt.Errorf("%s: %w", path, err))
			continue
		}
		return resp, nil
	}
	return nil, fmt.Errorf("book appointment: %w", errors.Join(attempts...))
}

// NormalizeSlots flattens the heterogeneous availability payload shapes the
// calendar API returns into a deduplicated list sorted by start time.
// Recognized shapes: {startTime,endTime} epoch millis, {start,end} ISO
// strings, nested containers (slots/data/items/availability/body and
// date-keyed objects), and bare ISO strings treated as 30-minute windows.
func NormalizeSlots(raw any) []Slot {
	collected := collectSlots(raw)

	seen := make(map[[2]string]struct{}, len(collected))
	out := make([]Slot, 0, len(collected))
	for _, s := range collected {
		if s.StartISO == "" {
			continue
		}
		key := [2]string{s.StartISO, s.EndISO}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, s)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].StartISO < out[j].StartISO })
	return out
}

func collectSlots(node any) []Slot {
	switch v := node.(type) {
	case map[string]any:
		if slot, ok := slotFromMap(v); ok {
			return []Slot{slot}
		}
		var out []Slot
		for _, child := range v {
			out = append(out, collectSlots(child)...)
		}
		return out
	case []any:
		var out []Slot
		for _, child := range v {
			out = append(out, collectSlots(child)...)
		}
		return out
	case string:
		if start, ok := parseSlotTime(v); ok {
			return []Slot{{
				StartISO: start.Format(time.RFC3339),
				EndISO:   start.Add(30 * time.Minute).Format(time.RFC3339),
			}}
		}
	}
	return nil
}

func slotFromMap(m map[string]any) (Slot, bool) {
	start, hasStart := firstSlotValue(m, "startTime", "start")
	end, hasEnd := firstSlotValue(m, "endTime", "end")
	if !hasStart && !hasEnd {
		return Slot{}, false
	}
	if !hasStart {
		return Slot{}, false
	}
	if !hasEnd {
		end = start.Add(30 * time.Minute)
	}
	return Slot{
		StartISO: start.Format(time.RFC3339),
		EndISO:   end.Format(time.RFC3339),
	}, true
}

func firstSlotValue(m map[string]any, keys ...string) (time.Time, bool) {
	for _, key := range keys {
		v, ok := m[key]
		if !ok {
			continue
		}
		switch t := v.(type) {
		case string:
			if parsed, ok := parseSlotTime(t); ok {
				return parsed, true
			}
		case float64:
			return time.UnixMilli(int64(t)).UTC(), true
		case int64:
			return time.UnixMilli(t).UTC(), true
		}
	}
	return time.Time{}, false
}

func parseSlotTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
