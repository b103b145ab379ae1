package tool

import (
	"context"
	"fmt"
	"strings"
	"time"

	contractx "github.com/meetkeeps15/brandbox-agent/agent/contract"
	statex "github.com/meetkeeps15/brandbox-agent/agent/state"
	"github.com/meetkeeps15/brandbox-agent/pkg/highlevel"
)

const availabilityWindow = 7 * 24 * time.Hour

func (c *Catalog) executeCalendarAvailability(ctx context.Context, sess contractx.SessionContext, args map[string]any) contractx.ToolResult {
	if c.deps.CRM == nil || !c.deps.CRM.Configured() {
		return errorResult(ToolCalendarAvailability, "calendar access is not configured; set CRM credentials")
	}

	calendarID := strings.TrimSpace(stringArg(args, "calendar_id"))
	if calendarID == "" {
		calendarID = c.deps.CRM.DefaultCalendarID()
	}
	tz := c.resolveTimezone(args)

	window := availabilityWindow
	if days, ok := intArg(args, "days"); ok && days > 0 {
		window = time.Duration(days) * 24 * time.Hour
	}

	start := c.now()
	end := start.Add(window)
	slots, err := c.deps.CRM.FreeSlots(ctx, calendarID, start, end, tz)
	if err != nil {
		return errorResult(ToolCalendarAvailability, fmt.Sprintf("fetch free slots: %v", err))
	}
	if len(slots) == 0 {
		return okResult(ToolCalendarAvailability, map[string]any{
			"calendar_id": calendarID,
			"timezone":    tz,
			"slots":       []any{},
			"message":     "no open slots in the next 7 days",
		})
	}

	cached := make([]statex.Slot, len(slots))
	listed := make([]map[string]any, len(slots))
	for i, slot := range slots {
		cached[i] = statex.Slot{StartISO: slot.StartISO, EndISO: slot.EndISO}
		listed[i] = map[string]any{
			"index": i + 1,
			"start": slot.StartISO,
			"end":   slot.EndISO,
		}
	}
	if err := c.deps.Store.SaveSlots(ctx, sess.Key, calendarID, cached); err != nil {
		return errorResult(ToolCalendarAvailability, fmt.Sprintf("cache slots: %v", err))
	}

	return okResult(ToolCalendarAvailability, map[string]any{
		"calendar_id": calendarID,
		"timezone":    tz,
		"slots":       listed,
	})
}

func (c *Catalog) executeBookAppointment(ctx context.Context, sess contractx.SessionContext, args map[string]any) contractx.ToolResult {
	if c.deps.CRM == nil || !c.deps.CRM.Configured() {
		return errorResult(ToolBookAppointment, "calendar access is not configured; set CRM credentials")
	}

	calendarID := strings.TrimSpace(stringArg(args, "calendar_id"))
	if calendarID == "" {
		calendarID = c.deps.CRM.DefaultCalendarID()
	}
	tz := c.resolveTimezone(args)

	slot, err := c.resolveSlot(ctx, sess, calendarID, tz, args)
	if err != nil {
		return errorResult(ToolBookAppointment, err.Error())
	}

	contact, err := c.bookingContact(ctx, sess, args)
	if err != nil {
		return errorResult(ToolBookAppointment, fmt.Sprintf("resolve contact: %v", err))
	}

	booking, err := c.deps.CRM.BookAppointment(ctx, highlevel.BookingInput{
		CalendarID: calendarID,
		ContactID:  contact.ID,
		StartISO:   slot.StartISO,
		EndISO:     slot.EndISO,
		Timezone:   tz,
		Location:   strings.TrimSpace(stringArg(args, "location")),
	})
	if err != nil {
		return errorResult(ToolBookAppointment, fmt.Sprintf("book appointment: %v", err))
	}

	return okResult(ToolBookAppointment, map[string]any{
		"calendar_id": calendarID,
		"contact_id":  contact.ID,
		"start":       slot.StartISO,
		"end":         slot.EndISO,
		"timezone":    tz,
		"booking":     booking,
	})
}

// resolveSlot picks the appointment window: an explicit start/end pair
// wins, then a numbered pick from the cached availability list, then the
// first open slot in the coming week.
func (c *Catalog) resolveSlot(ctx context.Context, sess contractx.SessionContext, calendarID, tz string, args map[string]any) (statex.Slot, error) {
	start := strings.TrimSpace(stringArg(args, "start_time"))
	end := strings.TrimSpace(stringArg(args, "end_time"))
	if start != "" && end != "" {
		return statex.Slot{StartISO: start, EndISO: end}, nil
	}

	if index, ok := intArg(args, "slot_index"); ok && index > 0 {
		slots, err := c.deps.Store.LoadSlots(ctx, sess.Key, calendarID)
		if err != nil {
			return statex.Slot{}, fmt.Errorf("no cached availability; run %s first", ToolCalendarAvailability)
		}
		if index > len(slots) {
			return statex.Slot{}, fmt.Errorf("slot_index=%d is out of range; only %d slots were listed", index, len(slots))
		}
		return slots[index-1], nil
	}

	if slots, err := c.deps.Store.LoadSlots(ctx, sess.Key, calendarID); err == nil && len(slots) > 0 {
		return slots[0], nil
	}

	now := c.now()
	fresh, err := c.deps.CRM.FreeSlots(ctx, calendarID, now, now.Add(availabilityWindow), tz)
	if err != nil {
		return statex.Slot{}, fmt.Errorf("fetch free slots: %w", err)
	}
	if len(fresh) == 0 {
		return statex.Slot{}, fmt.Errorf("no open slots in the next 7 days")
	}
	return statex.Slot{StartISO: fresh[0].StartISO, EndISO: fresh[0].EndISO}, nil
}

// bookingContact prefers explicit attendee details over the cached
// session contact.
func (c *Catalog) bookingContact(ctx context.Context, sess contractx.SessionContext, args map[string]any) (*highlevel.Contact, error) {
	email := strings.TrimSpace(stringArg(args, "email"))
	if email == "" {
		return c.sessionContact(ctx, sess, nil)
	}

	name := strings.TrimSpace(stringArg(args, "name"))
	first, last, _ := strings.Cut(name, " ")
	return c.deps.CRM.UpsertContact(ctx, highlevel.UpsertContactInput{
		Email:     email,
		FirstName: first,
		LastName:  strings.TrimSpace(last),
		Tags:      []string{"brandbox"},
	})
}

func (c *Catalog) resolveTimezone(args map[string]any) string {
	if tz := strings.TrimSpace(stringArg(args, "timezone")); tz != "" {
		return tz
	}
	if c.deps.CRM != nil && c.deps.CRM.DefaultTimezone() != "" {
		return c.deps.CRM.DefaultTimezone()
	}
	if c.deps.Timezone != "" {
		return c.deps.Timezone
	}
	return "UTC"
}
