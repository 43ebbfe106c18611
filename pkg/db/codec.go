package db

import (
	"encoding/json"
	"time"

	"github.com/offthechainak/hourbank/pkg/core/model"
)

// The codec maps model structs to the field maps the store persists and back.
// Decoding is tolerant of backend representation differences: Firestore hands
// back time.Time and int64, the jsonb backend hands back RFC3339 strings and
// float64.

// VolunteerFields encodes the full volunteer document.
func VolunteerFields(v *model.Volunteer) map[string]any {
	return map[string]any{
		"name":      v.Name,
		"email":     v.Email,
		"avatar":    v.Avatar,
		"hours":     v.Hours,
		"phone":     v.Phone,
		"twitter":   v.Twitter,
		"facebook":  v.Facebook,
		"instagram": v.Instagram,
		"isAdmin":   v.IsAdmin,
		"privacySettings": map[string]any{
			"showPhone":  v.Privacy.ShowPhone,
			"showSocial": v.Privacy.ShowSocial,
		},
		"currentClockEventId": v.CurrentClockEventID,
	}
}

func decodeVolunteer(doc *Document) *model.Volunteer {
	v := &model.Volunteer{
		ID:                  doc.ID,
		Name:                asString(doc.Fields["name"]),
		Email:               asString(doc.Fields["email"]),
		Avatar:              asString(doc.Fields["avatar"]),
		Hours:               asFloat(doc.Fields["hours"]),
		Phone:               asString(doc.Fields["phone"]),
		Twitter:             asString(doc.Fields["twitter"]),
		Facebook:            asString(doc.Fields["facebook"]),
		Instagram:           asString(doc.Fields["instagram"]),
		IsAdmin:             asBool(doc.Fields["isAdmin"]),
		CurrentClockEventID: asString(doc.Fields["currentClockEventId"]),
	}
	if ps, ok := doc.Fields["privacySettings"].(map[string]any); ok {
		v.Privacy = model.PrivacySettings{
			ShowPhone:  asBool(ps["showPhone"]),
			ShowSocial: asBool(ps["showSocial"]),
		}
	}
	return v
}

// ClockEventFields encodes a clock event document. EndTime and
// HoursAccumulated are omitted while nil so an open session carries no
// completion fields at all.
func ClockEventFields(e *model.ClockEvent) map[string]any {
	fields := map[string]any{
		"volunteerId": e.VolunteerID,
		"startTime":   e.StartTime,
		"status":      string(e.Status),
	}
	if e.EndTime != nil {
		fields["endTime"] = *e.EndTime
	}
	if e.HoursAccumulated != nil {
		fields["hoursAccumulated"] = *e.HoursAccumulated
	}
	return fields
}

func decodeClockEvent(doc *Document) *model.ClockEvent {
	e := &model.ClockEvent{
		ID:          doc.ID,
		VolunteerID: asString(doc.Fields["volunteerId"]),
		StartTime:   asTime(doc.Fields["startTime"]),
		Status:      model.EventStatus(asString(doc.Fields["status"])),
	}
	if raw, ok := doc.Fields["endTime"]; ok && raw != nil {
		end := asTime(raw)
		e.EndTime = &end
	}
	if raw, ok := doc.Fields["hoursAccumulated"]; ok && raw != nil {
		hours := asFloat(raw)
		e.HoursAccumulated = &hours
	}
	return e
}

// TransactionFields encodes a redemption receipt.
func TransactionFields(t *model.Transaction) map[string]any {
	return map[string]any{
		"volunteerId":   t.VolunteerID,
		"itemId":        t.ItemID,
		"hoursDeducted": t.HoursDeducted,
		"date":          t.Date,
	}
}

func decodeTransaction(doc *Document) *model.Transaction {
	return &model.Transaction{
		ID:            doc.ID,
		VolunteerID:   asString(doc.Fields["volunteerId"]),
		ItemID:        asString(doc.Fields["itemId"]),
		HoursDeducted: asFloat(doc.Fields["hoursDeducted"]),
		Date:          asTime(doc.Fields["date"]),
	}
}

// AdjustmentFields encodes a manual grant receipt.
func AdjustmentFields(a *model.Adjustment) map[string]any {
	return map[string]any{
		"volunteerId": a.VolunteerID,
		"hours":       a.Hours,
		"reason":      a.Reason,
		"date":        a.Date,
	}
}

func decodeAdjustment(doc *Document) *model.Adjustment {
	return &model.Adjustment{
		ID:          doc.ID,
		VolunteerID: asString(doc.Fields["volunteerId"]),
		Hours:       asFloat(doc.Fields["hours"]),
		Reason:      asString(doc.Fields["reason"]),
		Date:        asTime(doc.Fields["date"]),
	}
}

// StoreItemFields encodes a store item.
func StoreItemFields(item *model.StoreItem) map[string]any {
	return map[string]any{
		"name": item.Name,
		"cost": item.Cost,
	}
}

func decodeStoreItem(doc *Document) *model.StoreItem {
	return &model.StoreItem{
		ID:   doc.ID,
		Name: asString(doc.Fields["name"]),
		Cost: asFloat(doc.Fields["cost"]),
	}
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asBool(v any) bool {
	b, _ := v.(bool)
	return b
}

func asFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case json.Number:
		f, _ := n.Float64()
		return f
	default:
		return 0
	}
}

func asTime(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		parsed, err := time.Parse(time.RFC3339Nano, t)
		if err != nil {
			return time.Time{}
		}
		return parsed
	default:
		return time.Time{}
	}
}
