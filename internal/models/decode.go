package models

import (
	"bytes"
	"errors"
	"fmt"

	json "github.com/goccy/go-json"
	"github.com/spf13/cast"
)

// RecordShape names the persisted layout a DailyRecord was decoded from.
type RecordShape int

const (
	ShapeAbsent RecordShape = iota
	ShapeCurrent
	// ShapeLegacyTotal is a bare integer holding only the day total.
	ShapeLegacyTotal
	// ShapeLegacyObject is an object missing categories, meta or videos, or
	// holding bare-integer domain entries.
	ShapeLegacyObject
)

var ErrUnknownRecordShape = errors.New("unknown daily record shape")

func (s RecordShape) String() string {
	switch s {
	case ShapeAbsent:
		return "absent"
	case ShapeCurrent:
		return "current"
	case ShapeLegacyTotal:
		return "legacy_total"
	case ShapeLegacyObject:
		return "legacy_object"
	default:
		return "unknown"
	}
}

// Legacy reports whether the stored bytes must be rewritten in the current shape.
func (s RecordShape) Legacy() bool {
	return s == ShapeLegacyTotal || s == ShapeLegacyObject
}

// DecodeDailyRecord turns raw stored bytes into a current-shape record. Every
// read path goes through here, so older layouts are upgraded before use.
func DecodeDailyRecord(raw []byte) (*DailyRecord, RecordShape, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return NewDailyRecord(), ShapeAbsent, nil
	}

	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, ShapeAbsent, fmt.Errorf("decode daily record: %w", err)
	}

	switch v := doc.(type) {
	case nil:
		return NewDailyRecord(), ShapeAbsent, nil
	case float64:
		rec := NewDailyRecord()
		rec.Total = nonNegative(int64(v))
		return rec, ShapeLegacyTotal, nil
	case map[string]any:
		return decodeObject(v)
	default:
		return nil, ShapeAbsent, fmt.Errorf("%w: %T", ErrUnknownRecordShape, doc)
	}
}

func decodeObject(obj map[string]any) (*DailyRecord, RecordShape, error) {
	rec := NewDailyRecord()
	shape := ShapeCurrent

	total, err := toSeconds(obj["total"])
	if err != nil {
		return nil, ShapeAbsent, fmt.Errorf("total: %w", err)
	}
	rec.Total = total

	if raw, ok := obj["lastEpoch"]; ok && raw != nil {
		epoch, err := cast.ToInt64E(raw)
		if err != nil {
			return nil, ShapeAbsent, fmt.Errorf("lastEpoch: %w", err)
		}
		rec.LastEpoch = &epoch
	}

	categories, ok := obj["categories"].(map[string]any)
	if !ok {
		shape = ShapeLegacyObject
	}
	for label, raw := range categories {
		seconds, err := toSeconds(raw)
		if err != nil {
			return nil, ShapeAbsent, fmt.Errorf("category %q: %w", label, err)
		}
		rec.Categories[label] = seconds
	}

	domains, ok := obj["domains"].(map[string]any)
	if !ok {
		shape = ShapeLegacyObject
	}
	for name, raw := range domains {
		d, legacy, err := decodeDomain(raw)
		if err != nil {
			return nil, ShapeAbsent, fmt.Errorf("domain %q: %w", name, err)
		}
		if legacy {
			shape = ShapeLegacyObject
		}
		rec.Domains[name] = d
	}

	return rec, shape, nil
}

func decodeDomain(raw any) (*DomainRecord, bool, error) {
	d := NewDomainRecord()
	obj, ok := raw.(map[string]any)
	if !ok {
		total, err := toSeconds(raw)
		if err != nil {
			return nil, false, err
		}
		d.Total = total
		return d, true, nil
	}

	legacy := false
	total, err := toSeconds(obj["total"])
	if err != nil {
		return nil, false, err
	}
	d.Total = total

	videos, ok := obj["videos"].(map[string]any)
	if !ok {
		legacy = true
	}
	for title, v := range videos {
		seconds, err := toSeconds(v)
		if err != nil {
			return nil, false, fmt.Errorf("video %q: %w", title, err)
		}
		d.Videos[title] = seconds
	}

	meta, ok := obj["meta"].(map[string]any)
	if !ok {
		legacy = true
	}
	for title, v := range meta {
		m, ok := v.(map[string]any)
		if !ok {
			continue
		}
		d.Meta[title] = VideoMeta{Category: cast.ToString(m["category"])}
	}

	return d, legacy, nil
}

// toSeconds treats a missing value as zero and clamps negatives so the
// non-negative invariant holds even for damaged records.
func toSeconds(raw any) (int64, error) {
	if raw == nil {
		return 0, nil
	}
	v, err := cast.ToInt64E(raw)
	if err != nil {
		return 0, err
	}
	return nonNegative(v), nil
}

func nonNegative(v int64) int64 {
	if v < 0 {
		return 0
	}
	return v
}
