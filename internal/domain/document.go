// Package domain contains the core entities of the curation document and the
// backend evidence wire contract.
//
// The curation document is a field-level-versioned tree: every editable field F
// may carry a sibling F_review record describing who changed it, when, and
// whether the change has been accepted. Addressable containers (mutations,
// tumors, treatments) carry F_uuid identifiers that are the backend's primary
// keys and are never recomputed from content.
package domain

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Node is a single object of the live curation document as delivered by the
// realtime store: plain nested JSON.
type Node = map[string]any

// Document key conventions shared by every layer.
const (
	ReviewSuffix   = "_review"
	UUIDSuffix     = "_uuid"
	PathSeparator  = "/"
	CommentsSuffix = "_comments"
)

// Review is the companion record stored next to an editable field.
type Review struct {
	UpdatedBy          string `mapstructure:"updatedBy" json:"updatedBy,omitempty"`
	UpdateTime         any    `mapstructure:"updateTime" json:"updateTime,omitempty"`
	LastReviewed       any    `mapstructure:"lastReviewed" json:"lastReviewed,omitempty"`
	Added              bool   `mapstructure:"added" json:"added,omitempty"`
	Removed            bool   `mapstructure:"removed" json:"removed,omitempty"`
	DemotedToVus       bool   `mapstructure:"demotedToVus" json:"demotedToVus,omitempty"`
	PromotedToMutation bool   `mapstructure:"promotedToMutation" json:"promotedToMutation,omitempty"`
	InitialUpdate      bool   `mapstructure:"initialUpdate" json:"initialUpdate,omitempty"`
}

// UpdateTimeMillis returns the review's update time as epoch milliseconds.
func (r *Review) UpdateTimeMillis() (int64, bool) {
	if r == nil {
		return 0, false
	}
	return ParseUpdateTime(r.UpdateTime)
}

// ReviewKey returns the companion review key of field.
func ReviewKey(field string) string {
	return field + ReviewSuffix
}

// UUIDKey returns the identifier key of field.
func UUIDKey(field string) string {
	return field + UUIDSuffix
}

// IsReviewKey reports whether key names a review companion.
func IsReviewKey(key string) bool {
	return strings.HasSuffix(key, ReviewSuffix)
}

// ReviewOf reads the raw review companion of field from node. It returns nil
// when the companion is absent or not an object.
func ReviewOf(node Node, field string) Node {
	if node == nil {
		return nil
	}
	review, _ := node[ReviewKey(field)].(map[string]any)
	return review
}

// ParseReview converts a raw review companion into a Review.
func ParseReview(raw Node) *Review {
	if raw == nil {
		return nil
	}
	review := &Review{
		UpdateTime:   raw["updateTime"],
		LastReviewed: raw["lastReviewed"],
	}
	review.UpdatedBy, _ = raw["updatedBy"].(string)
	review.Added = Truthy(raw["added"])
	review.Removed = Truthy(raw["removed"])
	review.DemotedToVus = Truthy(raw["demotedToVus"])
	review.PromotedToMutation = Truthy(raw["promotedToMutation"])
	review.InitialUpdate = Truthy(raw["initialUpdate"])
	return review
}

// ParseUpdateTime accepts the shapes an update time takes in the document:
// JSON numbers (epoch millis), numeric strings and RFC 3339 dates.
func ParseUpdateTime(v any) (int64, bool) {
	switch t := v.(type) {
	case float64:
		return int64(t), true
	case float32:
		return int64(t), true
	case int:
		return int64(t), true
	case int64:
		return t, true
	case int32:
		return int64(t), true
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return n, true
		}
		if f, err := t.Float64(); err == nil {
			return int64(f), true
		}
	case string:
		if t == "" {
			return 0, false
		}
		if n, err := strconv.ParseInt(t, 10, 64); err == nil {
			return n, true
		}
		if parsed, err := time.Parse(time.RFC3339, t); err == nil {
			return parsed.UnixMilli(), true
		}
	case time.Time:
		if !t.IsZero() {
			return t.UnixMilli(), true
		}
	}
	return 0, false
}

// Truthy follows the document's loose boolean convention: true, non-empty
// strings and non-zero numbers count as set.
func Truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case float64:
		return t != 0
	case int:
		return t != 0
	case int64:
		return t != 0
	case map[string]any:
		return true
	case []any:
		return true
	default:
		return true
	}
}

// SplitPath splits a slash-delimited document path into its segments.
// Leading and trailing separators are ignored.
func SplitPath(path string) []string {
	trimmed := strings.Trim(path, PathSeparator)
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, PathSeparator)
}

// JoinPath appends segments to a base path.
func JoinPath(base string, segments ...string) string {
	parts := make([]string, 0, len(segments)+1)
	if base != "" {
		parts = append(parts, base)
	}
	for _, s := range segments {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, PathSeparator)
}

// IsIndex reports whether a path segment is an array index.
func IsIndex(segment string) bool {
	if segment == "" {
		return false
	}
	for _, r := range segment {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// DeepCopy returns a structural copy of a document value. Scalars are shared.
func DeepCopy(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, child := range t {
			out[k] = DeepCopy(child)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, child := range t {
			out[i] = DeepCopy(child)
		}
		return out
	default:
		return v
	}
}
