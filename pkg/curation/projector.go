// Package curation provides read-only transformations over snapshots of the
// collaboratively edited curation document: the last-accepted projection,
// path resolution back to domain entities, and identifier collection.
//
// Every function here is pure. Inputs are never mutated and outputs never
// alias input containers.
package curation

import (
	"strconv"
	"strings"

	"github.com/curation-evidence-sync/internal/domain"
)

// IsProtected reports whether path is protected by any of the protected paths.
// A protected path covers its descendants and its ancestors, so protecting
// "mutations/0" protects "mutations/0/name" and protecting "mutations/0/name"
// is still seen from "mutations/0". The document root is an ancestor of every
// path, so any protected path protects it.
func IsProtected(path string, protected []string) bool {
	path = strings.Trim(path, domain.PathSeparator)
	if path == "" {
		return len(protected) > 0
	}
	for _, p := range protected {
		p = strings.Trim(p, domain.PathSeparator)
		if p == path {
			return true
		}
		if p == "" {
			continue
		}
		if strings.HasPrefix(path, p+domain.PathSeparator) || strings.HasPrefix(p, path+domain.PathSeparator) {
			return true
		}
	}
	return false
}

// ProjectLastAccepted derives the last accepted view of doc. Protected paths
// force the live value to win. The second return value is false when the
// whole value has no accepted form.
//
// Rules, per object key:
//   - review companions are copied verbatim;
//   - arrays whose own review is added are dropped together with the
//     enclosing object unless the object path is protected; otherwise every
//     element is projected and dropped elements leave nil slots so indices
//     keep addressing the same logical entities;
//   - nested objects are projected; a dropped nested object is omitted;
//   - protected scalars keep their live value; scalars that are not newly
//     added (or whose object path is protected) take lastReviewed when
//     present; newly added unprotected scalars drop the enclosing object.
func ProjectLastAccepted(doc any, protected []string) (any, bool) {
	return projectValue(doc, "", protected)
}

func projectValue(v any, path string, protected []string) (any, bool) {
	switch t := v.(type) {
	case map[string]any:
		out, ok := projectObject(t, path, protected)
		if !ok {
			return nil, false
		}
		return out, true
	case []any:
		return projectArray(t, path, protected), true
	default:
		return v, true
	}
}

func projectArray(arr []any, path string, protected []string) []any {
	out := make([]any, len(arr))
	for i, el := range arr {
		if el == nil {
			continue
		}
		if projected, ok := projectValue(el, domain.JoinPath(path, strconv.Itoa(i)), protected); ok {
			out[i] = projected
		}
	}
	return out
}

func projectObject(obj map[string]any, path string, protected []string) (map[string]any, bool) {
	out := make(map[string]any, len(obj))
	pathProtected := IsProtected(path, protected)

	for key, value := range obj {
		if domain.IsReviewKey(key) {
			out[key] = domain.DeepCopy(value)
			continue
		}

		childPath := domain.JoinPath(path, key)
		review := domain.ParseReview(domain.ReviewOf(obj, key))

		switch v := value.(type) {
		case []any:
			if review != nil && review.Added && !pathProtected {
				return nil, false
			}
			out[key] = projectArray(v, childPath, protected)
		case map[string]any:
			if projected, ok := projectObject(v, childPath, protected); ok {
				out[key] = projected
			}
		default:
			switch {
			case IsProtected(childPath, protected):
				out[key] = value
			case review == nil || !review.Added || pathProtected:
				if review != nil && review.LastReviewed != nil {
					out[key] = domain.DeepCopy(review.LastReviewed)
				} else {
					out[key] = value
				}
			default:
				return nil, false
			}
		}
	}
	return out, true
}

// identityFields are the fields whose review marks the whole container as
// pending removal.
var identityFields = []string{domain.KeyName, domain.KeyCancerTypes}

// ProjectForSubmission projects doc to its last accepted view and then clears
// every array element whose identity field is pending removal. Removed
// containers never reach the backend, whatever the protected paths say.
func ProjectForSubmission(doc any, protected []string) (any, bool) {
	projected, ok := ProjectLastAccepted(doc, protected)
	if !ok {
		return nil, false
	}
	dropRemoved(projected)
	return projected, true
}

// dropRemoved works in place on a fresh projection.
func dropRemoved(v any) {
	switch t := v.(type) {
	case map[string]any:
		for _, child := range t {
			dropRemoved(child)
		}
	case []any:
		for i, el := range t {
			if node, ok := el.(map[string]any); ok && IsRemoved(node) {
				t[i] = nil
				continue
			}
			dropRemoved(el)
		}
	}
}

// IsRemoved reports whether a container is pending deletion.
func IsRemoved(node domain.Node) bool {
	for _, field := range identityFields {
		if _, present := node[field]; !present {
			continue
		}
		if review := domain.ParseReview(domain.ReviewOf(node, field)); review != nil && review.Removed {
			return true
		}
	}
	return false
}
