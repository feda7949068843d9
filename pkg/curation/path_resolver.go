package curation

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/curation-evidence-sync/internal/domain"
)

// ExtractObjsInValuePath walks path against doc and returns the nearest
// enclosing mutation, tumor, implication group and treatment. Each resolved
// node is classified by shape (with the array key it was reached through as
// a tiebreaker) and the deepest match of each kind wins its slot.
//
// Any segment that does not resolve, and any empty or malformed path, yields a
// *domain.PathNotFoundError.
func ExtractObjsInValuePath(doc any, path string) (*domain.PathEntities, error) {
	segments := domain.SplitPath(path)
	if strings.TrimSpace(path) == "" || len(segments) == 0 {
		return nil, domain.NewPathNotFoundError(path, "", "empty path")
	}
	if strings.Contains(strings.Trim(path, domain.PathSeparator), domain.PathSeparator+domain.PathSeparator) {
		return nil, domain.NewPathNotFoundError(path, "", "malformed path")
	}

	entities := &domain.PathEntities{}
	current := doc
	lastKey := ""

	for _, segment := range segments {
		next, err := step(current, segment, path)
		if err != nil {
			return nil, err
		}

		// Only array elements take their container kind from the array key.
		arrayKey := ""
		if domain.IsIndex(segment) {
			arrayKey = lastKey
		}
		if kind := domain.ClassifyNode(next, arrayKey); kind != domain.EntityNone {
			entity, err := domain.DecodeEntity(kind, next.(map[string]any))
			if err != nil {
				return nil, fmt.Errorf("failed to decode %s at %q: %w", kind, segment,
					domain.NewValidationError(path, err.Error(), segment))
			}
			entities.Set(entity)
		}

		if !domain.IsIndex(segment) {
			lastKey = segment
		}
		current = next
	}

	return entities, nil
}

// ResolveValue returns the raw value at path.
func ResolveValue(doc any, path string) (any, error) {
	segments := domain.SplitPath(path)
	if len(segments) == 0 {
		return nil, domain.NewPathNotFoundError(path, "", "empty path")
	}
	current := doc
	for _, segment := range segments {
		next, err := step(current, segment, path)
		if err != nil {
			return nil, err
		}
		current = next
	}
	return current, nil
}

func step(current any, segment, path string) (any, error) {
	switch node := current.(type) {
	case []any:
		if !domain.IsIndex(segment) {
			return nil, domain.NewPathNotFoundError(path, segment, "expected an array index")
		}
		idx, err := strconv.Atoi(segment)
		if err != nil || idx >= len(node) {
			return nil, domain.NewPathNotFoundError(path, segment, "index out of range")
		}
		if node[idx] == nil {
			return nil, domain.NewPathNotFoundError(path, segment, "element has no accepted value")
		}
		return node[idx], nil
	case map[string]any:
		next, ok := node[segment]
		if !ok || next == nil {
			return nil, domain.NewPathNotFoundError(path, segment, "key not found")
		}
		return next, nil
	default:
		return nil, domain.NewPathNotFoundError(path, segment, "cannot descend into a scalar")
	}
}
