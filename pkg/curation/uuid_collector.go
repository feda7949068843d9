package curation

import (
	"sort"
	"strings"

	"github.com/curation-evidence-sync/internal/domain"
)

// CollectMode selects which identifiers CollectUuids gathers.
type CollectMode int

const (
	// CollectAll gathers every *_uuid field except comment thread ids.
	CollectAll CollectMode = iota
	// CollectEvidenceOnly gathers only identifiers that key a backend
	// evidence record.
	CollectEvidenceOnly
)

// Identifiers that key a backend evidence record, per container kind.
var (
	mutationEvidenceUUIDs = []string{"oncogenic_uuid", "effect_uuid"}
	tumorEvidenceUUIDs    = []string{
		"summary_uuid",
		"prognosticSummary_uuid",
		"diagnosticSummary_uuid",
		"prognostic_uuid",
		"diagnostic_uuid",
	}
	treatmentEvidenceUUIDs = []string{"name_uuid"}
)

// childContainers are walked in this order under every container.
var childContainers = []string{domain.KeyTumors, domain.KeyImplicationGroups, domain.KeyTreatments}

// CollectUuids walks a mutation, tumor or treatment subtree and returns its
// identifiers in document order, without duplicates. Nil array slots are
// skipped. kind names the container; EntityNone falls back to its shape.
func CollectUuids(container domain.Node, kind domain.EntityKind, mode CollectMode) []string {
	c := &uuidCollector{seen: make(map[string]struct{})}
	if mode == CollectEvidenceOnly {
		if kind == domain.EntityNone {
			kind = domain.ClassifyNode(container, "")
		}
		c.evidence(container, kind)
	} else {
		c.all(container)
	}
	return c.ids
}

// ContainerKindAt returns the kind of the container found at path. The
// array key the container sits in decides when its shape does not.
func ContainerKindAt(path string, container domain.Node) domain.EntityKind {
	segments := domain.SplitPath(path)
	arrayKey := ""
	if n := len(segments); n >= 2 && domain.IsIndex(segments[n-1]) {
		arrayKey = segments[n-2]
	}
	return domain.ClassifyNode(container, arrayKey)
}

type uuidCollector struct {
	ids  []string
	seen map[string]struct{}
}

func (c *uuidCollector) add(v any) {
	id, ok := v.(string)
	if !ok || id == "" {
		return
	}
	if _, dup := c.seen[id]; dup {
		return
	}
	c.seen[id] = struct{}{}
	c.ids = append(c.ids, id)
}

func (c *uuidCollector) evidence(node domain.Node, kind domain.EntityKind) {
	if node == nil {
		return
	}
	switch kind {
	case domain.EntityMutation:
		if effect, ok := node[domain.KeyMutationEffect].(map[string]any); ok {
			for _, key := range mutationEvidenceUUIDs {
				c.add(effect[key])
			}
		}
	case domain.EntityTumor:
		for _, key := range tumorEvidenceUUIDs {
			c.add(node[key])
		}
	case domain.EntityTreatment:
		for _, key := range treatmentEvidenceUUIDs {
			c.add(node[key])
		}
	}

	for _, key := range childContainers {
		children, ok := node[key].([]any)
		if !ok {
			continue
		}
		for _, child := range children {
			if m, ok := child.(map[string]any); ok {
				c.evidence(m, domain.ClassifyNode(m, key))
			}
		}
	}
}

func (c *uuidCollector) all(v any) {
	switch t := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if domain.IsReviewKey(k) || isCommentKey(k) {
				continue
			}
			if strings.HasSuffix(k, domain.UUIDSuffix) {
				c.add(t[k])
				continue
			}
			c.all(t[k])
		}
	case []any:
		for _, el := range t {
			c.all(el)
		}
	}
}

func isCommentKey(key string) bool {
	return strings.Contains(strings.ToLower(key), "comments")
}
