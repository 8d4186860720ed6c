package hubclient

import (
	"strings"

	"knowledge_hub/internal/domain/model"
)

// Display buckets. Books and courses share one bucket.
const (
	BucketArticle          = "article"
	BucketCodeSnippet      = "code_snippet"
	BucketLearningResource = "learning_resource"
)

// BucketFor maps a resource type to its display bucket.
func BucketFor(t model.ResourceType) string {
	switch t {
	case model.TypeBook, model.TypeCourse:
		return BucketLearningResource
	default:
		return string(t)
	}
}

// Filter narrows a resource collection. All set criteria must hold;
// an empty criterion passes everything.
type Filter struct {
	// Query matches case-insensitively against title and description.
	Query string
	// Types selects display buckets (BucketArticle etc.).
	Types []string
	// Tags selects resources carrying any listed tag, by id or by name.
	Tags []string
}

// Match reports whether the resource satisfies every set criterion.
func (f Filter) Match(res model.Resource) bool {
	return f.matchQuery(res) && f.matchType(res) && f.matchTags(res)
}

// Apply returns the resources that pass the filter, in input order.
func (f Filter) Apply(resources []model.Resource) []model.Resource {
	out := make([]model.Resource, 0, len(resources))
	for _, res := range resources {
		if f.Match(res) {
			out = append(out, res)
		}
	}
	return out
}

func (f Filter) matchQuery(res model.Resource) bool {
	q := strings.ToLower(strings.TrimSpace(f.Query))
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(res.Title), q) ||
		strings.Contains(strings.ToLower(res.Description), q)
}

func (f Filter) matchType(res model.Resource) bool {
	if len(f.Types) == 0 {
		return true
	}
	bucket := BucketFor(res.Type)
	for _, t := range f.Types {
		if t == bucket {
			return true
		}
	}
	return false
}

func (f Filter) matchTags(res model.Resource) bool {
	if len(f.Tags) == 0 {
		return true
	}
	for _, want := range f.Tags {
		for _, tag := range res.Tags {
			if tag.ID == want || tag.Name == want {
				return true
			}
		}
	}
	return false
}

// OwnedBy reports whether the resource belongs to the given user.
// Ids compare as plain strings.
func OwnedBy(res model.Resource, userID string) bool {
	if res.User != nil {
		return res.User.ID == userID
	}
	return res.UserID == userID
}
