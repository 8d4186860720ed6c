package hubclient

import (
	"testing"

	"knowledge_hub/internal/domain/model"

	"github.com/stretchr/testify/assert"
)

func sampleResources() []model.Resource {
	return []model.Resource{
		{
			ID: "res-article", Title: "Go Concurrency Patterns", Description: "Pipelines and cancellation",
			Type: model.TypeArticle,
			Tags: []model.Tag{{ID: "tag-go", Name: "go"}, {ID: "tag-conc", Name: "concurrency"}},
		},
		{
			ID: "res-snippet", Title: "Worker pool", Description: "Bounded goroutines",
			Type: model.TypeCodeSnippet,
			Tags: []model.Tag{{ID: "tag-go", Name: "go"}},
		},
		{
			ID: "res-book", Title: "Designing Data-Intensive Applications", Description: "Storage and replication",
			Type: model.TypeBook,
			Tags: []model.Tag{{ID: "tag-db", Name: "databases"}},
		},
		{
			ID: "res-course", Title: "Distributed Systems", Description: "Lecture series",
			Type: model.TypeCourse,
		},
	}
}

func resultIDs(resources []model.Resource) []string {
	ids := make([]string, 0, len(resources))
	for _, r := range resources {
		ids = append(ids, r.ID)
	}
	return ids
}

func TestFilter_EmptyPassesEverything(t *testing.T) {
	out := Filter{}.Apply(sampleResources())
	assert.Len(t, out, 4)
}

func TestFilter_QueryIsCaseInsensitive(t *testing.T) {
	cases := []struct {
		query string
		want  []string
	}{
		{"CONCURRENCY", []string{"res-article"}},
		{"pipelines", []string{"res-article"}},
		{"goroutines", []string{"res-snippet"}}, // description matches too
		{"nothing matches this", []string{}},
	}
	for _, tc := range cases {
		out := Filter{Query: tc.query}.Apply(sampleResources())
		assert.Equal(t, tc.want, resultIDs(out), "query %q", tc.query)
	}
}

func TestFilter_TypeBuckets(t *testing.T) {
	// book and course share the learning_resource bucket
	out := Filter{Types: []string{BucketLearningResource}}.Apply(sampleResources())
	assert.Equal(t, []string{"res-book", "res-course"}, resultIDs(out))

	out = Filter{Types: []string{BucketArticle, BucketCodeSnippet}}.Apply(sampleResources())
	assert.Equal(t, []string{"res-article", "res-snippet"}, resultIDs(out))
}

func TestFilter_TagsMatchByIDOrName(t *testing.T) {
	byID := Filter{Tags: []string{"tag-go"}}.Apply(sampleResources())
	assert.Equal(t, []string{"res-article", "res-snippet"}, resultIDs(byID))

	byName := Filter{Tags: []string{"databases"}}.Apply(sampleResources())
	assert.Equal(t, []string{"res-book"}, resultIDs(byName))
}

func TestFilter_CriteriaAreConjunctive(t *testing.T) {
	f := Filter{
		Query: "worker",
		Types: []string{BucketCodeSnippet},
		Tags:  []string{"tag-go"},
	}
	assert.Equal(t, []string{"res-snippet"}, resultIDs(f.Apply(sampleResources())))

	// Same tag and query, wrong bucket: nothing passes.
	f.Types = []string{BucketArticle}
	assert.Empty(t, f.Apply(sampleResources()))
}

func TestOwnedBy(t *testing.T) {
	res := model.Resource{User: &model.PublicUser{ID: "user-1"}}
	assert.True(t, OwnedBy(res, "user-1"))
	assert.False(t, OwnedBy(res, "user-2"))

	// Falls back to the raw owner id when the profile isn't expanded.
	bare := model.Resource{UserID: "user-1"}
	assert.True(t, OwnedBy(bare, "user-1"))
}
