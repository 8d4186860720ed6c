package model

// Tag is a label attached to resources. Names are not unique at the store
// level; two tags with the same name are treated as the same logical tag by
// matching on the slug-normalized name.
type Tag struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}
