package events

import "github.com/google/uuid"

type TagCreated struct {
	Name string `json:"name"`
}

func (TagCreated) Kind() string { return KindTagCreated }

type TagUsed struct {
	Name      string    `json:"name"`
	ArticleID uuid.UUID `json:"article_id"`
}

func (TagUsed) Kind() string { return KindTagUsed }

// PopularTagDetected fires when a tag's usage crosses the configured
// threshold.
type PopularTagDetected struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

func (PopularTagDetected) Kind() string { return KindPopularTagDetected }
