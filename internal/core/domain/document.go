package domain

import "time"

// Document is a scanned document as the repository exposes it. The
// router only ever mutates its tag set; everything else is read-only.
type Document struct {
	ID      int       `json:"id"`
	Title   string    `json:"title"`
	Content string    `json:"content"`
	Tags    []int     `json:"tags"`
	Created time.Time `json:"created"`
}

// DocumentSummary is one entry of the repository's most-recent feed.
type DocumentSummary struct {
	ID      int       `json:"id"`
	Title   string    `json:"title"`
	Created time.Time `json:"created"`
}

// Topic is one business-unit routing dimension. Topics are ordered;
// the first configured topic is the fallback forwarding target when a
// trigger fires without any topic-specific signal.
type Topic struct {
	Name       string   `yaml:"name"`
	Tag        string   `yaml:"tag"`
	Recipient  string   `yaml:"recipient"`
	Keywords   []string `yaml:"keywords"`
	Deductible bool     `yaml:"deductible"`
}
