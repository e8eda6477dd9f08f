package store

// Document is a unit of the learning-resource knowledge base
type Document struct {
	ID       string                 `json:"id"`
	Title    string                 `json:"title"`
	Content  string                 `json:"content"`
	Metadata map[string]interface{} `json:"metadata"`
}

// ScoredDocument is a document paired with a retrieval relevance score
type ScoredDocument struct {
	Document
	Score float64 `json:"score"`
}

// URL returns the source URL from metadata, if present
func (d Document) URL() string {
	if d.Metadata == nil {
		return ""
	}
	if u, ok := d.Metadata["url"].(string); ok {
		return u
	}
	return ""
}

// Reference renders the document as a citable resource string
func (d Document) Reference() string {
	if u := d.URL(); u != "" {
		return d.Title + " (" + u + ")"
	}
	return d.Title
}
