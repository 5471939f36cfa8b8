package models

// Match is one ranked gallery hit for a query embedding.
type Match struct {
	ID        string  `json:"id"`
	ImagePath string  `json:"image_path,omitempty"`
	Distance  float64 `json:"distance"`
	Rank      int     `json:"rank"`
}

// SearchResponse is what the front end renders for one query.
type SearchResponse struct {
	QueryID     string   `json:"query_id"`
	Query       string   `json:"query,omitempty"`
	GallerySize int      `json:"gallery_size"`
	Matches     []*Match `json:"matches"`
	QueryTimeMs int64    `json:"query_time_ms"`
}
