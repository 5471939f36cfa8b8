// Package cli provides output formatting and component wiring for the kagami commands.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"

	"github.com/hyperjump/kagami/internal/models"
	"github.com/hyperjump/kagami/pkg/utils"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputCompact is one match per line: rank, distance, id, image path.
	OutputCompact OutputFormat = "compact"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat validates a --output value.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(s); f {
	case OutputText, OutputCompact, OutputJSON:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q; use text, compact, or json", s)
	}
}

// View selects what a search prints.
type View string

const (
	// ViewScores lists distances only.
	ViewScores View = "scores"
	// ViewRelevant lists the matched images.
	ViewRelevant View = "relevant"
)

// WriteSearchResults writes a search response to w in the given format.
func WriteSearchResults(w io.Writer, response *models.SearchResponse, view View, format OutputFormat) error {
	switch format {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(response)
	case OutputCompact:
		for _, m := range response.Matches {
			fmt.Fprintf(w, "%d\t%.4f\t%s\t%s\n", m.Rank, m.Distance, m.ID, m.ImagePath)
		}
		return nil
	default:
		writeSearchResultsText(w, response, view)
		return nil
	}
}

func writeSearchResultsText(w io.Writer, response *models.SearchResponse, view View) {
	fmt.Fprintf(w, "\nQuery %s: %d of %d gallery images in %dms\n\n",
		response.Query, len(response.Matches), response.GallerySize, response.QueryTimeMs)
	if len(response.Matches) == 0 {
		fmt.Fprintln(w, "No matches.")
		return
	}
	switch view {
	case ViewRelevant:
		for _, m := range response.Matches {
			fmt.Fprintf(w, "%2d. %-24s %s\n", m.Rank, utils.Truncate(m.ID, 24), m.ImagePath)
		}
	default:
		for _, m := range response.Matches {
			fmt.Fprintf(w, "Score: %.2f\n", m.Distance)
		}
	}
}

// Status is what the status command reports.
type Status struct {
	GalleryEntries int    `json:"gallery_entries"`
	Dimensions     int    `json:"dimensions"`
	CatalogRecords int64  `json:"catalog_records"`
	DiskUsageBytes *int64 `json:"disk_usage_bytes,omitempty"`
	Backend        string `json:"backend"`
	ModelPath      string `json:"model_path,omitempty"`
	FeatureDir     string `json:"feature_dir"`
	ImageDir       string `json:"image_dir"`
	CatalogPath    string `json:"catalog_path"`
}

// WriteStatus writes st to w as aligned text or JSON.
func WriteStatus(w io.Writer, st *Status, format OutputFormat) error {
	if format == OutputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(st)
	}
	fmt.Fprintf(w, "gallery_entries:   %d   # feature files loaded\n", st.GalleryEntries)
	fmt.Fprintf(w, "dimensions:        %d\n", st.Dimensions)
	fmt.Fprintf(w, "catalog_records:   %d   # images ingested by kagami\n", st.CatalogRecords)
	if st.DiskUsageBytes != nil {
		fmt.Fprintf(w, "disk_usage_bytes:  %d   # features + catalog on disk\n", *st.DiskUsageBytes)
	}
	fmt.Fprintf(w, "backend:           %s\n", st.Backend)
	if st.ModelPath != "" {
		fmt.Fprintf(w, "model_path:        %s\n", st.ModelPath)
	}
	fmt.Fprintf(w, "feature_dir:       %s\n", st.FeatureDir)
	fmt.Fprintf(w, "image_dir:         %s\n", st.ImageDir)
	fmt.Fprintf(w, "catalog_path:      %s\n", st.CatalogPath)
	return nil
}

// DisplayName shortens path to its base name for headings.
func DisplayName(path string) string {
	if path == "" || path == "-" {
		return "stdin"
	}
	return filepath.Base(path)
}
