package manifest

// FileName is the manifest's name inside an output directory.
const FileName = "blogimg.manifest.json"

// Manifest records one convert run.
type Manifest struct {
	Version     int              `json:"version"`
	GeneratedAt string           `json:"generated_at"`
	Profile     string           `json:"profile"`
	Settings    Settings         `json:"settings"`
	Images      map[string]Image `json:"images"` // keyed by output path, slash separated
	Stats       Stats            `json:"stats"`
}

// Settings captures the compressor options used for the run.
type Settings struct {
	TargetKB    int   `json:"target_kb"`
	ToleranceKB int   `json:"tolerance_kb"`
	MaxWidth    int   `json:"max_width"`
	MaxHeight   int   `json:"max_height"`
	Ladder      []int `json:"quality_ladder"`
}

// Image describes one converted source.
type Image struct {
	Source       string `json:"source"` // path or URL as given
	SourceFormat string `json:"source_format"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	Quality      int    `json:"quality"`
	Size         int64  `json:"size"`          // bytes on disk
	OriginalSize int64  `json:"original_size"` // source bytes
	Hash         string `json:"hash"`          // first 16 hex chars of xxhash64
	MetTarget    bool   `json:"met_target"`
	LQIP         string `json:"lqip,omitempty"`
}

// Stats aggregates run metrics.
type Stats struct {
	TotalInputBytes  int64 `json:"total_input_bytes"`
	TotalOutputBytes int64 `json:"total_output_bytes"`
	TotalImages      int   `json:"total_images"`
	MissedTarget     int   `json:"missed_target,omitempty"` // images returned at the lowest quality over target
	Failed           int   `json:"failed,omitempty"`
}

// SupportedManifestVersion is the current schema version.
const SupportedManifestVersion = 1
