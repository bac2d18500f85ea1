package model

// GroundSource is an ingested user document kept as generation grounding
// material. CanonicalText is the pipeline's extracted text, not the raw file.
type GroundSource struct {
	ID               string `json:"id"`
	UserID           string `json:"user_id"`
	Name             string `json:"name"`
	OriginalFilename string `json:"original_filename"`
	ContentType      string `json:"content_type"`
	SizeBytes        int64  `json:"size_bytes"`
	StoragePath      string `json:"storage_path"`
	CanonicalText    string `json:"-"`
	ContentHash      string `json:"content_hash"`
	Ctime            int64  `json:"ctime"`
}
