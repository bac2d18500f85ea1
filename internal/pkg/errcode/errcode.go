package errcode

const (
	ErrUnknown = 10000000 + iota
	ErrUnauthorized
	ErrForbidden
	ErrNotFound
	ErrInvalid
	ErrConflict
	ErrTooMany
	ErrInternal
	ErrInvalidFile
	ErrUploadFailed
	ErrUnsupportedFileType
	ErrIngestionFailed
	ErrLowQualityExtraction
	ErrUnsupportedOutputFormat
	ErrRenderingFailed
	ErrArtifactPersistence
	ErrGenerationConfig
	ErrGenerationFailed
	ErrPromptResolution
)
