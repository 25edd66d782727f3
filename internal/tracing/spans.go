package tracing

// Span attribute keys for render pipeline tracing.
const (
	// Layout attributes
	AttrTopChar      = "layout.top_char"
	AttrEndChar      = "layout.end_char"
	AttrLineCount    = "layout.line_count"
	AttrCharsPerLine = "layout.chars_per_line"

	// Document attributes
	AttrDocumentGUID = "document.guid"
	AttrDocumentLen  = "document.length"
	AttrRevision     = "document.revision"

	// Sync attributes
	AttrOpsPulled = "sync.ops_pulled"
	AttrSiteID    = "sync.site_id"

	// Error attributes
	AttrErrorMessage = "error.message"
)

// Span names used across the render pipeline.
const (
	SpanLayout   = "layout.pass"
	SpanSyncPull = "sync.pull"
	SpanSyncPush = "sync.push"
)

// Event names for span events.
const (
	EventRenderCoalesced = "render.coalesced"
	EventLayoutRetried   = "layout.retried"
	EventCursorRebased   = "cursor.rebased"
	EventOpsApplied      = "ops.applied"
)
