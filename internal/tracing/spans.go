package tracing

// Span names.
const (
	SpanRegistryAdd    = "handlers.add"
	SpanRegistryRemove = "handlers.remove"
	SpanSessionEnable  = "session.enable"
	SpanSessionDisable = "session.disable"
)

// Span attribute keys.
const (
	AttrRegistry     = "registry"
	AttrLabel        = "label"
	AttrDescriptions = "descriptions"
	AttrRecords      = "records"
	AttrSessionID    = "session.id"
)
