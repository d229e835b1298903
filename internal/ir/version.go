package ir

// Version constants for the GameDef schema and the engine.
const (
	// SchemaVersion is the GameDef document schema version.
	SchemaVersion = "1"

	// EngineVersion is the ludeme engine version.
	EngineVersion = "0.1.0"
)
