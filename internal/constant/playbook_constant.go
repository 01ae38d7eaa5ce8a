package constant

const (
	// Playbooks are persisted only after a successful synthesis run, so
	// every stored record is ready.
	PlaybookStatusReady = "ready"

	SynthesisKindGenerate   = "generate"
	SynthesisKindRegenerate = "regenerate"
)
