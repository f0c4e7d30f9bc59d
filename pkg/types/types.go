package types

// Candidate is one generated caption returned by a vision backend for an
// image. Backends that can return several completions map each of them to a
// Candidate; an empty slice means the model produced no usable output.
type Candidate struct {
	GeneratedText string `json:"generated_text"`
}

// Backend identifies which inference server implementation to talk to.
type Backend string

const (
	BackendOllama   Backend = "ollama"
	BackendLlamaCpp Backend = "llamacpp"
)

// Valid reports whether b names a known backend.
func (b Backend) Valid() bool {
	return b == BackendOllama || b == BackendLlamaCpp
}
