package provider

import "fmt"

const (
	ProviderReference = "reference"
	ProviderRemote    = "remote"
)

// NewStructurer builds a Structurer for the given provider id. The remote
// variant needs a TextExtractor to turn a file path into text before it
// ever talks to a model.
func NewStructurer(id string, cfg StructurerConfig, extractor TextExtractor) (Structurer, error) {
	switch id {
	case "", ProviderReference:
		return NewReferenceStructurer(), nil
	case ProviderRemote:
		if extractor == nil {
			return nil, fmt.Errorf("remote structurer: no text extractor configured")
		}
		return NewRemoteStructurer(cfg, extractor), nil
	default:
		return nil, fmt.Errorf("unknown structurer provider %q", id)
	}
}

// NewEmbedder builds an Embedder for the given provider id.
func NewEmbedder(id string, cfg EmbedderConfig) (Embedder, error) {
	switch id {
	case "", ProviderReference:
		return NewReferenceEmbedder(), nil
	case ProviderRemote:
		return NewRemoteEmbedder(cfg), nil
	default:
		return nil, fmt.Errorf("unknown embedder provider %q", id)
	}
}
