package provider

import "testing"

type stubExtractor struct{}

func (stubExtractor) Extract(string) (string, error) { return "", nil }

func TestNewStructurer_DefaultAndReferenceReturnReferenceImpl(t *testing.T) {
	for _, id := range []string{"", ProviderReference} {
		s, err := NewStructurer(id, StructurerConfig{}, nil)
		if err != nil {
			t.Fatalf("id %q: NewStructurer: %v", id, err)
		}
		if _, ok := s.(*ReferenceStructurer); !ok {
			t.Errorf("id %q: got %T, want *ReferenceStructurer", id, s)
		}
	}
}

func TestNewStructurer_Remote_RequiresExtractor(t *testing.T) {
	if _, err := NewStructurer(ProviderRemote, StructurerConfig{}, nil); err == nil {
		t.Fatal("expected an error when no extractor is configured")
	}

	s, err := NewStructurer(ProviderRemote, StructurerConfig{}, stubExtractor{})
	if err != nil {
		t.Fatalf("NewStructurer: %v", err)
	}
	if _, ok := s.(*RemoteStructurer); !ok {
		t.Errorf("got %T, want *RemoteStructurer", s)
	}
}

func TestNewStructurer_UnknownProvider(t *testing.T) {
	if _, err := NewStructurer("does-not-exist", StructurerConfig{}, stubExtractor{}); err == nil {
		t.Fatal("expected an error for an unknown provider id")
	}
}

func TestNewEmbedder_DefaultAndReferenceReturnReferenceImpl(t *testing.T) {
	for _, id := range []string{"", ProviderReference} {
		e, err := NewEmbedder(id, EmbedderConfig{})
		if err != nil {
			t.Fatalf("id %q: NewEmbedder: %v", id, err)
		}
		if _, ok := e.(*ReferenceEmbedder); !ok {
			t.Errorf("id %q: got %T, want *ReferenceEmbedder", id, e)
		}
	}
}

func TestNewEmbedder_Remote(t *testing.T) {
	e, err := NewEmbedder(ProviderRemote, EmbedderConfig{BaseURL: "http://localhost:1"})
	if err != nil {
		t.Fatalf("NewEmbedder: %v", err)
	}
	if _, ok := e.(*RemoteEmbedder); !ok {
		t.Errorf("got %T, want *RemoteEmbedder", e)
	}
}

func TestNewEmbedder_UnknownProvider(t *testing.T) {
	if _, err := NewEmbedder("does-not-exist", EmbedderConfig{}); err == nil {
		t.Fatal("expected an error for an unknown provider id")
	}
}
