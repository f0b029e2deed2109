package provider

import (
	"context"
	"math"
	"testing"
)

func TestReferenceEmbedder_Deterministic(t *testing.T) {
	e := NewReferenceEmbedder()

	first, err := e.Embed(context.Background(), "hello world")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	second, err := e.Embed(context.Background(), "hello world")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}

	if len(first.Vector) != len(second.Vector) {
		t.Fatalf("vector lengths differ: %d vs %d", len(first.Vector), len(second.Vector))
	}
	for i := range first.Vector {
		if first.Vector[i] != second.Vector[i] {
			t.Fatalf("vector[%d] differs between calls: %v vs %v", i, first.Vector[i], second.Vector[i])
		}
	}
}

func TestReferenceEmbedder_DimensionsAndModel(t *testing.T) {
	e := NewReferenceEmbedder()

	result, err := e.Embed(context.Background(), "some text")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}

	if result.Dimensions != 128 {
		t.Errorf("Dimensions = %d, want 128", result.Dimensions)
	}
	if len(result.Vector) != 128 {
		t.Errorf("len(Vector) = %d, want 128", len(result.Vector))
	}
	if result.Model != ReferenceModelID {
		t.Errorf("Model = %q, want %q", result.Model, ReferenceModelID)
	}
}

func TestReferenceEmbedder_EmptyText_NoDivisionByZero(t *testing.T) {
	e := NewReferenceEmbedder()

	result, err := e.Embed(context.Background(), "")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	for i, v := range result.Vector {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			t.Fatalf("Vector[%d] = %v, want finite", i, v)
		}
		if v != 0 {
			t.Fatalf("Vector[%d] = %v, want 0 for empty input", i, v)
		}
	}
}

func TestReferenceEmbedder_DifferentTextsProduceDifferentVectors(t *testing.T) {
	e := NewReferenceEmbedder()

	a, err := e.Embed(context.Background(), "alpha")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	b, err := e.Embed(context.Background(), "something else entirely")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}

	same := true
	for i := range a.Vector {
		if a.Vector[i] != b.Vector[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("expected different inputs to produce different vectors")
	}
}
