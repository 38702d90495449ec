package security

import (
	"bytes"
	"context"
	"errors"
	"testing"
)

func TestNonceIsStableWithinGenerator(t *testing.T) {
	g := NewNonceGenerator()
	first, err := g.Nonce()
	if err != nil {
		t.Fatalf("Nonce: %v", err)
	}
	second, err := g.Nonce()
	if err != nil {
		t.Fatalf("Nonce: %v", err)
	}
	if first == "" || first != second {
		t.Fatalf("nonce changed within one generator: %q then %q", first, second)
	}
}

func TestNonceDiffersAcrossGenerators(t *testing.T) {
	a, _ := NewNonceGenerator().Nonce()
	b, _ := NewNonceGenerator().Nonce()
	if a == b {
		t.Fatalf("two generators produced the same nonce %q", a)
	}
}

func TestNonceEncodesSixteenBytes(t *testing.T) {
	g := NewNonceGeneratorFrom(bytes.NewReader(make([]byte, 16)))
	got, err := g.Nonce()
	if err != nil {
		t.Fatalf("Nonce: %v", err)
	}
	if got != "AAAAAAAAAAAAAAAAAAAAAA" {
		t.Fatalf("nonce: got %q", got)
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("entropy exhausted") }

func TestNonceReportsEntropyFailure(t *testing.T) {
	g := NewNonceGeneratorFrom(failingReader{})
	if _, err := g.Nonce(); err == nil {
		t.Fatal("expected error from failing entropy source")
	}
}

func TestNonceGeneratorContext(t *testing.T) {
	if _, ok := NonceGeneratorFrom(context.Background()); ok {
		t.Fatal("empty context should not carry a generator")
	}
	g := NewNonceGenerator()
	got, ok := NonceGeneratorFrom(WithNonceGenerator(context.Background(), g))
	if !ok || got != g {
		t.Fatal("generator not found in context")
	}
}
