package security

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"io"
	"sync"
)

const nonceBytes = 16

// NonceGenerator hands out the Content-Security-Policy nonce of one request.
// The value is generated on first use and then reused, so the response header
// and every inline <script nonce=...> rendered for that request agree. It is
// URL-safe base64 so html/template leaves it unescaped in attributes.
type NonceGenerator struct {
	mu     sync.Mutex
	random io.Reader
	nonce  string
}

func NewNonceGenerator() *NonceGenerator {
	return &NonceGenerator{random: rand.Reader}
}

// NewNonceGeneratorFrom is NewNonceGenerator with an explicit entropy source.
func NewNonceGeneratorFrom(r io.Reader) *NonceGenerator {
	return &NonceGenerator{random: r}
}

func (g *NonceGenerator) Nonce() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.nonce != "" {
		return g.nonce, nil
	}
	buf := make([]byte, nonceBytes)
	if _, err := io.ReadFull(g.random, buf); err != nil {
		return "", err
	}
	g.nonce = base64.RawURLEncoding.EncodeToString(buf)
	return g.nonce, nil
}

type nonceKey struct{}

func WithNonceGenerator(ctx context.Context, g *NonceGenerator) context.Context {
	return context.WithValue(ctx, nonceKey{}, g)
}

func NonceGeneratorFrom(ctx context.Context) (*NonceGenerator, bool) {
	g, ok := ctx.Value(nonceKey{}).(*NonceGenerator)
	return g, ok
}
