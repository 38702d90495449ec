// Package ils connects the catalog to the library's integrated library
// system. Only the configured driver is ever consulted.
package ils

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"strings"
)

var (
	ErrUnknownDriver = errors.New("unknown ILS driver")
	ErrOffline       = errors.New("ILS is offline")
)

// HoldingStatus is the availability of one copy of a record.
type HoldingStatus struct {
	ID         string `json:"id"`
	Location   string `json:"location"`
	CallNumber string `json:"callnumber"`
	Available  bool   `json:"available"`
	Status     string `json:"status"`
}

type Driver interface {
	Name() string
	// Capabilities lists the optional features (holds, renewals, ...) the
	// driver implements.
	Capabilities() []string
	Status(ctx context.Context, id string) ([]HoldingStatus, error)
}

// NoILS is used when no ILS is configured. Every lookup reports offline.
type NoILS struct{}

func (NoILS) Name() string           { return "NoILS" }
func (NoILS) Capabilities() []string { return nil }

func (NoILS) Status(context.Context, string) ([]HoldingStatus, error) {
	return nil, ErrOffline
}

// Demo fabricates stable holdings so the UI can be exercised without a
// real ILS.
type Demo struct{}

var demoLocations = []string{"Main Library", "Science Library", "Music Library"}

func (Demo) Name() string { return "Demo" }

func (Demo) Capabilities() []string {
	return []string{"getHolding", "getStatus", "placeHold"}
}

func (Demo) Status(ctx context.Context, id string) ([]HoldingStatus, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, nil
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	seed := h.Sum32()

	copies := int(seed%3) + 1
	out := make([]HoldingStatus, 0, copies)
	for i := 0; i < copies; i++ {
		available := (seed>>uint(i))&1 == 0
		status := "Available"
		if !available {
			status = "Charged"
		}
		out = append(out, HoldingStatus{
			ID:         id,
			Location:   demoLocations[(int(seed)+i)%len(demoLocations)],
			CallNumber: fmt.Sprintf("QA%d.%d", seed%1000, i+1),
			Available:  available,
			Status:     status,
		})
	}
	return out, nil
}

// NewDriver returns the driver registered under name (case-insensitive).
func NewDriver(name string) (Driver, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "noils":
		return NoILS{}, nil
	case "demo":
		return Demo{}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownDriver, name)
	}
}
