package services

import (
	"errors"
	"fmt"

	"checkstand/internal/domain"

	"github.com/google/uuid"
)

// PaymentDetails is the opaque bag forwarded to the gateway (card token,
// last four, cash drawer id). The core never inspects card data.
type PaymentDetails map[string]string

type CaptureResult struct {
	Reference string
	LastFour  string
}

// Gateway is the external payment collaborator. Treated as at-most-once
// effectful: a capture that succeeds remotely but errors locally is a
// reconciliation gap, never silently retried here.
type Gateway interface {
	Capture(amount float64, method domain.PaymentMethod, details PaymentDetails) (CaptureResult, error)
	Refund(reference string, amount float64) error
}

// SimulatedGateway approves every capture and refund; stands in for the real
// card-network integration, which is out of scope.
type SimulatedGateway struct{}

func (SimulatedGateway) Capture(amount float64, method domain.PaymentMethod, details PaymentDetails) (CaptureResult, error) {
	if amount <= 0 {
		return CaptureResult{}, errors.New("capture amount must be positive")
	}
	lastFour := details["last_four"]
	if lastFour == "" {
		lastFour = "0000"
	}
	return CaptureResult{
		Reference: "sim_" + uuid.NewString(),
		LastFour:  lastFour,
	}, nil
}

func (SimulatedGateway) Refund(reference string, amount float64) error {
	if reference == "" {
		return errors.New("missing processor reference")
	}
	if amount <= 0 {
		return errors.New("refund amount must be positive")
	}
	return nil
}

// DecliningGateway rejects every capture; used by tests and the
// GATEWAY_MODE=declined rig to exercise the failure path end to end.
type DecliningGateway struct{}

func (DecliningGateway) Capture(amount float64, method domain.PaymentMethod, details PaymentDetails) (CaptureResult, error) {
	return CaptureResult{}, fmt.Errorf("card declined (%s)", method)
}

func (DecliningGateway) Refund(reference string, amount float64) error {
	return errors.New("refund declined")
}
