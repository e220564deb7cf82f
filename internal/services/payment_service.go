package services

import (
	"database/sql"
	"strings"

	"checkstand/internal/domain"
	"checkstand/internal/repos"

	"github.com/google/uuid"
)

type PaymentService struct {
	Payments *repos.PaymentRepo
	Txns     *repos.TransactionRepo
	Gateway  Gateway
}

func NewPaymentService(payments *repos.PaymentRepo, txns *repos.TransactionRepo, gw Gateway) *PaymentService {
	return &PaymentService{Payments: payments, Txns: txns, Gateway: gw}
}

func newReceiptNumber() string {
	return "RCPT-" + strings.ToUpper(uuid.NewString()[:12])
}

// ProcessPayment captures amount against the transaction. On gateway failure
// a failed Payment row is still written and the transaction flagged
// payment_status=failed. The sale record itself is never deleted or
// reverted; a failed payment is a durable, queryable state for manual
// reconciliation. The caller validates amount against the transaction total.
func (s *PaymentService) ProcessPayment(transactionID string, method domain.PaymentMethod, amount float64, details PaymentDetails) (domain.Payment, error) {
	if !method.Valid() {
		return domain.Payment{}, &PaymentProcessingError{Reason: "unknown payment method " + string(method)}
	}
	if amount <= 0 {
		return domain.Payment{}, &PaymentProcessingError{Reason: "amount must be positive"}
	}
	if _, err := s.Txns.Get(transactionID); err == sql.ErrNoRows {
		return domain.Payment{}, &PaymentProcessingError{Reason: "transaction not found"}
	} else if err != nil {
		return domain.Payment{}, err
	}

	res, gwErr := s.Gateway.Capture(amount, method, details)
	if gwErr != nil {
		failed := domain.Payment{
			ID:            uuid.NewString(),
			TransactionID: transactionID,
			Amount:        amount,
			Method:        method,
			Status:        domain.PaymentFailed,
			LastFour:      details["last_four"],
		}
		if err := s.Payments.Create(failed); err != nil {
			return domain.Payment{}, err
		}
		if err := s.Txns.UpdatePaymentStatus(transactionID, domain.PaymentFailed, method); err != nil {
			return domain.Payment{}, err
		}
		return domain.Payment{}, &PaymentProcessingError{Reason: gwErr.Error()}
	}

	p := domain.Payment{
		ID:                 uuid.NewString(),
		TransactionID:      transactionID,
		Amount:             amount,
		Method:             method,
		Status:             domain.PaymentCompleted,
		ProcessorReference: res.Reference,
		LastFour:           res.LastFour,
		ReceiptNumber:      newReceiptNumber(),
	}
	if err := s.Payments.Create(p); err != nil {
		return domain.Payment{}, err
	}
	if err := s.Txns.UpdatePaymentStatus(transactionID, domain.PaymentCompleted, method); err != nil {
		return domain.Payment{}, err
	}
	return s.Payments.Get(p.ID)
}

// RefundPayment refunds up to the original amount of a completed payment.
// A full-amount refund sets status refunded, a lesser amount
// partially_refunded. Stock is not restocked here; that is an explicit,
// separate operation for the caller.
func (s *PaymentService) RefundPayment(paymentID string, amount *float64) (domain.Payment, error) {
	p, err := s.Payments.Get(paymentID)
	if err == sql.ErrNoRows {
		return domain.Payment{}, &PaymentProcessingError{Reason: "payment not found"}
	}
	if err != nil {
		return domain.Payment{}, err
	}
	if p.Status != domain.PaymentCompleted {
		return domain.Payment{}, &PaymentProcessingError{Reason: "only completed payments can be refunded"}
	}

	refund := p.Amount
	if amount != nil {
		refund = *amount
	}
	if refund <= 0 || refund > p.Amount {
		return domain.Payment{}, &PaymentProcessingError{Reason: "refund amount must be positive and no greater than the original payment"}
	}

	if err := s.Gateway.Refund(p.ProcessorReference, refund); err != nil {
		return domain.Payment{}, &PaymentProcessingError{Reason: err.Error()}
	}

	status := domain.PaymentRefunded
	if refund < p.Amount {
		status = domain.PaymentPartiallyRefunded
	}
	if err := s.Payments.UpdateStatus(p.ID, status); err != nil {
		return domain.Payment{}, err
	}
	if err := s.Txns.UpdatePaymentStatus(p.TransactionID, status, p.Method); err != nil {
		return domain.Payment{}, err
	}
	return s.Payments.Get(p.ID)
}
