package billing

import (
	"context"

	"github.com/clientdesk/backend/internal/domain/billing"
	"github.com/clientdesk/backend/internal/domain/finance"
)

// TransactionScope provides transactional access to the repositories
// touched by a payment. When a function is executed within a scope,
// all repository operations are part of the same database transaction
// and commit or roll back atomically.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	// If the function succeeds, the transaction is committed.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to the billing and finance
// repositories within a transaction. All repositories returned share
// the same underlying database transaction.
//
// Recording a payment writes three rows across two bounded contexts:
// the invoice status change, the payment record, and the income ledger
// entry. Either all three land or none do.
type TransactionalRepositories interface {
	// Invoices returns the invoice repository scoped to the current transaction
	Invoices() billing.InvoiceRepository
	// Payments returns the payment repository scoped to the current transaction
	Payments() billing.PaymentRepository
	// Ledger returns the ledger entry repository scoped to the current transaction
	Ledger() finance.LedgerEntryRepository
}

// NoOpTransactionScope is a transaction scope that doesn't actually use
// transactions. Useful for tests exercising orchestration logic without
// a database.
type NoOpTransactionScope struct {
	invoiceRepo billing.InvoiceRepository
	paymentRepo billing.PaymentRepository
	ledgerRepo  finance.LedgerEntryRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(
	invoiceRepo billing.InvoiceRepository,
	paymentRepo billing.PaymentRepository,
	ledgerRepo finance.LedgerEntryRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		invoiceRepo: invoiceRepo,
		paymentRepo: paymentRepo,
		ledgerRepo:  ledgerRepo,
	}
}

// Execute runs the function with the configured repositories, without
// transaction semantics
func (s *NoOpTransactionScope) Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// Invoices returns the invoice repository
func (s *NoOpTransactionScope) Invoices() billing.InvoiceRepository {
	return s.invoiceRepo
}

// Payments returns the payment repository
func (s *NoOpTransactionScope) Payments() billing.PaymentRepository {
	return s.paymentRepo
}

// Ledger returns the ledger entry repository
func (s *NoOpTransactionScope) Ledger() finance.LedgerEntryRepository {
	return s.ledgerRepo
}

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
