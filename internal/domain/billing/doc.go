// Package billing provides the domain models of the billing bounded context.
//
// It is responsible for:
//   - Invoices and their lifecycle (DRAFT -> OPEN -> PAID, with OVERDUE and VOID)
//   - Payment records settled against invoices
//   - Installment schedules derived from client contracts
//
// Key Aggregates:
//   - Invoice: org-scoped invoice holding the monetary invariant
//     total = subtotal - discount + tax
//   - Payment: append-only settlement record against an invoice
//   - Installment: one expected payment of a client contract
//
// The billing domain integrates with:
//   - Finance domain: every confirmed payment produces a ledger entry
//   - Partner domain: client payment status derives from outstanding invoices
package billing
