// Package services provides the business logic of the users backend.
//
// It contains:
//   - ERP sync ingestion: identity resolution, reconciliation and the
//     soft-failure boundary (SyncService, IdentityResolver, ReconciliationEngine)
//   - Read-side assembly of customer leads with their related records (Assembler)
//   - Customer lead, employee and authentication operations
//   - The retry scheduler for syncs that could not be stored
//
// Services receive their collaborators through constructors; nothing here
// reads the environment.
package services
