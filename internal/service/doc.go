// Package service contains the application-specific use cases and business
// logic. It orchestrates interactions between domain objects and repositories
// (defined in internal/store) to fulfill application features.
//
// Key components:
//
//   - UserService registers accounts, verifies credentials and maintains
//     profiles and passwords. Multi-step updates run in a single transaction.
//   - TodoService implements the todo use cases. Every operation takes the
//     requesting user's ID and passes it to the store, which scopes every
//     statement to that owner.
//
// The service layer depends on domain entities and repository interfaces (from store),
// but never on specific infrastructure implementations.
package service
