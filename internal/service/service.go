// Package service contains the business logic.
//
// It sits between the handler and repository layers.
// It receives validated data from the handler, performs
// business operations, and calls repository methods to interact
// with the data. The process manager services call the supervisor,
// the port inspector and the audit log instead of repositories.
package service
