// Package app provides the application service layer.
//
// Orchestrates use cases: registration and login, the like ledger, checkout and
// payment completion, notifications, the daily quiz, rewards and the social feed.
// Sits between HTTP handlers and domain repositories. Depends on domain interfaces, not concrete implementations.
package app
