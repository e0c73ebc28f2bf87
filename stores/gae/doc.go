//go:build !wasm
// +build !wasm

// Package gae provides Google Cloud Datastore implementations of the
// nodebird store interfaces, for deployments on Google Cloud Platform.
//
// # Datastore Kinds
//
//   - User: Accounts, keyed by user id
//   - Email: Email reservations, keyed by email, enforcing email uniqueness
//   - SnsAccount: Provider account reservations, keyed by "provider:snsId"
//   - Post: Posts, with an indexed list of hashtags
//   - Follow: Follow edges, keyed by "follower:following"
//
// Reservations are written in the same transaction as the user, which keeps
// lookups by email and provider strongly consistent.
//
// # Namespacing
//
// Stores support Datastore namespaces to isolate environments:
//
//	client, _ := datastore.NewClient(ctx, projectID)
//	userStore := gae.NewUserStore(client, "staging")
//	postStore := gae.NewPostStore(client, "staging", userStore)
package gae
