//go:build !wasm
// +build !wasm

// Package gorm provides GORM-based implementations of the nodebird store
// interfaces.  It supports PostgreSQL (through pgx) and SQLite (pure Go,
// no cgo) and is what the nodebird server runs on.
//
// # Database Schema
//
// AutoMigrate creates the following tables if they are missing:
//   - users: Accounts, unique on email and on (provider, sns_id)
//   - posts: Posts with their author
//   - post_hashtags: Hashtags of each post
//   - follows: Follower/following pairs
//
// # Usage
//
//	db, _ := gorm.Open("postgres", dsn, false)
//	gorm.AutoMigrate(db)
//	userStore := gorm.NewUserStore(db)
//	postStore := gorm.NewPostStore(db)
package gorm
