// Package nodebird holds the core of the nodebird micro-blogging site: users
// and posts, the stores they live in, and session based authentication.
//
// # Authentication
//
// Visitors authenticate through a Strategy.  The local strategy checks an
// email and password against the bcrypt hash in the UserStore; the OAuth
// strategies in the oauth2 package complete a code exchange with Kakao,
// Google or GitHub and find or create the matching user.  Every strategy
// reports an AuthOutcome:
//
//   - Success: the visitor is the returned user
//   - Failure: the visitor could not be authenticated, Reason says why
//   - InternalError: something broke (eg the store), Err says what
//
// Strategies are kept in a Registry, which also maps a user to the value kept
// in the session (the user id) and back.
//
// # Sessions
//
// Sessions wraps an scs session manager.  Login renews the session token and
// stores the user id; Logout destroys the whole session.  Flash messages are
// stored with Flash and read exactly once with TakeFlash.
//
// Middleware.ExtractUser loads the logged in user for every request.  The
// EnsureUser and EnsureAnonymous guards redirect visitors in the wrong state.
//
// # Stores
//
// UserStore and PostStore are implemented in stores/gorm (PostgreSQL or
// SQLite through GORM) and stores/gae (Google Cloud Datastore).
//
// # Basic Usage
//
//	db, _ := gormstore.Open("sqlite", "file:nodebird.db", false)
//	gormstore.AutoMigrate(db)
//	users := gormstore.NewUserStore(db)
//
//	registry := nodebird.NewRegistry(users)
//	registry.Register(nodebird.NewLocalStrategy(users, nodebird.BcryptHasher{Cost: 12}))
//
//	sessions := nodebird.NewSessions(nodebird.NewSessionManager(nodebird.SessionOptions{}))
//	mw := &nodebird.Middleware{Sessions: sessions, Registry: registry}
//	handler := sessions.LoadAndSave(mw.ExtractUser(router))
package nodebird
