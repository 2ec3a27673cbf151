// Package session tracks who is signed in to the admin console.
//
// A Store starts Pending. Resolve checks the persisted token once at startup
// and settles on Authenticated or Anonymous. Login, Logout and ForceLogout
// move between the settled states, and every change is pushed to Watch
// subscribers so the route guard can react to a forced logout.
package session
