// Package auth implements token-based authentication for the API.
//
// Tokens are HS256-signed JWTs carrying the user ID, email, and role.
// Passwords are stored as bcrypt hashes. The user store is an in-memory
// record store with a unique-email index layered on top.
package auth
