// Package auth provides token based authentication and user management:
// signed HS256 tokens whose subject is the user's email, a login flow
// that verifies bcrypt or argon2id hashes, registration, and the user
// administration service behind the /v1 HTTP routes.
//
// Authentication:
//   - The middleware/authn pipeline runs on every request. It reads the
//     bearer token, resolves the subject through UserProvider and stores
//     a SecurityContext in the request context. Requests it cannot
//     authenticate continue anonymously and are rejected by the guards.
//   - TokenServiceImpl owns the signing key. The key is read from the
//     environment (AUTH_SIGNING_KEY) and has no default.
//
// Storage:
//   - UserStore is implemented by MemoryUsers and by the bun backed Users
//     repository. Both enforce a unique email.
//
// Activity sinks:
//   - ActivitySink is a light-weight audit emitter used by Auther and
//     UserService to describe login, registration and user changes. Sinks
//     run best-effort (errors are logged).
package auth
