// Package cli provides the interactive gophstash command-line client.
//
// App wires configuration, the local database, the auth and storage
// clients, the services and an interactive REPL. A Navigator chooses the
// command set: the auth stack (signin, signup, oauth) while nobody is signed
// in, and the drawer with its Home and Profile routes afterwards. It is
// rebuilt on every auth event, including sessions that arrive through a
// forwarded deep link or the loopback callback.
//
// Key features:
//   - Email/password and OAuth sign in, sign up, sign out
//   - Home: list, upload, delete, download and share files
//   - Profile: display name and theme preference
//   - Did-you-mean hints for mistyped commands
//
// The REPL is started via App.Run(ctx, initialURL), which blocks until the
// user exits.
package cli
