// Package session implements the client-side session lifecycle engine of a
// long-lived application: the components that decide, at any moment, whether
// the app considers the visitor authenticated, when to silently renew
// credentials, and when to force a password re-entry.
//
// Boot sequence:
//   - Engine.Start resolves the initial state from the persisted metadata
//     record: never authenticated, restored (directly or via one silent
//     refresh), or invalid-with-history, in which case the tokens are locked,
//     the identity retained, and the visitor challenged through the modal.
//
// Renewal:
//   - RefreshCoordinator is the shared single-flight choke point for every
//     refresh path (boot, the proactive TokenMonitor, and the transport's
//     reactive 401 interceptor), so no two refresh calls ever race against
//     the server.
//
// Reactive controllers:
//   - AccessController and ModalController subscribe to the Bus and translate
//     lifecycle events into navigation and overlay visibility. No other
//     component mutates either; producers like the IdleDetector are strictly
//     emit-only.
package session
