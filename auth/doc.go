// Package auth manages the OAuth2 client-credentials lifecycle for the
// cloud platform: fetching access tokens, caching them with their expiry,
// and refreshing on demand.
//
// The Provider interface is the capability contract consumed by the
// request executor and the streaming subscription. Manager is the
// concrete implementation; applications with their own token plumbing
// (for example a Home Assistant config entry) can supply a custom
// Provider instead.
//
// # Thread Safety
//
// Manager serialises refreshes behind a mutex: concurrent EnsureValid
// calls while the cached token is stale result in exactly one network
// fetch, and every caller observes its outcome.
package auth
