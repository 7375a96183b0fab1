// Package guardcore provides an HTTP client and typed API for the GuardCore
// management backend.
//
// # Overview
//
// The package has two layers. Client performs authenticated HTTP calls and
// normalizes every failure into *APIError. API maps each backend endpoint to a
// typed method, grouped by resource:
//
//   - Guards: public subscription lookups keyed by access secret
//   - Stats: dashboard statistics, usage series, agents
//   - Nodes, Services: infrastructure CRUD plus enable/disable
//   - Admins: login, admin CRUD, TOTP, API keys, backup download
//   - Subscriptions: listing, batch create and batch actions
//
// # Client Usage
//
//	client, err := guardcore.NewClient(guardcore.ClientConfig{
//		BaseURL:        "http://localhost:8000",
//		OnError:        reporter,
//		OnUnauthorized: session,
//	}, guardcore.WithStorage(store))
//	if err != nil {
//		return err
//	}
//	api := guardcore.NewAPI(client)
//
//	token, err := api.Admins.Login(ctx, guardcore.LoginCredentials{
//		Username: "owner",
//		Password: "secret",
//	}, "")
//	if err != nil {
//		return err
//	}
//	_ = client.SetToken(token.AccessToken)
//
// # Credentials
//
// The bearer token and the API key are independent. Both headers are sent
// when both are set and neither is sent when both are empty. With storage
// attached, setters persist the value and getters rehydrate an empty cache
// from storage. Without storage the client keeps credentials in memory.
//
// # Errors
//
// Every failure reaches the caller as *APIError after the hooks ran:
//
//  1. OnUnauthorized, for status 401
//  2. OnError, for every failure
//
// Network failures, including undecodable success bodies, carry Status 0 and
// StatusText "Network Error". Error bodies are decoded into ErrorDetail:
// a string detail, a validation list rendered as "field: msg", or an opaque
// payload. Use errors.Is with ErrUnauthorized, ErrForbidden, ErrNotFound,
// ErrValidation or ErrNetwork, or ToServiceError for a go-errors value.
//
// Responses without a JSON content type decode to nothing, so endpoints that
// answer 204 leave the destination untouched.
//
// # Helpers
//
// GetSubscriptionMetrics, StatusOf and BuildSubscriptionLink interpret
// subscription payloads for display. The format helpers render bytes, expiry
// and relative times.
package guardcore
