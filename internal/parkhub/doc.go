// Package parkhub provides an HTTP client for the ParkHub REST API.
//
// # Overview
//
// The client covers the endpoints the terminal client needs: login and
// profile, parking lots and their pricing, vehicles, active sessions, entries
// and exits. Payloads are decoded into the types in types.go.
//
// # Client Usage
//
//	client, err := parkhub.NewClient(cfg.APIURL,
//		parkhub.WithTokenSource(session),
//		parkhub.WithUnauthorizedHandler(session.HandleUnauthorized),
//	)
//	if err != nil {
//		return err
//	}
//	lots, err := client.ListParkingLots(ctx, loader.PageRequest{Skip: 0, Limit: 10})
//
// Paginated list methods have the loader.FetchFunc signature, so a method value
// can be handed straight to loader.New.
//
// # Request Handling
//
// All requests:
//   - Use context for cancellation
//   - Set Accept: application/json and User-Agent: parkhub-tui/<version>
//   - Carry a fresh X-Request-ID (UUID v4) that also appears in the debug log
//   - Send Authorization: Bearer <token> when the token source has one
//   - Time out after 10 seconds unless WithTimeout says otherwise
//
// Request bodies are validated before anything is sent. Plates are normalized
// to upper case without separators and must match ABC1234 or ABC1D23. A failed
// validation returns *InputError.
//
// # Error Handling
//
//   - Network errors are wrapped as "execute request: ..." and classify as
//     transport failures in apperr
//   - HTTP statuses >= 400 return *apperr.APIError with the "detail" field of
//     the body when present; a 401 also runs the unauthorized handler
//   - List endpoints whose payload is not a JSON array, and bodies that fail to
//     decode, wrap apperr.ErrInvalidResponse
//
// # URL Construction
//
// The API URL accepts "host:port" or a full URL. The scheme defaults to
// http:// and any path, query or fragment is dropped.
package parkhub
