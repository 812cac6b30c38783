// Package delivery defines the contract every transport front end fulfills.
package delivery

import "context"

// Delivery is a serving surface of the application, started by main and shut
// down through its lifecycle hook.
type Delivery interface {
	Serve(ctx context.Context) error
}
