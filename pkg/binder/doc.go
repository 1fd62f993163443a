// Package binder fills request structs from HTTP requests.
//
// Each binder reads one source. JSON takes the body, Query the URL query and
// Path the router parameters. A binder only touches fields carrying its own
// tag, so one struct can take an ID from the path and the rest from JSON:
//
//	type transitionRequest struct {
//		ID    string `path:"id" json:"-"`
//		Event string `json:"event"`
//	}
//
// Binders are handed to handler.Wrap with handler.WithBinders.
package binder
