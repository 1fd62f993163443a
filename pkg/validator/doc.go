// Package validator checks request fields against small rules and reports
// all failures together as Errors.
//
//	err := validator.Apply(
//		validator.RequiredString("customer_name", req.CustomerName),
//		validator.ValidContact("customer_contact", req.CustomerContact),
//	)
package validator
