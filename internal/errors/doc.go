// Package errors provides structured, actionable error values for the deploy
// board.
//
// Every error carries a short code (e.g. "E101") that maps to a registered
// message, a category and an optional documentation link:
//
//   - usage: programming errors in the calling code (unknown route, duplicate
//     route registration, missing path parameter)
//   - transport: failures talking to the deploy or build API
//   - config: invalid or missing configuration
//
// # Usage
//
//	err := errors.New("E101").
//	    WithDetail(`No route is registered under "routeFoo"`).
//	    WithSuggestion("Check the route id or path passed to Go()")
//
//	fmt.Println(err.Format())
//	// Output:
//	// ERROR E101: Route not found
//	//
//	//   No route is registered under "routeFoo"
//	//
//	//   Hint: Check the route id or path passed to Go()
//
// Errors wrap their cause, so errors.Is and errors.As work through them. Two
// errors with the same code match each other under errors.Is.
package errors
