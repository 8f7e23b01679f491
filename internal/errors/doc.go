// Package errors provides structured, coded errors for urlsync.
//
// Every error the engine raises to a caller maps to a registered code:
//   - parse: a converter could not interpret a raw query value
//   - required: a required field is absent from the query string
//   - validation: a caller tried to write a value the schema rejects
//   - membership: a one-of converter saw a value outside its allowed set
//   - relay: the navigation relay was used before Init or after Teardown
//   - config: urlsync.json or a schema file is malformed
//
// # Usage
//
//	err := errors.New("E102").
//	    WithKey("page").
//	    WithSuggestion("Leave the field out of the update instead of clearing it")
//
//	fmt.Println(err.Format())
//	// Output:
//	// ERROR E102: Invalid query parameter update
//	//
//	//   field: page
//	//
//	//   Hint: Leave the field out of the update instead of clearing it
package errors
