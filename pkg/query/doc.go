// Package query implements the query-string form used by urlsync.
//
// Query is an ordered multimap with URLSearchParams semantics: parsing keeps
// pair order, Set replaces a key in place, Encode uses
// application/x-www-form-urlencoded escaping. url.Values is not used because
// it loses pair order, which would reorder the user's address bar on every
// write.
//
// Stringify and StringifyURL build query strings from loosely typed parameter
// maps:
//
//	query.StringifyURL("/path?old=1#frag", query.Params{"old": nil, "new": "v"}, query.Options{})
//	// "/path?new=v#frag"
package query
