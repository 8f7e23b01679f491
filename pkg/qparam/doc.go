// Package qparam keeps a typed view of a query string in sync with a
// navigation source.
//
// A Store is built from a Schema and a raw query string. Observers register
// for a subset of keys and are notified only when one of those keys changes:
//
//	schema := qparam.MustSchema(
//	    qparam.Field("q", convert.String),
//	    qparam.Field("page", convert.Number, qparam.Default(1.0)),
//	)
//	store := qparam.NewStore(schema, "?q=go")
//	sub := store.Register([]string{"page"}, func() { ... })
//	defer sub.Unregister()
//
//	err := store.Set(qparam.With("page", 2.0), qparam.SetOptions{})
//
// External changes are fed through HandleExternal, usually by pkg/relay.
// Notifications are queued by both paths and delivered by Flush.
//
// Parse failures and missing required fields never fail an operation; they
// are collected in the error set returned by Errors.
package qparam
