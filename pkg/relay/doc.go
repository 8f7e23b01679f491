// Package relay connects qparam stores to a navigation backend.
//
// A Relay is built once from an Adapter and shared by every store of the
// process:
//
//	r, err := relay.Init(history.MemoryAdapter(mem))
//	if err != nil {
//	    return err
//	}
//	defer r.Teardown()
//
//	scope := relay.NewScope(r, schema, nil)
//	defer scope.Close()
//	store := scope.Store()
//
// Every query string change observed by the backend is handed to each
// registered store in registration order. The stores' flushes run afterwards,
// through the adapter's WrapFlush.
package relay
