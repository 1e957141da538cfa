// Package snapshot persists stated proxies and rebuilds them later.
//
// A Store loads and saves one stated.ProxyState per Ref. The Resolver pairs
// a Store with a Builder (usually a *stated.Loader): restoring asks the
// builder for a fresh proxy of the stored class, so every state the class
// declares is registered, then applies the stored active states and
// attributes.
//
// Data flow:
//
//	Proxy.Capture -> Store.Save ... Store.Load -> Builder.Build -> Proxy.Restore
//
// Meta.ETag guards concurrent writers. A caller passing the ETag it read gets
// ErrETagMismatch when another writer saved in between.
package snapshot
