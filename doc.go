// Package typedcache is a typed, failure-isolated cache façade over a remote
// key-value store (Redis or anything implementing store.Client).
//
// Components:
//   - store.Client: primitive string/hash/scan/TTL operations (store/redis, store/memory,
//     optionally wrapped by store/breaker).
//   - Codec[V]: (de)serializes V <-> []byte. JSON by default.
//   - Logger: diagnostics sink for absorbed and re-raised failures.
//
// Failure policy:
//
//	reads, Set, Delete      fail-soft: logged, reported as miss/false/0
//	HSet, HMSet, HDel       fail-hard: logged, returned as *OpError
//	Scan, Expire, TTL       store errors returned to the caller
//
// A miss and an unavailable store are indistinguishable on fail-soft paths, so
// callers must always be able to recompute from their source of truth:
//
//	users, _ := typedcache.New[User](typedcache.Options[User]{Store: st})
//	u := users.GetOrSet(ctx, "user:42", loadUser(42), typedcache.WithTTL(time.Minute))
package typedcache
