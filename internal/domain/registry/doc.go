// Package registry holds the service objects local to one RPC context.
//
// Records are grouped by service type (api) into buckets that keep insertion
// order. A record's id is a fingerprint of api + displayName + description,
// so registering the same triple twice under one api is rejected with
// ErrDuplicateRegistration.
//
// Lookups go through ServiceWithTypeAndID. Types matching ServiceDiscovery,
// ServiceConfiguration or Dashboard resolve to the first record of their
// bucket when the id is unknown, since callers often probe those with a
// stale or placeholder id.
//
// EmitEvent fans an event out to every listener of every record. Listener
// errors and panics are logged and never stop delivery to the others.
// Listeners are attached with ServiceRecord.On before registration; once a
// record is registered, use Registry.On so the change happens under the lock.
//
// An api must pass utils.ValidateAPI. In particular it cannot contain '@',
// which separates type and id in RPC method names.
//
// After each mutation the optional Parent is notified on its own goroutine.
//
// Example Usage:
//
//	reg := registry.New(logger, utils.DefaultHasher()).WithParent(syncer)
//	id, err := reg.RegisterObject(rec)
//	svc, ok := reg.ServiceWithTypeAndID("ServiceDiscovery", "")
//	reg.EmitEvent(types.Event{Name: "configChanged"})
package registry
