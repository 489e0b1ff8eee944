// Package synchronizer publishes the registry contents to subscribers.
//
// A Synchronizer is installed as the registry's parent. Every mutation calls
// SynchronizationStart, which only marks a push as pending; bursts of
// mutations collapse into one snapshot. Run drains pending pushes through a
// rate limiter and hands each snapshot to every subscribed Sink. Sink errors
// are logged and never reach the registry.
//
// Example Usage:
//
//	reg := registry.New(logger, nil)
//	syncer := synchronizer.New(reg, 20, 5, logger)
//	reg.WithParent(syncer)
//	go syncer.Run(ctx)
//	subID := syncer.Subscribe(sink)
package synchronizer
