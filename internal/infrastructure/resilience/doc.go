/*
Package resilience provides a circuit breaker used to stop pushing registry
snapshots to subscribers that keep failing.

# Usage

	breaker := resilience.New("sub_01H...", resilience.Settings{
		FailureThreshold: 5,
		Cooldown:         5 * time.Second,
		OnStateChange: func(name string, from, to resilience.State) {
			logger.Warn("circuit state changed", zap.String("from", from.String()), zap.String("to", to.String()))
		},
	})

	err := breaker.Do(func() error {
		return sink.Push(msg)
	})
	if errors.Is(err, resilience.ErrCircuitOpen) {
		// skipped
	}

# States

	Closed --[threshold failures]-> Open --[cooldown]-> Half-Open --[success]-> Closed
	                                                        |
	                                                    [failure]
	                                                        v
	                                                      Open

Half-Open lets exactly one probe call through at a time.
*/
package resilience
