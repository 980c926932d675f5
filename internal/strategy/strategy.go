// Package strategy contains the stateless signal generators. Strategies
// are pure functions of the supplied time and market data; any memory
// across invocations (previous windows, prior trades) must be carried by
// the caller or recovered through the outcome tracker.
package strategy

import (
	"github.com/go-playground/validator/v10"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-signal/internal/correlation"
	"github.com/rxtech-lab/argo-signal/internal/logger"
	"github.com/rxtech-lab/argo-signal/internal/types"
	"github.com/rxtech-lab/argo-signal/pkg/marketdata/provider"
)

// validate checks strategy parameter structs at the call boundary.
var validate = validator.New()

// Context carries the collaborators a strategy needs. Strategies hold no
// state of their own.
type Context struct {
	Provider    provider.Provider
	Correlation correlation.Engine
	Logger      *logger.Logger
}

// SignalSetKind tags the variant of a SignalSet.
type SignalSetKind string

const (
	// SignalSetNone carries no signals: either a timing precondition was
	// not met or no data was available. Not an error.
	SignalSetNone SignalSetKind = "none"
	// SignalSetPair carries a long and a short signal that the consumer
	// must treat as mutually cancelling limit orders: the first fill
	// cancels the other. The generator does not enforce this.
	SignalSetPair SignalSetKind = "pair"
	// SignalSetEntryOnly carries only the entry (long) half.
	SignalSetEntryOnly SignalSetKind = "entry_only"
	// SignalSetExitOnly carries only the exit (short) half.
	SignalSetExitOnly SignalSetKind = "exit_only"
)

// SignalSet is the tagged result of a pair-producing strategy.
type SignalSet struct {
	Kind  SignalSetKind
	Long  optional.Option[types.Signal]
	Short optional.Option[types.Signal]
}

// NoSignals returns the empty variant.
func NoSignals() SignalSet {
	return SignalSet{
		Kind:  SignalSetNone,
		Long:  optional.None[types.Signal](),
		Short: optional.None[types.Signal](),
	}
}

// PairSignals returns the mutually cancelling long/short pair variant.
func PairSignals(long, short types.Signal) SignalSet {
	return SignalSet{
		Kind:  SignalSetPair,
		Long:  optional.Some(long),
		Short: optional.Some(short),
	}
}

// EntrySignal returns the entry-only variant.
func EntrySignal(entry types.Signal) SignalSet {
	return SignalSet{
		Kind:  SignalSetEntryOnly,
		Long:  optional.Some(entry),
		Short: optional.None[types.Signal](),
	}
}

// ExitSignal returns the exit-only variant.
func ExitSignal(exit types.Signal) SignalSet {
	return SignalSet{
		Kind:  SignalSetExitOnly,
		Long:  optional.None[types.Signal](),
		Short: optional.Some(exit),
	}
}

// Signals flattens the set into a slice, long half first.
func (s SignalSet) Signals() []types.Signal {
	signals := make([]types.Signal, 0, 2)

	if s.Long.IsSome() {
		signals = append(signals, s.Long.Unwrap())
	}

	if s.Short.IsSome() {
		signals = append(signals, s.Short.Unwrap())
	}

	return signals
}
