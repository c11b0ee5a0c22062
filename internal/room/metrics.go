package room

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

var meter = otel.Meter("room")

type instruments struct {
	roundsStarted  metric.Int64Counter
	roundsFinished metric.Int64Counter
	movesApplied   metric.Int64Counter
	movesRejected  metric.Int64Counter
}

var metrics = newInstruments()

func newInstruments() instruments {
	var (
		in  instruments
		err error
	)
	if in.roundsStarted, err = meter.Int64Counter("connect.rounds.started",
		metric.WithDescription("Rounds moved into the playing state")); err != nil {
		otel.Handle(err)
	}
	if in.roundsFinished, err = meter.Int64Counter("connect.rounds.finished",
		metric.WithDescription("Rounds ended by a win or a full board")); err != nil {
		otel.Handle(err)
	}
	if in.movesApplied, err = meter.Int64Counter("connect.moves.applied",
		metric.WithDescription("Pieces placed on a board")); err != nil {
		otel.Handle(err)
	}
	if in.movesRejected, err = meter.Int64Counter("connect.moves.rejected",
		metric.WithDescription("Drops refused by the board")); err != nil {
		otel.Handle(err)
	}
	return in
}
