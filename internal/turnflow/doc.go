// Package turnflow models card-driven turn order: seat eligibility, card
// progress, eligibility overrides, free-operation grants and the filters
// that narrow candidate moves.
//
// Everything here is pure. A Runtime is a value carried inside the engine's
// game state; each transition returns a new Runtime and leaves the old one
// untouched, which is what lets the engine keep prior snapshots valid.
//
// Card lifecycle, seat-to-player mapping and effect evaluation belong to the
// engine. This package only decides who may act and with what.
package turnflow
