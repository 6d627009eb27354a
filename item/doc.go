// Package item provides the structural value model carried by Recon text
// and WARP envelopes.
//
// # Items and Values
//
// Every node of a payload tree is an [Item]. Items are either fields
// ([Attr], [Slot]) or values. Values are records, scalars ([Text], [Num],
// [Bool], [Data]), the two unit values [Extant] and [Absent], and the
// structural expression nodes ([BinaryOperator], [UnaryOperator] and the
// selector chain). Expressions are carried, compared and written, never
// evaluated.
//
// # Immutability
//
// A [Record] is immutable once built. Use a [Builder] to assemble one, or
// [RecordOf] for literals. Every derivation (Appended, Updated, Removed,
// Concat) returns a new record and shares nothing mutable with the
// receiver.
//
// # Ordering
//
// [Compare] imposes a total order over all items. Items of different
// kinds order by a fixed kind rank:
//
//	Attr < Slot < Record < Data < Text < Num < Bool < selectors < operators < Extant < Absent
//
// which keeps mixed-type record sorting and B-tree keys deterministic.
// [Equal] is Compare == 0 and [Hash] is consistent with it.
package item
