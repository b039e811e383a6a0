// Package gesture turns the touch stream of one interactive item into
// committed transform updates.
//
// A Machine moves between Idle, Dragging (one touch) and TwoTouch (pinch and
// rotate). Live changes accumulate in a Value against a baseline captured at
// grant time and only become the item's committed TransformState on release
// or termination, when the update hook fires. An Arbiter shared by every
// machine on a canvas guarantees that at most one item holds touch capture.
//
// Double activation animates the item back to the identity transform with a
// damped spring advanced by Tick; it never passes through the gesture states.
package gesture
