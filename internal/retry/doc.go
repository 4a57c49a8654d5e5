// Package retry provides bounded retry with exponential backoff for
// transient database failures. The executor runs an operation up to a
// fixed number of attempts, waiting between attempts but never after the
// final failure, and consults an error classifier so that query and logic
// errors propagate immediately without consuming the budget.
package retry
