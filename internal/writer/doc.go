// Package writer drains the record queue into the store in size- and
// time-bounded batches.
package writer
