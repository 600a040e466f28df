// Package batch runs a tool operation over several inputs and reports each
// outcome separately.
//
// One failing item never fails the batch; its error kind and message are
// recorded in its Result instead.
package batch
