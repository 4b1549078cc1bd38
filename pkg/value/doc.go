// Package value holds dynamically typed Avro data.
//
// Every Value is bound to the schema node it was built against. Mutators
// (Put, Append, Set) check the incoming value against that node and wrap it
// automatically when the target is a union, so a fully assembled value
// always conforms to its schema. Values handed to an encoder should not be
// modified afterwards.
package value
