// Package badger implements the storage interfaces using BadgerDB.
//
// Knowledge records are stored under content-based keys, so writing the same
// chunk of the same document twice overwrites in place. Vector similarity
// search is a full prefix scan with in-process cosine scoring; the corpus is
// small enough that an index structure isn't warranted.
package badger
