// Package storage provides the byte stores save files are written to.
//
// A Store maps flat file names (save_slot_0.sav, autosave_2.sav, ...) to
// whole-file blobs. Writes replace a name atomically: readers observe
// either the previous contents or the new ones, never a partial file.
//
// Two engines are available:
//
//   - FileStore: one file per name in a directory, replaced with
//     write-to-temp, fsync and rename
//   - BadgerStore: one key per name in a Badger database, for hosts that
//     keep many profiles or want the value log's compaction
package storage
