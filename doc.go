/*
Package fixdb implements a fixed-record flat-file store with in-memory equality
indexes.

We implement:

1. Stores, a single data file holding a contiguous array of records that all
share one layout, mirrored entirely in memory.

2. Schemas, describing that layout: an ordered list of named fixed-size fields,
some of them marked as indexed.

3. Indexes, mapping every distinct value of an indexed field to the set of rows
holding it, so that equality lookups never scan the file.

4. Snapshots, copying a store into a Bolt bucket and back.

# Technical Details

**File is authoritative.**
Every mutation writes the file first (and fdatasyncs it) and only then touches
the mirror and indexes. A failed write leaves memory unchanged. On open, the
mirror and indexes are rebuilt from scratch by reading the whole file.

**Row ids.**
Record i lives at byte offset i*RecordSize. Rows are never deleted or moved, so
row ids are stable for the lifetime of the file. Row ids are 32-bit.

**Single writer.**
Open takes an exclusive advisory lock on the data file, so a second process (or
a second Store in the same process) opening it gets ErrLocked.

## Binary encoding

**Data file**: records back to back, no header, no padding. A file whose size is
not a multiple of the record size is rejected.

**Record**: fields at their schema offsets, each in host byte order. Booleans
are one byte, non-zero meaning true. Fixed-size arrays are encoded element by
element. The format is therefore not portable across byte orders.

**Index key**: the raw bytes of the field within the record. Two values are
equal for lookup purposes iff their encodings are equal.

**Schema file** (optional, see WriteSchemaFile): MsgPack map holding the field
list "f", each field a map of name "n", size "s", offset "o" and indexed
flag "i".

**Snapshot**: root bucket with nested "rows" (4-byte big-endian row id => raw
record) and "meta" (schema, xxHash64 checksum of the data file, row count,
byte order).
*/
package fixdb
