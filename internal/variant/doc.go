// Package variant defines the closed set of typed values that can appear in a
// snapshot, and their binary and canonical JSON encodings.
//
// Every value implements the sealed Value interface. Kinds carry stable
// numeric tags which double as the wire tags of the binary form, so a blob
// written by one build decodes identically in another.
//
// Two kinds exist only so that captured state can be classified: RID (an
// engine resource handle) and ObjectRef (a live object reference). Neither is
// serializable. CheckSerializable and the encoder reject them, directly or
// nested inside containers.
//
// Binary layout (little-endian, 4-byte aligned):
//
//	header  uint32  kind in bits 0-15, bit 16 set for 64-bit payloads
//	payload         kind specific, see marshal.go
package variant
