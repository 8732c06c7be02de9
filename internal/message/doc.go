// Package message defines the typed messages carried by container object
// headers and their binary encoding.
//
// An object header is a list of messages. Groups carry one [Link] per member;
// blobs carry a [Datatype], a [Dataspace], a [Layout], an optional
// [FilterPipeline] and any number of [Attribute] messages.
//
// # Encoding
//
// Every message type implements [Serializable]. Messages are framed by the
// object header as
//
//	type   uint16
//	size   uint32
//	body   size bytes
//
// and [Parse] turns a framed body back into its message. Unknown message
// types are preserved as [Unknown] so that newer writers stay readable.
//
// Type numbers follow the HDF5 header message registry where a concept has an
// HDF5 equivalent (dataspace 0x0001, datatype 0x0003, link 0x0006, layout
// 0x0008, filter pipeline 0x000B, attribute 0x000C).
package message
