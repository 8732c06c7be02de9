// Package object reads and writes container object headers.
//
// Every group and blob in a container is described by one object header:
//
//	signature    "OBJH"
//	version      uint8 (1)
//	kind         uint8 (1 = group, 2 = blob)
//	count        uint16, number of messages
//	payload      uint32, byte length of the framed messages
//	messages     count x (type uint16, size uint32, body)
//	checksum     uint64, XXH3-64 over everything above
//
// Message bodies are encoded by package message. Headers are written once,
// after all of an object's children and data are in place, so addresses in
// link and layout messages always point backwards in the file.
package object
