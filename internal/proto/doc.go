// Package proto defines the tipsync.v1.DocumentStore gRPC service.
//
// The service is described by hand rather than generated: every request and
// response travels as a well-known protobuf type (structpb.Struct,
// structpb.ListValue, wrapperspb and emptypb), and this package converts
// between those wire messages and the typed Go structs in messages.go.
package proto
