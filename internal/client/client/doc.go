// Package client contains the client side of the remote document store.
//
// # Overview
//
// The package provides:
//  1. The DocumentStore contract the sync engine depends on: put, get,
//     ordered query and delete of flat field-map documents.
//  2. The wider Client contract that adds the account calls (Register,
//     GetSalt, Login), Ping and image upload presigning.
//  3. GRPCClient, which talks to the tipsync server, injects the access
//     token via an interceptor, refreshes an expired token once and maps
//     gRPC status codes to sentinel errors.
//  4. MemoryStore, an in-process implementation used for the offline demo
//     mode and in tests. It can be switched to an unreachable state.
//
// # Error Handling
//
// Transport conditions are exposed as sentinel errors that callers can match
// with errors.Is: ErrUnavailable, ErrUnauthorized and common.ErrorNotFound.
// ErrUnavailable carries common.KindRemoteUnavailable and is the only
// retryable condition.
//
// Implementations are safe for concurrent use. All operations accept
// context.Context and honor cancellation.
package client
