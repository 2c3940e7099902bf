// Package common contains shared constants and sentinel errors used across
// tipsync components.
package common

// AccessTokenHeaderName is the gRPC metadata key used to carry the
// access token on outbound requests.
const AccessTokenHeaderName = "access_token"

// Remote collections shared by client and server.
const (
	CollectionTips  = "tips"
	CollectionUsers = "users"
)
