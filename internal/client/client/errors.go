package client

import "github.com/dmitrijs2005/tipsync/internal/common"

var (
	ErrUnavailable  = common.New(common.KindRemoteUnavailable, "", "server unavailable")
	ErrUnauthorized = common.New(common.KindUnauthorized, "", "unauthorized")
)
