package main

import (
	"github.com/stashapp/stash/pkg/plugin/common"

	"github.com/smegmarip/stash-portrait-plugin/internal/rpc"
)

func main() {
	service, err := rpc.NewService()
	if err != nil {
		panic(err)
	}
	if err := common.ServePlugin(service); err != nil {
		panic(err)
	}
}
