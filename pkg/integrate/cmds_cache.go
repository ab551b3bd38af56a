package integrate

import (
	impl "climate-analyzer/pkg/integrate/cmds_impl"

	"github.com/innerr/ticat/pkg/core/model"
)

func CacheListCmd(
	argv model.ArgVals,
	cc *model.Cli,
	env *model.Env,
	flow *model.ParsedCmds,
	currCmdIdx int) (int, error) {

	if _, err := impl.CacheList(getCacheDir(env)); err != nil {
		return currCmdIdx, err
	}
	return currCmdIdx, nil
}

func CacheClearCmd(
	argv model.ArgVals,
	cc *model.Cli,
	env *model.Env,
	flow *model.ParsedCmds,
	currCmdIdx int) (int, error) {

	err := impl.CacheClear(getCacheDir(env))
	return currCmdIdx, err
}
