package integrate

import (
	"fmt"

	"github.com/innerr/ticat/pkg/core/model"
)

func ConfigCmd(
	argv model.ArgVals,
	cc *model.Cli,
	env *model.Env,
	flow *model.ParsedCmds,
	currCmdIdx int) (int, error) {

	session := env.GetLayer(model.EnvLayerSession)
	for _, e := range configEntries {
		v := argv.GetRaw(e.arg)
		if v == "" {
			continue
		}
		session.Set(e.key, v)
		fmt.Printf("  %s = %s\n", e.key, v)
	}
	return currCmdIdx, nil
}

func ConfigDefaultCmd(
	argv model.ArgVals,
	cc *model.Cli,
	env *model.Env,
	flow *model.ParsedCmds,
	currCmdIdx int) (int, error) {

	session := env.GetLayer(model.EnvLayerSession)
	for _, e := range configEntries {
		session.Set(e.key, e.def)
	}
	fmt.Printf("  Reset %d options to defaults\n", len(configEntries))
	return currCmdIdx, nil
}
