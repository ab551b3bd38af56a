package integrate

import (
	impl "climate-analyzer/pkg/integrate/cmds_impl"

	"github.com/innerr/ticat/pkg/core/model"
)

func AnomalyCmd(
	argv model.ArgVals,
	cc *model.Cli,
	env *model.Env,
	flow *model.ParsedCmds,
	currCmdIdx int) (int, error) {

	cfg, err := getAnomalyConfig(env)
	if err != nil {
		return currCmdIdx, err
	}
	eventGap, err := getEnvInt(env, EnvKeyAnomalyEventGap, 1)
	if err != nil {
		return currCmdIdx, err
	}
	if _, err := impl.Anomaly(getDataDir(env), getCityNames(env), cfg, eventGap, getOutputParams(env)); err != nil {
		return currCmdIdx, err
	}
	return currCmdIdx, nil
}

func ClusterCmd(
	argv model.ArgVals,
	cc *model.Cli,
	env *model.Env,
	flow *model.ParsedCmds,
	currCmdIdx int) (int, error) {

	params, err := getClusterParams(env)
	if err != nil {
		return currCmdIdx, err
	}
	if _, _, err := impl.Cluster(getDataDir(env), getCityNames(env), params, getOutputParams(env)); err != nil {
		return currCmdIdx, err
	}
	return currCmdIdx, nil
}

func ForecastCmd(
	argv model.ArgVals,
	cc *model.Cli,
	env *model.Env,
	flow *model.ParsedCmds,
	currCmdIdx int) (int, error) {

	cfg, err := getForecastConfig(env)
	if err != nil {
		return currCmdIdx, err
	}
	if _, _, err := impl.Forecast(getDataDir(env), getCityNames(env), cfg, getOutputParams(env)); err != nil {
		return currCmdIdx, err
	}
	return currCmdIdx, nil
}
