package integrate

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"climate-analyzer/pkg/client"
	impl "climate-analyzer/pkg/integrate/cmds_impl"
	cache "climate-analyzer/pkg/local_cache"

	"github.com/innerr/ticat/pkg/core/model"
)

func DataFetchCmd(
	argv model.ArgVals,
	cc *model.Cli,
	env *model.Env,
	flow *model.ParsedCmds,
	currCmdIdx int) (int, error) {

	dr, err := getDateRangeFromEnv(env)
	if err != nil {
		return currCmdIdx, fmt.Errorf("invalid date range: %w", err)
	}

	clientCfg, err := getClientConfig(env)
	if err != nil {
		return currCmdIdx, err
	}
	delay, err := getEnvDuration(env, EnvKeyFetchDelay, 10*time.Second)
	if err != nil {
		return currCmdIdx, err
	}

	cacheDir := getCacheDir(env)
	respCache, err := cache.NewCache(cacheDir, 0)
	if err != nil {
		return currCmdIdx, fmt.Errorf("failed to open response cache: %w", err)
	}
	c := client.NewClient(respCache, clientCfg)

	params := impl.FetchParams{
		DataDir:    getDataDir(env),
		CacheDir:   cacheDir,
		Cities:     getCityNames(env),
		CitiesFile: env.GetRaw(EnvKeyCitiesFile),
		Start:      dr.Start,
		End:        dr.End,
		Delay:      delay,
		Refresh:    getEnvBool(env, EnvKeyFetchRefresh),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("  Date range: %s\n", dr)
	summary, err := impl.DataFetch(ctx, params, c)
	if summary != nil {
		fmt.Printf("  Saved %d cities, %d up to date, %d failed, %d requests, %d bytes received\n",
			len(summary.Saved), len(summary.Skipped), len(summary.Failed), summary.Network, c.GetBytesReceived())
	}
	c.GetRateLimiter().PrintStats()
	if err != nil {
		return currCmdIdx, err
	}
	return currCmdIdx, nil
}

func DataListCmd(
	argv model.ArgVals,
	cc *model.Cli,
	env *model.Env,
	flow *model.ParsedCmds,
	currCmdIdx int) (int, error) {

	if _, err := impl.DataList(getDataDir(env)); err != nil {
		return currCmdIdx, err
	}
	return currCmdIdx, nil
}

func DataDescribeCmd(
	argv model.ArgVals,
	cc *model.Cli,
	env *model.Env,
	flow *model.ParsedCmds,
	currCmdIdx int) (int, error) {

	if _, err := impl.DataDescribe(getDataDir(env), getCityNames(env)); err != nil {
		return currCmdIdx, err
	}
	return currCmdIdx, nil
}
