package integrate

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"climate-analyzer/pkg/anomaly"
	"climate-analyzer/pkg/client"
	"climate-analyzer/pkg/cluster"
	"climate-analyzer/pkg/forecast"
	impl "climate-analyzer/pkg/integrate/cmds_impl"

	"github.com/innerr/ticat/pkg/core/model"
)

func getEnvString(env *model.Env, key, def string) string {
	v := env.GetRaw(key)
	if v == "" {
		return def
	}
	return v
}

// getEnvInt returns def for an unset key and an error naming the key for a
// value that is not an integer.
func getEnvInt(env *model.Env, key string, def int) (int, error) {
	v := strings.TrimSpace(env.GetRaw(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def, fmt.Errorf("invalid integer for %s: %q", key, v)
	}
	return n, nil
}

func getEnvFloat(env *model.Env, key string, def float64) (float64, error) {
	v := strings.TrimSpace(env.GetRaw(key))
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def, fmt.Errorf("invalid number for %s: %q", key, v)
	}
	return f, nil
}

func getEnvDuration(env *model.Env, key string, def time.Duration) (time.Duration, error) {
	s := strings.TrimSpace(env.GetRaw(key))
	if s == "" {
		return def, nil
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d, nil
	}
	if d, err := parseDurationString(s); err == nil {
		return d, nil
	}
	return def, fmt.Errorf("invalid duration for %s: %q", key, s)
}

func getEnvBool(env *model.Env, key string) bool {
	v := strings.ToLower(strings.TrimSpace(env.GetRaw(key)))
	switch v {
	case "true", "t", "yes", "y", "on", "1":
		return true
	}
	return false
}

func getDataDir(env *model.Env) string {
	return getEnvString(env, EnvKeyDataDir, "./data")
}

func getCacheDir(env *model.Env) string {
	return getEnvString(env, EnvKeyCacheDir, "./cache")
}

func getOutputParams(env *model.Env) impl.OutputParams {
	return impl.OutputParams{
		Dir:  getEnvString(env, EnvKeyOutputDir, "./output"),
		JSON: getEnvBool(env, EnvKeyJSON),
	}
}

func getCityNames(env *model.Env) []string {
	return client.SplitNames(env.GetRaw(EnvKeyCities))
}

func getClientConfig(env *model.Env) (client.Config, error) {
	cfg := client.DefaultConfig()
	var err error
	if cfg.FetchTimeout, err = getEnvDuration(env, EnvKeyFetchTimeout, cfg.FetchTimeout); err != nil {
		return cfg, err
	}
	if cfg.Retries, err = getEnvInt(env, EnvKeyFetchRetries, cfg.Retries); err != nil {
		return cfg, err
	}
	if cfg.BackoffFactor, err = getEnvFloat(env, EnvKeyFetchBackoffFactor, cfg.BackoffFactor); err != nil {
		return cfg, err
	}
	if cfg.RateLimit.BackoffMax, err = getEnvDuration(env, EnvKeyFetchMaxBackoff, cfg.RateLimit.BackoffMax); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func getAnomalyConfig(env *model.Env) (anomaly.Config, error) {
	cfg := anomaly.DefaultConfig()
	var err error
	if cfg.WindowSize, err = getEnvInt(env, EnvKeyAnomalyWindow, cfg.WindowSize); err != nil {
		return cfg, err
	}
	if cfg.Threshold, err = getEnvFloat(env, EnvKeyAnomalyThreshold, cfg.Threshold); err != nil {
		return cfg, err
	}
	if cfg.Epsilon, err = getEnvFloat(env, EnvKeyAnomalyEpsilon, cfg.Epsilon); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func getClusterParams(env *model.Env) (impl.ClusterParams, error) {
	p := impl.ClusterParams{}
	var err error
	if p.K, err = getEnvInt(env, EnvKeyClusterK, cluster.DefaultK); err != nil {
		return p, err
	}
	if p.FromYear, err = getEnvInt(env, EnvKeyClusterFromYear, cluster.DefaultFromYear); err != nil {
		return p, err
	}
	if p.ToYear, err = getEnvInt(env, EnvKeyClusterToYear, cluster.DefaultToYear); err != nil {
		return p, err
	}
	return p, nil
}

func getForecastConfig(env *model.Env) (forecast.Config, error) {
	cfg := forecast.DefaultConfig()
	method, err := forecast.ParseMethod(env.GetRaw(EnvKeyForecastMethod))
	if err != nil {
		return cfg, err
	}
	cfg.Method = method
	if cfg.Days, err = getEnvInt(env, EnvKeyForecastDays, cfg.Days); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func getDateRangeFromEnv(env *model.Env) (*DateRange, error) {
	return ParseDateRange(
		env.GetRaw(EnvKeyTimeStart),
		env.GetRaw(EnvKeyTimeEnd),
		env.GetRaw(EnvKeyTimeDurationAgoAsEnd),
		env.GetRaw(EnvKeyTimeDuration),
		time.Now(),
	)
}
