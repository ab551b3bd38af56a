package integrate

import (
	"github.com/innerr/ticat/pkg/core/model"
	"github.com/innerr/ticat/pkg/ticat"
)

const (
	EnvPrefix = "climate-analyzer."

	EnvKeyDataDir    = EnvPrefix + "data.dir"
	EnvKeyCacheDir   = EnvPrefix + "cache.dir"
	EnvKeyVerbose    = EnvPrefix + "log.verbose"
	EnvKeyCitiesFile = EnvPrefix + "cities.file"

	EnvKeyFetchTimeout       = EnvPrefix + "fetch.timeout"
	EnvKeyFetchDelay         = EnvPrefix + "fetch.delay"
	EnvKeyFetchRetries       = EnvPrefix + "fetch.retries"
	EnvKeyFetchBackoffFactor = EnvPrefix + "fetch.backoff-factor"
	EnvKeyFetchMaxBackoff    = EnvPrefix + "fetch.max-backoff"
	EnvKeyFetchRefresh       = EnvPrefix + "fetch.refresh"
	EnvKeyCities             = EnvPrefix + "fetch.cities"

	EnvKeyTimeStart            = EnvPrefix + "fetch.start"
	EnvKeyTimeEnd              = EnvPrefix + "fetch.end"
	EnvKeyTimeDurationAgoAsEnd = EnvPrefix + "fetch.ago-as-end"
	EnvKeyTimeDuration         = EnvPrefix + "fetch.duration"

	EnvKeyAnomalyWindow    = EnvPrefix + "anomaly.window"
	EnvKeyAnomalyThreshold = EnvPrefix + "anomaly.threshold"
	EnvKeyAnomalyEpsilon   = EnvPrefix + "anomaly.epsilon"
	EnvKeyAnomalyEventGap  = EnvPrefix + "anomaly.event-gap"

	EnvKeyClusterK        = EnvPrefix + "cluster.k"
	EnvKeyClusterFromYear = EnvPrefix + "cluster.from-year"
	EnvKeyClusterToYear   = EnvPrefix + "cluster.to-year"

	EnvKeyForecastDays   = EnvPrefix + "forecast.days"
	EnvKeyForecastMethod = EnvPrefix + "forecast.method"

	EnvKeyOutputDir = EnvPrefix + "output.dir"
	EnvKeyJSON      = EnvPrefix + "output.json"
)

type configEntry struct {
	arg   string
	abbrs []string
	key   string
	def   string
}

// configEntries are the keys `config` may change and `config.default`
// restores.
var configEntries = []configEntry{
	{"data-dir", []string{"data"}, EnvKeyDataDir, "./data"},
	{"cache-dir", []string{"cache"}, EnvKeyCacheDir, "./cache"},
	{"verbose", []string{"v"}, EnvKeyVerbose, "true"},
	{"cities-file", []string{"cf"}, EnvKeyCitiesFile, ""},
	{"fetch-timeout", []string{"timeout"}, EnvKeyFetchTimeout, "5m"},
	{"fetch-delay", []string{"delay"}, EnvKeyFetchDelay, "10s"},
	{"fetch-retries", []string{"retries"}, EnvKeyFetchRetries, "5"},
	{"backoff-factor", []string{"bf"}, EnvKeyFetchBackoffFactor, "0.2"},
	{"max-backoff", []string{"mb"}, EnvKeyFetchMaxBackoff, "5m"},
	{"window", []string{"w"}, EnvKeyAnomalyWindow, "30"},
	{"threshold", []string{"th"}, EnvKeyAnomalyThreshold, "3.0"},
	{"epsilon", []string{"eps"}, EnvKeyAnomalyEpsilon, "1e-10"},
	{"event-gap", []string{"gap"}, EnvKeyAnomalyEventGap, "1"},
	{"k", nil, EnvKeyClusterK, "3"},
	{"from-year", []string{"from"}, EnvKeyClusterFromYear, "2001"},
	{"to-year", []string{"to"}, EnvKeyClusterToYear, "2024"},
	{"forecast-days", []string{"days"}, EnvKeyForecastDays, "30"},
	{"forecast-method", []string{"method"}, EnvKeyForecastMethod, "holt"},
	{"output-dir", []string{"out"}, EnvKeyOutputDir, "./output"},
	{"json", []string{"j"}, EnvKeyJSON, "false"},
}

func RegisterCmds(cmds *model.CmdTree) {
	config := cmds.AddSub("config", "conf", "cfg").RegPowerCmd(ConfigCmd,
		"set climate-analyzer options in the session, empty args are ignored")
	for _, e := range configEntries {
		config.AddArg(e.arg, "", e.abbrs...).
			AddEnvOp(e.key, model.EnvOpTypeWrite)
	}
	config.Owner().AddSub("default", "def", "reset").RegPowerCmd(ConfigDefaultCmd,
		"reset every climate-analyzer option to its default")

	data := cmds.AddSub("data", "d").RegEmptyCmd("city precipitation datasets").Owner()

	data.AddSub("fetch", "f").RegPowerCmd(DataFetchCmd,
		"download daily precipitation from Open-Meteo, clean and save per city").
		AddArg("cities", "", "city", "c").
		AddArg2Env(EnvKeyCities, "cities").
		AddEnvOp(EnvKeyCities, model.EnvOpTypeMayRead).
		AddArg("start", "", "s").
		AddArg2Env(EnvKeyTimeStart, "start").
		AddEnvOp(EnvKeyTimeStart, model.EnvOpTypeMayRead).
		AddArg("end", "", "e").
		AddArg2Env(EnvKeyTimeEnd, "end").
		AddEnvOp(EnvKeyTimeEnd, model.EnvOpTypeMayRead).
		AddArg("duration-ago-as-end", "", "ago-as-end", "aae", "a").
		AddArg2Env(EnvKeyTimeDurationAgoAsEnd, "duration-ago-as-end").
		AddEnvOp(EnvKeyTimeDurationAgoAsEnd, model.EnvOpTypeMayRead).
		AddArg("duration", "", "d").
		AddArg2Env(EnvKeyTimeDuration, "duration").
		AddEnvOp(EnvKeyTimeDuration, model.EnvOpTypeMayRead).
		AddArg("refresh", "false", "r").
		AddArg2Env(EnvKeyFetchRefresh, "refresh").
		AddEnvOp(EnvKeyFetchRefresh, model.EnvOpTypeMayRead).
		AddEnvOp(EnvKeyDataDir, model.EnvOpTypeRead).
		AddEnvOp(EnvKeyCacheDir, model.EnvOpTypeRead).
		AddEnvOp(EnvKeyFetchDelay, model.EnvOpTypeMayRead).
		AddEnvOp(EnvKeyFetchRetries, model.EnvOpTypeMayRead).
		AddEnvOp(EnvKeyFetchMaxBackoff, model.EnvOpTypeMayRead)

	data.AddSub("list", "ls", "l").RegPowerCmd(DataListCmd,
		"list cities with a saved dataset").
		AddEnvOp(EnvKeyDataDir, model.EnvOpTypeRead)

	data.AddSub("describe", "desc").RegPowerCmd(DataDescribeCmd,
		"print summary statistics of saved datasets").
		AddArg("cities", "", "city", "c").
		AddArg2Env(EnvKeyCities, "cities").
		AddEnvOp(EnvKeyCities, model.EnvOpTypeMayRead).
		AddEnvOp(EnvKeyDataDir, model.EnvOpTypeRead)

	cmds.AddSub("anomaly", "anomalies", "an").RegPowerCmd(AnomalyCmd,
		"flag days whose precipitation deviates from the trailing window").
		AddArg("cities", "", "city", "c").
		AddArg2Env(EnvKeyCities, "cities").
		AddEnvOp(EnvKeyCities, model.EnvOpTypeMayRead).
		AddArg("window", "", "w").
		AddArg2Env(EnvKeyAnomalyWindow, "window").
		AddEnvOp(EnvKeyAnomalyWindow, model.EnvOpTypeMayRead).
		AddArg("threshold", "", "th").
		AddArg2Env(EnvKeyAnomalyThreshold, "threshold").
		AddEnvOp(EnvKeyAnomalyThreshold, model.EnvOpTypeMayRead).
		AddEnvOp(EnvKeyAnomalyEpsilon, model.EnvOpTypeMayRead).
		AddEnvOp(EnvKeyAnomalyEventGap, model.EnvOpTypeMayRead).
		AddEnvOp(EnvKeyDataDir, model.EnvOpTypeRead).
		AddEnvOp(EnvKeyOutputDir, model.EnvOpTypeMayRead).
		AddEnvOp(EnvKeyJSON, model.EnvOpTypeMayRead)

	cmds.AddSub("cluster", "kmeans", "km").RegPowerCmd(ClusterCmd,
		"group cities by their yearly mean precipitation with k-means").
		AddArg("cities", "", "city", "c").
		AddArg2Env(EnvKeyCities, "cities").
		AddEnvOp(EnvKeyCities, model.EnvOpTypeMayRead).
		AddArg("k", "", "n").
		AddArg2Env(EnvKeyClusterK, "k").
		AddEnvOp(EnvKeyClusterK, model.EnvOpTypeMayRead).
		AddArg("from-year", "", "from").
		AddArg2Env(EnvKeyClusterFromYear, "from-year").
		AddEnvOp(EnvKeyClusterFromYear, model.EnvOpTypeMayRead).
		AddArg("to-year", "", "to").
		AddArg2Env(EnvKeyClusterToYear, "to-year").
		AddEnvOp(EnvKeyClusterToYear, model.EnvOpTypeMayRead).
		AddEnvOp(EnvKeyDataDir, model.EnvOpTypeRead).
		AddEnvOp(EnvKeyOutputDir, model.EnvOpTypeMayRead).
		AddEnvOp(EnvKeyJSON, model.EnvOpTypeMayRead)

	cmds.AddSub("forecast", "fc").RegPowerCmd(ForecastCmd,
		"predict the next days of precipitation for every city").
		AddArg("cities", "", "city", "c").
		AddArg2Env(EnvKeyCities, "cities").
		AddEnvOp(EnvKeyCities, model.EnvOpTypeMayRead).
		AddArg("days", "", "n").
		AddArg2Env(EnvKeyForecastDays, "days").
		AddEnvOp(EnvKeyForecastDays, model.EnvOpTypeMayRead).
		AddArg("method", "", "m").
		AddArg2Env(EnvKeyForecastMethod, "method").
		AddEnvOp(EnvKeyForecastMethod, model.EnvOpTypeMayRead).
		AddEnvOp(EnvKeyDataDir, model.EnvOpTypeRead).
		AddEnvOp(EnvKeyOutputDir, model.EnvOpTypeMayRead).
		AddEnvOp(EnvKeyJSON, model.EnvOpTypeMayRead)

	cache := cmds.AddSub("cache", "ca").RegEmptyCmd("Open-Meteo response cache operations").Owner()
	cache.AddSub("list", "ls", "l").RegPowerCmd(CacheListCmd,
		"list cached responses").
		AddEnvOp(EnvKeyCacheDir, model.EnvOpTypeRead)
	cache.AddSub("clear", "c").RegPowerCmd(CacheClearCmd,
		"remove cached responses and fetch coverage").
		AddEnvOp(EnvKeyCacheDir, model.EnvOpTypeRead)
}

func RegisterHelp(tc *ticat.TiCat) {
	tc.SetHelpCmds(
		"config",
		"config.default",
		"data.fetch",
		"data.list",
		"data.describe",
		"anomaly",
		"cluster",
		"forecast",
		"cache.list",
		"cache.clear",
	)
}
