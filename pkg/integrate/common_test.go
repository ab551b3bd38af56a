package integrate

import (
	"strings"
	"testing"
	"time"

	"climate-analyzer/pkg/forecast"

	"github.com/innerr/ticat/pkg/core/model"
	"github.com/innerr/ticat/pkg/ticat"
)

func TestEnvHelpers(t *testing.T) {
	tc := ticat.NewTiCatForTest()
	env := tc.Env
	session := env.GetLayer(model.EnvLayerSession)

	session.Set(EnvKeyFetchDelay, "2d")
	session.Set(EnvKeyFetchTimeout, "90s")
	session.Set(EnvKeyFetchRetries, "7")
	session.Set(EnvKeyFetchBackoffFactor, "0.5")
	session.Set(EnvKeyFetchMaxBackoff, "2m")
	session.Set(EnvKeyJSON, "yes")
	session.Set(EnvKeyCities, " Boston, ,Miami ")

	if got, err := getEnvDuration(env, EnvKeyFetchDelay, time.Second); err != nil || got != 48*time.Hour {
		t.Errorf("getEnvDuration(2d) = %v, %v", got, err)
	}
	cfg, err := getClientConfig(env)
	if err != nil {
		t.Fatalf("getClientConfig() failed: %v", err)
	}
	if cfg.FetchTimeout != 90*time.Second {
		t.Errorf("FetchTimeout = %v, want 90s", cfg.FetchTimeout)
	}
	if cfg.Retries != 7 {
		t.Errorf("Retries = %d, want 7", cfg.Retries)
	}
	if cfg.BackoffFactor != 0.5 {
		t.Errorf("BackoffFactor = %v, want 0.5", cfg.BackoffFactor)
	}
	if cfg.RateLimit.BackoffMax != 2*time.Minute {
		t.Errorf("RateLimit.BackoffMax = %v, want 2m", cfg.RateLimit.BackoffMax)
	}
	if !getEnvBool(env, EnvKeyJSON) {
		t.Error("expected json to be true")
	}
	if names := getCityNames(env); len(names) != 2 || names[0] != "Boston" || names[1] != "Miami" {
		t.Errorf("getCityNames() = %v", names)
	}
	if getDataDir(env) != "./data" {
		t.Errorf("getDataDir() = %s", getDataDir(env))
	}
}

func TestAnalysisParamsFromEnv(t *testing.T) {
	tc := ticat.NewTiCatForTest()
	env := tc.Env
	session := env.GetLayer(model.EnvLayerSession)

	session.Set(EnvKeyAnomalyWindow, "10")
	session.Set(EnvKeyAnomalyThreshold, "2")
	session.Set(EnvKeyClusterK, "5")
	session.Set(EnvKeyForecastMethod, "linear")
	session.Set(EnvKeyForecastDays, "14")

	acfg, err := getAnomalyConfig(env)
	if err != nil {
		t.Fatal(err)
	}
	if acfg.WindowSize != 10 || acfg.Threshold != 2 || acfg.Epsilon != 1e-10 {
		t.Errorf("unexpected anomaly config %+v", acfg)
	}
	cp, err := getClusterParams(env)
	if err != nil {
		t.Fatal(err)
	}
	if cp.K != 5 || cp.FromYear != 2001 || cp.ToYear != 2024 {
		t.Errorf("unexpected cluster params %+v", cp)
	}
	fcfg, err := getForecastConfig(env)
	if err != nil {
		t.Fatal(err)
	}
	if fcfg.Method != forecast.MethodLinear || fcfg.Days != 14 {
		t.Errorf("unexpected forecast config %+v", fcfg)
	}

	session.Set(EnvKeyForecastMethod, "prophet")
	if _, err := getForecastConfig(env); err == nil {
		t.Error("expected error for unknown forecast method")
	}
}

func TestMalformedNumbersAreErrors(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
		get   func(env *model.Env) error
	}{
		{"anomaly window", EnvKeyAnomalyWindow, "1O", func(env *model.Env) error {
			_, err := getAnomalyConfig(env)
			return err
		}},
		{"anomaly threshold", EnvKeyAnomalyThreshold, "2,5", func(env *model.Env) error {
			_, err := getAnomalyConfig(env)
			return err
		}},
		{"anomaly epsilon", EnvKeyAnomalyEpsilon, "tiny", func(env *model.Env) error {
			_, err := getAnomalyConfig(env)
			return err
		}},
		{"cluster k", EnvKeyClusterK, "three", func(env *model.Env) error {
			_, err := getClusterParams(env)
			return err
		}},
		{"cluster from year", EnvKeyClusterFromYear, "2001.5", func(env *model.Env) error {
			_, err := getClusterParams(env)
			return err
		}},
		{"fetch retries", EnvKeyFetchRetries, "not-a-number", func(env *model.Env) error {
			_, err := getClientConfig(env)
			return err
		}},
		{"fetch timeout", EnvKeyFetchTimeout, "soon", func(env *model.Env) error {
			_, err := getClientConfig(env)
			return err
		}},
		{"forecast days", EnvKeyForecastDays, "a week", func(env *model.Env) error {
			_, err := getForecastConfig(env)
			return err
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tc := ticat.NewTiCatForTest()
			tc.Env.GetLayer(model.EnvLayerSession).Set(tt.key, tt.value)
			err := tt.get(tc.Env)
			if err == nil {
				t.Fatalf("expected an error for %s=%q", tt.key, tt.value)
			}
			if !strings.Contains(err.Error(), tt.key) {
				t.Errorf("error should name the key %s: %v", tt.key, err)
			}
		})
	}
}

func TestEnvNumbersTrimmedAndDefaulted(t *testing.T) {
	tc := ticat.NewTiCatForTest()
	env := tc.Env
	env.GetLayer(model.EnvLayerSession).Set(EnvKeyAnomalyWindow, " 12 ")

	if n, err := getEnvInt(env, EnvKeyAnomalyWindow, 30); err != nil || n != 12 {
		t.Errorf("getEnvInt() = %d, %v, want 12", n, err)
	}
	if f, err := getEnvFloat(env, EnvKeyAnomalyThreshold, 3.0); err != nil || f != 3.0 {
		t.Errorf("unset key should give the default, got %v, %v", f, err)
	}
}
