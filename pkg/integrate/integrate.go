package integrate

import (
	"fmt"
	"os"
	"path/filepath"

	"climate-analyzer/pkg/logger"

	"github.com/innerr/ticat/pkg/core/model"
	"github.com/innerr/ticat/pkg/ticat"
)

func Integrate(tc *ticat.TiCat) error {
	execPath, err := os.Executable()
	if err != nil {
		execPath = "."
	}
	envPath := filepath.Join(filepath.Dir(execPath), "climate-analyzer.env")

	if err := tc.LoadEnvFile(envPath); err != nil {
		return fmt.Errorf("Error loading env file: %v\n", err)
	}

	tc.AddIntegratedModVersion("climate-analyzer 1.0")

	defEnv := tc.Env.GetLayer(model.EnvLayer3RdDefault)

	defEnv.Set("sys.hub.init-repo", "")
	defEnv.SetBool("display.utf8", false)
	defEnv.SetBool("display.meow", false)
	defEnv.SetBool("display.color", true)

	for _, e := range configEntries {
		defEnv.Set(e.key, e.def)
	}

	RegisterCmds(tc.Cmds)
	RegisterHelp(tc)

	logger.SetVerbose(getEnvBool(tc.Env, EnvKeyVerbose))
	logger.SetColorGetter(func() bool {
		return tc.Env.GetBool("display.color")
	})

	return nil
}
