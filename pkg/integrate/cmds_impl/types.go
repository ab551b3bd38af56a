package impl

import (
	"sync/atomic"
	"time"
)

type OutputParams struct {
	Dir  string
	JSON bool
}

type ClusterParams struct {
	K        int
	FromYear int
	ToYear   int
}

type FetchParams struct {
	DataDir  string
	CacheDir string
	Cities   []string
	// CitiesFile is an optional YAML city list, empty means the built-in ten.
	CitiesFile string
	Start      time.Time
	End        time.Time
	Delay      time.Duration
	Refresh    bool
}

// progress feeds the [done/total] column of log lines.
type progress struct {
	done  atomic.Int32
	total int
}

func (p *progress) GetDone() int  { return int(p.done.Load()) }
func (p *progress) GetTotal() int { return p.total }
