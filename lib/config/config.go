/*package config reads and validates the analysis configuration file. The
file uses gcfg's ini-like syntax with a single [core] section:

    [core]
    Threads = 4
    LeafSize = 32
    DefaultKernel = cubic-spline
    SmoothParticles = 32
    CacheDir = /tmp/pynbody-cache

Every field is optional. Missing fields take the values in DefaultConfig.*/
package config

import (
	"fmt"

	"gopkg.in/gcfg.v1"

	"github.com/Martin-Rey/pynbody/lib/kernel"
)

// Config is the [core] section of the configuration file.
type Config struct {
	// Threads is the number of worker goroutines used by parallel loops
	// and file loading. Zero means one worker per CPU.
	Threads int
	// LeafSize is the maximum number of particles stored in a single
	// KD-tree leaf.
	LeafSize int
	// DefaultKernel names the smoothing kernel snapshots use unless told
	// otherwise: "cubic-spline", "wendland-c2", or "top-hat".
	DefaultKernel string
	// SmoothParticles is the neighbor count, k, used to define smoothing
	// lengths: h is half the distance to the k-th nearest neighbor.
	SmoothParticles int
	// CacheDir, if non-empty, is the directory derived arrays are
	// persisted to between runs.
	CacheDir string
}

type configFile struct {
	Core Config
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	return Config{
		Threads:         0,
		LeafSize:        32,
		DefaultKernel:   "cubic-spline",
		SmoothParticles: 32,
		CacheDir:        "",
	}
}

// Read parses the configuration file fname on top of DefaultConfig and
// validates the result.
func Read(fname string) (Config, error) {
	file := configFile{Core: DefaultConfig()}
	if err := gcfg.ReadFileInto(&file, fname); err != nil {
		return Config{}, fmt.Errorf("Could not parse the configuration "+
			"file %s: %s", fname, err.Error())
	}

	if err := file.Core.CheckInit(); err != nil {
		return Config{}, fmt.Errorf("The configuration file %s is "+
			"invalid: %s", fname, err.Error())
	}
	return file.Core, nil
}

// CheckInit returns an error describing the first invalid field in c.
func (c *Config) CheckInit() error {
	if c.Threads < 0 {
		return fmt.Errorf("The Threads variable is %d, but it must be "+
			"non-negative. Use 0 to run one worker per CPU.", c.Threads)
	} else if c.LeafSize < 1 {
		return fmt.Errorf("The LeafSize variable is %d, but it must be "+
			"at least 1.", c.LeafSize)
	} else if c.SmoothParticles < 1 {
		return fmt.Errorf("The SmoothParticles variable is %d, but it "+
			"must be at least 1.", c.SmoothParticles)
	}
	if _, err := kernel.Get(c.DefaultKernel); err != nil {
		return fmt.Errorf("The DefaultKernel variable is invalid: %s",
			err.Error())
	}
	return nil
}
