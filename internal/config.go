// Runtime configuration.
//
// The configuration is loaded from a YAML file, with the following structure:
//
//  gthreads_config:
//    log_config:
//      ...
//    scheduler_config:
//      ...
//    thread_table_config:
//      ...
//
// A host application that embeds this package is free to build a
// *RuntimeConfig programmatically instead (the common case for a library);
// YAML loading exists for hosts that want file-based overrides, using the
// same single-section convention as other YAML config files in this
// ecosystem.

package gthreads_internal

import (
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	RUNTIME_CONFIG_SECTION_NAME = "gthreads_config"

	SCHEDULER_CONFIG_POLICY_DEFAULT                     = "round_robin"
	SCHEDULER_CONFIG_STARVATION_FORCE_THRESHOLD_DEFAULT = StarvationForceThreshold

	THREAD_TABLE_CONFIG_MAX_TASKS_DEFAULT   = MaxTasks
	THREAD_TABLE_CONFIG_MAX_TICKETS_DEFAULT = MaxTickets
)

// SchedulerConfig holds the tunables for the schedule() tick loop.
type SchedulerConfig struct {
	// Scheduling discipline: "round_robin", "priority" or "lottery".
	Policy string `yaml:"policy"`
	// Interval between preemption ticks.
	TickInterval time.Duration `yaml:"tick_interval"`
	// Starvation count past which priority+aging forces a selection
	// regardless of computed priority. Loaded into the config only: the
	// scheduler and the priority policy use the StarvationForceThreshold
	// constant, not this field.
	StarvationForceThreshold int `yaml:"starvation_force_threshold"`
}

func DefaultSchedulerConfig() *SchedulerConfig {
	return &SchedulerConfig{
		Policy:                   SCHEDULER_CONFIG_POLICY_DEFAULT,
		TickInterval:             TickInterval,
		StarvationForceThreshold: SCHEDULER_CONFIG_STARVATION_FORCE_THRESHOLD_DEFAULT,
	}
}

// ThreadTableConfig holds the thread-control-table capacity tunables.
type ThreadTableConfig struct {
	// Maximum number of concurrently live tasks, including the initial one.
	MaxTasks int `yaml:"max_tasks"`
	// Upper bound on tickets per task. Loaded into the config only: Spawn
	// clamps tickets to the MaxTickets constant, not this field.
	MaxTickets int `yaml:"max_tickets"`
}

func DefaultThreadTableConfig() *ThreadTableConfig {
	return &ThreadTableConfig{
		MaxTasks:   THREAD_TABLE_CONFIG_MAX_TASKS_DEFAULT,
		MaxTickets: THREAD_TABLE_CONFIG_MAX_TICKETS_DEFAULT,
	}
}

// RuntimeConfig is the top-level configuration for a runtime instance.
type RuntimeConfig struct {
	LoggerConfig      *LoggerConfig      `yaml:"log_config"`
	SchedulerConfig   *SchedulerConfig   `yaml:"scheduler_config"`
	ThreadTableConfig *ThreadTableConfig `yaml:"thread_table_config"`
}

func DefaultRuntimeConfig() *RuntimeConfig {
	return &RuntimeConfig{
		LoggerConfig:      DefaultLoggerConfig(),
		SchedulerConfig:   DefaultSchedulerConfig(),
		ThreadTableConfig: DefaultThreadTableConfig(),
	}
}

// LoadConfig loads the configuration from the specified YAML file (or, for
// testing, from a pre-read buffer). Only the gthreads_config section is
// recognized; an absent section leaves all defaults in place.
func LoadConfig(cfgFile string, buf []byte) (*RuntimeConfig, error) {
	if buf == nil {
		f, err := os.Open(cfgFile)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		buf, err = io.ReadAll(f)
		if err != nil {
			return nil, fmt.Errorf("file: %q: %v", cfgFile, err)
		}
	}

	docNode := yaml.Node{}
	err := yaml.Unmarshal(buf, &docNode)
	if err != nil {
		return nil, fmt.Errorf("file: %q: %v", cfgFile, err)
	}

	runtimeConfig := DefaultRuntimeConfig()
	if docNode.Kind == yaml.DocumentNode && len(docNode.Content) > 0 {
		rootNode := docNode.Content[0]
		if rootNode.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("file: %q: invalid YAML root node %q", cfgFile, rootNode.Tag)
		}
		matched := false
		for _, n := range rootNode.Content {
			if n.Kind == yaml.ScalarNode {
				matched = n.Value == RUNTIME_CONFIG_SECTION_NAME
				continue
			}
			if n.Kind == yaml.MappingNode && matched {
				if err = n.Decode(runtimeConfig); err != nil {
					return nil, fmt.Errorf("file: %q: %v", cfgFile, err)
				}
			}
			matched = false
		}
	}

	return runtimeConfig, nil
}
