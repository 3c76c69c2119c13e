package launch

import (
	"fmt"
)

// Job configuration field names.
const (
	tasksKey            = "tasks"
	tasksPerNodeKey     = "tasks_per_node"
	tasksPerSocketKey   = "tasks_per_socket"
	nodesKey            = "nodes"
	cpusPerTaskKey      = "cpus_per_task"
	gpusPerTaskKey      = "gpus_per_task"
	threadsPerCoreKey   = "threads_per_core"
	accountKey          = "account"
	partitionKey        = "partition"
	bindKey             = "bind"
	distributeLocalKey  = "distribute_local"
	distributeRemoteKey = "distribute_remote"
)

// DumpConfig serializes the job; unset fields are omitted.
func (j Job) DumpConfig() Config {
	cfg := Config{}

	setInt := func(name string, value *int) {
		if value != nil {
			cfg[name] = *value
		}
	}
	setInt(tasksKey, j.Tasks)
	setInt(tasksPerNodeKey, j.TasksPerNode)
	setInt(tasksPerSocketKey, j.TasksPerSocket)
	setInt(nodesKey, j.Nodes)
	setInt(cpusPerTaskKey, j.CpusPerTask)
	setInt(gpusPerTaskKey, j.GpusPerTask)
	setInt(threadsPerCoreKey, j.ThreadsPerCore)

	if j.Account != nil {
		cfg[accountKey] = *j.Account
	}
	if j.Partition != nil {
		cfg[partitionKey] = *j.Partition
	}
	if j.Bind != nil {
		cfg[bindKey] = j.Bind.String()
	}
	if j.DistributeLocal != nil {
		cfg[distributeLocalKey] = j.DistributeLocal.String()
	}
	if j.DistributeRemote != nil {
		cfg[distributeRemoteKey] = j.DistributeRemote.String()
	}

	return cfg
}

// JobFromConfig reconstructs a job from its serialized form.
func JobFromConfig(cfg Config) (Job, error) {
	var job Job
	var err error

	readInt := func(name string, target **int) {
		if err != nil {
			return
		}
		var value *int
		value, err = configOptionalInt(cfg, name)
		*target = value
	}
	readInt(tasksKey, &job.Tasks)
	readInt(tasksPerNodeKey, &job.TasksPerNode)
	readInt(tasksPerSocketKey, &job.TasksPerSocket)
	readInt(nodesKey, &job.Nodes)
	readInt(cpusPerTaskKey, &job.CpusPerTask)
	readInt(gpusPerTaskKey, &job.GpusPerTask)
	readInt(threadsPerCoreKey, &job.ThreadsPerCore)
	if err != nil {
		return Job{}, err
	}

	if account, err := configString(cfg, accountKey); err != nil {
		return Job{}, err
	} else if account != "" {
		job.Account = &account
	}
	if partition, err := configString(cfg, partitionKey); err != nil {
		return Job{}, err
	} else if partition != "" {
		job.Partition = &partition
	}

	if s, err := configString(cfg, bindKey); err != nil {
		return Job{}, err
	} else if s != "" {
		var bind CpuBinding
		if err := bind.FromString(s); err != nil {
			return Job{}, err
		}
		job.Bind = &bind
	}

	if s, err := configString(cfg, distributeLocalKey); err != nil {
		return Job{}, err
	} else if s != "" {
		var dist CpuDistribution
		if err := dist.FromString(s); err != nil {
			return Job{}, err
		}
		job.DistributeLocal = &dist
	}

	if s, err := configString(cfg, distributeRemoteKey); err != nil {
		return Job{}, err
	} else if s != "" {
		var dist CpuDistribution
		if err := dist.FromString(s); err != nil {
			return Job{}, err
		}
		job.DistributeRemote = &dist
	}

	return job, nil
}

// configOptionalInt reads an optional integer field. TOML hands integers
// over as int64 and YAML as int, so both (plus the float forms some
// decoders produce) are accepted.
func configOptionalInt(cfg Config, name string) (*int, error) {
	raw, ok := cfg[name]
	if !ok || raw == nil {
		return nil, nil
	}

	var value int
	switch v := raw.(type) {
	case int:
		value = v
	case int64:
		value = int(v)
	case uint64:
		value = int(v)
	case float64:
		value = int(v)
		if float64(value) != v {
			return nil, fmt.Errorf("field `%s` must be an integer, got %v", name, v)
		}
	default:
		return nil, fmt.Errorf("field `%s` must be an integer, got %T", name, raw)
	}

	return &value, nil
}
