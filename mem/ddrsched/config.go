package ddrsched

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sarchlab/attila/mem/ddrsched/internal/bankselect"
	"github.com/sarchlab/attila/mem/ddrsched/internal/switchmode"
	"gopkg.in/yaml.v3"
)

// SchedulerKind names a channel scheduler.
type SchedulerKind string

// The schedulers that a controller can use.
const (
	SchedulerBankQueue SchedulerKind = "bankqueue"
	SchedulerFifo      SchedulerKind = "fifo"
	SchedulerRWFifo    SchedulerKind = "rwfifo"
)

// TimingConfig holds the GDDR3 timing parameters, in cycles.
type TimingConfig struct {
	TRRD         uint64 `json:"t_rrd" yaml:"t_rrd"`
	TRCD         uint64 `json:"t_rcd" yaml:"t_rcd"`
	TWTR         uint64 `json:"t_wtr" yaml:"t_wtr"`
	TRTW         uint64 `json:"t_rtw" yaml:"t_rtw"`
	TWR          uint64 `json:"t_wr" yaml:"t_wr"`
	TRP          uint64 `json:"t_rp" yaml:"t_rp"`
	CASLatency   uint64 `json:"cas_latency" yaml:"cas_latency"`
	WriteLatency uint64 `json:"write_latency" yaml:"write_latency"`
}

// Config describes a memory channel and the scheduler that drives it.
type Config struct {
	// Banks is the number of banks of the channel.
	Banks int `json:"banks" yaml:"banks"`

	// Rows and Cols give the size of each bank. A column holds a 32-bit word.
	Rows int `json:"rows" yaml:"rows"`
	Cols int `json:"cols" yaml:"cols"`

	// BurstLength is the number of words moved by a read or a write command.
	BurstLength int `json:"burst_length" yaml:"burst_length"`

	// BytesPerCycle is the width of the data pins.
	BytesPerCycle int `json:"bytes_per_cycle" yaml:"bytes_per_cycle"`

	// Capacity is the number of transactions the scheduler can hold.
	Capacity int `json:"capacity" yaml:"capacity"`

	Scheduler SchedulerKind `json:"scheduler" yaml:"scheduler"`

	// ClosePage precharges banks that have nothing pending.
	ClosePage bool `json:"close_page" yaml:"close_page"`

	// BankPolicy is a whitespace-separated chain of bank comparators.
	BankPolicy string `json:"bank_policy" yaml:"bank_policy"`

	// Seed feeds the RANDOM bank comparator.
	Seed int64 `json:"seed" yaml:"seed"`

	SwitchMode switchmode.Config `json:"switch_mode" yaml:"switch_mode"`

	// AggressiveActive lets the active manager open rows for the direction
	// that is not being served.
	AggressiveActive bool `json:"aggressive_active" yaml:"aggressive_active"`

	// ManagerOrder is 0 to run the active manager first, 1 to run the
	// precharge manager first.
	ManagerOrder     int  `json:"manager_order" yaml:"manager_order"`
	DisableActive    bool `json:"disable_active_manager" yaml:"disable_active_manager"`
	DisablePrecharge bool `json:"disable_precharge_manager" yaml:"disable_precharge_manager"`
	PerBankState     bool `json:"per_bank_state" yaml:"per_bank_state"`

	// DedicatedReads is the number of read entries of the rwfifo scheduler.
	// 0 splits the capacity evenly.
	DedicatedReads int `json:"dedicated_reads" yaml:"dedicated_reads"`

	Timing TimingConfig `json:"timing" yaml:"timing"`
}

// DefaultConfig returns the configuration of a GDDR3 channel with a bank
// queue scheduler.
func DefaultConfig() *Config {
	return &Config{
		Banks:         8,
		Rows:          1024,
		Cols:          1024,
		BurstLength:   8,
		BytesPerCycle: 8,
		Capacity:      32,
		Scheduler:     SchedulerBankQueue,
		BankPolicy:    "OLDEST_FIRST",
		SwitchMode: switchmode.Config{
			Policy:    switchmode.PolicyTwoCounters,
			MaxReads:  4,
			MaxWrites: 4,
		},
		Timing: TimingConfig{
			TRRD:         8,
			TRCD:         12,
			TWTR:         5,
			TRTW:         2,
			TWR:          10,
			TRP:          12,
			CASLatency:   9,
			WriteLatency: 4,
		},
	}
}

// LoadConfig reads a YAML file on top of the default configuration.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read controller config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse controller config: %w", err)
	}

	return config, nil
}

// SaveConfig writes the configuration to a YAML file.
func (c *Config) SaveConfig(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to serialize controller config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write controller config file: %w", err)
	}

	return nil
}

type envVar struct {
	name string
	set  func(v string) error
}

func intVar(p *int) func(string) error {
	return func(v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}

		*p = n

		return nil
	}
}

func uintVar(p *uint64) func(string) error {
	return func(v string) error {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return err
		}

		*p = n

		return nil
	}
}

func boolVar(p *bool) func(string) error {
	return func(v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}

		*p = b

		return nil
	}
}

func (c *Config) envVars() []envVar {
	return []envVar{
		{"ATTILA_BANKS", intVar(&c.Banks)},
		{"ATTILA_ROWS", intVar(&c.Rows)},
		{"ATTILA_COLS", intVar(&c.Cols)},
		{"ATTILA_BURST_LENGTH", intVar(&c.BurstLength)},
		{"ATTILA_BYTES_PER_CYCLE", intVar(&c.BytesPerCycle)},
		{"ATTILA_CAPACITY", intVar(&c.Capacity)},
		{"ATTILA_SCHEDULER", func(v string) error {
			c.Scheduler = SchedulerKind(strings.ToLower(v))
			return nil
		}},
		{"ATTILA_CLOSE_PAGE", boolVar(&c.ClosePage)},
		{"ATTILA_BANK_POLICY", func(v string) error {
			c.BankPolicy = v
			return nil
		}},
		{"ATTILA_SWITCH_MODE", func(v string) error {
			c.SwitchMode.Policy = v
			return nil
		}},
		{"ATTILA_MAX_CONSECUTIVE_READS", intVar(&c.SwitchMode.MaxReads)},
		{"ATTILA_MAX_CONSECUTIVE_WRITES", intVar(&c.SwitchMode.MaxWrites)},
		{"ATTILA_AGGRESSIVE_ACTIVE", boolVar(&c.AggressiveActive)},
		{"ATTILA_MANAGER_ORDER", intVar(&c.ManagerOrder)},
		{"ATTILA_DISABLE_ACTIVE_MANAGER", boolVar(&c.DisableActive)},
		{"ATTILA_DISABLE_PRECHARGE_MANAGER", boolVar(&c.DisablePrecharge)},
		{"ATTILA_PER_BANK_STATE", boolVar(&c.PerBankState)},
		{"ATTILA_DEDICATED_READS", intVar(&c.DedicatedReads)},
		{"ATTILA_T_RRD", uintVar(&c.Timing.TRRD)},
		{"ATTILA_T_RCD", uintVar(&c.Timing.TRCD)},
		{"ATTILA_T_WTR", uintVar(&c.Timing.TWTR)},
		{"ATTILA_T_RTW", uintVar(&c.Timing.TRTW)},
		{"ATTILA_T_WR", uintVar(&c.Timing.TWR)},
		{"ATTILA_T_RP", uintVar(&c.Timing.TRP)},
		{"ATTILA_CAS_LATENCY", uintVar(&c.Timing.CASLatency)},
		{"ATTILA_WRITE_LATENCY", uintVar(&c.Timing.WriteLatency)},
	}
}

// ApplyEnv overrides the configuration with the ATTILA_* environment
// variables. Variables in a .env file in the working directory are loaded
// first. A missing .env file is not an error.
func (c *Config) ApplyEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to load .env file: %w", err)
	}

	for _, v := range c.envVars() {
		value, ok := os.LookupEnv(v.name)
		if !ok || value == "" {
			continue
		}

		if err := v.set(value); err != nil {
			return fmt.Errorf("invalid value %q of %s: %w", value, v.name, err)
		}
	}

	return nil
}

func isPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

// Validate checks that the configuration describes a controller that can be
// built.
func (c *Config) Validate() error {
	if c.Banks <= 0 || !isPowerOfTwo(c.Banks) {
		return fmt.Errorf("banks must be a positive power of two, got %d",
			c.Banks)
	}

	if !isPowerOfTwo(c.Rows) || !isPowerOfTwo(c.Cols) {
		return fmt.Errorf("rows and cols must be powers of two, got %d and %d",
			c.Rows, c.Cols)
	}

	if !isPowerOfTwo(c.BurstLength) {
		return fmt.Errorf("burst_length must be a power of two, got %d",
			c.BurstLength)
	}

	if c.BurstLength > c.Cols {
		return fmt.Errorf("a burst of %d words does not fit a row of %d "+
			"columns", c.BurstLength, c.Cols)
	}

	if c.BytesPerCycle <= 0 || (4*c.BurstLength)%c.BytesPerCycle != 0 {
		return fmt.Errorf("bytes_per_cycle %d does not divide a burst of "+
			"%d bytes", c.BytesPerCycle, 4*c.BurstLength)
	}

	if err := c.validateScheduler(); err != nil {
		return err
	}

	if c.Timing.CASLatency == 0 || c.Timing.WriteLatency == 0 {
		return fmt.Errorf("cas_latency and write_latency must be > 0")
	}

	return nil
}

func (c *Config) validateScheduler() error {
	switch c.Scheduler {
	case SchedulerFifo:
		if c.Capacity <= 1 {
			return fmt.Errorf("fifo capacity must be > 1, got %d", c.Capacity)
		}

		return nil
	case SchedulerRWFifo:
		if c.DedicatedReads < 0 || c.DedicatedReads >= c.Capacity {
			return fmt.Errorf("%d dedicated reads do not fit a capacity of %d",
				c.DedicatedReads, c.Capacity)
		}
	case SchedulerBankQueue:
		if c.Capacity <= 0 || c.Capacity%c.Banks != 0 {
			return fmt.Errorf("capacity %d is not a multiple of %d banks",
				c.Capacity, c.Banks)
		}

		if c.ManagerOrder != 0 && c.ManagerOrder != 1 {
			return fmt.Errorf("manager_order must be 0 or 1, got %d",
				c.ManagerOrder)
		}

		if err := bankselect.ValidatePolicy(c.BankPolicy); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown scheduler %q", c.Scheduler)
	}

	return c.SwitchMode.Validate()
}
