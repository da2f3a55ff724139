package types

// DisplayConfig represents the configuration for the LED matrix.
// Driver is one of "framebuffer", "gpiocdev" or "periph".
type DisplayConfig struct {
	Width       int    `json:"width" yaml:"width"`
	Height      int    `json:"height" yaml:"height"`
	Brightness  int    `json:"brightness" yaml:"brightness"`
	BitDepth    int    `json:"bit_depth" yaml:"bit_depth"`
	ColorOrder  string `json:"color_order" yaml:"color_order"`
	Driver      string `json:"driver" yaml:"driver"`
	Chip        string `json:"chip" yaml:"chip"`
	RGBPins     []int  `json:"rgb_pins" yaml:"rgb_pins"`
	AddrPins    []int  `json:"addr_pins" yaml:"addr_pins"`
	ClockPin    int    `json:"clock_pin" yaml:"clock_pin"`
	LatchPin    int    `json:"latch_pin" yaml:"latch_pin"`
	OEPin       int    `json:"oe_pin" yaml:"oe_pin"`
	PlaneTimeUS int    `json:"plane_time_us" yaml:"plane_time_us"`
}

// NetworkConfig represents the configuration for fetching data
type NetworkConfig struct {
	TimeoutSeconds    float64 `json:"timeout" yaml:"timeout"`
	RetryDelaySeconds float64 `json:"retry_delay" yaml:"retry_delay"`
	LocalFile         string  `json:"local_file" yaml:"local_file"`
	IOBaseURL         string  `json:"io_base_url" yaml:"io_base_url"`
}

// StatusConfig represents the configuration for the status LED
type StatusConfig struct {
	// Driver is one of "none", "log" or "gpiocdev".
	Driver    string `json:"driver" yaml:"driver"`
	Chip      string `json:"chip" yaml:"chip"`
	Pins      []int  `json:"pins" yaml:"pins"`
	ActiveLow bool   `json:"active_low" yaml:"active_low"`
}
