package loader

// Config holds the loader configuration.
type Config struct {
	// Verify enables read-back verification after chunk writes
	Verify bool

	// ProgressCallback is called as the load advances (optional)
	ProgressCallback ProgressCallback

	// Logger is used for logging operations (optional)
	Logger Logger
}

// defaultConfig returns the default configuration.
func defaultConfig() Config {
	return Config{
		Verify: true,
	}
}

// Option is a functional option for configuring the Loader.
type Option func(*Config)

// WithVerify enables or disables read-back verification after writes.
// Default is true.
//
// Example:
//
//	l := loader.New(device, loader.WithVerify(false))
func WithVerify(verify bool) Option {
	return func(c *Config) {
		c.Verify = verify
	}
}

// WithProgressCallback sets a callback function to track load progress.
//
// Example:
//
//	l := loader.New(device,
//	    loader.WithProgressCallback(func(p loader.Progress) {
//	        fmt.Printf("[%s] core %d/%d\n", p.Phase, p.CurrentCore, p.TotalCores)
//	    }),
//	)
func WithProgressCallback(callback ProgressCallback) Option {
	return func(c *Config) {
		c.ProgressCallback = callback
	}
}

// WithLogger sets a logger for loader operations.
//
// Example:
//
//	l := loader.New(device, loader.WithLogger(myLogger))
func WithLogger(logger Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}
