package engine

// Config configures an Engine. Use the With* functions to set fields
// other than the zero value.
type Config struct {
	instrument   string
	mailboxDepth int
}

// Option configures a Config.
type Option func(*Config)

func defaultConfig(instrument string) Config {
	return Config{instrument: instrument, mailboxDepth: 1000}
}

// WithMailboxDepth sets how many commands can queue before SubmitOrder
// and CancelOrder start reporting the mailbox as full.
func WithMailboxDepth(n int) Option {
	return func(c *Config) {
		if n > 0 {
			c.mailboxDepth = n
		}
	}
}
