package appconf

type Environment int

const (
	Development Environment = iota
	Test
	Production
)

// Config holds service-level configuration shared across the application.
type Config struct {
	Port      int
	Env       Environment
	RateLimit int
	Verbose   bool
}

// EnvFlagToEnvironment converts an environment flag value to an Environment.
// Unknown values default to Development.
func EnvFlagToEnvironment(envFlag string) Environment {
	switch envFlag {
	case "production":
		return Production
	case "test":
		return Test
	default:
		return Development
	}
}

func (e Environment) String() string {
	switch e {
	case Production:
		return "production"
	case Test:
		return "test"
	default:
		return "development"
	}
}
